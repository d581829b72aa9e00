package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/dataset"
)

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Data []map[string]any `json:"data"`
}

// Bind implements render.Binder.
func (p *PredictRequest) Bind(_ *http.Request) error {
	if len(p.Data) == 0 {
		return errors.New("data must hold at least one record")
	}
	return nil
}

// PredictResponse is the body of a successful POST /predict.
type PredictResponse struct {
	Predictions []float64 `json:"predictions"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, statusResponse{Status: "ok"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req PredictRequest
	if err := render.Bind(r, &req); err != nil {
		log.Debug("rejecting prediction request", zap.Error(err))
		_ = render.Render(w, r, ErrInvalidRequest.WithDetails(err.Error()))
		return
	}

	records, err := dataset.DecodeRecords(req.Data)
	if err != nil {
		log.Debug("prediction payload failed validation", zap.Error(err))
		_ = render.Render(w, r, ErrValidationFailed.WithDetails(err.Error()))
		return
	}
	s.metrics.batchSize.Observe(float64(len(records)))

	preds, err := s.predictor.Predict(r.Context(), records)
	if err != nil {
		s.metrics.predictions.WithLabelValues("error").Add(float64(len(records)))
		log.Error("prediction failed", zap.Int("records", len(records)), zap.Error(err))
		_ = render.Render(w, r, ErrPredictionFailed)
		return
	}

	s.metrics.predictions.WithLabelValues("ok").Add(float64(len(preds)))
	render.JSON(w, r, PredictResponse{Predictions: preds})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.predictor.Reload(r.Context()); err != nil {
		s.metrics.reloads.WithLabelValues("error").Inc()
		s.logger.Error("artifact reload failed", zap.Error(err))
		_ = render.Render(w, r, ErrReloadFailed)
		return
	}

	s.metrics.reloads.WithLabelValues("ok").Inc()
	render.JSON(w, r, statusResponse{Status: "reloaded"})
}
