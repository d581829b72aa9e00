package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/salary-predictor/internal/artifact"
	"github.com/spigell/salary-predictor/internal/features"
	"github.com/spigell/salary-predictor/internal/logger"
	"github.com/spigell/salary-predictor/internal/secrets"
	"github.com/spigell/salary-predictor/internal/server"
	"github.com/spigell/salary-predictor/internal/serving"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve predictions over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default is serve.listen)")
	viper.BindPFlag("serve.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	fsys := afero.NewOsFs()
	table, err := loadCountries(fsys, config.Data.Countries)
	if err != nil {
		logger.Fatal("loading country table", zap.Error(err))
	}

	paths := config.Artifacts.paths()
	loader := serving.StoreLoader{Store: &artifact.Store{Fs: fsys}, Paths: paths}
	artifacts, err := loader.Load(ctx)
	if err != nil {
		logger.Fatal("loading artifacts",
			zap.Error(err),
			zap.String("hint", "run the train command first or point artifacts.dir at a trained model"),
		)
	}
	logger.Info("artifacts loaded", runFields(artifacts, paths)...)

	predictor, err := serving.New(serving.Config{
		Artifacts: artifacts,
		Loader:    loader,
		Countries: table,
		Features:  features.Options{BaseYear: config.Training.BaseYear},
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("building the predictor", zap.Error(err))
	}

	token, err := secrets.LoadFs(fsys, secrets.Source{
		Name:  "reload token",
		Value: viper.GetString("serve.reload-token"),
		File:  config.Serve.ReloadTokenFile,
	})
	switch {
	case errors.Is(err, secrets.ErrNotConfigured):
		logger.Warn("reload endpoint is not protected",
			zap.String("hint", "set serve.reload-token-file or the "+envPrefix+"_RELOAD_TOKEN environment variable"),
		)
	case err != nil:
		logger.Fatal("loading reload token", zap.Error(err))
	}

	srvConfig := config.Serve.Config
	srvConfig.ReloadToken = token
	srv := server.New(srvConfig, predictor, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Serve.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("exiting", zap.String("reason", "shutdown complete"))
}

func runFields(a *serving.Artifacts, paths artifact.Paths) []zap.Field {
	return append(logger.RunFields(a.Booster.Metadata.RunID, paths.Model),
		zap.Int("trees", a.Booster.NumTrees()),
		zap.Int("best_iteration", a.Booster.BestIteration),
		zap.Int("job_titles", len(a.Density)),
	)
}
