package serving

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/salary-predictor/internal/artifact"
	"github.com/spigell/salary-predictor/internal/countries"
	"github.com/spigell/salary-predictor/internal/dataset"
	"github.com/spigell/salary-predictor/internal/gbm"
	"github.com/spigell/salary-predictor/internal/pipeline"
)

func records(n int, seed int64) []dataset.Record {
	rng := rand.New(rand.NewSource(seed))
	levels := []string{"EN", "MI", "SE", "EX"}
	titles := []string{"Data Scientist", "Data Engineer", "Analyst"}
	places := []string{"US", "GB", "DE"}

	out := make([]dataset.Record, n)
	for i := range out {
		level := rng.Intn(len(levels))
		salary := 50000 + float64(level)*40000 + rng.Float64()*10000
		out[i] = dataset.Record{
			WorkYear:          2021 + rng.Intn(3),
			ExperienceLevel:   levels[level],
			EmploymentType:    "FT",
			JobTitle:          titles[rng.Intn(len(titles))],
			Salary:            salary,
			SalaryCurrency:    "USD",
			SalaryInUSD:       salary,
			EmployeeResidence: places[rng.Intn(len(places))],
			RemoteRatio:       []int{0, 50, 100}[rng.Intn(3)],
			CompanyLocation:   places[rng.Intn(len(places))],
			CompanySize:       "M",
		}
	}
	return out
}

func trainArtifacts(t *testing.T, store *artifact.Store, paths artifact.Paths, seed int64) {
	t.Helper()

	params := gbm.DefaultParams()
	params.MinDataInLeaf = 5
	out, err := pipeline.Train(context.Background(), pipeline.Deps{Countries: countries.Default()}, pipeline.TrainInput{
		Records:    records(120, seed),
		Preprocess: pipeline.PreprocessOptions{OutlierColumn: dataset.ColSalaryInUSD},
		TestRatio:  0.2,
		SplitSeed:  seed,
		Params:     params,
		Rounds:     20,
	})
	require.NoError(t, err)
	require.NoError(t, out.Save(store, paths))
}

func newPredictor(t *testing.T) (*Predictor, StoreLoader) {
	t.Helper()

	store := &artifact.Store{Fs: afero.NewMemMapFs()}
	paths := artifact.DefaultPaths("artifacts")
	trainArtifacts(t, store, paths, 1)

	loader := StoreLoader{Store: store, Paths: paths}
	a, err := loader.Load(context.Background())
	require.NoError(t, err)

	p, err := New(Config{Artifacts: a, Loader: loader, Countries: countries.Default()})
	require.NoError(t, err)
	return p, loader
}

func TestPredictIsIndependentOfBatch(t *testing.T) {
	t.Parallel()

	p, _ := newPredictor(t)
	batch := records(5, 99)
	for i := range batch {
		batch[i].Salary, batch[i].SalaryCurrency, batch[i].SalaryInUSD = 0, "", 0
	}

	all, err := p.Predict(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, all, len(batch))

	for i, rec := range batch {
		one, err := p.Predict(context.Background(), []dataset.Record{rec})
		require.NoError(t, err)
		assert.InDelta(t, all[i], one[0], 1e-9, "record %d", i)
	}
}

func TestPredictUnseenCategories(t *testing.T) {
	t.Parallel()

	p, _ := newPredictor(t)
	rec := records(1, 7)[0]
	rec.JobTitle = "Chief Astronaut"
	rec.ExperienceLevel = "XX"

	preds, err := p.Predict(context.Background(), []dataset.Record{rec})
	require.NoError(t, err)
	assert.Len(t, preds, 1)
}

func TestPredictFailsWholeBatch(t *testing.T) {
	t.Parallel()

	p, _ := newPredictor(t)
	batch := records(3, 8)
	batch[2].EmployeeResidence = "ZZ"

	preds, err := p.Predict(context.Background(), batch)
	assert.ErrorIs(t, err, countries.ErrUnknownCountryCode)
	assert.Nil(t, preds)
}

func TestLoaderFailures(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	store := &artifact.Store{Fs: fsys}
	paths := artifact.DefaultPaths("artifacts")

	_, err := StoreLoader{Store: store, Paths: paths}.Load(context.Background())
	assert.ErrorIs(t, err, artifact.ErrMissing)

	trainArtifacts(t, store, paths, 2)
	require.NoError(t, afero.WriteFile(fsys, paths.Encoders, []byte("{"), 0o644))

	_, err = StoreLoader{Store: store, Paths: paths}.Load(context.Background())
	assert.ErrorIs(t, err, artifact.ErrLoad)
}

func TestLoaderRejectsStructurallyCorruptArtifacts(t *testing.T) {
	t.Parallel()

	t.Run("null encoder", func(t *testing.T) {
		t.Parallel()

		fsys := afero.NewMemMapFs()
		store := &artifact.Store{Fs: fsys}
		paths := artifact.DefaultPaths("artifacts")
		trainArtifacts(t, store, paths, 3)

		var encoders map[string]any
		_, err := store.Load(paths.Encoders, &encoders)
		require.NoError(t, err)
		encoders[dataset.ColExperienceLevel] = nil
		require.NoError(t, store.Save(paths.Encoders, encoders))

		_, err = StoreLoader{Store: store, Paths: paths}.Load(context.Background())
		assert.ErrorIs(t, err, artifact.ErrLoad)
	})

	t.Run("tree without leaves", func(t *testing.T) {
		t.Parallel()

		fsys := afero.NewMemMapFs()
		store := &artifact.Store{Fs: fsys}
		paths := artifact.DefaultPaths("artifacts")
		trainArtifacts(t, store, paths, 4)

		var model map[string]any
		_, err := store.Load(paths.Model, &model)
		require.NoError(t, err)
		model["trees"] = []map[string]any{{"nodes": []any{}, "leaves": []any{}}}
		require.NoError(t, store.Save(paths.Model, model))

		_, err = StoreLoader{Store: store, Paths: paths}.Load(context.Background())
		assert.ErrorIs(t, err, artifact.ErrLoad)
	})
}

func TestReloadSwapsArtifacts(t *testing.T) {
	t.Parallel()

	p, loader := newPredictor(t)
	before := p.Current()

	trainArtifacts(t, loader.Store, loader.Paths, 3)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Predict(context.Background(), records(2, 10))
			assert.NoError(t, err)
		}()
	}
	require.NoError(t, p.Reload(context.Background()))
	wg.Wait()

	assert.NotSame(t, before, p.Current())
	assert.NotEqual(t, before.Booster.Metadata.RunID, p.Current().Booster.Metadata.RunID)
}

func TestReloadKeepsCurrentOnFailure(t *testing.T) {
	t.Parallel()

	p, loader := newPredictor(t)
	before := p.Current()

	require.NoError(t, loader.Store.Fs.Remove(loader.Paths.Model))
	err := p.Reload(context.Background())
	assert.ErrorIs(t, err, artifact.ErrMissing)
	assert.Same(t, before, p.Current())

	noLoader, err := New(Config{Artifacts: before, Countries: countries.Default()})
	require.NoError(t, err)
	assert.True(t, errors.Is(noLoader.Reload(context.Background()), ErrNoReloader))
}

func TestNewValidatesArtifacts(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Artifacts: &Artifacts{}, Countries: countries.Default()})
	assert.Error(t, err)
}
