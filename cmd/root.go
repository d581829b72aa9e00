package cmd

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/salary-predictor/internal/artifact"
	"github.com/spigell/salary-predictor/internal/countries"
	"github.com/spigell/salary-predictor/internal/gbm"
	"github.com/spigell/salary-predictor/internal/server"
	"github.com/spigell/salary-predictor/internal/training"
)

const (
	app       = "salary-predictor"
	envPrefix = "SALARY_PREDICTOR"
)

type Config struct {
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Data      DataConfig      `mapstructure:"data"`
	Training  TrainingConfig  `mapstructure:"training"`
	Serve     ServeConfig     `mapstructure:"serve"`
	Predict   PredictConfig   `mapstructure:"predict"`
}

type ArtifactsConfig struct {
	Dir            string `mapstructure:"dir"`
	artifact.Paths `mapstructure:",squash"`
}

// paths fills every unset artifact path with its default name under Dir.
func (c ArtifactsConfig) paths() artifact.Paths {
	p := artifact.DefaultPaths(c.Dir)
	if c.Model != "" {
		p.Model = c.Model
	}
	if c.Encoders != "" {
		p.Encoders = c.Encoders
	}
	if c.Density != "" {
		p.Density = c.Density
	}
	return p
}

type DataConfig struct {
	Path              string   `mapstructure:"path"`
	TestRatio         float64  `mapstructure:"test-ratio"`
	Seed              int64    `mapstructure:"seed"`
	DropColumns       []string `mapstructure:"drop-columns"`
	OutlierColumn     string   `mapstructure:"outlier-column"`
	OutlierMultiplier float64  `mapstructure:"outlier-multiplier"`
	Countries         string   `mapstructure:"countries"`
}

type TrainingConfig struct {
	Rounds     int            `mapstructure:"rounds"`
	Tune       bool           `mapstructure:"tune"`
	Iterations int            `mapstructure:"iterations"`
	Seed       int64          `mapstructure:"seed"`
	BaseYear   int            `mapstructure:"base-year"`
	Params     gbm.Params     `mapstructure:"params"`
	Grid       *training.Grid `mapstructure:"grid"`
}

type ServeConfig struct {
	server.Config   `mapstructure:",squash"`
	ReloadTokenFile string        `mapstructure:"reload-token-file"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

type PredictConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "salary-predictor trains a salary regression model and serves its predictions",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("serve.reload-token", envPrefix+"_RELOAD_TOKEN"); err != nil {
		log.Fatalf("binding %s_RELOAD_TOKEN environment variable: %v", envPrefix, err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is salary-predictor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("artifacts.dir", "artifacts")
	v.SetDefault("artifacts.model", "")
	v.SetDefault("artifacts.encoders", "")
	v.SetDefault("artifacts.density", "")

	v.SetDefault("data.path", filepath.Join("data", "ds_salaries.csv"))
	v.SetDefault("data.test-ratio", 0.2)
	v.SetDefault("data.seed", 42)
	v.SetDefault("data.drop-columns", []string{"salary_currency", "salary"})
	v.SetDefault("data.outlier-column", "salary_in_usd")
	v.SetDefault("data.outlier-multiplier", 1.5)
	v.SetDefault("data.countries", "")

	v.SetDefault("training.rounds", training.DefaultRounds)
	v.SetDefault("training.tune", false)
	v.SetDefault("training.iterations", training.DefaultIterations)
	v.SetDefault("training.seed", 42)
	v.SetDefault("training.base-year", 2024)

	v.SetDefault("serve.listen", ":8000")
	v.SetDefault("serve.reload-token-file", "")
	v.SetDefault("serve.reload-token", "")
	v.SetDefault("serve.rate-limit", 0)
	v.SetDefault("serve.burst", 10)
	v.SetDefault("serve.max-body-bytes", 1<<20)
	v.SetDefault("serve.read-timeout", "15s")
	v.SetDefault("serve.write-timeout", "30s")
	v.SetDefault("serve.shutdown-timeout", "10s")

	v.SetDefault("predict.url", "http://localhost:8000")
	v.SetDefault("predict.timeout", "30s")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The default config file is optional; an explicit one must parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	config := &Config{
		Training: TrainingConfig{Params: gbm.DefaultParams()},
	}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}
	if err := config.Training.Params.Validate(); err != nil {
		return nil, fmt.Errorf("training.params: %w", err)
	}
	if config.Training.Grid != nil {
		if err := config.Training.Grid.Validate(); err != nil {
			return nil, fmt.Errorf("training.grid: %w", err)
		}
	}
	return config, nil
}

// loadCountries returns the embedded reference table unless path overrides it.
func loadCountries(fsys afero.Fs, path string) (*countries.Table, error) {
	if path == "" {
		return countries.Default(), nil
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open country table: %w", err)
	}
	defer f.Close()

	return countries.Load(f)
}
