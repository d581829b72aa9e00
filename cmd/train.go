package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/manifoldco/promptui"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/artifact"
	"github.com/spigell/salary-predictor/internal/dataset"
	"github.com/spigell/salary-predictor/internal/features"
	"github.com/spigell/salary-predictor/internal/logger"
	"github.com/spigell/salary-predictor/internal/pipeline"
	"github.com/spigell/salary-predictor/internal/training"
)

var errOverwriteDeclined = errors.New("overwrite declined")

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the model and write its artifacts",
	Run: func(cmd *cobra.Command, _ []string) {
		train(cmd)
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringP("data", "f", "", "training csv (default is data.path from the config)")
	trainCmd.Flags().Bool("tune", false, "run the random hyperparameter search before the final fit")
	trainCmd.Flags().Int("iterations", 0, "random search iterations (default is training.iterations)")
	trainCmd.Flags().BoolP("yes", "y", false, "overwrite existing artifacts without asking")
	trainCmd.Flags().String("trials-csv", "", "write every search trial to this csv file")

	viper.BindPFlag("data.path", trainCmd.Flags().Lookup("data"))
	viper.BindPFlag("training.tune", trainCmd.Flags().Lookup("tune"))
	viper.BindPFlag("training.iterations", trainCmd.Flags().Lookup("iterations"))
}

func train(cmd *cobra.Command) {
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

	logger.Info("starting the training", zap.String("version", version), zap.String("data", config.Data.Path))

	fsys := afero.NewOsFs()
	records, err := readRecords(fsys, config.Data.Path)
	if err != nil {
		logger.Fatal("reading training data", zap.Error(err))
	}
	logger.Info("training data loaded", zap.Int("records", len(records)))

	table, err := loadCountries(fsys, config.Data.Countries)
	if err != nil {
		logger.Fatal("loading country table", zap.Error(err))
	}

	store := &artifact.Store{Fs: fsys}
	deps := pipeline.Deps{Logger: logger, Countries: table, Store: store}

	in := pipeline.TrainInput{
		Records: records,
		Preprocess: pipeline.PreprocessOptions{
			DropColumns:       config.Data.DropColumns,
			OutlierColumn:     config.Data.OutlierColumn,
			OutlierMultiplier: config.Data.OutlierMultiplier,
		},
		Features:  features.Options{BaseYear: config.Training.BaseYear},
		TestRatio: config.Data.TestRatio,
		SplitSeed: config.Data.Seed,
		Params:    config.Training.Params,
		Rounds:    config.Training.Rounds,
		Tune:      config.Training.Tune,
		Search: training.SearchOptions{
			Iterations: config.Training.Iterations,
			Seed:       config.Training.Seed,
			Rounds:     config.Training.Rounds,
			Grid:       config.Training.Grid,
		},
	}

	var bar *pb.ProgressBar
	if in.Tune {
		bar = pb.New(in.Search.Iterations)
		// Keep log lines and the bar from interleaving on a terminal.
		if !viper.GetBool("json") {
			deps.Logger = zap.NewNop()
			in.Search.Logger = zap.NewNop()
		}
		in.Search.OnTrial = func(training.Trial) { bar.Increment() }
		bar.Start()
	}

	out, err := pipeline.Train(ctx, deps, in)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}

	printReport(out)

	if path := cmd.Flag("trials-csv").Value.String(); path != "" && out.Search != nil {
		if err := writeTrials(fsys, path, out.Search.Trials); err != nil {
			logger.Fatal("writing trials", zap.Error(err))
		}
		logger.Info("search trials written", zap.String("filename", path), zap.Int("count", len(out.Search.Trials)))
	}

	paths := config.Artifacts.paths()
	autoApprove, _ := cmd.Flags().GetBool("yes")
	if err := confirmOverwrite(store, paths, autoApprove); err != nil {
		if errors.Is(err, errOverwriteDeclined) {
			logger.Info("exiting", zap.String("reason", "artifacts left untouched"))
			return
		}
		logger.Fatal("checking existing artifacts", zap.Error(err))
	}

	if err := out.Save(store, paths); err != nil {
		logger.Fatal("saving artifacts", zap.Error(err))
	}

	logger.Info("artifacts written", artifactFields(out.RunID, paths)...)
}

func artifactFields(runID string, paths artifact.Paths) []zap.Field {
	return append(logger.RunFields(runID, paths.Model),
		zap.String("encoders", paths.Encoders),
		zap.String("density", paths.Density),
	)
}

func readRecords(fsys afero.Fs, path string) ([]dataset.Record, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return dataset.ReadCSV(f)
}

func printReport(out *pipeline.TrainOutput) {
	pterm.DefaultSection.Println("Evaluation on the held-out split")
	_ = pterm.DefaultTable.WithHasHeader().WithData(out.Report.Rows()).Render()

	pterm.Info.Printfln("run %s: %s train rows, %s test rows, best iteration %d of %d trees",
		out.RunID,
		humanize.Comma(int64(out.TrainRows)),
		humanize.Comma(int64(out.TestRows)),
		out.Booster.BestIteration,
		out.Booster.NumTrees(),
	)
	pterm.Info.Printfln("typical error: $%s", humanize.CommafWithDigits(out.Report.RMSE, 2))

	if out.Search != nil {
		pterm.Info.Printfln("best of %d trials: rmse $%s, learning_rate %s, num_leaves %d",
			len(out.Search.Trials),
			humanize.CommafWithDigits(out.Search.BestRMSE, 2),
			strconv.FormatFloat(out.Params.LearningRate, 'g', -1, 64),
			out.Params.NumLeaves,
		)
	}
}

func writeTrials(fsys afero.Fs, path string, trials []training.Trial) error {
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	if err := training.WriteTrialsCSV(f, trials); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// confirmOverwrite asks before replacing artifacts from an earlier run.
func confirmOverwrite(store *artifact.Store, paths artifact.Paths, autoApprove bool) error {
	existing, err := store.Existing(paths)
	if err != nil {
		return err
	}
	if len(existing) == 0 || autoApprove {
		return nil
	}

	pterm.Warning.Printfln("existing artifacts: %v", existing)
	prompt := promptui.Prompt{
		Label:     "Overwrite existing artifacts",
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return errOverwriteDeclined
		}
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}
