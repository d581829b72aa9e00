package cmd

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/logger"
	"github.com/spigell/salary-predictor/internal/secrets"
	"github.com/spigell/salary-predictor/internal/server"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Send a JSON payload to a running server and print the predictions",
	Run: func(cmd *cobra.Command, _ []string) {
		predict(cmd)
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask a running server to reload its artifacts",
	Run: func(_ *cobra.Command, _ []string) {
		reload()
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(reloadCmd)

	predictCmd.Flags().StringP("file", "f", "payload.json", `payload file with {"data": [...]}`)
	rootCmd.PersistentFlags().String("url", "", "server url (default is predict.url)")

	viper.BindPFlag("predict.url", rootCmd.PersistentFlags().Lookup("url"))
}

func predict(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), "stderr")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	file := cmd.Flag("file").Value.String()
	client := server.NewClient(config.Predict.URL, config.Predict.Timeout, logger)

	preds, err := client.PredictFile(context.Background(), afero.NewOsFs(), file)
	if err != nil {
		logger.Fatal("requesting predictions", zap.Error(err), zap.String("url", config.Predict.URL))
	}

	rows := [][]string{{"#", "Predicted salary (USD)"}}
	for i, p := range preds {
		rows = append(rows, []string{strconv.Itoa(i), "$" + humanize.CommafWithDigits(p, 2)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func reload() {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	token, err := secrets.Load(secrets.Source{
		Name:  "reload token",
		Value: viper.GetString("serve.reload-token"),
		File:  config.Serve.ReloadTokenFile,
	})
	if err != nil && !errors.Is(err, secrets.ErrNotConfigured) {
		logger.Fatal("loading reload token", zap.Error(err))
	}

	client := server.NewClient(config.Predict.URL, config.Predict.Timeout, logger)
	if err := client.Reload(context.Background(), token); err != nil {
		logger.Fatal("reloading artifacts", zap.Error(err))
	}
	logger.Info("artifacts reloaded", zap.String("url", config.Predict.URL))
}
