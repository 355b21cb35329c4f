package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	trainConfig  string
	trainDB      string
	trainVerbose bool
)

// TrainCmd runs the training stages.
var TrainCmd = &cobra.Command{
	Use:   "train",
	Short: "Training commands",
	Long: `Commands for the two training stages. The forward model must be trained
to convergence and frozen before inverse training unlocks; the pole check
runs on every converged model and reports instability without blocking.`,
}

var trainForwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Train the forward model on the corpus",
	Long: `Fit the local models, gates and residual corrections against every
episode in the corpus. On convergence the model is pole-checked and frozen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService(trainConfig, trainDB, trainVerbose)
		if err != nil {
			return err
		}
		defer svc.Close()

		report, err := svc.TrainForward(signalContext())
		if err = warnUnstable(err); err != nil {
			return err
		}
		return printJSON(report)
	},
}

var trainInverseCmd = &cobra.Command{
	Use:   "inverse",
	Short: "Train the inverse model against the frozen forward model",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService(trainConfig, trainDB, trainVerbose)
		if err != nil {
			return err
		}
		defer svc.Close()

		if _, err := svc.TrainForward(signalContext()); warnUnstable(err) != nil {
			return err
		}
		report, err := svc.TrainInverse(signalContext())
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var evalEpisodeID string

var trainEvalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Replay an episode through the model and report RMSE",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService(trainConfig, trainDB, trainVerbose)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx := signalContext()
		if _, err := svc.TrainForward(ctx); warnUnstable(err) != nil {
			return err
		}
		rmse, err := svc.Evaluate(ctx, evalEpisodeID)
		if err != nil {
			return err
		}
		return printJSON(rmse)
	},
}

// signalContext cancels on SIGINT/SIGTERM so long training runs stop
// cleanly.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx
}

func init() {
	TrainCmd.PersistentFlags().StringVarP(&trainConfig, "config", "c", "", "TOML config file")
	TrainCmd.PersistentFlags().StringVar(&trainDB, "db", "", "Corpus database path")
	TrainCmd.PersistentFlags().BoolVarP(&trainVerbose, "verbose", "v", false, "Verbose logging")

	trainEvalCmd.Flags().StringVarP(&evalEpisodeID, "episode", "e", "", "Episode ID (required)")
	trainEvalCmd.MarkFlagRequired("episode")

	TrainCmd.AddCommand(trainForwardCmd)
	TrainCmd.AddCommand(trainInverseCmd)
	TrainCmd.AddCommand(trainEvalCmd)
}
