package commands

import (
	"github.com/spf13/cobra"
)

var (
	stabilityConfig  string
	stabilityDB      string
	stabilityVerbose bool
)

// StabilityCmd runs the pole analysis.
var StabilityCmd = &cobra.Command{
	Use:   "stability",
	Short: "Check z-domain stability of the trained model",
	Long: `Train the forward model on the corpus and report its poles. The model
is stable when every pole lies strictly inside the unit circle; the full
pole set is printed so an unstable verdict names the offenders.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService(stabilityConfig, stabilityDB, stabilityVerbose)
		if err != nil {
			return err
		}
		defer svc.Close()

		if _, err := svc.TrainForward(signalContext()); warnUnstable(err) != nil {
			return err
		}
		verdict, err := svc.Stability()
		if err != nil {
			return err
		}
		return printJSON(verdict)
	},
}

func init() {
	StabilityCmd.Flags().StringVarP(&stabilityConfig, "config", "c", "", "TOML config file")
	StabilityCmd.Flags().StringVar(&stabilityDB, "db", "", "Corpus database path")
	StabilityCmd.Flags().BoolVarP(&stabilityVerbose, "verbose", "v", false, "Verbose logging")
}
