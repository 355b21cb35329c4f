package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	epDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/episode"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/infrastructure/episode"
)

var (
	corpusConfig  string
	corpusDB      string
	corpusVerbose bool
)

// CorpusCmd manages the episode corpus.
var CorpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Episode corpus commands",
	Long:  `Commands for importing, listing, exporting and augmenting driving episodes.`,
}

var corpusImportName string

var corpusImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import a CSV episode",
	Long:  `Import a recorded episode from CSV. The header row names the channels; a "time" column sets the sample time.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService(corpusConfig, corpusDB, corpusVerbose)
		if err != nil {
			return err
		}
		defer svc.Close()

		name := corpusImportName
		if name == "" {
			name = args[0]
		}
		e, err := svc.ImportCSV(context.Background(), args[0], name)
		if err != nil {
			return err
		}
		return printJSON(map[string]interface{}{
			"id":       e.ID,
			"name":     e.Name,
			"samples":  e.Len(),
			"duration": e.Duration(),
		})
	},
}

var corpusListSource string

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List corpus episodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService(corpusConfig, corpusDB, corpusVerbose)
		if err != nil {
			return err
		}
		defer svc.Close()

		episodes, err := svc.Episodes(context.Background(), epDomain.Query{
			Source: epDomain.Source(corpusListSource),
		})
		if err != nil {
			return err
		}
		if len(episodes) == 0 {
			fmt.Println("No episodes in corpus")
			return nil
		}

		type row struct {
			ID       string               `json:"id"`
			Name     string               `json:"name"`
			Source   epDomain.Source      `json:"source"`
			Samples  int                  `json:"samples"`
			Duration float64              `json:"duration"`
			Lineage  *epDomain.Provenance `json:"lineage,omitempty"`
		}
		rows := make([]row, 0, len(episodes))
		for _, e := range episodes {
			rows = append(rows, row{
				ID:       e.ID,
				Name:     e.Name,
				Source:   e.Source,
				Samples:  e.Len(),
				Duration: e.Duration(),
				Lineage:  e.Provenance,
			})
		}
		return printJSON(rows)
	},
}

var corpusExportOut string

var corpusExportCmd = &cobra.Command{
	Use:   "export <episode-id>",
	Short: "Export an episode as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService(corpusConfig, corpusDB, corpusVerbose)
		if err != nil {
			return err
		}
		defer svc.Close()

		e, err := svc.Store().Get(context.Background(), args[0])
		if err != nil {
			return err
		}

		out := os.Stdout
		if corpusExportOut != "" {
			f, err := os.Create(corpusExportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return episode.WriteCSV(out, e)
	},
}

var crossoverPoint int

var corpusCrossoverCmd = &cobra.Command{
	Use:   "crossover <episode-a> <episode-b>",
	Short: "Splice two episodes into a new one",
	Long:  `Create an augmented episode from the prefix of the first parent and the suffix of the second. Parents must share a sample time and channel set.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService(corpusConfig, corpusDB, corpusVerbose)
		if err != nil {
			return err
		}
		defer svc.Close()

		child, err := svc.Crossover(context.Background(), args[0], args[1], crossoverPoint)
		if err != nil {
			return err
		}
		return printJSON(child.Provenance)
	},
}

var (
	mutateSigma float64
	mutateSeed  int64
)

var corpusMutateCmd = &cobra.Command{
	Use:   "mutate <episode-id>",
	Short: "Perturb an episode's control channels",
	Long:  `Create an augmented episode by adding seeded Gaussian noise to the control channels. The same seed always produces the same child.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService(corpusConfig, corpusDB, corpusVerbose)
		if err != nil {
			return err
		}
		defer svc.Close()

		child, err := svc.Mutate(context.Background(), args[0], mutateSigma, mutateSeed, nil)
		if err != nil {
			return err
		}
		return printJSON(child.Provenance)
	},
}

func init() {
	CorpusCmd.PersistentFlags().StringVarP(&corpusConfig, "config", "c", "", "TOML config file")
	CorpusCmd.PersistentFlags().StringVar(&corpusDB, "db", "", "Corpus database path")
	CorpusCmd.PersistentFlags().BoolVarP(&corpusVerbose, "verbose", "v", false, "Verbose logging")

	corpusImportCmd.Flags().StringVarP(&corpusImportName, "name", "n", "", "Episode name (defaults to the file name)")
	corpusListCmd.Flags().StringVarP(&corpusListSource, "source", "s", "", "Filter by source (recorded|augmented)")
	corpusExportCmd.Flags().StringVarP(&corpusExportOut, "out", "o", "", "Output file (defaults to stdout)")
	corpusCrossoverCmd.Flags().IntVarP(&crossoverPoint, "point", "p", 0, "Crossover sample index (required)")
	corpusCrossoverCmd.MarkFlagRequired("point")
	corpusMutateCmd.Flags().Float64VarP(&mutateSigma, "sigma", "s", 0.05, "Noise standard deviation")
	corpusMutateCmd.Flags().Int64Var(&mutateSeed, "seed", 1, "Noise seed")

	CorpusCmd.AddCommand(corpusImportCmd)
	CorpusCmd.AddCommand(corpusListCmd)
	CorpusCmd.AddCommand(corpusExportCmd)
	CorpusCmd.AddCommand(corpusCrossoverCmd)
	CorpusCmd.AddCommand(corpusMutateCmd)
}
