// Package main provides the CLI entry point for vdm.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GabrieleStulzer/Kraken-MSNN-Control/cmd/vdm/commands"
	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/application/modeling"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vdm",
	Short: "vdm - gated local-model vehicle dynamics",
	Long: `vdm composes fuzzy-gated local models into a forward vehicle dynamics
model and trains an inverse model against it.

It provides:
  - A forward model built from gated FIR local models with residual corrections
  - Two-stage training with a convergence gate between forward and inverse
  - An episode corpus with crossover and mutation augmentation
  - z-domain pole analysis of trained models`,
	Version: version,
}

var (
	statusConfig string
	statusDB     string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus and model status",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := modeling.LoadConfig(statusConfig)
		if err != nil {
			return err
		}
		if statusDB != "" {
			config.DatabasePath = statusDB
		}
		svc, err := modeling.NewService(config, nil)
		if err != nil {
			return err
		}
		defer svc.Close()

		status, err := svc.Status(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("episodes:          %d\n", status.Episodes)
		fmt.Printf("local models:      %d\n", status.LocalModels)
		fmt.Printf("state channels:    %v\n", status.StateChannels)
		fmt.Printf("control channels:  %v\n", status.ControlChannels)
		fmt.Printf("forward converged: %v\n", status.ForwardConverged)
		return nil
	},
}

var configInitOut string

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a TOML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := modeling.SaveConfig(configInitOut, modeling.DefaultServiceConfig()); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", configInitOut)
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusConfig, "config", "c", "", "TOML config file")
	statusCmd.Flags().StringVar(&statusDB, "db", "", "Corpus database path")
	rootCmd.AddCommand(statusCmd)

	configInitCmd.Flags().StringVarP(&configInitOut, "out", "o", "vdm.toml", "Output file")
	rootCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(commands.CorpusCmd)
	rootCmd.AddCommand(commands.TrainCmd)
	rootCmd.AddCommand(commands.StabilityCmd)
}
