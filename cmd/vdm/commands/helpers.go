// Package commands implements the vdm CLI command tree.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/application/modeling"
	trnDomain "github.com/GabrieleStulzer/Kraken-MSNN-Control/internal/domain/training"
)

// newService builds a modeling service from an optional TOML config file,
// with flag overrides for the corpus path.
func newService(configPath, dbPath string, verbose bool) (*modeling.Service, *zap.Logger, error) {
	config, err := modeling.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if dbPath != "" {
		config.DatabasePath = dbPath
	}

	logger := zap.NewNop()
	if verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, nil, err
		}
	}

	svc, err := modeling.NewService(config, logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, logger, nil
}

// warnUnstable downgrades the advisory instability verdict to a stderr
// notice so training commands keep going.
func warnUnstable(err error) error {
	if errors.Is(err, trnDomain.ErrUnstableModel) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return nil
	}
	return err
}

// printJSON renders a result the way every vdm command reports.
func printJSON(v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}
