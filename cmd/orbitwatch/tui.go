package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/internal/tui"
)

// runTUI is the root command. The terminal belongs to the UI, so logs go to
// the configured file.
func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	logFile, err := logging.OpenFile(a.cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	ctx := cmd.Context()
	log := a.logger(logFile)
	stopTracing := a.initTracing(ctx, logFile, log)
	defer stopTracing()

	adapter, cleanup := a.newAdapter(ctx, log)
	defer cleanup()

	noMap, _ := cmd.Flags().GetBool("no-map")
	return tui.Run(ctx, tui.Config{
		Loader:            adapter,
		Logger:            log,
		FrameInterval:     a.cfg.UI.FrameInterval,
		IdleRateDegPerSec: a.cfg.UI.IdleRateDegPerSec,
		DisableMap:        noMap,
	})
}
