// Package cmd implements the pricing-go command-line client, following the
// teacher's cobra-based cmd package conventions (flag names, log level/format
// setup, signal trapping).
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"

	logLevelJSON = "json"
	logLevelText = "text"
)

// NewRootCmd builds the pricing-go root command, wiring the stream
// subcommand and the shared logging flags every subcommand reads.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pricing-go",
		Short:         "A real-time FX and exchange pricing client for the BidFX pricing platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(flagLogLevel, zerolog.InfoLevel.String(), "logging level")
	rootCmd.PersistentFlags().String(flagLogFormat, logLevelText, "logging format; must be 'text' or 'json'")

	rootCmd.AddCommand(getStreamCmd())
	return rootCmd
}

// newLogger builds the zerolog.Logger a subcommand's RunE should use, reading
// the shared logging flags off cmd.
func newLogger(cmd *cobra.Command) (zerolog.Logger, error) {
	logLvlStr, err := cmd.Flags().GetString(flagLogLevel)
	if err != nil {
		return zerolog.Logger{}, err
	}
	logLvl, err := zerolog.ParseLevel(logLvlStr)
	if err != nil {
		return zerolog.Logger{}, err
	}

	logFormatStr, err := cmd.Flags().GetString(flagLogFormat)
	if err != nil {
		return zerolog.Logger{}, err
	}

	var logWriter io.Writer
	switch strings.ToLower(logFormatStr) {
	case logLevelJSON:
		logWriter = os.Stderr
	case logLevelText:
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr}
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid logging format: %s", logFormatStr)
	}

	return zerolog.New(logWriter).Level(logLvl).With().Timestamp().Logger(), nil
}

// trapSignal cancels ctx's owning context when the process receives SIGINT
// or SIGTERM, logging the shutdown.
func trapSignal(cancel context.CancelFunc, logger zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("caught signal, shutting down")
		cancel()
	}()
}
