package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bidfx-oss/pricing-go/diagnostics"
	"github.com/bidfx-oss/pricing-go/pricing"
	"github.com/bidfx-oss/pricing-go/session"
)

func getStreamCmd() *cobra.Command {
	streamCmd := &cobra.Command{
		Use:   "stream [config-file] [subject]...",
		Args:  cobra.MinimumNArgs(1),
		Short: "Subscribe to one or more price subjects and stream events to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			sess, err := session.NewFromINIFile(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			trapSignal(cancel, logger)

			facade := sess.Pricing()
			facade.Callbacks().PriceEventFn = func(e pricing.PriceEvent) {
				fmt.Fprintln(cmd.OutOrStdout(), e.String())
			}
			facade.Callbacks().SubscriptionEventFn = func(e pricing.SubscriptionEvent) {
				logger.Info().Str("event", e.String()).Msg("subscription event")
			}
			facade.Callbacks().ProviderEventFn = func(e pricing.ProviderEvent) {
				logger.Info().Str("event", e.String()).Msg("provider event")
			}

			metrics := diagnostics.NewMetrics("pricing-go")
			metrics.Instrument(facade.Callbacks())
			diagServer := diagnostics.New(logger, metrics, facade.Callbacks())
			diagCfg := sess.Diagnostics()
			if !diagCfg.Disable {
				httpServer := diagServer.ListenAndServe(diagCfg)
				defer func() { _ = httpServer.Close() }()
			}

			if err := facade.Start(ctx); err != nil {
				return err
			}
			defer facade.Stop()

			subjectStrs := args[1:]
			if len(subjectStrs) == 0 {
				subjectStrs, err = readSubjectsFromStdin()
				if err != nil {
					return err
				}
			}
			for _, subjectStr := range subjectStrs {
				subject := pricing.ParseSubject(strings.TrimSpace(subjectStr))
				facade.Subscribe(subject)
			}

			<-ctx.Done()
			return nil
		},
	}
	return streamCmd
}

// readSubjectsFromStdin lets callers pipe a list of subjects, one per line,
// instead of passing them as positional args.
func readSubjectsFromStdin() ([]string, error) {
	var subjects []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			subjects = append(subjects, line)
		}
	}
	return subjects, scanner.Err()
}
