package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/screwyprof/repweights/cmd/repweights/config"
	"github.com/screwyprof/repweights/pkg/logger"
	"github.com/screwyprof/repweights/pkg/noderpc"
	"github.com/screwyprof/repweights/weights"
)

// newRootCmd builds the generator command; cfg holds the environment defaults that flags override
func newRootCmd(cfg config.Config, log *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repweights <network>",
		Short: "Generate the bootstrap representative weights header from a node",
		Long: `Queries a node for its representatives and cemented block count, keeps the
heaviest representatives until they cover the configured share of the online supply and
writes bootstrap_weights_<network>.hpp.`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Usage is only useful for argument errors
			cmd.SilenceUsage = true
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), log, &cfg, args[0])
		},
	}

	cfg.BindFlags(cmd.Flags())
	cfg.BindDatabaseFlag(cmd.PersistentFlags())

	cmd.AddCommand(
		newMigrateCmd(&cfg, log),
		newHistoryCmd(&cfg, log),
		newShowCmd(&cfg, log),
	)

	return cmd
}

func runGenerate(ctx context.Context, out io.Writer, log *slog.Logger, cfg *config.Config, network string) error {
	// HTTP client & node client
	httpClient := &http.Client{
		Timeout:   cfg.HttpClientTimeout,
		Transport: logger.NewTransport(log, nil),
	}
	nodeClient := noderpc.NewClient(httpClient, cfg.RPCURL)

	opts := []weights.Option{
		weights.WithSubscriber(progressSubscriber(ctx, out, log)),
		weights.WithUnitExponent(cfg.UnitExponent),
		weights.WithAccountVerification(cfg.VerifyAccounts),
	}

	if cfg.DatabaseURL != "" {
		store, closer, err := openArchive(ctx, log, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer closer()

		opts = append(opts, weights.WithArchive(store))
	}

	log.InfoContext(ctx, "Generating bootstrap weights",
		slog.String("network", network),
		slog.String("rpc", cfg.RPCURL),
		slog.Float64("limit", cfg.Limit),
		slog.Uint64("cutoff", cfg.Cutoff),
		slog.Uint64("unitExponent", uint64(cfg.UnitExponent)),
		slog.Bool("archive", cfg.DatabaseURL != ""),
	)

	_, err := weights.NewService(nodeClient, opts...).Run(ctx, weights.Config{
		Network: network,
		Limit:   cfg.Limit,
		Cutoff:  cfg.Cutoff,
		OutDir:  cfg.OutDir,
	})

	return err
}

// progressSubscriber prints the generator progress lines to out and logs the rest
func progressSubscriber(ctx context.Context, out io.Writer, log *slog.Logger) *weights.Subscriber {
	return weights.NewSubscriber(
		weights.OnCutoffComputed(func(event weights.CutoffComputed) {
			log.DebugContext(ctx, "Cutoff computed",
				slog.Uint64("cemented", event.Cemented),
				slog.Uint64("offset", event.Offset),
			)
			_, _ = fmt.Fprintf(out, "cutoff block height is %d\n", event.Height)
		}),
		weights.OnRepresentativeAccepted(func(event weights.RepresentativeAccepted) {
			_, _ = fmt.Fprintf(out, "%s %s\n", event.Representative.Account, event.Representative.Weight)
		}),
		weights.OnSnapshotWritten(func(event weights.SnapshotWritten) {
			_, _ = fmt.Fprintf(out, "wrote %d rep weights\n", event.Count)
			_, _ = fmt.Fprintf(out, "max supply %s\n", event.SupplyMax)
			_, _ = fmt.Fprintf(out, "Weight file generated: %s\n", event.Path)

			log.InfoContext(ctx, "Snapshot written",
				slog.String("path", event.Path),
				slog.Int("count", event.Count),
				slog.String("total", event.Total.String()),
				slog.Duration("duration", event.Duration),
			)
		}),
		weights.OnSnapshotArchived(func(event weights.SnapshotArchived) {
			log.InfoContext(ctx, "Snapshot archived",
				slog.Int64("id", event.ID),
				slog.String("network", event.Network),
			)
		}),
	)
}
