package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/screwyprof/repweights/cmd/repweights/config"
	"github.com/screwyprof/repweights/migrator"
	"github.com/screwyprof/repweights/pkg/logger"
	"github.com/screwyprof/repweights/pkg/pgxdb"
	"github.com/screwyprof/repweights/weights"
	"github.com/screwyprof/repweights/weights/store/pgxstore"
)

// ErrArchiveNotConfigured is returned by archive commands run without a database URL
var ErrArchiveNotConfigured = errors.New("snapshot archive not configured: set --database-url or REPWEIGHTS_DATABASE_URL")

const defaultHistoryRows = 20

// connectArchive opens the archive pool and brings its schema up to date
func connectArchive(ctx context.Context, log *slog.Logger, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, ErrArchiveNotConfigured
	}

	db, err := pgxdb.NewConnection(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	applied, err := migrator.ApplyMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if applied > 0 {
		log.InfoContext(ctx, "Applied database migrations", slog.Int("count", applied))
	}

	return db, nil
}

// openArchive returns a store backed by databaseURL and its closer
func openArchive(ctx context.Context, log *slog.Logger, databaseURL string) (*pgxstore.Store, func(), error) {
	db, err := connectArchive(ctx, log, databaseURL)
	if err != nil {
		return nil, nil, err
	}

	store, closer := pgxstore.New(db)
	return store, closer, nil
}

func newMigrateCmd(cfg *config.Config, log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the snapshot archive migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			db, err := connectArchive(cmd.Context(), log, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "snapshot archive schema is up to date")
			return nil
		},
	}
}

func newHistoryCmd(cfg *config.Config, log *slog.Logger) *cobra.Command {
	rows := defaultHistoryRows

	cmd := &cobra.Command{
		Use:   "history <network>",
		Short: "List archived snapshots of a network, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if err := weights.ValidateNetwork(args[0]); err != nil {
				return err
			}

			store, closer, err := openArchive(cmd.Context(), log, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer closer()

			summaries, err := store.ListSnapshots(cmd.Context(), args[0], rows)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("ID", "Generated", "Cutoff Height", "Reps", "Total Weight", "Max Supply", "File")
			for _, s := range summaries {
				_ = table.Append([]string{
					strconv.FormatInt(s.ID, 10),
					s.GeneratedAt.Format(logger.BritishTimeFormat),
					strconv.FormatUint(s.CutoffHeight, 10),
					strconv.Itoa(s.Count),
					s.Total.String(),
					s.SupplyMax.String(),
					s.OutputPath,
				})
			}
			return table.Render()
		},
	}

	cmd.Flags().IntVar(&rows, "rows", rows, "maximum number of snapshots to list")

	return cmd
}

func newShowCmd(cfg *config.Config, log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived snapshot as a weights header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("snapshot id %q: %w", args[0], err)
			}
			cmd.SilenceUsage = true

			store, closer, err := openArchive(cmd.Context(), log, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer closer()

			snapshot, err := store.LoadSnapshot(cmd.Context(), id)
			if err != nil {
				return err
			}

			return weights.SerializeSnapshot(cmd.OutOrStdout(), snapshot.Network, snapshot.Result)
		},
	}
}
