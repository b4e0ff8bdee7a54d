package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/repweights/weights"
	"github.com/screwyprof/repweights/weights/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrTransactionFailed = errors.New("transaction failed")
	ErrInsertFailed      = errors.New("insert operation failed")
	ErrCopyFailed        = errors.New("bulk copy operation failed")
	ErrQueryFailed       = errors.New("snapshot query failed")
	ErrSnapshotNotFound  = errors.New("snapshot not found")
)

const (
	insertSnapshotSQL = `
		INSERT INTO weight_snapshots
			(network, cutoff_height, supply_max, total_weight, rep_count, output_path, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	listSnapshotsSQL = `
		SELECT id, network, cutoff_height, supply_max, total_weight, rep_count, output_path, generated_at
		FROM weight_snapshots
		WHERE network = $1
		ORDER BY generated_at DESC, id DESC
		LIMIT $2`

	getSnapshotSQL = `
		SELECT id, network, cutoff_height, supply_max, total_weight, rep_count, output_path, generated_at
		FROM weight_snapshots
		WHERE id = $1`

	listEntriesSQL = `
		SELECT account, weight
		FROM weight_snapshot_entries
		WHERE snapshot_id = $1
		ORDER BY position ASC`
)

// Store implements weights.Archive using pgx
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool) (*Store, func()) {
	store := &Store{pool: pool}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// SaveSnapshot stores the snapshot header and its entries in one transaction
func (s *Store) SaveSnapshot(ctx context.Context, snapshot weights.Snapshot) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // No-op if commit succeeds

	var id int64
	err = tx.QueryRow(ctx, insertSnapshotSQL,
		snapshot.Network,
		int64(snapshot.CutoffHeight),
		dbrow.Numeric(snapshot.SupplyMax),
		dbrow.Numeric(snapshot.Total),
		int32(snapshot.Count),
		snapshot.OutputPath,
		snapshot.GeneratedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}

	if len(snapshot.Accepted) > 0 {
		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"weight_snapshot_entries"},
			dbrow.EntryColumns,
			pgx.CopyFromRows(dbrow.EntriesToRows(id, snapshot.Accepted)),
		)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrCopyFailed, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	return id, nil
}

// ListSnapshots returns up to limit snapshots of network, newest first
func (s *Store) ListSnapshots(ctx context.Context, network string, limit int) ([]weights.SnapshotSummary, error) {
	rows, err := s.pool.Query(ctx, listSnapshotsSQL, network, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	var summaries []weights.SnapshotSummary
	for rows.Next() {
		row, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}

		summary, err := row.ToSummary()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return summaries, nil
}

// LoadSnapshot reads an archived snapshot with its entries in accepted order
func (s *Store) LoadSnapshot(ctx context.Context, id int64) (weights.Snapshot, error) {
	row, err := scanSnapshot(s.pool.QueryRow(ctx, getSnapshotSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return weights.Snapshot{}, fmt.Errorf("%w: %d", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return weights.Snapshot{}, err
	}

	summary, err := row.ToSummary()
	if err != nil {
		return weights.Snapshot{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	accepted, err := s.loadEntries(ctx, id)
	if err != nil {
		return weights.Snapshot{}, err
	}

	return weights.Snapshot{
		Result: weights.Result{
			CutoffHeight: summary.CutoffHeight,
			Accepted:     accepted,
			Count:        summary.Count,
			Total:        summary.Total,
			SupplyMax:    summary.SupplyMax,
		},
		ID:          summary.ID,
		Network:     summary.Network,
		OutputPath:  summary.OutputPath,
		GeneratedAt: summary.GeneratedAt,
	}, nil
}

func (s *Store) loadEntries(ctx context.Context, id int64) ([]weights.Representative, error) {
	rows, err := s.pool.Query(ctx, listEntriesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer rows.Close()

	var reps []weights.Representative
	for rows.Next() {
		var entry dbrow.Entry
		if err := rows.Scan(&entry.Account, &entry.Weight); err != nil {
			return nil, fmt.Errorf("%w: scan failed: %w", ErrQueryFailed, err)
		}

		weight, err := dbrow.BigInt(entry.Weight)
		if err != nil {
			return nil, fmt.Errorf("%w: weight of %s: %w", ErrQueryFailed, entry.Account, err)
		}
		reps = append(reps, weights.Representative{Account: entry.Account, Weight: weight})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return reps, nil
}

// scanSnapshot scans one weight_snapshots row; pgx.ErrNoRows is passed through unwrapped
func scanSnapshot(row pgx.Row) (dbrow.Snapshot, error) {
	var r dbrow.Snapshot
	err := row.Scan(&r.ID, &r.Network, &r.CutoffHeight, &r.SupplyMax, &r.TotalWeight, &r.RepCount, &r.OutputPath, &r.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return dbrow.Snapshot{}, err
	}
	if err != nil {
		return dbrow.Snapshot{}, fmt.Errorf("%w: scan failed: %w", ErrQueryFailed, err)
	}
	return r, nil
}
