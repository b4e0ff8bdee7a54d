package dbrow

import (
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/screwyprof/repweights/weights"
)

// Snapshot represents a weight_snapshots record as stored in the database
type Snapshot struct {
	ID           int64          `db:"id"`
	Network      string         `db:"network"`
	CutoffHeight int64          `db:"cutoff_height"`
	SupplyMax    pgtype.Numeric `db:"supply_max"`
	TotalWeight  pgtype.Numeric `db:"total_weight"`
	RepCount     int32          `db:"rep_count"`
	OutputPath   string         `db:"output_path"`
	GeneratedAt  time.Time      `db:"generated_at"`
	// created_at is handled by database DEFAULT CURRENT_TIMESTAMP
}

// Entry represents a weight_snapshot_entries record
type Entry struct {
	SnapshotID int64          `db:"snapshot_id"`
	Position   int32          `db:"position"`
	Account    string         `db:"account"`
	Weight     pgtype.Numeric `db:"weight"`
}

// EntryColumns lists the weight_snapshot_entries columns in row order
var EntryColumns = []string{"snapshot_id", "position", "account", "weight"}

// Numeric converts a raw weight into a NUMERIC parameter
func Numeric(v *big.Int) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).Set(v), Exp: 0, Valid: true}
}

// BigInt converts a scanned NUMERIC back into an integer weight.
// pgx may normalise trailing zeros into a positive exponent.
func BigInt(n pgtype.Numeric) (*big.Int, error) {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return nil, fmt.Errorf("numeric value is not a finite number")
	}

	v := new(big.Int).Set(n.Int)
	switch {
	case n.Exp > 0:
		v.Mul(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil))
	case n.Exp < 0:
		div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-n.Exp)), nil)
		q, r := new(big.Int).QuoRem(v, div, new(big.Int))
		if r.Sign() != 0 {
			return nil, fmt.Errorf("numeric value %s has a fractional part", n.Int)
		}
		v = q
	}
	return v, nil
}

// EntriesToRows converts accepted representatives to [][]any for pgx.CopyFromRows,
// keeping their accepted order in the position column
func EntriesToRows(snapshotID int64, reps []weights.Representative) [][]any {
	rows := make([][]any, len(reps))

	for i, rep := range reps {
		rows[i] = []any{
			snapshotID,
			int32(i),
			rep.Account,
			Numeric(rep.Weight),
		}
	}

	return rows
}

// ToSummary converts a snapshot row into the domain summary
func (s Snapshot) ToSummary() (weights.SnapshotSummary, error) {
	total, err := BigInt(s.TotalWeight)
	if err != nil {
		return weights.SnapshotSummary{}, fmt.Errorf("total_weight of snapshot %d: %w", s.ID, err)
	}
	supplyMax, err := BigInt(s.SupplyMax)
	if err != nil {
		return weights.SnapshotSummary{}, fmt.Errorf("supply_max of snapshot %d: %w", s.ID, err)
	}

	return weights.SnapshotSummary{
		ID:           s.ID,
		Network:      s.Network,
		CutoffHeight: uint64(s.CutoffHeight),
		Count:        int(s.RepCount),
		Total:        total,
		SupplyMax:    supplyMax,
		OutputPath:   s.OutputPath,
		GeneratedAt:  s.GeneratedAt,
	}, nil
}
