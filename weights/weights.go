package weights

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/screwyprof/repweights/pkg/noderpc"
)

// Sentinel errors for failure cases
var (
	ErrInvalidConfig        = errors.New("invalid generator configuration")
	ErrInvalidNetwork       = errors.New("invalid network name")
	ErrFetchRepresentatives = errors.New("fetching representatives failed")
	ErrFetchBlockCount      = errors.New("fetching block count failed")
	ErrInvalidAccount       = errors.New("invalid representative account")
	ErrFilesystem           = errors.New("writing weights file failed")
	ErrArchiveFailed        = errors.New("archiving snapshot failed")
)

// Default configuration values
const (
	DefaultLimit        = 0.99
	DefaultCutoff       = uint64(250000)
	DefaultUnitExponent = uint(29)
	DefaultOutDir       = "."
)

// Client fetches ledger data from the node
// ----------------------------------------
type Client interface {
	Representatives(ctx context.Context) ([]noderpc.Representative, error)
	CementedCount(ctx context.Context) (uint64, error)
}

// Archive keeps a history of generated snapshots
type Archive interface {
	// SaveSnapshot stores the snapshot and returns its archive ID
	SaveSnapshot(ctx context.Context, snapshot Snapshot) (int64, error)
}

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Config describes one generator run
// ----------------------------------
type Config struct {
	// Network is embedded in the file name and the generated identifiers
	Network string
	// Limit is the fraction of total supply the accepted representatives must cover
	Limit float64
	// Cutoff is subtracted from the cemented count to get the cutoff height
	Cutoff uint64
	// OutDir receives the generated header
	OutDir string
}

// Validate checks the network name and limit range
func (c Config) Validate() error {
	if err := ValidateNetwork(c.Network); err != nil {
		return err
	}
	if math.IsNaN(c.Limit) || c.Limit < 0 || c.Limit > 1 {
		return fmt.Errorf("%w: limit %v outside [0,1]", ErrInvalidConfig, c.Limit)
	}
	return nil
}

// Representative is a voting representative and its delegated weight in raw units
type Representative struct {
	Account string
	Weight  *big.Int
}

// Result is the outcome of representative selection
type Result struct {
	CutoffHeight uint64
	Accepted     []Representative
	Count        int
	// Total is the summed weight of Accepted
	Total *big.Int
	// TotalSupply is the summed weight of every fetched representative
	TotalSupply *big.Int
	SupplyMax   *big.Int
}

// Snapshot is a written weights file plus what produced it
type Snapshot struct {
	Result
	ID          int64
	Network     string
	OutputPath  string
	GeneratedAt time.Time
}

// SnapshotSummary is an archived snapshot without its entries
type SnapshotSummary struct {
	ID           int64
	Network      string
	CutoffHeight uint64
	Count        int
	Total        *big.Int
	SupplyMax    *big.Int
	OutputPath   string
	GeneratedAt  time.Time
}

// Event represents a generator progress event
// -------------------------------------------
type Event any

type CutoffComputed struct {
	Cemented uint64
	Offset   uint64
	Height   uint64
}

type RepresentativeAccepted struct {
	Position       int
	Representative Representative
}

type SnapshotWritten struct {
	Path      string
	Count     int
	Total     *big.Int
	SupplyMax *big.Int
	Duration  time.Duration
}

type SnapshotArchived struct {
	ID      int64
	Network string
}
