package weights

import (
	"context"
	"fmt"
	"math/big"

	"github.com/screwyprof/repweights/pkg/nanoaccount"
	"github.com/screwyprof/repweights/pkg/noderpc"
)

// Option configures the Service
// ------------------------------------------------
type Option func(*Service)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithArchive stores every written snapshot in a
func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

// WithSubscriber routes progress events to sub
func WithSubscriber(sub *Subscriber) Option {
	return func(s *Service) { s.subscriber = sub }
}

// WithUnitExponent sets the whole-unit scale (10^exp) used by the supply limit
func WithUnitExponent(exp uint) Option {
	return func(s *Service) { s.unit = Unit(exp) }
}

// WithAccountVerification toggles checksum verification of accepted accounts
func WithAccountVerification(enabled bool) Option {
	return func(s *Service) { s.verifyAccounts = enabled }
}

// Service generates bootstrap weight snapshots from a node
// --------------------------------------------------------
type Service struct {
	api            Client
	archive        Archive
	clock          Clock
	subscriber     *Subscriber
	unit           *big.Int
	verifyAccounts bool
}

// NewService constructs a Service with required dependencies and options.
// By default it uses a real clock, 10^29 units, verifies accounts and archives nothing.
func NewService(api Client, opts ...Option) *Service {
	s := &Service{
		api:            api,
		clock:          systemClock{},
		subscriber:     NewSubscriber(),
		unit:           Unit(DefaultUnitExponent),
		verifyAccounts: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes fetch → cutoff → select → verify → write → archive.
// The first failure aborts the run.
func (s *Service) Run(ctx context.Context, cfg Config) (Snapshot, error) {
	start := s.clock.Now()

	if err := cfg.Validate(); err != nil {
		return Snapshot{}, err
	}

	nodeReps, err := s.api.Representatives(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchRepresentatives, err)
	}

	cemented, err := s.api.CementedCount(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrFetchBlockCount, err)
	}

	cutoffHeight := ComputeCutoffHeight(cemented, cfg.Cutoff)
	s.subscriber.Publish(CutoffComputed{
		Cemented: cemented,
		Offset:   cfg.Cutoff,
		Height:   cutoffHeight,
	})

	result := SelectRepresentatives(convertNodeRepresentatives(nodeReps), cfg.Limit, s.unit)
	result.CutoffHeight = cutoffHeight

	for i, rep := range result.Accepted {
		if s.verifyAccounts {
			if err := nanoaccount.Validate(rep.Account); err != nil {
				return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidAccount, err)
			}
		}
		s.subscriber.Publish(RepresentativeAccepted{Position: i, Representative: rep})
	}

	path, err := WriteSnapshot(cfg.OutDir, cfg.Network, result)
	if err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Result:      result,
		Network:     cfg.Network,
		OutputPath:  path,
		GeneratedAt: start,
	}

	s.subscriber.Publish(SnapshotWritten{
		Path:      path,
		Count:     result.Count,
		Total:     result.Total,
		SupplyMax: result.SupplyMax,
		Duration:  s.clock.Now().Sub(start),
	})

	if s.archive == nil {
		return snapshot, nil
	}

	id, err := s.archive.SaveSnapshot(ctx, snapshot)
	if err != nil {
		return snapshot, fmt.Errorf("%w: %w", ErrArchiveFailed, err)
	}
	snapshot.ID = id

	s.subscriber.Publish(SnapshotArchived{ID: id, Network: cfg.Network})

	return snapshot, nil
}

// convertNodeRepresentatives converts RPC entries to domain representatives
func convertNodeRepresentatives(nodeReps []noderpc.Representative) []Representative {
	reps := make([]Representative, len(nodeReps))

	for i, r := range nodeReps {
		reps[i] = Representative{
			Account: r.Account,
			Weight:  r.Weight,
		}
	}

	return reps
}
