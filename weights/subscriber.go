package weights

// Subscriber dispatches progress events to per-type handlers.
// Dispatch happens on the publishing goroutine, in publish order.
type Subscriber struct {
	cutoffHandler   func(CutoffComputed)
	acceptedHandler func(RepresentativeAccepted)
	writtenHandler  func(SnapshotWritten)
	archivedHandler func(SnapshotArchived)
}

// OnCutoffComputed sets the handler for CutoffComputed events
func OnCutoffComputed(fn func(CutoffComputed)) func(*Subscriber) {
	return func(s *Subscriber) { s.cutoffHandler = fn }
}

// OnRepresentativeAccepted sets the handler for RepresentativeAccepted events
func OnRepresentativeAccepted(fn func(RepresentativeAccepted)) func(*Subscriber) {
	return func(s *Subscriber) { s.acceptedHandler = fn }
}

// OnSnapshotWritten sets the handler for SnapshotWritten events
func OnSnapshotWritten(fn func(SnapshotWritten)) func(*Subscriber) {
	return func(s *Subscriber) { s.writtenHandler = fn }
}

// OnSnapshotArchived sets the handler for SnapshotArchived events
func OnSnapshotArchived(fn func(SnapshotArchived)) func(*Subscriber) {
	return func(s *Subscriber) { s.archivedHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options; unset handlers are no-ops.
//
// Example:
//
//	sub := weights.NewSubscriber(
//	  weights.OnSnapshotWritten(func(e weights.SnapshotWritten) { ... }),
//	)
//	svc := weights.NewService(client, weights.WithSubscriber(sub))
func NewSubscriber(opts ...func(*Subscriber)) *Subscriber {
	s := &Subscriber{
		cutoffHandler:   func(CutoffComputed) {},         // nop by default
		acceptedHandler: func(RepresentativeAccepted) {}, // nop by default
		writtenHandler:  func(SnapshotWritten) {},        // nop by default
		archivedHandler: func(SnapshotArchived) {},       // nop by default
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Publish delivers ev to the matching handler; unknown events are dropped
func (s *Subscriber) Publish(ev Event) {
	switch e := ev.(type) {
	case CutoffComputed:
		s.cutoffHandler(e)
	case RepresentativeAccepted:
		s.acceptedHandler(e)
	case SnapshotWritten:
		s.writtenHandler(e)
	case SnapshotArchived:
		s.archivedHandler(e)
	}
}
