package progress

import (
	"log/slog"
	"sort"
	"sync"

	"class360/internal/logging"
)

// subscriberBuffer bounds each subscriber channel. Slow observers drop
// intermediate snapshots rather than stalling the executor.
const subscriberBuffer = 16

// Broadcaster distributes processing-status snapshots to live observers and
// replays the latest snapshot to late subscribers.
type Broadcaster struct {
	logger *slog.Logger

	mu          sync.Mutex
	subscribers map[string]map[chan Snapshot]struct{}
	latest      map[string]Snapshot
}

// NewBroadcaster constructs an empty hub.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		logger:      logging.NewComponentLogger(logger, "progress"),
		subscribers: make(map[string]map[chan Snapshot]struct{}),
		latest:      make(map[string]Snapshot),
	}
}

// Subscribe registers an observer channel for one entity. When a snapshot is
// already known it is delivered as the first message, so late joiners see no
// gap.
func (b *Broadcaster) Subscribe(entityID string) chan Snapshot {
	ch := make(chan Snapshot, subscriberBuffer)

	b.mu.Lock()
	set, ok := b.subscribers[entityID]
	if !ok {
		set = make(map[chan Snapshot]struct{})
		b.subscribers[entityID] = set
	}
	set[ch] = struct{}{}
	snapshot, hasLatest := b.latest[entityID]
	b.mu.Unlock()

	if hasLatest {
		ch <- snapshot.Clone()
	}
	return ch
}

// Unsubscribe removes an observer channel and closes it.
func (b *Broadcaster) Unsubscribe(entityID string, ch chan Snapshot) {
	b.mu.Lock()
	if set, ok := b.subscribers[entityID]; ok {
		if _, registered := set[ch]; registered {
			delete(set, ch)
			close(ch)
		}
		if len(set) == 0 {
			delete(b.subscribers, entityID)
		}
	}
	b.mu.Unlock()
}

// Publish stores the snapshot as the entity's latest and pushes it to every
// subscriber. Delivery failures are swallowed: a closed channel or a full
// buffer never propagates back to the publisher.
func (b *Broadcaster) Publish(entityID string, snapshot Snapshot) {
	stored := snapshot.Clone()

	b.mu.Lock()
	b.latest[entityID] = stored
	targets := make([]chan Snapshot, 0, len(b.subscribers[entityID]))
	for ch := range b.subscribers[entityID] {
		targets = append(targets, ch)
	}
	b.mu.Unlock()

	for _, ch := range targets {
		b.deliver(ch, stored.Clone())
	}
}

func (b *Broadcaster) deliver(ch chan Snapshot, snapshot Snapshot) {
	defer func() {
		if recover() != nil {
			b.logger.Debug("dropped snapshot for closed subscriber",
				logging.String(logging.FieldEntityID, snapshot.EntityID))
		}
	}()
	select {
	case ch <- snapshot:
	default:
	}
}

// Latest returns the most recent snapshot for one entity.
func (b *Broadcaster) Latest(entityID string) (Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	snapshot, ok := b.latest[entityID]
	if !ok {
		return Snapshot{}, false
	}
	return snapshot.Clone(), true
}

// Active returns every snapshot still below 100% overall progress, ordered by
// start time.
func (b *Broadcaster) Active() []Snapshot {
	b.mu.Lock()
	out := make([]Snapshot, 0, len(b.latest))
	for _, snapshot := range b.latest {
		if snapshot.OverallProgress < 100 {
			out = append(out, snapshot.Clone())
		}
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Remove prunes an entity's retained snapshot and closes its subscribers.
func (b *Broadcaster) Remove(entityID string) {
	b.mu.Lock()
	delete(b.latest, entityID)
	if set, ok := b.subscribers[entityID]; ok {
		for ch := range set {
			close(ch)
		}
		delete(b.subscribers, entityID)
	}
	b.mu.Unlock()
}
