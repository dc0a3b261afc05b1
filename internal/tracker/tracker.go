package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/railwatch/railwatch/internal/store"
)

// TakeoverPolicy decides what happens when an advance claims a berth that
// another train still occupies.
type TakeoverPolicy string

const (
	// TakeoverDisplace cancels the stale occupant and lets the new train
	// take the berth. Default: berths are silently vacated often enough
	// (feed loss, untracked destinations) that the newer report wins.
	TakeoverDisplace TakeoverPolicy = "displace"
	// TakeoverDefer keeps the occupant and discards the conflicting
	// advance instead.
	TakeoverDefer TakeoverPolicy = "defer"
)

// errBerthHeld aborts an advance transaction under TakeoverDefer.
// It marks a designed discard, not a fault.
var errBerthHeld = errors.New("destination berth held by another train")

// wildcardMarker flags an unidentified/untracked train description.
const wildcardMarker = "*"

// Tracker applies step events to the train store, one at a time, in
// arrival order. Construct with New, feed with Enqueue, drive with Run.
type Tracker struct {
	store    *store.Store
	areas    map[string]struct{}
	takeover TakeoverPolicy
	queue    *stepQueue

	mu         sync.RWMutex
	heartbeats map[string]int64 // area -> last heartbeat, epoch millis
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithTakeoverPolicy overrides the default displace policy.
func WithTakeoverPolicy(p TakeoverPolicy) Option {
	return func(tk *Tracker) {
		if p != "" {
			tk.takeover = p
		}
	}
}

// New creates a Tracker over st, tracking only the given describer areas.
func New(st *store.Store, areas []string, opts ...Option) *Tracker {
	tk := &Tracker{
		store:      st,
		areas:      make(map[string]struct{}, len(areas)),
		takeover:   TakeoverDisplace,
		queue:      newStepQueue(),
		heartbeats: map[string]int64{},
	}
	for _, a := range areas {
		tk.areas[a] = struct{}{}
	}
	for _, opt := range opts {
		opt(tk)
	}
	return tk
}

// Enqueue submits a decoded step event for processing.
// Thread-safe: called by the feed session goroutine.
// Returns false if the tracker has been stopped.
func (tk *Tracker) Enqueue(ev StepEvent) bool {
	return tk.queue.Enqueue(ev)
}

// Stop closes the queue; Run drains remaining events and returns.
func (tk *Tracker) Stop() {
	tk.queue.Close()
}

// Run is the single-writer apply loop.
//
// CRITICAL: must be called from exactly one goroutine. All train-store
// mutations happen here; per-area arrival order is preserved because
// there is a single total order.
//
// On a store failure the event's transaction has rolled back as a unit;
// the event is logged with its full payload for manual reconciliation
// (the upstream feed does not replay on demand) and processing continues.
func (tk *Tracker) Run(ctx context.Context) error {
	slog.Info("tracker starting", "areas", len(tk.areas), "takeover", string(tk.takeover))

	for {
		ev, ok := tk.queue.TryDequeue()
		if ok {
			if err := tk.Process(ctx, ev); err != nil {
				slog.Error("event processing failed",
					"kind", ev.Kind.String(),
					"area", ev.Area,
					"code", ev.Code,
					"from", ev.From,
					"to", ev.To,
					"at", ev.At,
					"error", err,
				)
			}
			continue
		}

		if tk.queue.Drained() {
			slog.Info("tracker stopping: queue closed")
			return nil
		}

		select {
		case <-ctx.Done():
			slog.Info("tracker stopping: context cancelled")
			tk.queue.Close()
			return ctx.Err()
		case <-tk.queue.Wait():
		}
	}
}

// Process applies a single step event. Exported for tests and for
// embedding the tracker without the queue; the serve path always goes
// through Run.
func (tk *Tracker) Process(ctx context.Context, ev StepEvent) error {
	// Designed discards: untracked areas and wildcard descriptions.
	if _, ok := tk.areas[ev.Area]; !ok {
		return nil
	}
	if ev.Kind == KindHeartbeat {
		tk.recordHeartbeat(ev.Area, ev.At)
		return nil
	}
	if strings.Contains(ev.Code, wildcardMarker) {
		return nil
	}

	var err error
	switch ev.Kind {
	case KindAdvance:
		err = tk.store.Transact(ctx, func(tx *store.Tx) error {
			return tk.applyAdvance(ctx, tx, ev)
		})
	case KindCancel:
		err = tk.store.Transact(ctx, func(tx *store.Tx) error {
			return tk.applyCancel(ctx, tx, ev)
		})
	default:
		return fmt.Errorf("unknown event kind: %d", ev.Kind)
	}

	if errors.Is(err, errBerthHeld) {
		slog.Debug("advance discarded: destination held",
			"area", ev.Area, "code", ev.Code, "to", ev.To)
		return nil
	}
	return err
}

// applyAdvance implements the advance transition table.
func (tk *Tracker) applyAdvance(ctx context.Context, tx *store.Tx, ev StepEvent) error {
	fromBerth, fromOK, err := tx.LookupBerth(ctx, ev.Area, ev.From)
	if err != nil {
		return err
	}
	toBerth, toOK, err := tx.LookupBerth(ctx, ev.Area, ev.To)
	if err != nil {
		return err
	}
	if !fromOK && !toOK {
		// Neither endpoint is tracked.
		return nil
	}

	train, exists, err := tx.ActiveTrain(ctx, ev.Area, ev.Code)
	if err != nil {
		return err
	}

	if !exists {
		if toOK {
			if toBerth.BorderIn != "" {
				done, err := tk.handoff(ctx, tx, ev, toBerth)
				if err != nil || done {
					return err
				}
			}
			if err := tk.claimBerth(ctx, tx, toBerth.ID, "", ev.At); err != nil {
				return err
			}
			train = newEpisode(ev, toBerth.ID, true)
		} else {
			// Destination untracked: the train is departing the
			// footprint; remember it inactive at the source.
			if err := tk.claimBerth(ctx, tx, fromBerth.ID, "", ev.At); err != nil {
				return err
			}
			train = newEpisode(ev, fromBerth.ID, false)
		}
		if err := tx.InsertTrain(ctx, train); err != nil {
			return err
		}
	} else {
		if toOK {
			if train.BerthID == toBerth.ID {
				// Duplicate delivery: no mutation, no history.
				slog.Debug("advance discarded: duplicate destination",
					"area", ev.Area, "code", ev.Code, "to", ev.To)
				return nil
			}
			if err := tk.claimBerth(ctx, tx, toBerth.ID, train.ID, ev.At); err != nil {
				return err
			}
			train.BerthID = toBerth.ID
			train.Active = true
		} else {
			if err := tk.claimBerth(ctx, tx, fromBerth.ID, train.ID, ev.At); err != nil {
				return err
			}
			train.BerthID = fromBerth.ID
			train.Active = false
		}
		train.LastSeen = ev.At
		if err := tx.UpdateTrain(ctx, train); err != nil {
			return err
		}
	}

	if !fromOK {
		return nil
	}

	// Confirmed exit from the source berth.
	if err := tx.AppendHistory(ctx, train.ID, fromBerth.ID, ev.At); err != nil {
		return err
	}
	if fromBerth.BorderOut != "" {
		// The berth mapping on the far side is assumed reliable once
		// configured: hand the episode over to the bordering area.
		train.Area = fromBerth.BorderOut
		train.Active = true
		if err := tx.UpdateTrain(ctx, train); err != nil {
			return err
		}
	}
	return nil
}

// handoff completes a cross-area transfer: the bordering area already
// tracks this description, so the existing episode follows the train into
// the event's area. Reports done=true when the transfer applied; the
// source-exit logic is skipped because the far side recorded its own exit.
func (tk *Tracker) handoff(ctx context.Context, tx *store.Tx, ev StepEvent, toBerth store.Berth) (bool, error) {
	prev, ok, err := tx.ActiveTrain(ctx, toBerth.BorderIn, ev.Code)
	if err != nil || !ok {
		return false, err
	}
	if err := tk.claimBerth(ctx, tx, toBerth.ID, prev.ID, ev.At); err != nil {
		return false, err
	}
	prev.Area = ev.Area
	prev.BerthID = toBerth.ID
	prev.Active = true
	prev.LastSeen = ev.At
	if err := tx.UpdateTrain(ctx, prev); err != nil {
		return false, err
	}
	slog.Debug("cross-area handoff",
		"code", ev.Code, "from_area", toBerth.BorderIn, "to_area", ev.Area)
	return true, nil
}

// claimBerth enforces the occupancy invariant for a berth about to be
// newly occupied. Any other non-cancelled occupant is cancelled in the
// same transaction, before the new occupancy is written - or, under the
// defer policy, the claim fails with errBerthHeld and the whole advance
// rolls back.
func (tk *Tracker) claimBerth(ctx context.Context, tx *store.Tx, berthID int64, selfID string, at int64) error {
	occupant, ok, err := tx.Occupant(ctx, berthID, selfID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if tk.takeover == TakeoverDefer {
		return errBerthHeld
	}
	slog.Debug("displacing stale occupant",
		"berth_id", berthID, "occupant", occupant.Code, "area", occupant.Area)
	return tx.CancelTrain(ctx, occupant.ID, at)
}

// applyCancel withdraws a reported occupancy. The cancellation applies
// only when it names the berth the train is currently known to occupy;
// stale or misattributed cancels are discarded.
func (tk *Tracker) applyCancel(ctx context.Context, tx *store.Tx, ev StepEvent) error {
	berth, ok, err := tx.LookupBerth(ctx, ev.Area, ev.From)
	if err != nil || !ok {
		return err
	}
	train, ok, err := tx.ActiveTrain(ctx, ev.Area, ev.Code)
	if err != nil || !ok {
		return err
	}
	if train.BerthID != berth.ID {
		return nil
	}
	return tx.CancelTrain(ctx, train.ID, ev.At)
}

func (tk *Tracker) recordHeartbeat(area string, at int64) {
	tk.mu.Lock()
	tk.heartbeats[area] = at
	tk.mu.Unlock()
}

// Heartbeats returns a copy of the last heartbeat timestamp per area,
// epoch milliseconds. Consumed by the health endpoint.
func (tk *Tracker) Heartbeats() map[string]int64 {
	tk.mu.RLock()
	defer tk.mu.RUnlock()
	out := make(map[string]int64, len(tk.heartbeats))
	for area, at := range tk.heartbeats {
		out[area] = at
	}
	return out
}

// newEpisode opens a new occupancy episode for the event's description.
func newEpisode(ev StepEvent, berthID int64, active bool) store.Train {
	return store.Train{
		ID:       uuid.Must(uuid.NewV7()).String(),
		Area:     ev.Area,
		Code:     ev.Code,
		BerthID:  berthID,
		Active:   active,
		LastSeen: ev.At,
	}
}
