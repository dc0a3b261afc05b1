// Package movement ingests the movement/operator-correlation feed.
//
// This is a filter-and-store side channel: actual-movement reports are
// kept, correlated against the imported operator table, and written to
// the store. No state machine runs over them.
package movement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/railwatch/railwatch/internal/store"
)

// msgTypeMovement is the actual-movement report class; the feed also
// carries activations, cancellations and reinstatements we do not store.
const msgTypeMovement = "0003"

// mvtMessage is one element of a movement frame.
type mvtMessage struct {
	Header struct {
		MsgType string `json:"msg_type"`
	} `json:"header"`
	Body struct {
		TrainID         string `json:"train_id"`
		TOCID           string `json:"toc_id"`
		ActualTimestamp string `json:"actual_timestamp"`
	} `json:"body"`
}

// Ingester filters movement frames into the store.
type Ingester struct {
	store *store.Store
}

func NewIngester(st *store.Store) *Ingester {
	return &Ingester{store: st}
}

// HandleFrame decodes one movement frame (a JSON array of messages) and
// stores the actual-movement reports it carries. Rows that fail to store
// are logged and skipped; a decode failure of the whole frame is returned
// to the caller.
func (in *Ingester) HandleFrame(ctx context.Context, body []byte) error {
	var messages []mvtMessage
	if err := json.Unmarshal(body, &messages); err != nil {
		return fmt.Errorf("decode movement frame: %w", err)
	}

	for _, m := range messages {
		if m.Header.MsgType != msgTypeMovement {
			continue
		}
		mv, ok := toMovement(m)
		if !ok {
			slog.Debug("skipping unusable movement report", "train_id", m.Body.TrainID)
			continue
		}
		if err := in.store.InsertMovement(ctx, mv); err != nil {
			slog.Error("movement store failed",
				"train_id", mv.TrainID, "error", err)
		}
	}
	return nil
}

// toMovement maps a report onto a store row. The reporting headcode is
// carried in characters 3-6 of the ten-character train id.
func toMovement(m mvtMessage) (store.Movement, bool) {
	if len(m.Body.TrainID) < 6 {
		return store.Movement{}, false
	}
	ts, err := strconv.ParseInt(m.Body.ActualTimestamp, 10, 64)
	if err != nil {
		return store.Movement{}, false
	}
	var sector *int
	if n, err := strconv.Atoi(m.Body.TOCID); err == nil {
		sector = &n
	}
	return store.Movement{
		TrainID:    m.Body.TrainID,
		Headcode:   m.Body.TrainID[2:6],
		SectorCode: sector,
		RecordedAt: ts,
	}, true
}
