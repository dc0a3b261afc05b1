package feed

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/railwatch/railwatch/internal/tracker"
)

// epochMillis decodes the feed's timestamp fields, which arrive either as
// a JSON number or as a quoted decimal string of epoch milliseconds.
type epochMillis int64

func (m *epochMillis) UnmarshalJSON(data []byte) error {
	if len(data) > 1 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		*m = epochMillis(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = epochMillis(v)
	return nil
}

// stepBody is the shared shape of berth-step message bodies.
type stepBody struct {
	Time   epochMillis `json:"time"`
	AreaID string      `json:"area_id"`
	From   string      `json:"from"`
	To     string      `json:"to"`
	Descr  string      `json:"descr"`
}

// tdMessage is one element of a TD frame: a single-key object whose key
// names the message class.
//
// CA is a berth step (advance), CB a berth cancel, CC an interpose (a
// description placed directly into a berth, no source) and CT the
// periodic area heartbeat.
type tdMessage struct {
	Step      *stepBody `json:"CA_MSG"`
	Cancel    *stepBody `json:"CB_MSG"`
	Interpose *stepBody `json:"CC_MSG"`
	Heartbeat *struct {
		Time   epochMillis `json:"time"`
		AreaID string      `json:"area_id"`
	} `json:"CT_MSG"`
}

// DecodeTDFrame decodes a raw TD frame body (a JSON array of single-key
// message objects) into step events, preserving array order. Message
// classes this consumer does not track decode to nothing.
func DecodeTDFrame(body []byte) ([]tracker.StepEvent, error) {
	var messages []tdMessage
	if err := json.Unmarshal(body, &messages); err != nil {
		return nil, fmt.Errorf("decode TD frame: %w", err)
	}

	events := make([]tracker.StepEvent, 0, len(messages))
	for _, m := range messages {
		switch {
		case m.Step != nil:
			events = append(events, tracker.StepEvent{
				Kind: tracker.KindAdvance,
				Area: m.Step.AreaID,
				Code: m.Step.Descr,
				From: m.Step.From,
				To:   m.Step.To,
				At:   int64(m.Step.Time),
			})
		case m.Interpose != nil:
			// An interpose is an advance with no source berth.
			events = append(events, tracker.StepEvent{
				Kind: tracker.KindAdvance,
				Area: m.Interpose.AreaID,
				Code: m.Interpose.Descr,
				To:   m.Interpose.To,
				At:   int64(m.Interpose.Time),
			})
		case m.Cancel != nil:
			events = append(events, tracker.StepEvent{
				Kind: tracker.KindCancel,
				Area: m.Cancel.AreaID,
				Code: m.Cancel.Descr,
				From: m.Cancel.From,
				At:   int64(m.Cancel.Time),
			})
		case m.Heartbeat != nil:
			events = append(events, tracker.StepEvent{
				Kind: tracker.KindHeartbeat,
				Area: m.Heartbeat.AreaID,
				At:   int64(m.Heartbeat.Time),
			})
		}
	}
	return events, nil
}
