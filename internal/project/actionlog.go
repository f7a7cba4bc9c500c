package project

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowgrid/flowgrid/internal/action"
	"github.com/flowgrid/flowgrid/internal/component"
	"github.com/flowgrid/flowgrid/internal/history"
	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/queue"
	"github.com/flowgrid/flowgrid/internal/store"
)

// actionLogJSON is the ".fla" wire document (§4.6): an index into the
// gesture list and the gestures themselves, each a pre-merged run of
// actions plus the time the gesture was committed.
type actionLogJSON struct {
	Index    int           `json:"index"`
	Gestures []gestureJSON `json:"gestures"`
}

type gestureJSON struct {
	Actions []actionPairJSON `json:"actions"`
	Time    int64            `json:"time"`
}

// SaveActionLog encodes every recorded gesture in h (regardless of
// where Index currently sits, so a reload can still redo past it) using
// codec to serialize each action.
func SaveActionLog(h *history.History, codec *ActionCodec) ([]byte, error) {
	gestures := h.Gestures()
	out := actionLogJSON{Index: h.Index(), Gestures: make([]gestureJSON, 0, len(gestures))}
	for _, g := range gestures {
		if len(g) == 0 {
			continue
		}
		gj := gestureJSON{Time: g[len(g)-1].Timestamp.UnixMicro()}
		for _, e := range g {
			w, err := codec.Encode(e.Action)
			if err != nil {
				return nil, err
			}
			gj.Actions = append(gj.Actions, actionPairJSON{Path: e.Action.TargetPath().String(), Wire: w})
		}
		out.Gestures = append(out.Gestures, gj)
	}
	return json.MarshalIndent(out, "", "  ")
}

// LoadActionLog replays a ".fla" document from the empty store. Per
// §4.6: reset to empty, replay each gesture's actions, append each
// gesture to history as a pre-merged record, then SetIndex(index).
//
// Upstream's StoreHistory::AddTransientGesture lets every gesture in the
// log share one still-open immer transient, deferring the single commit
// to the very end; internal/store's Transient is one-shot (Commit
// closes it), so this commits once per gesture instead via
// History.AppendReplayedGesture. The end state — one Record per gesture,
// each holding its own incremental snapshot — is identical; only the
// number of underlying commits differs.
func LoadActionLog(data []byte, base *store.Store, reg *component.Registry, areg *action.Registry, codec *ActionCodec) (*store.Store, *history.History, error) {
	var log actionLogJSON
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, nil, fmt.Errorf("project: decoding action log: %w", err)
	}

	cur := base
	h := history.New(reg, cur)

	for _, g := range log.Gestures {
		if len(g.Actions) == 0 {
			continue
		}
		tx := cur.BeginTransient()
		entries := make([]queue.Entry, 0, len(g.Actions))
		t := time.UnixMicro(g.Time)
		for _, pair := range g.Actions {
			target := path.FromString(pair.Path)
			a, err := codec.Decode(target, pair.Wire)
			if err != nil {
				tx.Discard()
				return nil, nil, err
			}
			if err := areg.Apply(tx, a); err != nil {
				tx.Discard()
				return nil, nil, fmt.Errorf("project: replaying %s.%s: %w", a.Namespace(), a.Leaf(), err)
			}
			entries = append(entries, queue.Entry{Action: a, Timestamp: t})
		}
		after, _ := tx.Commit()
		cur = after
		h.AppendReplayedGesture(cur, entries)
	}
	h.SetIndex(log.Index)
	return cur, h, nil
}
