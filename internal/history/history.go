// Package history implements the gesture engine and undo/redo record
// (C10, §4.4): a vector of full-snapshot Records, an in-flight active
// gesture, and path-keyed update timelines that LatestUpdateTime reports
// from.
//
// Grounded on original_source/src/FlowGrid/StoreHistory.{h,cpp}: because
// each Record holds a full Store snapshot (cheap thanks to the
// immutable-radix structural sharing internal/store already provides),
// SetIndex never needs to replay Patch.Apply/Inverse to reconstruct a
// past state — it installs the target Record's snapshot directly and
// only computes per-step patches to drive NotifyPatch and the committed-
// update timeline, exactly as StoreHistory.cpp does.
package history

import (
	"time"

	"github.com/flowgrid/flowgrid/internal/action"
	"github.com/flowgrid/flowgrid/internal/component"
	"github.com/flowgrid/flowgrid/internal/logging"
	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/queue"
	"github.com/flowgrid/flowgrid/internal/store"
)

// Record is one committed point in history: the Store snapshot at that
// point, when it was committed, and (for every record but the first) the
// merged gesture that produced it.
type Record struct {
	Committed time.Time
	Snapshot  *store.Store
	Gesture   []queue.Entry
}

// History is the process-wide undo/redo record plus the currently
// in-flight (not yet finalized) gesture. Zero value is not usable; build
// one with New.
type History struct {
	reg *component.Registry

	records []Record
	index   int

	activeGesture []queue.Entry

	// gestureUpdateTimes and committedUpdateTimes are keyed by path.String()
	// since path.Path is itself comparable, but the string form lets equal
	// paths collapse identically regardless of how they were constructed.
	gestureUpdateTimes   map[string][]time.Time
	committedUpdateTimes map[string][]time.Time
}

// New returns a History seeded with a single initial record holding the
// given snapshot (conventionally the empty or freshly loaded project
// store) and no recorded gesture.
func New(reg *component.Registry, initial *store.Store) *History {
	return &History{
		reg:                  reg,
		records:              []Record{{Committed: time.Now(), Snapshot: initial}},
		gestureUpdateTimes:   make(map[string][]time.Time),
		committedUpdateTimes: make(map[string][]time.Time),
	}
}

// Size is the number of records, including the initial one.
func (h *History) Size() int { return len(h.records) }

// Empty reports whether nothing beyond the initial record has ever been
// committed.
func (h *History) Empty() bool { return h.Size() <= 1 }

// Index is the position of the currently active record.
func (h *History) Index() int { return h.index }

// CanUndo mirrors StoreHistory::CanUndo: an open gesture can always be
// undone (by discarding it), otherwise only a non-initial index can.
func (h *History) CanUndo() bool { return len(h.activeGesture) > 0 || h.index > 0 }

// CanRedo reports whether a later record exists to navigate to.
func (h *History) CanRedo() bool { return h.index < h.Size()-1 }

// CurrentStore returns the snapshot at the active index.
func (h *History) CurrentStore() *store.Store { return h.records[h.index].Snapshot }

// RecordAction appends a just-applied action to the active gesture. It
// does not touch the Store; the caller has already committed the action's
// effect and is merely asking History to remember it for the eventual
// FinalizeGesture.
func (h *History) RecordAction(a action.Action, at time.Time) {
	h.activeGesture = append(h.activeGesture, queue.Entry{Action: a, Timestamp: at})
}

// GestureStartTime is the timestamp of the most recently recorded action
// in the active gesture, the reference point MaybeFinalize measures
// elapsed time against. Returns the zero Time if no gesture is open.
func (h *History) GestureStartTime() time.Time {
	if len(h.activeGesture) == 0 {
		return time.Time{}
	}
	return h.activeGesture[len(h.activeGesture)-1].Timestamp
}

// GestureTimeRemainingSec reports how many seconds remain before an open
// gesture auto-finalizes under durationSec, clamped to zero.
func (h *History) GestureTimeRemainingSec(now time.Time, durationSec float64) float64 {
	if len(h.activeGesture) == 0 {
		return 0
	}
	remaining := durationSec - now.Sub(h.GestureStartTime()).Seconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// mergeGestureEntries folds an active gesture's recorded entries
// left-to-right through action.MergeAdjacent's cancel/collapse/split
// decisions (§4.4), the same algorithm action.MergeGesture applies to a
// bare []Action. It is duplicated here rather than built on top of
// action.MergeGesture because a Record's Gesture field must keep each
// surviving entry's timestamp (StoreHistory.cpp reads
// merged.back().second directly), and internal/action is deliberately
// kept store/time agnostic.
func mergeGestureEntries(entries []queue.Entry) []queue.Entry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]queue.Entry, 0, len(entries))
	cur := entries[0]
	for i := 1; i < len(entries); i++ {
		next := entries[i]
		merged, cancel, ok := action.MergeAdjacent(cur.Action, next.Action)
		switch {
		case ok && cancel:
			if i+1 < len(entries) {
				cur = entries[i+1]
				i++
			} else {
				return out
			}
		case ok:
			cur = queue.Entry{Action: merged, Timestamp: next.Timestamp}
		default:
			out = append(out, cur)
			cur = next
		}
	}
	out = append(out, cur)
	return out
}

// touchedPaths collects the relative keys of a patch for NotifyPatch and
// the update-timeline bookkeeping below.
func touchedPaths(p store.Patch) []path.Path {
	rels := make([]path.Path, 0, len(p.Ops))
	for rel := range p.Ops {
		rels = append(rels, rel)
	}
	return rels
}

// FinalizeGesture merges the active gesture, diffs the last record's
// snapshot against current (the live store as committed by the frame's
// actions), and - if both the merge and the diff are non-empty - pushes a
// new Record, truncating any redoable future. Returns whether a record
// was appended. Mirrors StoreHistory::FinalizeGesture exactly, including
// its two independent short-circuits (an all-cancelling gesture, or a
// gesture whose net Store effect is a no-op).
func (h *History) FinalizeGesture(current *store.Store) bool {
	if len(h.activeGesture) == 0 {
		return false
	}
	gestureLen := len(h.activeGesture)
	merged := mergeGestureEntries(h.activeGesture)
	h.activeGesture = nil
	h.gestureUpdateTimes = make(map[string][]time.Time)
	if len(merged) == 0 {
		return false
	}

	patch := store.CreatePatch(h.records[h.index].Snapshot, current, path.Root)
	if patch.Empty() {
		return false
	}

	h.records = h.records[:h.index+1]
	h.records = append(h.records, Record{Committed: time.Now(), Snapshot: current, Gesture: merged})
	h.index = len(h.records) - 1

	gestureTime := merged[len(merged)-1].Timestamp
	rels := touchedPaths(patch)
	for _, rel := range rels {
		key := rel.String()
		h.committedUpdateTimes[key] = append(h.committedUpdateTimes[key], gestureTime)
	}
	h.reg.NotifyPatch(patch.BasePath, rels)
	logging.HistoryDebug("finalized gesture: %d actions merged to %d, %d paths changed, now at index %d/%d",
		gestureLen, len(merged), len(rels), h.index, h.Size()-1)
	return true
}

// MaybeFinalize applies §4.4's per-frame finalize trigger: an open
// gesture finalizes once force is set (a force-finalize action ran, per
// Open Question #2) or durationSec has elapsed since its last action.
func (h *History) MaybeFinalize(now time.Time, durationSec float64, force bool, current *store.Store) bool {
	if len(h.activeGesture) == 0 {
		return false
	}
	if force || now.Sub(h.GestureStartTime()).Seconds() > durationSec {
		return h.FinalizeGesture(current)
	}
	return false
}

// UpdateGesturePaths records patch touched while an action inside the
// still-open active gesture was immediately committed, so LatestUpdateTime
// can report freshness mid-gesture (before FinalizeGesture runs). Mirrors
// StoreHistory::UpdateGesturePaths.
func (h *History) UpdateGesturePaths(patch store.Patch) {
	if len(h.activeGesture) == 0 {
		return
	}
	gestureTime := h.activeGesture[len(h.activeGesture)-1].Timestamp
	for rel := range patch.Ops {
		key := rel.String()
		h.gestureUpdateTimes[key] = append(h.gestureUpdateTimes[key], gestureTime)
	}
}

// LatestUpdateTime reports the most recent time p changed, preferring an
// in-flight gesture update over the committed timeline, per
// StoreHistory::LatestUpdateTime.
func (h *History) LatestUpdateTime(p path.Path) (time.Time, bool) {
	key := p.String()
	if times, ok := h.gestureUpdateTimes[key]; ok && len(times) > 0 {
		return times[len(times)-1], true
	}
	if times, ok := h.committedUpdateTimes[key]; ok && len(times) > 0 {
		return times[len(times)-1], true
	}
	return time.Time{}, false
}

// Gestures returns every recorded (non-initial) merged gesture in order.
func (h *History) Gestures() [][]queue.Entry {
	var out [][]queue.Entry
	for _, r := range h.records {
		if len(r.Gesture) > 0 {
			out = append(out, r.Gesture)
		}
	}
	return out
}

// SetIndex discards any open gesture (§4.4's mid-gesture-discard
// invariant: navigating away from an in-progress gesture abandons it,
// commits nothing, creates no record) and, if target differs from the
// current index and is in range, installs Records[target].Snapshot as
// the live store directly - no Patch.Apply/Inverse stepping needed, since
// every Record already holds a full snapshot. It still walks the records
// between old and new index one step at a time, purely to maintain the
// committed-update timeline and to fire NotifyPatch with every touched
// path, exactly as StoreHistory::SetIndex does.
func (h *History) SetIndex(target int) *store.Store {
	if len(h.activeGesture) > 0 {
		h.activeGesture = nil
		h.gestureUpdateTimes = make(map[string][]time.Time)
	}
	if target == h.index || target < 0 || target >= h.Size() {
		return h.CurrentStore()
	}

	oldIndex := h.index
	forward := target > oldIndex
	h.index = target

	var allTouched []path.Path
	basePath := path.Root
	i := oldIndex
	for i != target {
		var recordIndex int
		if forward {
			recordIndex = i
			i++
		} else {
			i--
			recordIndex = i
		}
		before := h.records[recordIndex].Snapshot
		after := h.records[recordIndex+1].Snapshot
		patch := store.CreatePatch(before, after, path.Root)
		gestureEntries := h.records[recordIndex+1].Gesture
		gestureTime := gestureEntries[len(gestureEntries)-1].Timestamp

		for rel := range patch.Ops {
			key := rel.String()
			if forward {
				h.committedUpdateTimes[key] = append(h.committedUpdateTimes[key], gestureTime)
			} else if times, ok := h.committedUpdateTimes[key]; ok && len(times) > 0 {
				times = times[:len(times)-1]
				if len(times) == 0 {
					delete(h.committedUpdateTimes, key)
				} else {
					h.committedUpdateTimes[key] = times
				}
			}
			allTouched = append(allTouched, rel)
		}
	}
	h.gestureUpdateTimes = make(map[string][]time.Time)
	h.reg.NotifyPatch(basePath, allTouched)
	logging.HistoryDebug("SetIndex %d -> %d, %d paths touched", oldIndex, target, len(allTouched))
	return h.CurrentStore()
}

// Undo finalizes any open gesture against current first (so dragging a
// slider and immediately pressing undo commits the drag as one step
// before stepping back past it), then moves one record back. A no-op at
// the start of history.
func (h *History) Undo(current *store.Store) *store.Store {
	if len(h.activeGesture) > 0 {
		h.FinalizeGesture(current)
	}
	if h.index == 0 {
		return h.CurrentStore()
	}
	return h.SetIndex(h.index - 1)
}

// Redo moves one record forward. A no-op at the end of history.
func (h *History) Redo() *store.Store {
	if h.index >= h.Size()-1 {
		return h.CurrentStore()
	}
	return h.SetIndex(h.index + 1)
}

// AppendReplayedGesture appends a pre-merged gesture and its resulting
// snapshot directly to the record list, skipping FinalizeGesture's
// merge/diff logic. Used by Project I/O's ActionLog loader (§4.6), which
// already knows each gesture's full action list and post-replay snapshot
// from the serialized log and only needs History to remember them as a
// navigable record. Any redoable future is truncated first, mirroring
// FinalizeGesture's own behavior.
func (h *History) AppendReplayedGesture(snapshot *store.Store, gesture []queue.Entry) {
	h.records = h.records[:h.index+1]
	h.records = append(h.records, Record{Committed: time.Now(), Snapshot: snapshot, Gesture: gesture})
	h.index = len(h.records) - 1
}
