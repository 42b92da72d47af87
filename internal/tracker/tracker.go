// Package tracker maintains the derived action-tracker documents: one
// independently versioned JSON document per client+opportunity aggregating
// follow-up actions across deliverables. Aggregate counters are always
// recomputed from the buckets, never adjusted in place.
package tracker

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperengineering/bidtrack/internal/store"
	"github.com/hyperengineering/bidtrack/internal/types"
)

const trackerSuffix = "_Action Tracker"

// ErrInvalidDeliverable indicates an action referenced a deliverable that
// is not registered in the tracker.
var ErrInvalidDeliverable = errors.New("deliverable is not part of the tracker")

// BaseID derives the tracker entity id for a client+opportunity pair.
func BaseID(clientName, opportunityName string) string {
	return clientName + "_" + opportunityName + trackerSuffix
}

// BaseIDFromPrefix derives the tracker entity id from a version-less bid
// prefix.
func BaseIDFromPrefix(prefix string) string {
	return prefix + trackerSuffix
}

// TrimVersionSuffix strips one trailing "_version<N>" token from a bid id.
// It is the fallback for deriving a tracker base id when the bid document
// itself is unavailable; it never splits on interior underscores, so names
// containing underscores survive intact.
func TrimVersionSuffix(bidID string) string {
	idx := strings.LastIndex(strings.ToLower(bidID), "_version")
	if idx < 0 {
		return bidID
	}
	tail := bidID[idx+len("_version"):]
	if tail == "" {
		return bidID
	}
	if _, err := strconv.Atoi(tail); err != nil {
		return bidID
	}
	return bidID[:idx]
}

// New returns a fresh tracker with zeroed counters and empty collections
// for the given deliverables.
func New(deliverables []string) *types.ActionTracker {
	return &types.ActionTracker{
		ActionsByDeliverable: make(map[string][]types.Action),
		Owners:               []string{},
		Deliverables:         append([]string{}, deliverables...),
		ActionHistory:        make(map[string][]types.HistoryEntry),
	}
}

// NextActionID assigns the next action id: one past the greatest existing
// numeric id across every deliverable bucket, starting at 1.
func NextActionID(t *types.ActionTracker) string {
	max := 0
	for _, bucket := range t.ActionsByDeliverable {
		for _, a := range bucket {
			if n, err := strconv.Atoi(a.ActionID); err == nil && n > max {
				max = n
			}
		}
	}
	return strconv.Itoa(max + 1)
}

// Recompute rebuilds the aggregate counters and the owner list by scanning
// every action in every deliverable bucket. A status equal to "completed"
// (case-insensitive) counts as closed; everything else counts as open.
func Recompute(t *types.ActionTracker) {
	total, open, closed := 0, 0, 0
	ownerSet := make(map[string]struct{})
	for _, bucket := range t.ActionsByDeliverable {
		for _, a := range bucket {
			total++
			if strings.EqualFold(a.Status, "completed") {
				closed++
			} else {
				open++
			}
			if a.Owner != "" {
				ownerSet[a.Owner] = struct{}{}
			}
		}
	}

	owners := make([]string, 0, len(ownerSet))
	for o := range ownerSet {
		owners = append(owners, o)
	}
	sort.Strings(owners)

	t.TotalActions = total
	t.OpenActions = open
	t.ClosedActions = closed
	t.Owners = owners
}

// Add validates and appends an action, assigns its id, recomputes the
// aggregates and records an "Action Created" history entry stamped with ts.
// The add path intentionally never prunes emptied buckets; only update and
// delete do.
func Add(t *types.ActionTracker, action types.Action, ts string) (string, error) {
	if !contains(t.Deliverables, action.Deliverable) {
		return "", fmt.Errorf("%q: %w", action.Deliverable, ErrInvalidDeliverable)
	}

	action.ActionID = NextActionID(t)
	if t.ActionsByDeliverable == nil {
		t.ActionsByDeliverable = make(map[string][]types.Action)
	}
	t.ActionsByDeliverable[action.Deliverable] = append(t.ActionsByDeliverable[action.Deliverable], action)
	Recompute(t)

	if t.ActionHistory == nil {
		t.ActionHistory = make(map[string][]types.HistoryEntry)
	}
	t.ActionHistory[action.ActionID] = append(t.ActionHistory[action.ActionID], types.HistoryEntry{
		Timestamp: ts,
		Message:   "Action Created",
	})
	return action.ActionID, nil
}

// Update applies a partial update to the first action matching id. A changed
// deliverable moves the action between buckets, deleting the old bucket if
// it empties. ChangedBy/ChangedDate/ChangedFields are history metadata and
// are not applied to the action. ts is used when the update carries no
// ChangedDate. Returns the field names recorded in the history entry.
func Update(t *types.ActionTracker, actionID string, upd types.ActionUpdate, ts string) ([]string, error) {
	bucket, idx, ok := find(t, actionID)
	if !ok {
		return nil, fmt.Errorf("action %s: %w", actionID, store.ErrNotFound)
	}

	updated := t.ActionsByDeliverable[bucket][idx]
	if upd.Name != nil {
		updated.Name = *upd.Name
	}
	if upd.Owner != nil {
		updated.Owner = *upd.Owner
	}
	if upd.EndDate != nil {
		updated.EndDate = *upd.EndDate
	}
	if upd.Status != nil {
		updated.Status = *upd.Status
	}
	if upd.Remarks != nil {
		updated.Remarks = *upd.Remarks
	}

	if upd.Deliverable != nil && *upd.Deliverable != bucket {
		updated.Deliverable = *upd.Deliverable
		t.ActionsByDeliverable[bucket] = removeAt(t.ActionsByDeliverable[bucket], idx)
		if len(t.ActionsByDeliverable[bucket]) == 0 {
			delete(t.ActionsByDeliverable, bucket)
		}
		t.ActionsByDeliverable[*upd.Deliverable] = append(t.ActionsByDeliverable[*upd.Deliverable], updated)
	} else {
		t.ActionsByDeliverable[bucket][idx] = updated
	}
	Recompute(t)

	fields := upd.ChangedFields
	if len(fields) == 0 {
		fields = changedFieldNames(upd)
	}
	if upd.ChangedDate != "" {
		ts = upd.ChangedDate
	}
	if t.ActionHistory == nil {
		t.ActionHistory = make(map[string][]types.HistoryEntry)
	}
	t.ActionHistory[actionID] = append(t.ActionHistory[actionID], types.HistoryEntry{
		Timestamp:     ts,
		ChangedBy:     upd.ChangedBy,
		Message:       "Action Updated",
		ChangedFields: fields,
	})
	return fields, nil
}

// Delete removes the first action matching id, prunes the bucket if it
// empties, recomputes the aggregates and drops the action's entire history.
func Delete(t *types.ActionTracker, actionID string) error {
	bucket, idx, ok := find(t, actionID)
	if !ok {
		return fmt.Errorf("action %s: %w", actionID, store.ErrNotFound)
	}
	t.ActionsByDeliverable[bucket] = removeAt(t.ActionsByDeliverable[bucket], idx)
	if len(t.ActionsByDeliverable[bucket]) == 0 {
		delete(t.ActionsByDeliverable, bucket)
	}
	Recompute(t)
	delete(t.ActionHistory, actionID)
	return nil
}

// History returns the ordered history entries for an action id, or an empty
// list when none were recorded.
func History(t *types.ActionTracker, actionID string) []types.HistoryEntry {
	entries := t.ActionHistory[actionID]
	if entries == nil {
		return []types.HistoryEntry{}
	}
	return entries
}

// find locates the first action matching id, scanning the declared
// deliverables in order and then any stray buckets in sorted order so the
// "first match" rule is deterministic.
func find(t *types.ActionTracker, actionID string) (bucket string, idx int, ok bool) {
	seen := make(map[string]struct{}, len(t.Deliverables))
	for _, d := range t.Deliverables {
		seen[d] = struct{}{}
		for i, a := range t.ActionsByDeliverable[d] {
			if a.ActionID == actionID {
				return d, i, true
			}
		}
	}

	var stray []string
	for d := range t.ActionsByDeliverable {
		if _, dup := seen[d]; !dup {
			stray = append(stray, d)
		}
	}
	sort.Strings(stray)
	for _, d := range stray {
		for i, a := range t.ActionsByDeliverable[d] {
			if a.ActionID == actionID {
				return d, i, true
			}
		}
	}
	return "", 0, false
}

func changedFieldNames(upd types.ActionUpdate) []string {
	var fields []string
	if upd.Name != nil {
		fields = append(fields, "name")
	}
	if upd.Deliverable != nil {
		fields = append(fields, "deliverable")
	}
	if upd.Owner != nil {
		fields = append(fields, "owner")
	}
	if upd.EndDate != nil {
		fields = append(fields, "endDate")
	}
	if upd.Status != nil {
		fields = append(fields, "status")
	}
	if upd.Remarks != nil {
		fields = append(fields, "remarks")
	}
	return fields
}

func removeAt(bucket []types.Action, idx int) []types.Action {
	return append(bucket[:idx], bucket[idx+1:]...)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
