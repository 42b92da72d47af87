// Package bid implements the bid lifecycle: validation, versioned creation
// with archival of the superseded document, CRUD over stored bid files and
// the best-effort synchronization of the derived action tracker.
package bid

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/bidtrack/internal/store"
	"github.com/hyperengineering/bidtrack/internal/tracker"
	"github.com/hyperengineering/bidtrack/internal/types"
	"github.com/hyperengineering/bidtrack/internal/validation"
)

// DefaultDocID names the scratch document used by endpoints that operate
// without an explicit bid id.
const DefaultDocID = "current_bid"

// Service owns the bid document directory and coordinates with the tracker
// service for the operations that touch both documents.
type Service struct {
	docs     *store.Dir
	trackers *tracker.Service
}

// NewService creates a bid service.
func NewService(docs *store.Dir, trackers *tracker.Service) *Service {
	return &Service{docs: docs, trackers: trackers}
}

// Validate checks the presence rules for an incoming payload.
func (s *Service) Validate(b types.Bid) error {
	if fe := validation.Bid(b); fe != nil {
		return fe
	}
	return nil
}

// CreateOrVersion validates the payload and writes it as the next version
// for its client+opportunity. When a prior version exists its document is
// loaded and shallow-merged under the incoming payload first, the timeline
// and deliverables always taken from the incoming payload, and its file is
// archived (moved, not copied) after being read.
func (s *Service) CreateOrVersion(b types.Bid) (string, error) {
	if err := s.Validate(b); err != nil {
		return "", err
	}

	prefix := b.Prefix()
	version, latest, err := s.docs.NextVersion(prefix)
	if err != nil {
		return "", err
	}

	if latest != "" {
		var prev types.Bid
		if err := s.docs.Read(latest, &prev); err != nil {
			return "", fmt.Errorf("load previous version: %w", err)
		}
		b = merge(prev, b)
		if err := s.docs.Archive(latest); err != nil {
			return "", fmt.Errorf("archive previous version: %w", err)
		}
	}

	b.BidID = fmt.Sprintf("%s_version%d", prefix, version)
	if err := s.docs.Write(b.BidID, b); err != nil {
		return "", err
	}
	slog.Info("bid version created", "bidId", b.BidID, "version", version)
	return b.BidID, nil
}

// Finalize persists the bid as a new version and creates the matching
// action-tracker version. The two writes are independent; a failure after
// the bid write leaves the tracker behind by one version.
func (s *Service) Finalize(b types.Bid) (string, error) {
	bidID, err := s.CreateOrVersion(b)
	if err != nil {
		return "", err
	}
	baseID := tracker.BaseID(b.ClientName, b.OpportunityName)
	if _, err := s.trackers.CreateNewVersion(baseID, b.Deliverables); err != nil {
		slog.Error("action tracker version not created", "baseId", baseID, "error", err)
	}
	return bidID, nil
}

// merge lays the incoming payload over the previous document. Absent
// incoming fields keep their previous values, but timeline and deliverables
// always come from the incoming payload.
func merge(prev, in types.Bid) types.Bid {
	out := prev
	if in.ClientName != "" {
		out.ClientName = in.ClientName
	}
	if in.OpportunityName != "" {
		out.OpportunityName = in.OpportunityName
	}
	if in.Activities != nil {
		out.Activities = in.Activities
	}
	if in.Team != nil {
		out.Team = in.Team
	}
	out.Timeline = in.Timeline
	out.Deliverables = in.Deliverables
	return out
}

// Get reads a stored document verbatim.
func (s *Service) Get(bidID string) (map[string]any, error) {
	doc := map[string]any{}
	if err := s.docs.Read(bidID, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetBid reads a stored document into the typed bid shape.
func (s *Service) GetBid(bidID string) (types.Bid, error) {
	var b types.Bid
	if err := s.docs.Read(bidID, &b); err != nil {
		return types.Bid{}, err
	}
	return b, nil
}

// Save overwrites a named document with the given payload. The document id
// is taken from the payload's bidId, defaulting to the scratch document.
func (s *Service) Save(doc map[string]any) (string, error) {
	bidID := DefaultDocID
	if v, ok := doc["bidId"].(string); ok && v != "" {
		bidID = v
	}
	if err := s.docs.Write(bidID, doc); err != nil {
		return "", err
	}
	return bidID, nil
}

// Delete removes the active bid document and, best-effort, the matching
// action-tracker document.
func (s *Service) Delete(bidID string) error {
	var b types.Bid
	readErr := s.docs.Read(bidID, &b)

	if err := s.docs.Delete(bidID); err != nil {
		return err
	}

	baseID := baseIDFor(bidID, b, readErr)
	if err := s.trackers.DeleteActive(baseID); err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Warn("action tracker not deleted", "baseId", baseID, "error", err)
	}
	return nil
}

// TrackerBaseID derives the action-tracker base id for a bid id. The bid
// document's own clientName and opportunityName are authoritative, so names
// containing underscores resolve correctly; only when the document cannot
// be read does the derivation fall back to trimming a trailing version
// token from the id.
func (s *Service) TrackerBaseID(bidID string) string {
	var b types.Bid
	err := s.docs.Read(bidID, &b)
	return baseIDFor(bidID, b, err)
}

func baseIDFor(bidID string, b types.Bid, readErr error) string {
	if readErr == nil && b.ClientName != "" && b.OpportunityName != "" {
		return tracker.BaseID(b.ClientName, b.OpportunityName)
	}
	return tracker.BaseIDFromPrefix(tracker.TrimVersionSuffix(bidID))
}

// List enumerates stored bid documents, reading each to surface its client
// and opportunity names. Unreadable documents are listed as Unknown rather
// than failing the listing.
func (s *Service) List(includeArchived bool) ([]types.FileEntry, error) {
	infos, err := s.docs.List(includeArchived)
	if err != nil {
		return nil, err
	}

	entries := make([]types.FileEntry, 0, len(infos))
	for _, fi := range infos {
		entry := types.FileEntry{
			ID:              fi.ID,
			ClientName:      "Unknown",
			OpportunityName: "Unknown",
			LastModified:    float64(fi.ModTime.UnixNano()) / 1e9,
			Archived:        fi.Archived,
		}

		var b types.Bid
		readErr := s.docs.Read(fi.ID, &b)
		if fi.Archived {
			readErr = s.docs.ReadArchived(fi.ID, &b)
		}
		if readErr == nil {
			if b.ClientName != "" {
				entry.ClientName = b.ClientName
			}
			if b.OpportunityName != "" {
				entry.OpportunityName = b.OpportunityName
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MoveToArchive moves a named document into the archive area.
func (s *Service) MoveToArchive(bidID string) error {
	return s.docs.Archive(bidID)
}

// SaveActivities upserts one deliverable's activity list on a stored
// document, creating the document when it does not exist yet. The rest of
// the document is preserved verbatim.
func (s *Service) SaveActivities(bidID, deliverable string, activities []types.Activity) error {
	doc := map[string]any{}
	if err := s.docs.Read(bidID, &doc); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	buckets, _ := doc["activities"].(map[string]any)
	if buckets == nil {
		buckets = map[string]any{}
	}
	buckets[deliverable] = activities
	doc["activities"] = buckets
	return s.docs.Write(bidID, doc)
}

// UpdateActivity updates one activity, matched by name, inside one
// deliverable of a stored bid, then best-effort syncs the derived action
// tracker. Tracker sync failures are logged and never surfaced.
func (s *Service) UpdateActivity(bidID, deliverable, name string, upd types.Activity) (types.Activity, error) {
	var b types.Bid
	if err := s.docs.Read(bidID, &b); err != nil {
		return types.Activity{}, err
	}

	bucket, ok := b.Activities[deliverable]
	if !ok {
		return types.Activity{}, fmt.Errorf("deliverable %s: %w", deliverable, store.ErrNotFound)
	}

	idx := -1
	for i, a := range bucket {
		if a.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return types.Activity{}, fmt.Errorf("activity %s: %w", name, store.ErrNotFound)
	}

	updated := bucket[idx]
	if upd.Owner != "" {
		updated.Owner = upd.Owner
	}
	if upd.Status != "" {
		updated.Status = upd.Status
	}
	if upd.StartDate != "" {
		updated.StartDate = upd.StartDate
	}
	if upd.EndDate != "" {
		updated.EndDate = upd.EndDate
	}
	if upd.Remarks != "" {
		updated.Remarks = upd.Remarks
	}
	bucket[idx] = updated
	b.Activities[deliverable] = bucket

	if err := s.docs.Write(bidID, b); err != nil {
		return types.Activity{}, err
	}

	s.syncTracker(bidID, b, deliverable, updated)
	return updated, nil
}

// syncTracker mirrors an activity update onto the matching tracker action,
// matched by name within the same deliverable bucket.
func (s *Service) syncTracker(bidID string, b types.Bid, deliverable string, act types.Activity) {
	baseID := baseIDFor(bidID, b, nil)
	t, _, err := s.trackers.Load(baseID)
	if err != nil {
		slog.Debug("tracker sync skipped", "bidId", bidID, "baseId", baseID, "error", err)
		return
	}

	actionID := ""
	for _, a := range t.ActionsByDeliverable[deliverable] {
		if a.Name == act.Name {
			actionID = a.ActionID
			break
		}
	}
	if actionID == "" {
		slog.Debug("tracker sync skipped, no matching action", "bidId", bidID, "activity", act.Name)
		return
	}

	upd := types.ActionUpdate{ChangedBy: "activity-sync"}
	if act.Owner != "" {
		upd.Owner = &act.Owner
	}
	if act.Status != "" {
		upd.Status = &act.Status
	}
	if act.EndDate != "" {
		upd.EndDate = &act.EndDate
	}
	if act.Remarks != "" {
		upd.Remarks = &act.Remarks
	}
	if _, err := s.trackers.UpdateAction(baseID, actionID, upd); err != nil {
		slog.Warn("tracker sync failed", "bidId", bidID, "actionId", actionID, "error", err)
	}
}
