package tracker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hyperengineering/bidtrack/internal/store"
	"github.com/hyperengineering/bidtrack/internal/types"
)

// historyZone is the fixed timezone used when a mutation carries no
// caller-supplied timestamp.
var historyZone = time.FixedZone("IST", 5*3600+30*60)

const historyLayout = "2006-01-02 15:04:05"

// Service persists action trackers in their own document directory, using
// the same filename versioning scheme as bids.
type Service struct {
	dir *store.Dir
	now func() time.Time
}

// NewService creates a tracker service over the given document directory.
func NewService(dir *store.Dir) *Service {
	return &Service{dir: dir, now: time.Now}
}

func (s *Service) timestamp() string {
	return s.now().In(historyZone).Format(historyLayout)
}

// Latest returns the document id of the highest tracker version for the
// base id, or "" when none exists.
func (s *Service) Latest(baseID string) (string, error) {
	_, latest, err := s.dir.NextVersion(baseID)
	return latest, err
}

// Load reads the latest tracker version for the base id.
func (s *Service) Load(baseID string) (*types.ActionTracker, string, error) {
	latest, err := s.Latest(baseID)
	if err != nil {
		return nil, "", err
	}
	if latest == "" {
		return nil, "", fmt.Errorf("tracker %s: %w", baseID, store.ErrNotFound)
	}
	var t types.ActionTracker
	if err := s.dir.Read(latest, &t); err != nil {
		return nil, "", err
	}
	return &t, latest, nil
}

// CreateNewVersion produces the next tracker version for the base id. An
// existing tracker is carried forward with its deliverable list replaced,
// and every historical version sharing the base id is archived first. With
// no previous version a fresh zeroed tracker is written.
func (s *Service) CreateNewVersion(baseID string, deliverables []string) (string, error) {
	version, latest, err := s.dir.NextVersion(baseID)
	if err != nil {
		return "", err
	}

	var doc *types.ActionTracker
	if latest != "" {
		var prev types.ActionTracker
		if err := s.dir.Read(latest, &prev); err != nil {
			return "", err
		}
		moved, err := s.dir.ArchiveAllWithPrefix(baseID)
		if err != nil {
			return "", err
		}
		slog.Info("tracker versions archived", "baseId", baseID, "moved", moved)
		prev.Deliverables = append([]string{}, deliverables...)
		doc = &prev
	} else {
		doc = New(deliverables)
	}

	id := fmt.Sprintf("%s_version%d", baseID, version)
	if err := s.dir.Write(id, doc); err != nil {
		return "", err
	}
	return id, nil
}

// AddAction appends an action to the latest tracker version and saves it.
// Returns the updated tracker and the assigned action id.
func (s *Service) AddAction(baseID string, action types.Action) (*types.ActionTracker, string, error) {
	t, id, err := s.Load(baseID)
	if err != nil {
		return nil, "", err
	}
	actionID, err := Add(t, action, s.timestamp())
	if err != nil {
		return nil, "", err
	}
	if err := s.dir.Write(id, t); err != nil {
		return nil, "", err
	}
	return t, actionID, nil
}

// UpdateAction applies a partial update to one action in the latest tracker
// version and saves it.
func (s *Service) UpdateAction(baseID, actionID string, upd types.ActionUpdate) (*types.ActionTracker, error) {
	t, id, err := s.Load(baseID)
	if err != nil {
		return nil, err
	}
	if _, err := Update(t, actionID, upd, s.timestamp()); err != nil {
		return nil, err
	}
	if err := s.dir.Write(id, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteAction removes one action from the latest tracker version and
// saves it.
func (s *Service) DeleteAction(baseID, actionID string) (*types.ActionTracker, error) {
	t, id, err := s.Load(baseID)
	if err != nil {
		return nil, err
	}
	if err := Delete(t, actionID); err != nil {
		return nil, err
	}
	if err := s.dir.Write(id, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetHistory returns the history entries for one action in the latest
// tracker version.
func (s *Service) GetHistory(baseID, actionID string) ([]types.HistoryEntry, error) {
	t, _, err := s.Load(baseID)
	if err != nil {
		return nil, err
	}
	return History(t, actionID), nil
}

// DeleteActive removes the latest tracker version if one exists. Archived
// versions are left alone.
func (s *Service) DeleteActive(baseID string) error {
	latest, err := s.Latest(baseID)
	if err != nil {
		return err
	}
	if latest == "" {
		return fmt.Errorf("tracker %s: %w", baseID, store.ErrNotFound)
	}
	return s.dir.Delete(latest)
}

// List enumerates tracker documents.
func (s *Service) List(includeArchived bool) ([]store.FileInfo, error) {
	return s.dir.List(includeArchived)
}
