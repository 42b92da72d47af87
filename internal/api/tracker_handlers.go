package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hyperengineering/bidtrack/internal/types"
)

// trackerResponse wraps a tracker mutation result.
type trackerResponse struct {
	Success  bool                 `json:"success"`
	Message  string               `json:"message"`
	ActionID string               `json:"actionId,omitempty"`
	Tracker  *types.ActionTracker `json:"tracker,omitempty"`
}

// ListTrackers handles GET /api/action-trackers
func (h *Handler) ListTrackers(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("archived") == "true"
	infos, err := h.trackers.List(includeArchived)
	if err != nil {
		MapError(w, r, err)
		return
	}

	files := make([]map[string]any, 0, len(infos))
	for _, fi := range infos {
		files = append(files, map[string]any{
			"id":           fi.ID,
			"lastModified": float64(fi.ModTime.UnixNano()) / 1e9,
			"archived":     fi.Archived,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// GetTracker handles GET /api/action-trackers/{bidID}
func (h *Handler) GetTracker(w http.ResponseWriter, r *http.Request) {
	baseID := h.bids.TrackerBaseID(pathParam(r, "bidID"))
	t, _, err := h.trackers.Load(baseID)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// CreateTracker handles POST /api/action-trackers/{bidID}: produce the next
// tracker version, archiving every historical one.
func (h *Handler) CreateTracker(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Deliverables []string `json:"deliverables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		MapError(w, r, fmt.Errorf("invalid JSON body: %w", err))
		return
	}

	baseID := h.bids.TrackerBaseID(pathParam(r, "bidID"))
	id, err := h.trackers.CreateNewVersion(baseID, req.Deliverables)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.CreateBidResponse{
		Success: true,
		Message: fmt.Sprintf("Action tracker created: %s", id),
	})
}

// DeleteTracker handles DELETE /api/action-trackers/{bidID}
func (h *Handler) DeleteTracker(w http.ResponseWriter, r *http.Request) {
	baseID := h.bids.TrackerBaseID(pathParam(r, "bidID"))
	if err := h.trackers.DeleteActive(baseID); err != nil {
		MapError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Action tracker deleted successfully.")
}

// AddAction handles POST /api/action-trackers/{bidID}/actions
func (h *Handler) AddAction(w http.ResponseWriter, r *http.Request) {
	var action types.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		MapError(w, r, fmt.Errorf("invalid JSON body: %w", err))
		return
	}

	baseID := h.bids.TrackerBaseID(pathParam(r, "bidID"))
	t, actionID, err := h.trackers.AddAction(baseID, action)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, trackerResponse{
		Success:  true,
		Message:  "Action added successfully.",
		ActionID: actionID,
		Tracker:  t,
	})
}

// UpdateAction handles PUT /api/action-trackers/{bidID}/actions/{actionID}
func (h *Handler) UpdateAction(w http.ResponseWriter, r *http.Request) {
	var upd types.ActionUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		MapError(w, r, fmt.Errorf("invalid JSON body: %w", err))
		return
	}

	baseID := h.bids.TrackerBaseID(pathParam(r, "bidID"))
	actionID := pathParam(r, "actionID")
	t, err := h.trackers.UpdateAction(baseID, actionID, upd)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trackerResponse{
		Success:  true,
		Message:  "Action updated successfully.",
		ActionID: actionID,
		Tracker:  t,
	})
}

// DeleteAction handles DELETE /api/action-trackers/{bidID}/actions/{actionID}
func (h *Handler) DeleteAction(w http.ResponseWriter, r *http.Request) {
	baseID := h.bids.TrackerBaseID(pathParam(r, "bidID"))
	actionID := pathParam(r, "actionID")
	t, err := h.trackers.DeleteAction(baseID, actionID)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trackerResponse{
		Success: true,
		Message: "Action deleted successfully.",
		Tracker: t,
	})
}

// ActionHistory handles
// GET /api/action-trackers/{bidID}/actions/{actionID}/history
func (h *Handler) ActionHistory(w http.ResponseWriter, r *http.Request) {
	baseID := h.bids.TrackerBaseID(pathParam(r, "bidID"))
	history, err := h.trackers.GetHistory(baseID, pathParam(r, "actionID"))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}
