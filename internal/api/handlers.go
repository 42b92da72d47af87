package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/bidtrack/internal/bid"
	"github.com/hyperengineering/bidtrack/internal/chat"
	"github.com/hyperengineering/bidtrack/internal/dashboard"
	"github.com/hyperengineering/bidtrack/internal/tracker"
	"github.com/hyperengineering/bidtrack/internal/types"
)

// Handler implements the API handlers
type Handler struct {
	bids     *bid.Service
	trackers *tracker.Service
	chat     *chat.Manager
	version  string
}

// NewHandler creates a new Handler.
func NewHandler(bids *bid.Service, trackers *tracker.Service, chatManager *chat.Manager, version string) *Handler {
	return &Handler{
		bids:     bids,
		trackers: trackers,
		chat:     chatManager,
		version:  version,
	}
}

// Health returns the liveness status. GET /
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:  "healthy",
		Version: h.version,
	})
}

// CreateBid handles POST /create-bid: validate, version, archive, write.
func (h *Handler) CreateBid(w http.ResponseWriter, r *http.Request) {
	var payload types.Bid
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		MapError(w, r, fmt.Errorf("invalid JSON body: %w", err))
		return
	}

	bidID, err := h.bids.CreateOrVersion(payload)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.CreateBidResponse{
		Success: true,
		Message: fmt.Sprintf("Bid created successfully: %s", bidID),
		BidID:   bidID,
	})
}

// SaveBidData handles POST /save-bid-data: overwrite a named document.
func (h *Handler) SaveBidData(w http.ResponseWriter, r *http.Request) {
	doc := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		MapError(w, r, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	if _, err := h.bids.Save(doc); err != nil {
		MapError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Bid data saved successfully.")
}

// GetBidData handles GET /get-bid-data?bidId=
func (h *Handler) GetBidData(w http.ResponseWriter, r *http.Request) {
	bidID := queryDefault(r, "bidId", bid.DefaultDocID)
	doc, err := h.bids.Get(bidID)
	if err != nil {
		if isNotFound(err) {
			writeJSON(w, http.StatusNotFound, types.DataResponse{Message: "No bid data found.", Data: nil})
			return
		}
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.DataResponse{Message: "Bid data fetched successfully.", Data: doc})
}

// DeleteBidData handles DELETE /delete-bid-data?bidId=
func (h *Handler) DeleteBidData(w http.ResponseWriter, r *http.Request) {
	bidID := queryDefault(r, "bidId", bid.DefaultDocID)
	if err := h.bids.Delete(bidID); err != nil {
		if isNotFound(err) {
			writeMessage(w, http.StatusNotFound, "No bid data found to delete.")
			return
		}
		MapError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Bid data deleted successfully.")
}

// ListFiles handles GET /list-files?archived=bool
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("archived") == "true"
	entries, err := h.bids.List(includeArchived)
	if err != nil {
		MapError(w, r, err)
		return
	}
	if entries == nil {
		entries = []types.FileEntry{}
	}
	writeJSON(w, http.StatusOK, types.ListFilesResponse{Files: entries})
}

// MoveToArchive handles POST /move-to-archive
func (h *Handler) MoveToArchive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName string `json:"fileName"`
		BidID    string `json:"bidId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		MapError(w, r, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	name := req.FileName
	if name == "" {
		name = req.BidID
	}

	if err := h.bids.MoveToArchive(name); err != nil {
		if isNotFound(err) {
			writeMessage(w, http.StatusNotFound, fmt.Sprintf("File %s not found.", name))
			return
		}
		MapError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("File %s moved to archive.", name))
}

// SaveActivities handles POST /save-activities: upsert one deliverable's
// activity list on a stored document.
func (h *Handler) SaveActivities(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BidID       string            `json:"bidId"`
		Deliverable string            `json:"deliverable"`
		Activities  *[]types.Activity `json:"activities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid payload: %s", err.Error()))
		return
	}
	if req.Deliverable == "" || req.Activities == nil {
		writeMessage(w, http.StatusBadRequest, "Invalid payload: deliverable and activities are required.")
		return
	}
	if req.BidID == "" {
		req.BidID = bid.DefaultDocID
	}

	if err := h.bids.SaveActivities(req.BidID, req.Deliverable, *req.Activities); err != nil {
		MapError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Activities saved successfully.")
}

// Dashboard handles GET /api/dashboard?bidId=
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	bidID := queryDefault(r, "bidId", bid.DefaultDocID)
	b, err := h.bids.GetBid(bidID)
	if err != nil {
		MapError(w, r, err)
		return
	}
	if b.BidID == "" {
		b.BidID = bidID
	}
	writeJSON(w, http.StatusOK, dashboard.Build(b))
}

// UpdateActivity handles
// PUT /api/bids/{bidID}/deliverables/{deliverable}/activities
func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	bidID := pathParam(r, "bidID")
	deliverable := pathParam(r, "deliverable")

	var payload types.Activity
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		MapError(w, r, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	if payload.Name == "" {
		writeMessage(w, http.StatusBadRequest, "Field name is missing or empty.")
		return
	}

	updated, err := h.bids.UpdateActivity(bidID, deliverable, payload.Name, payload)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success  bool           `json:"success"`
		Message  string         `json:"message"`
		Activity types.Activity `json:"activity"`
	}{true, "Activity updated successfully.", updated})
}

// FinalizeBid handles POST /finalize_bid: validate the full draft and
// persist the bid together with its action tracker.
func (h *Handler) FinalizeBid(w http.ResponseWriter, r *http.Request) {
	var payload types.Bid
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		MapError(w, r, fmt.Errorf("invalid JSON body: %w", err))
		return
	}

	bidID, err := h.bids.Finalize(payload)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.CreateBidResponse{
		Success: true,
		Message: fmt.Sprintf("Bid finalized successfully: %s", bidID),
		BidID:   bidID,
	})
}

// Chatbot handles POST /chatbot: advance the conversational state machine.
func (h *Handler) Chatbot(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		MapError(w, r, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, h.chat.Handle(req.SessionID, req.Message))
}

func queryDefault(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

// pathParam returns a chi URL parameter with any escaping undone, so ids
// containing spaces round-trip.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}
