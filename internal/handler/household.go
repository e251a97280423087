package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evanmcd/splitnest/internal/auth"
	"github.com/evanmcd/splitnest/internal/household"
)

type HouseholdHandler struct {
	svc    *household.Service
	logger *slog.Logger
}

func NewHouseholdHandler(svc *household.Service, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{svc: svc, logger: logger}
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON", Code: "invalid_json"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required", Code: "name_required"})
		return
	}

	hh, err := h.svc.Create(r.Context(), ac.UserID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hh)
}

func (h *HouseholdHandler) Current(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	view, err := h.svc.Current(r.Context(), ac.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON", Code: "invalid_json"})
		return
	}

	hh, err := h.svc.Join(r.Context(), ac.UserID, req.InviteCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

func (h *HouseholdHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if err := h.svc.Leave(r.Context(), ac.UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseholdHandler) TransferAdmin(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req struct {
		NewAdminID int64 `json:"new_admin_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON", Code: "invalid_json"})
		return
	}

	if err := h.svc.TransferAdmin(r.Context(), ac.UserID, req.NewAdminID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseholdHandler) RegenerateCode(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	code, err := h.svc.RegenerateCode(r.Context(), ac.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"invite_code": code})
}

func (h *HouseholdHandler) RequestRemoval(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req struct {
		TargetUserID int64  `json:"target_user_id"`
		Reason       string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON", Code: "invalid_json"})
		return
	}

	removal, err := h.svc.RequestRemoval(r.Context(), ac.UserID, req.TargetUserID, strings.TrimSpace(req.Reason))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, removal)
}

func (h *HouseholdHandler) ListRemovalRequests(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	requests, err := h.svc.ListRemovalRequests(r.Context(), ac.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if requests == nil {
		requests = []household.RequestView{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *HouseholdHandler) Vote(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	requestID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id", Code: "invalid_id"})
		return
	}

	var req struct {
		Vote string `json:"vote"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON", Code: "invalid_json"})
		return
	}

	result, err := h.svc.Vote(r.Context(), ac.UserID, requestID, req.Vote)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
