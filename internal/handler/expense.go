package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evanmcd/splitnest/internal/auth"
	"github.com/evanmcd/splitnest/internal/expense"
	"github.com/evanmcd/splitnest/internal/model"
)

type ExpenseHandler struct {
	svc    *expense.Service
	logger *slog.Logger
}

func NewExpenseHandler(svc *expense.Service, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{svc: svc, logger: logger}
}

type expenseRequest struct {
	Description string               `json:"description"`
	TotalAmount float64              `json:"total_amount"`
	PaidBy      int64                `json:"paid_by"`
	Category    string               `json:"category"`
	SpentAt     string               `json:"spent_at"`
	Splits      []expense.SplitInput `json:"splits"`
}

func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON", Code: "invalid_json"})
		return
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "description is required", Code: "description_required"})
		return
	}

	in := expense.CreateInput{
		Description: req.Description,
		TotalAmount: req.TotalAmount,
		PaidBy:      req.PaidBy,
		Category:    req.Category,
		Splits:      req.Splits,
	}
	if req.SpentAt != "" {
		spentAt, err := time.Parse(time.RFC3339, req.SpentAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "spent_at must be RFC 3339", Code: "invalid_date"})
			return
		}
		in.SpentAt = spentAt
	}

	e, err := h.svc.Create(r.Context(), ac.UserID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	expenses, err := h.svc.List(r.Context(), ac.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if expenses == nil {
		expenses = []model.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *ExpenseHandler) SettleSplit(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	splitID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id", Code: "invalid_id"})
		return
	}

	split, err := h.svc.SettleSplit(r.Context(), ac.UserID, splitID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, split)
}

func (h *ExpenseHandler) SettleWithUser(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	otherID, err := strconv.ParseInt(r.PathValue("user_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user_id", Code: "invalid_id"})
		return
	}

	count, err := h.svc.SettleWithUser(r.Context(), ac.UserID, otherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"settled_count": count})
}

func (h *ExpenseHandler) Balances(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	balances, err := h.svc.GetBalances(r.Context(), ac.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}
