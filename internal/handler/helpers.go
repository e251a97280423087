package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/evanmcd/splitnest/internal/expense"
	"github.com/evanmcd/splitnest/internal/household"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errStatus maps a service error to its HTTP status and stable error
// code. Unrecognized errors surface as 500 internal_error.
var errStatus = []struct {
	err    error
	status int
	code   string
}{
	{household.ErrAlreadyInHousehold, http.StatusConflict, "already_in_household"},
	{household.ErrNotInHousehold, http.StatusBadRequest, "not_in_household"},
	{household.ErrInvalidInviteCode, http.StatusNotFound, "invalid_invite_code"},
	{household.ErrNotAdmin, http.StatusForbidden, "not_admin"},
	{household.ErrAdminMustTransferFirst, http.StatusConflict, "admin_must_transfer_first"},
	{household.ErrTargetNotInHousehold, http.StatusBadRequest, "target_not_in_household"},
	{household.ErrCannotRemoveSelf, http.StatusBadRequest, "cannot_remove_self"},
	{household.ErrDuplicatePendingRequest, http.StatusConflict, "duplicate_pending_request"},
	{household.ErrCannotVoteOnOwnRemoval, http.StatusForbidden, "cannot_vote_on_own_removal"},
	{household.ErrAlreadyVoted, http.StatusConflict, "already_voted"},
	{household.ErrRequestNotFound, http.StatusNotFound, "request_not_found"},
	{household.ErrRequestNotPending, http.StatusConflict, "request_not_pending"},
	{household.ErrInvalidVote, http.StatusBadRequest, "invalid_vote"},
	{household.ErrCodeGenerationExhausted, http.StatusServiceUnavailable, "code_generation_exhausted"},
	{expense.ErrNotInHousehold, http.StatusBadRequest, "not_in_household"},
	{expense.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{expense.ErrPayerNotInHousehold, http.StatusBadRequest, "payer_not_in_household"},
	{expense.ErrSplitOwerNotInHousehold, http.StatusBadRequest, "split_ower_not_in_household"},
	{expense.ErrSplitNotFound, http.StatusNotFound, "split_not_found"},
	{expense.ErrNotSplitOwer, http.StatusForbidden, "not_split_ower"},
}

func writeError(w http.ResponseWriter, err error) {
	for _, m := range errStatus {
		if errors.Is(err, m.err) {
			writeJSON(w, m.status, errorResponse{Error: m.err.Error(), Code: m.code})
			return
		}
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal_error"})
}
