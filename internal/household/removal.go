package household

import (
	"context"
	"fmt"

	"github.com/evanmcd/splitnest/internal/model"
	"github.com/evanmcd/splitnest/internal/store"
)

// VoteResult reports the running tallies after a vote, whatever the
// outcome.
type VoteResult struct {
	RequestID      int64  `json:"request_id"`
	Status         string `json:"status"`
	ApproveVotes   int    `json:"approve_votes"`
	RejectVotes    int    `json:"reject_votes"`
	EligibleVoters int    `json:"eligible_voters"`
}

// RequestView decorates a removal request with its tallies for the
// list projection.
type RequestView struct {
	model.RemovalRequest
	ApproveVotes   int `json:"approve_votes"`
	RejectVotes    int `json:"reject_votes"`
	EligibleVoters int `json:"eligible_voters"`
}

// majorityThreshold is ceil(eligible/2). With an odd voter count a
// strict majority always exists; with an even count a tie resolves
// neither way and the request stays pending.
func majorityThreshold(eligible int) int {
	return (eligible + 1) / 2
}

// RequestRemoval opens a removal request against a fellow member.
// Admin only. In a two-member household there is nobody left to vote,
// so the request auto-approves and the target is removed immediately;
// request creation, resolution, and removal commit together.
func (s *Service) RequestRemoval(ctx context.Context, requesterID, targetID int64, reason string) (*model.RemovalRequest, error) {
	requester, err := s.users.GetByID(requesterID)
	if err != nil {
		return nil, err
	}
	if requester == nil || !requester.InHousehold() {
		return nil, ErrNotInHousehold
	}
	if requester.Role != model.RoleAdmin {
		return nil, ErrNotAdmin
	}
	if targetID == requesterID {
		return nil, ErrCannotRemoveSelf
	}
	householdID := *requester.HouseholdID

	target, err := s.users.GetByID(targetID)
	if err != nil {
		return nil, err
	}
	if target == nil || !target.InHousehold() || *target.HouseholdID != householdID {
		return nil, ErrTargetNotInHousehold
	}

	memberCount, err := s.users.CountByHousehold(householdID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	removals := s.removals.WithTx(tx)
	req, err := removals.CreateRequest(householdID, targetID, requesterID, reason)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, ErrDuplicatePendingRequest
		}
		return nil, err
	}

	autoApproved := memberCount == 2
	if autoApproved {
		if err := removals.UpdateStatus(req.ID, model.RemovalApproved); err != nil {
			return nil, err
		}
		if err := s.users.WithTx(tx).ClearHousehold(targetID); err != nil {
			return nil, err
		}
		req, err = removals.GetRequest(req.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info("removal request created",
		"household_id", householdID, "request_id", req.ID,
		"target", targetID, "auto_approved", autoApproved)

	s.notify(householdID, EventRemovalRequestCreated, map[string]any{
		"request_id":     req.ID,
		"target_user_id": targetID,
		"requested_by":   requesterID,
	})
	if autoApproved {
		s.notify(householdID, EventRemovalResolved, map[string]any{
			"request_id":     req.ID,
			"target_user_id": targetID,
			"status":         model.RemovalApproved,
		})
		s.notify(householdID, EventMemberLeft, map[string]any{
			"user_id": targetID,
			"name":    target.Name,
		})
	}
	return req, nil
}

// Vote records a member's vote and tallies the request inside one
// transaction. Eligible voters are every member except the target; the
// requester counts as eligible without casting an explicit vote row.
func (s *Service) Vote(ctx context.Context, voterID, requestID int64, vote string) (*VoteResult, error) {
	if vote != model.VoteApprove && vote != model.VoteReject {
		return nil, ErrInvalidVote
	}

	voter, err := s.users.GetByID(voterID)
	if err != nil {
		return nil, err
	}
	if voter == nil || !voter.InHousehold() {
		return nil, ErrNotInHousehold
	}

	req, err := s.removals.GetRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.HouseholdID != *voter.HouseholdID {
		return nil, ErrRequestNotFound
	}
	if req.Status != model.RemovalPending {
		return nil, ErrRequestNotPending
	}
	if req.TargetUserID == voterID {
		return nil, ErrCannotVoteOnOwnRemoval
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	removals := s.removals.WithTx(tx)

	// Re-check under the transaction so a vote racing a resolution
	// cannot land on an already-resolved request.
	req, err = removals.GetRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.Status != model.RemovalPending {
		return nil, ErrRequestNotPending
	}

	if _, err := removals.AddVote(requestID, voterID, vote); err != nil {
		if store.IsUniqueViolation(err) {
			return nil, ErrAlreadyVoted
		}
		return nil, err
	}

	approve, reject, err := removals.CountVotes(requestID)
	if err != nil {
		return nil, err
	}
	memberCount, err := s.users.WithTx(tx).CountByHousehold(req.HouseholdID)
	if err != nil {
		return nil, err
	}
	eligible := memberCount - 1
	threshold := majorityThreshold(eligible)

	status := model.RemovalPending
	switch {
	case approve >= threshold:
		status = model.RemovalApproved
		if err := removals.UpdateStatus(requestID, status); err != nil {
			return nil, err
		}
		if err := s.users.WithTx(tx).ClearHousehold(req.TargetUserID); err != nil {
			return nil, err
		}
	case reject >= threshold:
		status = model.RemovalRejected
		if err := removals.UpdateStatus(requestID, status); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info("removal vote recorded",
		"request_id", requestID, "voter", voterID, "vote", vote,
		"approve", approve, "reject", reject, "status", status)

	if status != model.RemovalPending {
		s.notify(req.HouseholdID, EventRemovalResolved, map[string]any{
			"request_id":     requestID,
			"target_user_id": req.TargetUserID,
			"status":         status,
		})
	}
	if status == model.RemovalApproved {
		s.notify(req.HouseholdID, EventMemberLeft, map[string]any{
			"user_id": req.TargetUserID,
		})
	}

	return &VoteResult{
		RequestID:      requestID,
		Status:         status,
		ApproveVotes:   approve,
		RejectVotes:    reject,
		EligibleVoters: eligible,
	}, nil
}

// ListRemovalRequests returns the caller's household's removal
// requests with tallies, newest first.
func (s *Service) ListRemovalRequests(ctx context.Context, userID int64) ([]RequestView, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.InHousehold() {
		return nil, ErrNotInHousehold
	}

	requests, err := s.removals.ListRequestsByHousehold(*user.HouseholdID)
	if err != nil {
		return nil, err
	}
	memberCount, err := s.users.CountByHousehold(*user.HouseholdID)
	if err != nil {
		return nil, err
	}

	views := make([]RequestView, 0, len(requests))
	for _, req := range requests {
		approve, reject, err := s.removals.CountVotes(req.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, RequestView{
			RemovalRequest: req,
			ApproveVotes:   approve,
			RejectVotes:    reject,
			EligibleVoters: memberCount - 1,
		})
	}
	return views, nil
}
