package store

import (
	"database/sql"
	"fmt"

	"github.com/evanmcd/splitnest/internal/model"
)

type RemovalStore struct {
	db DBTX
}

func NewRemovalStore(db DBTX) *RemovalStore {
	return &RemovalStore{db: db}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *RemovalStore) WithTx(tx *sql.Tx) *RemovalStore {
	return &RemovalStore{db: tx}
}

func scanRemovalRequest(scanner interface{ Scan(...any) error }) (*model.RemovalRequest, error) {
	var rr model.RemovalRequest
	var resolvedAt sql.NullTime
	err := scanner.Scan(
		&rr.ID, &rr.HouseholdID, &rr.TargetUserID, &rr.RequestedBy,
		&rr.Reason, &rr.Status, &rr.CreatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		rr.ResolvedAt = &resolvedAt.Time
	}
	return &rr, nil
}

func scanRemovalVote(scanner interface{ Scan(...any) error }) (*model.RemovalVote, error) {
	var v model.RemovalVote
	err := scanner.Scan(&v.ID, &v.RemovalRequestID, &v.UserID, &v.Vote, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

const removalRequestCols = `id, household_id, target_user_id, requested_by, reason, status, created_at, resolved_at`
const removalVoteCols = `id, removal_request_id, user_id, vote, created_at`

// CreateRequest inserts a pending removal request. A UNIQUE violation
// (one pending request per target) is returned unwrapped for the caller
// to translate.
func (s *RemovalStore) CreateRequest(householdID, targetUserID, requestedBy int64, reason string) (*model.RemovalRequest, error) {
	result, err := s.db.Exec(
		`INSERT INTO removal_requests (household_id, target_user_id, requested_by, reason) VALUES (?, ?, ?, ?)`,
		householdID, targetUserID, requestedBy, reason,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("insert removal request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRequest(id)
}

func (s *RemovalStore) GetRequest(id int64) (*model.RemovalRequest, error) {
	row := s.db.QueryRow(`SELECT `+removalRequestCols+` FROM removal_requests WHERE id = ?`, id)
	rr, err := scanRemovalRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get removal request: %w", err)
	}
	return rr, nil
}

func (s *RemovalStore) ListRequestsByHousehold(householdID int64) ([]model.RemovalRequest, error) {
	rows, err := s.db.Query(
		`SELECT `+removalRequestCols+` FROM removal_requests WHERE household_id = ? ORDER BY created_at DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list removal requests: %w", err)
	}
	defer rows.Close()

	var requests []model.RemovalRequest
	for rows.Next() {
		rr, err := scanRemovalRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan removal request: %w", err)
		}
		requests = append(requests, *rr)
	}
	return requests, rows.Err()
}

// HasPendingForTarget reports whether a pending request already targets
// the user within the household.
func (s *RemovalStore) HasPendingForTarget(householdID, targetUserID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM removal_requests WHERE household_id = ? AND target_user_id = ? AND status = 'pending'`,
		householdID, targetUserID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check pending removal request: %w", err)
	}
	return n > 0, nil
}

// UpdateStatus resolves a request and stamps resolved_at.
func (s *RemovalStore) UpdateStatus(id int64, status string) error {
	_, err := s.db.Exec(
		`UPDATE removal_requests SET status = ?, resolved_at = datetime('now') WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update removal request status: %w", err)
	}
	return nil
}

// AddVote records a vote. A UNIQUE violation (one vote per user per
// request) is returned unwrapped for the caller to translate.
func (s *RemovalStore) AddVote(requestID, userID int64, vote string) (*model.RemovalVote, error) {
	result, err := s.db.Exec(
		`INSERT INTO removal_votes (removal_request_id, user_id, vote) VALUES (?, ?, ?)`,
		requestID, userID, vote,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("insert removal vote: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+removalVoteCols+` FROM removal_votes WHERE id = ?`, id)
	return scanRemovalVote(row)
}

// CountVotes returns the approve and reject tallies for a request.
func (s *RemovalStore) CountVotes(requestID int64) (approve, reject int, err error) {
	err = s.db.QueryRow(
		`SELECT
			COUNT(CASE WHEN vote = 'approve' THEN 1 END),
			COUNT(CASE WHEN vote = 'reject' THEN 1 END)
		 FROM removal_votes WHERE removal_request_id = ?`,
		requestID,
	).Scan(&approve, &reject)
	if err != nil {
		return 0, 0, fmt.Errorf("count removal votes: %w", err)
	}
	return approve, reject, nil
}

func (s *RemovalStore) ListVotes(requestID int64) ([]model.RemovalVote, error) {
	rows, err := s.db.Query(
		`SELECT `+removalVoteCols+` FROM removal_votes WHERE removal_request_id = ? ORDER BY created_at ASC`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list removal votes: %w", err)
	}
	defer rows.Close()

	var votes []model.RemovalVote
	for rows.Next() {
		v, err := scanRemovalVote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan removal vote: %w", err)
		}
		votes = append(votes, *v)
	}
	return votes, rows.Err()
}
