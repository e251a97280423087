package model

import "time"

type Household struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	CreatedBy  int64     `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	RemovalPending  = "pending"
	RemovalApproved = "approved"
	RemovalRejected = "rejected"
)

const (
	VoteApprove = "approve"
	VoteReject  = "reject"
)

type RemovalRequest struct {
	ID           int64      `json:"id"`
	HouseholdID  int64      `json:"household_id"`
	TargetUserID int64      `json:"target_user_id"`
	RequestedBy  int64      `json:"requested_by"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
}

type RemovalVote struct {
	ID               int64     `json:"id"`
	RemovalRequestID int64     `json:"removal_request_id"`
	UserID           int64     `json:"user_id"`
	Vote             string    `json:"vote"`
	CreatedAt        time.Time `json:"created_at"`
}
