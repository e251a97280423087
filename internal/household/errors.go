package household

import "errors"

// Precondition failures returned by the membership workflow. Handlers
// translate these into 4xx responses with a machine-checkable code.
var (
	ErrAlreadyInHousehold      = errors.New("user already belongs to a household")
	ErrNotInHousehold          = errors.New("user does not belong to a household")
	ErrInvalidInviteCode       = errors.New("invite code does not match any household")
	ErrNotAdmin                = errors.New("only the household admin may perform this action")
	ErrAdminMustTransferFirst  = errors.New("admin must transfer the role before leaving a household with other members")
	ErrTargetNotInHousehold    = errors.New("target user is not a member of this household")
	ErrCannotRemoveSelf        = errors.New("admin cannot open a removal request against themselves")
	ErrDuplicatePendingRequest = errors.New("a pending removal request already targets this user")
	ErrCannotVoteOnOwnRemoval  = errors.New("the target of a removal request cannot vote on it")
	ErrAlreadyVoted            = errors.New("user has already voted on this removal request")
	ErrRequestNotFound         = errors.New("removal request not found")
	ErrRequestNotPending       = errors.New("removal request is already resolved")
	ErrInvalidVote             = errors.New(`vote must be "approve" or "reject"`)

	// ErrCodeGenerationExhausted is not caller-correctable: it means
	// repeated random codes collided with existing households.
	ErrCodeGenerationExhausted = errors.New("invite code generation exhausted its attempts")
)
