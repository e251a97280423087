package household

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/evanmcd/splitnest/internal/model"
	"github.com/evanmcd/splitnest/internal/store"
)

// Membership-changed events consumed by the notification layer.
const (
	EventMemberJoined          = "member-joined"
	EventMemberLeft            = "member-left"
	EventAdminTransferred      = "admin-transferred"
	EventRemovalRequestCreated = "removal-request-created"
	EventRemovalResolved       = "removal-resolved"
)

// Notifier delivers household-scoped events to connected clients.
// Delivery is best-effort; the workflow never fails on a notify.
type Notifier interface {
	HouseholdEvent(householdID int64, event string, payload map[string]any)
}

// Service implements the household membership workflow: creation,
// join-by-code, leaving, admin transfer, and the removal-voting state
// machine.
type Service struct {
	db         *sql.DB
	users      *store.UserStore
	households *store.HouseholdStore
	removals   *store.RemovalStore
	notifier   Notifier
	logger     *slog.Logger
}

func NewService(db *sql.DB, users *store.UserStore, households *store.HouseholdStore, removals *store.RemovalStore, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		db:         db,
		users:      users,
		households: households,
		removals:   removals,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *Service) notify(householdID int64, event string, payload map[string]any) {
	if s.notifier != nil {
		s.notifier.HouseholdEvent(householdID, event, payload)
	}
}

// View is the current-household read projection.
type View struct {
	Household *model.Household `json:"household"`
	Members   []model.User     `json:"members"`
}

// Create opens a new household with the caller as admin. The household
// insert and the creator's membership assignment commit together.
func (s *Service) Create(ctx context.Context, userID int64, name string) (*model.Household, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}
	if user.InHousehold() {
		return nil, ErrAlreadyInHousehold
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	households := s.households.WithTx(tx)

	var h *model.Household
	backoff := retry.WithMaxRetries(maxCodeAttempts-1, retry.NewConstant(time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		code, err := generateInviteCode()
		if err != nil {
			return err
		}
		created, err := households.Create(name, code, userID)
		if store.IsUniqueViolation(err) {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		h = created
		return nil
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			s.logger.Error("invite code generation exhausted", "attempts", maxCodeAttempts)
			return nil, ErrCodeGenerationExhausted
		}
		return nil, err
	}

	if err := s.users.WithTx(tx).SetHousehold(userID, h.ID, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info("household created", "household_id", h.ID, "admin", userID)
	return h, nil
}

// Join adds an unaffiliated user to the household the invite code
// resolves to. Lookup is case-insensitive.
func (s *Service) Join(ctx context.Context, userID int64, code string) (*model.Household, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}
	if user.InHousehold() {
		return nil, ErrAlreadyInHousehold
	}

	h, err := s.households.GetByInviteCode(NormalizeInviteCode(code))
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrInvalidInviteCode
	}

	if err := s.users.SetHousehold(userID, h.ID, model.RoleMember); err != nil {
		return nil, err
	}

	s.logger.Info("member joined", "household_id", h.ID, "user_id", userID)
	s.notify(h.ID, EventMemberJoined, map[string]any{
		"user_id": userID,
		"name":    user.Name,
	})
	return h, nil
}

// Leave detaches the caller from their household. The admin cannot
// leave while other members remain; the last member out deletes the
// household.
func (s *Service) Leave(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil || !user.InHousehold() {
		return ErrNotInHousehold
	}
	householdID := *user.HouseholdID

	memberCount, err := s.users.CountByHousehold(householdID)
	if err != nil {
		return err
	}
	if user.Role == model.RoleAdmin && memberCount > 1 {
		return ErrAdminMustTransferFirst
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.users.WithTx(tx).ClearHousehold(userID); err != nil {
		return err
	}
	if memberCount == 1 {
		if err := s.households.WithTx(tx).Delete(householdID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info("member left", "household_id", householdID, "user_id", userID, "household_deleted", memberCount == 1)
	if memberCount > 1 {
		s.notify(householdID, EventMemberLeft, map[string]any{
			"user_id": userID,
			"name":    user.Name,
		})
	}
	return nil
}

// TransferAdmin hands the admin role to another member of the caller's
// household. Demotion and promotion commit together.
func (s *Service) TransferAdmin(ctx context.Context, userID, newAdminID int64) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil || !user.InHousehold() {
		return ErrNotInHousehold
	}
	if user.Role != model.RoleAdmin {
		return ErrNotAdmin
	}
	if newAdminID == userID {
		return ErrTargetNotInHousehold
	}

	target, err := s.users.GetByID(newAdminID)
	if err != nil {
		return err
	}
	if target == nil || !target.InHousehold() || *target.HouseholdID != *user.HouseholdID {
		return ErrTargetNotInHousehold
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	users := s.users.WithTx(tx)
	if err := users.SetRole(userID, model.RoleMember); err != nil {
		return err
	}
	if err := users.SetRole(newAdminID, model.RoleAdmin); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info("admin transferred", "household_id", *user.HouseholdID, "from", userID, "to", newAdminID)
	s.notify(*user.HouseholdID, EventAdminTransferred, map[string]any{
		"from_user_id": userID,
		"to_user_id":   newAdminID,
	})
	return nil
}

// RegenerateCode replaces the household's invite code, invalidating the
// old one. Admin only.
func (s *Service) RegenerateCode(ctx context.Context, userID int64) (string, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return "", err
	}
	if user == nil || !user.InHousehold() {
		return "", ErrNotInHousehold
	}
	if user.Role != model.RoleAdmin {
		return "", ErrNotAdmin
	}

	var code string
	backoff := retry.WithMaxRetries(maxCodeAttempts-1, retry.NewConstant(time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := generateInviteCode()
		if err != nil {
			return err
		}
		if err := s.households.UpdateInviteCode(*user.HouseholdID, c); err != nil {
			if store.IsUniqueViolation(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		code = c
		return nil
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			s.logger.Error("invite code generation exhausted", "attempts", maxCodeAttempts)
			return "", ErrCodeGenerationExhausted
		}
		return "", err
	}

	s.logger.Info("invite code regenerated", "household_id", *user.HouseholdID)
	return code, nil
}

// Current returns the caller's household and its member list.
func (s *Service) Current(ctx context.Context, userID int64) (*View, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.InHousehold() {
		return nil, ErrNotInHousehold
	}

	h, err := s.households.GetByID(*user.HouseholdID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotInHousehold
	}

	members, err := s.users.ListByHousehold(h.ID)
	if err != nil {
		return nil, err
	}
	return &View{Household: h, Members: members}, nil
}
