package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vsinha/rxstock/pkg/domain/entities"
	"github.com/vsinha/rxstock/pkg/domain/repositories"
)

// NewUser is a registration request
type NewUser struct {
	EmployeeID string
	Name       string
	Role       entities.Role
	Group      string
	Password   string
}

// UserService manages staff accounts and logins
type UserService struct {
	store  repositories.PharmacyStore
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewUserService creates a user service
func NewUserService(store repositories.PharmacyStore, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{store: store, logger: logger, now: time.Now}
}

// Register creates an account. The first account may be created by anyone;
// after that actorID must hold the admin permission.
func (s *UserService) Register(ctx context.Context, actorID string, req NewUser) (*entities.UserAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.store.LoadUsers()
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if len(users) > 0 {
		if _, err := authorize(s.store, actorID, entities.PermAdmin); err != nil {
			return nil, err
		}
	}
	for i := range users {
		if strings.EqualFold(users[i].EmployeeID, req.EmployeeID) {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, req.EmployeeID)
		}
	}

	hash, err := entities.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := entities.UserAccount{
		EmployeeID:   strings.TrimSpace(req.EmployeeID),
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		Status:       entities.AccountActive,
		PasswordHash: hash,
		Group:        req.Group,
		CreatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.SaveUsers(append(users, user)); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}

	actor := actorID
	if actor == "" {
		actor = user.EmployeeID
	}
	s.audit(actor, entities.AccessUserCreated, "", fmt.Sprintf("%s as %s", user.EmployeeID, user.Role))
	s.logger.Info("user registered", "employee_id", user.EmployeeID, "role", user.Role)
	return &user, nil
}

// Authenticate checks a password and records the login. Unknown users, wrong
// passwords and blacklisted accounts all fail with ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, employeeID, password, ip string) (*entities.UserAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := findUser(s.store, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if user == nil || user.Status != entities.AccountActive || !user.CheckPassword(password) {
		s.audit(employeeID, entities.AccessLoginFailed, ip, "")
		return nil, ErrInvalidCredentials
	}

	// the account may have been blacklisted since it was read
	var current entities.UserAccount
	found, err := s.store.UpdateUserFunc(employeeID, func(u *entities.UserAccount) error {
		if u.Status != entities.AccountActive {
			return ErrInvalidCredentials
		}
		u.LastLogin = s.now().UTC()
		current = *u
		return nil
	})
	if errors.Is(err, ErrInvalidCredentials) || (err == nil && !found) {
		s.audit(employeeID, entities.AccessLoginFailed, ip, "")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	s.audit(employeeID, entities.AccessLogin, ip, "")
	return &current, nil
}

// SetStatus activates or blacklists an account. actorID must be an admin and
// cannot blacklist itself.
func (s *UserService) SetStatus(ctx context.Context, actorID, employeeID string, status entities.AccountStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := authorize(s.store, actorID, entities.PermAdmin); err != nil {
		return err
	}
	if actorID == employeeID && status == entities.AccountBlacklisted {
		return fmt.Errorf("%w: cannot blacklist yourself", ErrPermissionDenied)
	}

	found, err := s.store.UpdateUserFunc(employeeID, func(u *entities.UserAccount) error {
		u.Status = status
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownUser, employeeID)
	}
	return nil
}

func (s *UserService) audit(employeeID, action, ip, details string) {
	if strings.TrimSpace(employeeID) == "" {
		employeeID = "unknown"
	}
	entry := entities.NewAccessLogEntry(s.now(), employeeID, action, ip, details)
	if err := s.store.AppendAccessLog(*entry); err != nil {
		var ve *entities.ValidationError
		if errors.As(err, &ve) {
			s.logger.Error("invalid access log entry", "error", err)
			return
		}
		s.logger.Warn("access log append failed", "error", err)
	}
}
