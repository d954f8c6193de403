package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role is a staff role
type Role string

const (
	RoleNurse      Role = "Nurse"
	RolePharmacist Role = "Pharmacist"
	RoleMaster     Role = "Master"
)

// AccountStatus tells whether an account may act
type AccountStatus string

const (
	AccountActive      AccountStatus = "Active"
	AccountBlacklisted AccountStatus = "Blacklisted"
)

// Permission is a capability granted by a role. Every role holds PermRead,
// which is why the read views do not authenticate.
type Permission string

const (
	PermRead     Permission = "read"
	PermUpdate   Permission = "update"
	PermForecast Permission = "forecast"
	PermAdmin    Permission = "admin"
)

var rolePermissions = map[Role][]Permission{
	RoleNurse:      {PermRead},
	RolePharmacist: {PermRead, PermUpdate, PermForecast},
	RoleMaster:     {PermRead, PermUpdate, PermForecast, PermAdmin},
}

// ParseRole matches a role name case-insensitively
func ParseRole(s string) (Role, error) {
	for r := range rolePermissions {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", invalid("role", s, "must be one of Nurse, Pharmacist, Master")
}

// Permissions returns the fixed permission set of the role
func (r Role) Permissions() []Permission {
	perms := rolePermissions[r]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Allows reports whether the role grants p
func (r Role) Allows(p Permission) bool {
	for _, have := range rolePermissions[r] {
		if have == p {
			return true
		}
	}
	return false
}

// ParseAccountStatus matches a status name case-insensitively
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch {
	case strings.EqualFold(s, string(AccountActive)):
		return AccountActive, nil
	case strings.EqualFold(s, string(AccountBlacklisted)):
		return AccountBlacklisted, nil
	}
	return "", invalid("status", s, "must be Active or Blacklisted")
}

// UserAccount is a staff member allowed to use the inventory
type UserAccount struct {
	EmployeeID   string
	Name         string
	Role         Role
	Status       AccountStatus
	PasswordHash string
	Group        string
	CreatedAt    time.Time
	// LastLogin is zero when the user never logged in.
	LastLogin time.Time
}

// Validate checks the account invariants
func (u *UserAccount) Validate() error {
	if strings.TrimSpace(u.EmployeeID) == "" {
		return invalid("employee_id", "", "cannot be empty")
	}
	if _, ok := rolePermissions[u.Role]; !ok {
		return invalid("role", string(u.Role), "must be one of Nurse, Pharmacist, Master")
	}
	if u.Status != AccountActive && u.Status != AccountBlacklisted {
		return invalid("status", string(u.Status), "must be Active or Blacklisted")
	}
	return nil
}

// Can reports whether the user may exercise p. Blacklisted users can do nothing.
func (u *UserAccount) Can(p Permission) bool {
	return u.Status == AccountActive && u.Role.Allows(p)
}

// HashPassword returns a bcrypt hash of password
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the stored hash
func (u *UserAccount) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
