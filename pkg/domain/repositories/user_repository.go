package repositories

import "github.com/vsinha/rxstock/pkg/domain/entities"

// UserRepository provides access to staff accounts
type UserRepository interface {
	LoadUsers() ([]entities.UserAccount, error)
	SaveUsers(users []entities.UserAccount) error
	UpdateUser(user entities.UserAccount) (found bool, err error)
	// UpdateUserFunc applies fn to the stored account as a single
	// read-modify-write. An error from fn aborts the write and is returned.
	UpdateUserFunc(employeeID string, fn func(*entities.UserAccount) error) (found bool, err error)
}
