package services

import (
	"fmt"

	"github.com/vsinha/rxstock/pkg/domain/entities"
	"github.com/vsinha/rxstock/pkg/domain/repositories"
)

func findUser(repo repositories.UserRepository, employeeID string) (*entities.UserAccount, error) {
	users, err := repo.LoadUsers()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].EmployeeID == employeeID {
			return &users[i], nil
		}
	}
	return nil, nil
}

// authorize loads the acting user and checks it holds perm
func authorize(repo repositories.UserRepository, employeeID string, perm entities.Permission) (*entities.UserAccount, error) {
	user, err := findUser(repo, employeeID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, employeeID)
	}
	if !user.Can(perm) {
		return nil, fmt.Errorf("%w: %s lacks %s", ErrPermissionDenied, employeeID, perm)
	}
	return user, nil
}
