package models

import "github.com/minerva/erp/pkg/constants"

// SystemUser represents a row of the users table
type SystemUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// IsAdmin checks if the user may act on records owned by others
func (u *SystemUser) IsAdmin() bool {
	return constants.IsAdminRole(u.Role)
}
