package models

import "time"

// UserRole distinguishes customers from store administrators.
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

// User represents an account of the store.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	FullName     string    `json:"full_name" gorm:"type:varchar(255)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255)"` // Never serialized
	Role         UserRole  `json:"role" gorm:"type:varchar(20)"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
