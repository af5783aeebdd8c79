package models

import "time"

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User is a read-only projection of a Casdoor account
type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`

	AvatarURL     *string `json:"avatar_url"`
	EmailVerified bool    `json:"email_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanManageContent reports whether the user may import exam sets
func (u *User) CanManageContent() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}
