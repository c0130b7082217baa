package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/diagnosis/coachbook/pkg/authz"
)

// ErrEmailTaken is returned by the repository when the email is already in use.
var ErrEmailTaken = errors.New("email already registered")

type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) Identity() authz.Identity {
	return authz.Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserInfo is the user without timestamps, as returned by admin writes.
type UserInfo struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// AuthResponse is the body of a successful login or registration.
type AuthResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Role is accepted for compatibility and ignored; public sign-up is always RoleUser.
	Role string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// UpdateUserRequest is a partial update. Nil or empty fields are left as they are.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UserPatch is what the repository writes; PasswordHash replaces Password.
type UserPatch struct {
	Name         *string
	Email        *string
	Role         *string
	PasswordHash *string
}

type Stats struct {
	TotalUsers         int `json:"totalUsers"`
	TotalTrainers      int `json:"totalTrainers"`
	TotalAppointments  int `json:"totalAppointments"`
	ActiveAppointments int `json:"activeAppointments"`
}

// Valid user roles
const (
	RoleUser    = authz.RoleUser
	RoleAdmin   = authz.RoleAdmin
	RoleTrainer = authz.RoleTrainer
	RoleCoach   = authz.RoleCoach
)

var validRoles = map[string]bool{
	RoleUser:    true,
	RoleAdmin:   true,
	RoleTrainer: true,
	RoleCoach:   true,
}

// TrainerRoles are the roles listed by /auth/trainers.
var TrainerRoles = []string{RoleTrainer, RoleCoach}

func IsValidRole(role string) bool {
	return validRoles[role]
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *CreateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Role = strings.TrimSpace(r.Role)
	if r.Role == "" {
		r.Role = RoleUser
	}
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}
