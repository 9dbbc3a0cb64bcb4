package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleFreelancer = "freelancer"
	RoleClient     = "client"
	RoleAdmin      = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	Role         string    `json:"role" db:"role"` // freelancer, client, admin
	Bio          *string   `json:"bio,omitempty" db:"bio"`
	HourlyRate   *float64  `json:"hourly_rate,omitempty" db:"hourly_rate"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks basic user fields
func (u *User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("invalid email")
	}
	if u.DisplayName == "" {
		return fmt.Errorf("display name is required")
	}
	if len(u.DisplayName) < 2 || len(u.DisplayName) > 100 {
		return fmt.Errorf("display name length invalid")
	}
	switch u.Role {
	case RoleFreelancer, RoleClient, RoleAdmin:
	default:
		return fmt.Errorf("invalid role")
	}
	return nil
}

// IsFreelancer reports whether the user offers services on the platform
func (u *User) IsFreelancer() bool {
	return u.Role == RoleFreelancer
}

type UserPresence struct {
	UserID   uuid.UUID `json:"user_id"`
	Status   string    `json:"status"` // online, offline
	LastSeen time.Time `json:"last_seen"`
}

type CreateUserRequest struct {
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required,min=8"`
	DisplayName string   `json:"display_name" binding:"required"`
	Role        string   `json:"role" binding:"required,oneof=freelancer client"`
	Bio         *string  `json:"bio,omitempty"`
	HourlyRate  *float64 `json:"hourly_rate,omitempty"`
	AvatarURL   *string  `json:"avatar_url,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
