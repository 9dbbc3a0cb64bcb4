package models

import (
	"time"

	"github.com/google/uuid"
)

// Project statuses
const (
	ProjectStatusOpen       = "open"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// Project is a job posting created by a client. The description is stored
// already sanitized; raw submitted text never reaches the database.
type Project struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ClientID    uuid.UUID `json:"client_id" db:"client_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Budget      float64   `json:"budget" db:"budget"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	Client      *User     `json:"client,omitempty"`
}

type CreateProjectRequest struct {
	Title       string  `json:"title" binding:"required,min=5,max=200"`
	Description string  `json:"description" binding:"required,max=5000"`
	Budget      float64 `json:"budget" binding:"required,gt=0"`
}

type UpdateProjectStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=open in_progress completed cancelled"`
}
