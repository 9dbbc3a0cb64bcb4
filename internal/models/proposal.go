package models

import (
	"time"

	"github.com/google/uuid"
)

// Proposal statuses
const (
	ProposalStatusPending   = "pending"
	ProposalStatusAccepted  = "accepted"
	ProposalStatusRejected  = "rejected"
	ProposalStatusWithdrawn = "withdrawn"
)

// Proposal is a freelancer's bid on a project. RankPenalized is copied from
// the freelancer's sanction status at submission time and demotes the
// proposal in listings.
type Proposal struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ProjectID     uuid.UUID `json:"project_id" db:"project_id"`
	FreelancerID  uuid.UUID `json:"freelancer_id" db:"freelancer_id"`
	CoverLetter   string    `json:"cover_letter" db:"cover_letter"`
	BidAmount     float64   `json:"bid_amount" db:"bid_amount"`
	Status        string    `json:"status" db:"status"`
	RankPenalized bool      `json:"rank_penalized" db:"rank_penalized"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
	Freelancer    *User     `json:"freelancer,omitempty"`
}

type CreateProposalRequest struct {
	ProjectID   uuid.UUID `json:"project_id" binding:"required"`
	CoverLetter string    `json:"cover_letter" binding:"required,max=5000"`
	BidAmount   float64   `json:"bid_amount" binding:"required,gt=0"`
}
