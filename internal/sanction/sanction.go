package sanction

import (
	"time"

	"github.com/freelaz/backend/internal/moderation"
	"github.com/google/uuid"
)

// Tier is the escalating restriction level applied to an account.
type Tier string

const (
	TierNone      Tier = "none"
	TierViolation Tier = "violation" // permanent visible mark, no expiry
	TierPenalty   Tier = "penalty"   // expires after the penalty window
	TierBan       Tier = "ban"       // permanent pending lift or appeal
)

// Rank gives the total order none < violation < penalty < ban.
func (t Tier) Rank() int {
	switch t {
	case TierViolation:
		return 1
	case TierPenalty:
		return 2
	case TierBan:
		return 3
	default:
		return 0
	}
}

// RecordStatus is the lifecycle state of a sanction record.
type RecordStatus string

const (
	StatusActive  RecordStatus = "active"
	StatusExpired RecordStatus = "expired"
	StatusLifted  RecordStatus = "lifted"
)

// AppealStatus tracks the user-initiated appeal workflow on a record.
type AppealStatus string

const (
	AppealNone     AppealStatus = "none"
	AppealPending  AppealStatus = "pending"
	AppealApproved AppealStatus = "approved"
	AppealRejected AppealStatus = "rejected"
)

// Record is one enforcement action. Records are append-only: once created,
// only the status, lift and appeal fields ever change.
type Record struct {
	ID              uuid.UUID                  `json:"id" db:"id"`
	UserID          uuid.UUID                  `json:"user_id" db:"user_id"`
	UserDisplayName string                     `json:"user_display_name" db:"user_display_name"`
	UserRole        string                     `json:"user_role" db:"user_role"` // freelancer, client
	Tier            Tier                       `json:"tier" db:"tier"`
	Kinds           []moderation.ViolationKind `json:"violation_kinds" db:"violation_kinds"`
	Reason          string                     `json:"reason" db:"reason"`
	Description     string                     `json:"description" db:"description"`
	CreatedAt       time.Time                  `json:"created_at" db:"created_at"`
	ExpiresAt       *time.Time                 `json:"expires_at,omitempty" db:"expires_at"` // penalty only
	LiftedAt        *time.Time                 `json:"lifted_at,omitempty" db:"lifted_at"`
	LiftedBy        *string                    `json:"lifted_by,omitempty" db:"lifted_by"`
	Status          RecordStatus               `json:"status" db:"status"`
	AppealStatus    AppealStatus               `json:"appeal_status" db:"appeal_status"`
	AppealReason    *string                    `json:"appeal_reason,omitempty" db:"appeal_reason"`
	AppealDate      *time.Time                 `json:"appeal_date,omitempty" db:"appeal_date"`
}

// UserStatus is the derived restriction state for one user: a materialized
// projection of that user's active records, not independent truth.
type UserStatus struct {
	UserID              uuid.UUID  `json:"user_id" db:"user_id"`
	CurrentTier         Tier       `json:"current_tier" db:"current_tier"`
	ViolationCount      int        `json:"violation_count" db:"violation_count"`
	PenaltyCount        int        `json:"penalty_count" db:"penalty_count"`
	IsBanned            bool       `json:"is_banned" db:"is_banned"`
	BanReason           string     `json:"ban_reason,omitempty" db:"ban_reason"`
	BanExpiresAt        *time.Time `json:"ban_expires_at,omitempty" db:"ban_expires_at"`
	ProposalRankPenalty bool       `json:"proposal_rank_penalty" db:"proposal_rank_penalty"`
	CanPostProjects     bool       `json:"can_post_projects" db:"can_post_projects"`
	CanSendProposals    bool       `json:"can_send_proposals" db:"can_send_proposals"`
	CanUseChat          bool       `json:"can_use_chat" db:"can_use_chat"`
	WarningBadge        bool       `json:"warning_badge" db:"warning_badge"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// defaultStatus is the fully permissive state for a user with no active
// sanctions.
func defaultStatus(userID uuid.UUID) *UserStatus {
	return &UserStatus{
		UserID:           userID,
		CurrentTier:      TierNone,
		CanPostProjects:  true,
		CanSendProposals: true,
		CanUseChat:       true,
	}
}
