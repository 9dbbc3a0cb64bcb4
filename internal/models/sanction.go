package models

import "github.com/google/uuid"

type AppealSanctionRequest struct {
	SanctionID uuid.UUID `json:"sanction_id" binding:"required"`
	Reason     string    `json:"reason" binding:"required,max=2000"`
}

type ProcessAppealRequest struct {
	SanctionID uuid.UUID `json:"sanction_id" binding:"required"`
	Approve    bool      `json:"approve"`
}

type LiftSanctionRequest struct {
	SanctionID uuid.UUID `json:"sanction_id" binding:"required"`
}
