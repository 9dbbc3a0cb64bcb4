package repository

import (
	"database/sql"
	"fmt"

	"github.com/freelaz/backend/internal/database"
	"github.com/freelaz/backend/internal/moderation"
	"github.com/freelaz/backend/internal/sanction"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SanctionRepository persists sanction records and per-user status
// projections. It implements sanction.Store.
type SanctionRepository struct {
	db *database.DB
}

func NewSanctionRepository(db *database.DB) *SanctionRepository {
	return &SanctionRepository{db: db}
}

var _ sanction.Store = (*SanctionRepository)(nil)

const sanctionRecordColumns = `id, user_id, user_display_name, user_role, tier, violation_kinds, reason, description,
		created_at, expires_at, lifted_at, lifted_by, status, appeal_status, appeal_reason, appeal_date`

// AppendRecord persists a new sanction record
func (r *SanctionRepository) AppendRecord(record *sanction.Record) error {
	query := `
		INSERT INTO sanction_records (` + sanctionRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(
		query,
		record.ID,
		record.UserID,
		record.UserDisplayName,
		record.UserRole,
		string(record.Tier),
		pq.Array(kindsToStrings(record.Kinds)),
		record.Reason,
		record.Description,
		record.CreatedAt,
		record.ExpiresAt,
		record.LiftedAt,
		record.LiftedBy,
		string(record.Status),
		string(record.AppealStatus),
		record.AppealReason,
		record.AppealDate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sanction record: %w", err)
	}

	return nil
}

// GetRecord returns one record by id
func (r *SanctionRepository) GetRecord(id uuid.UUID) (*sanction.Record, error) {
	query := `
		SELECT ` + sanctionRecordColumns + `
		FROM sanction_records
		WHERE id = $1
	`

	record, err := scanSanctionRecord(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, sanction.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sanction record: %w", err)
	}

	return record, nil
}

// UpdateRecord persists the mutable fields of a record
func (r *SanctionRepository) UpdateRecord(record *sanction.Record) error {
	query := `
		UPDATE sanction_records
		SET status = $1, lifted_at = $2, lifted_by = $3,
		    appeal_status = $4, appeal_reason = $5, appeal_date = $6
		WHERE id = $7
	`

	result, err := r.db.Exec(
		query,
		string(record.Status),
		record.LiftedAt,
		record.LiftedBy,
		string(record.AppealStatus),
		record.AppealReason,
		record.AppealDate,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sanction record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sanction.ErrRecordNotFound
	}

	return nil
}

// GetRecordsByUser returns a user's full history, newest first
func (r *SanctionRepository) GetRecordsByUser(userID uuid.UUID) ([]sanction.Record, error) {
	query := `
		SELECT ` + sanctionRecordColumns + `
		FROM sanction_records
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sanction records: %w", err)
	}
	defer rows.Close()

	return collectSanctionRecords(rows)
}

// ListRecords returns all records, optionally only active ones
func (r *SanctionRepository) ListRecords(activeOnly bool) ([]sanction.Record, error) {
	query := `
		SELECT ` + sanctionRecordColumns + `
		FROM sanction_records
		WHERE $1 = false OR status = 'active'
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list sanction records: %w", err)
	}
	defer rows.Close()

	return collectSanctionRecords(rows)
}

// GetStatus returns the stored projection for a user, or (nil, nil) when the
// user has never been sanctioned
func (r *SanctionRepository) GetStatus(userID uuid.UUID) (*sanction.UserStatus, error) {
	query := `
		SELECT user_id, current_tier, violation_count, penalty_count, is_banned, ban_reason, ban_expires_at,
		       proposal_rank_penalty, can_post_projects, can_send_proposals, can_use_chat, warning_badge, updated_at
		FROM user_sanction_status
		WHERE user_id = $1
	`

	status := &sanction.UserStatus{}
	var tier string
	err := r.db.QueryRow(query, userID).Scan(
		&status.UserID,
		&tier,
		&status.ViolationCount,
		&status.PenaltyCount,
		&status.IsBanned,
		&status.BanReason,
		&status.BanExpiresAt,
		&status.ProposalRankPenalty,
		&status.CanPostProjects,
		&status.CanSendProposals,
		&status.CanUseChat,
		&status.WarningBadge,
		&status.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sanction status: %w", err)
	}

	status.CurrentTier = sanction.Tier(tier)
	return status, nil
}

// PutStatus creates or replaces the projection for a user
func (r *SanctionRepository) PutStatus(status *sanction.UserStatus) error {
	query := `
		INSERT INTO user_sanction_status (
			user_id, current_tier, violation_count, penalty_count, is_banned, ban_reason, ban_expires_at,
			proposal_rank_penalty, can_post_projects, can_send_proposals, can_use_chat, warning_badge, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			current_tier = EXCLUDED.current_tier,
			violation_count = EXCLUDED.violation_count,
			penalty_count = EXCLUDED.penalty_count,
			is_banned = EXCLUDED.is_banned,
			ban_reason = EXCLUDED.ban_reason,
			ban_expires_at = EXCLUDED.ban_expires_at,
			proposal_rank_penalty = EXCLUDED.proposal_rank_penalty,
			can_post_projects = EXCLUDED.can_post_projects,
			can_send_proposals = EXCLUDED.can_send_proposals,
			can_use_chat = EXCLUDED.can_use_chat,
			warning_badge = EXCLUDED.warning_badge,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(
		query,
		status.UserID,
		string(status.CurrentTier),
		status.ViolationCount,
		status.PenaltyCount,
		status.IsBanned,
		status.BanReason,
		status.BanExpiresAt,
		status.ProposalRankPenalty,
		status.CanPostProjects,
		status.CanSendProposals,
		status.CanUseChat,
		status.WarningBadge,
		status.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sanction status: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSanctionRecord(row rowScanner) (*sanction.Record, error) {
	record := &sanction.Record{}
	var tier, status, appealStatus string
	var kinds []string

	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.UserDisplayName,
		&record.UserRole,
		&tier,
		pq.Array(&kinds),
		&record.Reason,
		&record.Description,
		&record.CreatedAt,
		&record.ExpiresAt,
		&record.LiftedAt,
		&record.LiftedBy,
		&status,
		&appealStatus,
		&record.AppealReason,
		&record.AppealDate,
	)
	if err != nil {
		return nil, err
	}

	record.Tier = sanction.Tier(tier)
	record.Status = sanction.RecordStatus(status)
	record.AppealStatus = sanction.AppealStatus(appealStatus)
	record.Kinds = stringsToKinds(kinds)
	return record, nil
}

func collectSanctionRecords(rows *sql.Rows) ([]sanction.Record, error) {
	records := []sanction.Record{}
	for rows.Next() {
		record, err := scanSanctionRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sanction record: %w", err)
		}
		records = append(records, *record)
	}
	return records, nil
}

func kindsToStrings(kinds []moderation.ViolationKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func stringsToKinds(values []string) []moderation.ViolationKind {
	out := make([]moderation.ViolationKind, len(values))
	for i, v := range values {
		out[i] = moderation.ViolationKind(v)
	}
	return out
}
