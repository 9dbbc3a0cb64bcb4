package repository

import (
	"database/sql"
	"fmt"

	"github.com/freelaz/backend/internal/database"
	"github.com/freelaz/backend/internal/models"
	"github.com/google/uuid"
)

type ProposalRepository struct {
	db *database.DB
}

func NewProposalRepository(db *database.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create creates a new proposal
func (r *ProposalRepository) Create(proposal *models.Proposal) error {
	query := `
		INSERT INTO proposals (id, project_id, freelancer_id, cover_letter, bid_amount, status, rank_penalized, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		proposal.ID,
		proposal.ProjectID,
		proposal.FreelancerID,
		proposal.CoverLetter,
		proposal.BidAmount,
		proposal.Status,
		proposal.RankPenalized,
		proposal.CreatedAt,
		proposal.UpdatedAt,
	).Scan(&proposal.ID, &proposal.CreatedAt, &proposal.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}

	return nil
}

// GetByID retrieves a proposal by ID
func (r *ProposalRepository) GetByID(id uuid.UUID) (*models.Proposal, error) {
	query := `
		SELECT id, project_id, freelancer_id, cover_letter, bid_amount, status, rank_penalized, created_at, updated_at
		FROM proposals
		WHERE id = $1
	`

	proposal := &models.Proposal{}
	err := r.db.QueryRow(query, id).Scan(
		&proposal.ID,
		&proposal.ProjectID,
		&proposal.FreelancerID,
		&proposal.CoverLetter,
		&proposal.BidAmount,
		&proposal.Status,
		&proposal.RankPenalized,
		&proposal.CreatedAt,
		&proposal.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("proposal not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	return proposal, nil
}

// GetByProjectID retrieves proposals for a project. Proposals from
// sanctioned freelancers sort after everyone else.
func (r *ProposalRepository) GetByProjectID(projectID uuid.UUID) ([]models.Proposal, error) {
	query := `
		SELECT p.id, p.project_id, p.freelancer_id, p.cover_letter, p.bid_amount, p.status, p.rank_penalized, p.created_at, p.updated_at,
		       u.id, u.email, u.display_name, u.role, u.bio, u.hourly_rate, u.avatar_url, u.password_hash, u.created_at, u.updated_at
		FROM proposals p
		INNER JOIN users u ON p.freelancer_id = u.id
		WHERE p.project_id = $1
		ORDER BY p.rank_penalized ASC, p.created_at ASC
	`

	rows, err := r.db.Query(query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposals: %w", err)
	}
	defer rows.Close()

	proposals := []models.Proposal{}
	for rows.Next() {
		var proposal models.Proposal
		var freelancer models.User

		err := rows.Scan(
			&proposal.ID,
			&proposal.ProjectID,
			&proposal.FreelancerID,
			&proposal.CoverLetter,
			&proposal.BidAmount,
			&proposal.Status,
			&proposal.RankPenalized,
			&proposal.CreatedAt,
			&proposal.UpdatedAt,
			&freelancer.ID,
			&freelancer.Email,
			&freelancer.DisplayName,
			&freelancer.Role,
			&freelancer.Bio,
			&freelancer.HourlyRate,
			&freelancer.AvatarURL,
			&freelancer.PasswordHash,
			&freelancer.CreatedAt,
			&freelancer.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}

		proposal.Freelancer = &freelancer
		proposals = append(proposals, proposal)
	}

	return proposals, nil
}

// GetByFreelancerID retrieves all proposals submitted by a freelancer
func (r *ProposalRepository) GetByFreelancerID(freelancerID uuid.UUID) ([]models.Proposal, error) {
	query := `
		SELECT id, project_id, freelancer_id, cover_letter, bid_amount, status, rank_penalized, created_at, updated_at
		FROM proposals
		WHERE freelancer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, freelancerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposals: %w", err)
	}
	defer rows.Close()

	proposals := []models.Proposal{}
	for rows.Next() {
		var proposal models.Proposal
		err := rows.Scan(
			&proposal.ID,
			&proposal.ProjectID,
			&proposal.FreelancerID,
			&proposal.CoverLetter,
			&proposal.BidAmount,
			&proposal.Status,
			&proposal.RankPenalized,
			&proposal.CreatedAt,
			&proposal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, proposal)
	}

	return proposals, nil
}

// HasProposal checks whether a freelancer already bid on a project
func (r *ProposalRepository) HasProposal(projectID, freelancerID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM proposals
			WHERE project_id = $1 AND freelancer_id = $2
		)
	`

	var exists bool
	err := r.db.QueryRow(query, projectID, freelancerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check proposal: %w", err)
	}

	return exists, nil
}

// UpdateStatus updates a proposal's status
func (r *ProposalRepository) UpdateStatus(id uuid.UUID, status string) error {
	query := `
		UPDATE proposals
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.Exec(query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update proposal status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("proposal not found")
	}

	return nil
}
