package repository

import (
	"database/sql"
	"fmt"

	"github.com/freelaz/backend/internal/database"
	"github.com/freelaz/backend/internal/models"
	"github.com/google/uuid"
)

type ProjectRepository struct {
	db *database.DB
}

func NewProjectRepository(db *database.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(project *models.Project) error {
	query := `
		INSERT INTO projects (id, client_id, title, description, budget, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		project.ID,
		project.ClientID,
		project.Title,
		project.Description,
		project.Budget,
		project.Status,
		project.CreatedAt,
		project.UpdatedAt,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(id uuid.UUID) (*models.Project, error) {
	query := `
		SELECT id, client_id, title, description, budget, status, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	project := &models.Project{}
	err := r.db.QueryRow(query, id).Scan(
		&project.ID,
		&project.ClientID,
		&project.Title,
		&project.Description,
		&project.Budget,
		&project.Status,
		&project.CreatedAt,
		&project.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// ListOpen retrieves open projects with pagination, newest first
func (r *ProjectRepository) ListOpen(limit, offset int) ([]models.Project, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := `
		SELECT p.id, p.client_id, p.title, p.description, p.budget, p.status, p.created_at, p.updated_at,
		       u.id, u.email, u.display_name, u.role, u.bio, u.hourly_rate, u.avatar_url, u.password_hash, u.created_at, u.updated_at
		FROM projects p
		INNER JOIN users u ON p.client_id = u.id
		WHERE p.status = 'open'
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var project models.Project
		var client models.User

		err := rows.Scan(
			&project.ID,
			&project.ClientID,
			&project.Title,
			&project.Description,
			&project.Budget,
			&project.Status,
			&project.CreatedAt,
			&project.UpdatedAt,
			&client.ID,
			&client.Email,
			&client.DisplayName,
			&client.Role,
			&client.Bio,
			&client.HourlyRate,
			&client.AvatarURL,
			&client.PasswordHash,
			&client.CreatedAt,
			&client.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}

		project.Client = &client
		projects = append(projects, project)
	}

	return projects, nil
}

// GetByClientID retrieves all projects posted by a client
func (r *ProjectRepository) GetByClientID(clientID uuid.UUID) ([]models.Project, error) {
	query := `
		SELECT id, client_id, title, description, budget, status, created_at, updated_at
		FROM projects
		WHERE client_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var project models.Project
		err := rows.Scan(
			&project.ID,
			&project.ClientID,
			&project.Title,
			&project.Description,
			&project.Budget,
			&project.Status,
			&project.CreatedAt,
			&project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, nil
}

// UpdateStatus updates a project's status
func (r *ProjectRepository) UpdateStatus(id uuid.UUID, status string) error {
	query := `
		UPDATE projects
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.Exec(query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("project not found")
	}

	return nil
}

// Delete deletes a project
func (r *ProjectRepository) Delete(id uuid.UUID) error {
	query := `DELETE FROM projects WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("project not found")
	}

	return nil
}
