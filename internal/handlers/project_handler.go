package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/freelaz/backend/internal/models"
	"github.com/freelaz/backend/internal/moderation"
	"github.com/freelaz/backend/internal/repository"
	"github.com/freelaz/backend/internal/sanction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	projectRepo *repository.ProjectRepository
	sanctions   *sanction.Engine
}

func NewProjectHandler(projectRepo *repository.ProjectRepository, sanctions *sanction.Engine) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		sanctions:   sanctions,
	}
}

// Create publishes a new project. Suspended and banned accounts are
// refused; the posted text is sanitized before it is stored.
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	role, _ := c.Get("user_role")
	if role != models.RoleClient {
		ErrorResponse(c, http.StatusForbidden, "Apenas clientes podem publicar projetos")
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.sanctions.GetUserSanctionStatus(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to check account status")
		return
	}
	if !status.CanPostProjects {
		ErrorResponse(c, http.StatusForbidden, h.restrictionMessage(uid, status))
		return
	}

	project := &models.Project{
		ID:          uuid.New(),
		ClientID:    uid,
		Title:       moderation.SanitizeProjectPosting(req.Title),
		Description: moderation.SanitizeProjectPosting(req.Description),
		Budget:      req.Budget,
		Status:      models.ProjectStatusOpen,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := h.projectRepo.Create(project); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to create project")
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) restrictionMessage(uid uuid.UUID, status *sanction.UserStatus) string {
	if status.IsBanned {
		return h.sanctions.GetBanMessage(uid)
	}
	if status.BanExpiresAt != nil {
		return sanction.GetPenaltyMessage(*status.BanExpiresAt)
	}
	return "Sua conta está temporariamente impedida de publicar projetos."
}

// List returns open projects with pagination
func (h *ProjectHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	projects, err := h.projectRepo.ListOpen(limit, offset)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list projects")
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// Get returns one project
func (h *ProjectHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid project ID")
		return
	}

	project, err := h.projectRepo.GetByID(id)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Project not found")
		return
	}

	c.JSON(http.StatusOK, project)
}

// GetMine returns the caller's projects
func (h *ProjectHandler) GetMine(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	projects, err := h.projectRepo.GetByClientID(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get projects")
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// UpdateStatus transitions a project's status. Only the owning client may
// do this.
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid project ID")
		return
	}

	var req models.UpdateProjectStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.projectRepo.GetByID(id)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Project not found")
		return
	}

	if project.ClientID != uid {
		ErrorResponse(c, http.StatusForbidden, "Not the project owner")
		return
	}

	if err := h.projectRepo.UpdateStatus(id, req.Status); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to update project")
		return
	}

	project.Status = req.Status
	c.JSON(http.StatusOK, project)
}
