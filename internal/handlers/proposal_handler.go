package handlers

import (
	"net/http"
	"time"

	"github.com/freelaz/backend/internal/models"
	"github.com/freelaz/backend/internal/moderation"
	"github.com/freelaz/backend/internal/repository"
	"github.com/freelaz/backend/internal/sanction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProposalHandler struct {
	proposalRepo *repository.ProposalRepository
	projectRepo  *repository.ProjectRepository
	sanctions    *sanction.Engine
}

func NewProposalHandler(proposalRepo *repository.ProposalRepository, projectRepo *repository.ProjectRepository, sanctions *sanction.Engine) *ProposalHandler {
	return &ProposalHandler{
		proposalRepo: proposalRepo,
		projectRepo:  projectRepo,
		sanctions:    sanctions,
	}
}

// Create submits a bid on a project. Banned accounts are refused, and a
// freelancer under an active sanction has the proposal demoted in listings.
func (h *ProposalHandler) Create(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	role, _ := c.Get("user_role")
	if role != models.RoleFreelancer {
		ErrorResponse(c, http.StatusForbidden, "Apenas freelancers podem enviar propostas")
		return
	}

	var req models.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.sanctions.GetUserSanctionStatus(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to check account status")
		return
	}
	if !status.CanSendProposals {
		ErrorResponse(c, http.StatusForbidden, h.sanctions.GetBanMessage(uid))
		return
	}

	project, err := h.projectRepo.GetByID(req.ProjectID)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Project not found")
		return
	}
	if project.Status != models.ProjectStatusOpen {
		ErrorResponse(c, http.StatusConflict, "Projeto não está aberto para propostas")
		return
	}

	exists, err := h.proposalRepo.HasProposal(req.ProjectID, uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to check existing proposal")
		return
	}
	if exists {
		ErrorResponse(c, http.StatusConflict, "Você já enviou uma proposta para este projeto")
		return
	}

	proposal := &models.Proposal{
		ID:            uuid.New(),
		ProjectID:     req.ProjectID,
		FreelancerID:  uid,
		CoverLetter:   moderation.SanitizeProjectPosting(req.CoverLetter),
		BidAmount:     req.BidAmount,
		Status:        models.ProposalStatusPending,
		RankPenalized: status.ProposalRankPenalty,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := h.proposalRepo.Create(proposal); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to create proposal")
		return
	}

	c.JSON(http.StatusCreated, proposal)
}

// GetByProject lists proposals for a project. Only the project owner may
// see them.
func (h *ProposalHandler) GetByProject(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid project ID")
		return
	}

	project, err := h.projectRepo.GetByID(projectID)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Project not found")
		return
	}
	if project.ClientID != uid {
		ErrorResponse(c, http.StatusForbidden, "Not the project owner")
		return
	}

	proposals, err := h.proposalRepo.GetByProjectID(projectID)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get proposals")
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// GetMine lists the caller's proposals
func (h *ProposalHandler) GetMine(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	proposals, err := h.proposalRepo.GetByFreelancerID(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get proposals")
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// Accept accepts a proposal and moves the project into progress
func (h *ProposalHandler) Accept(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid proposal ID")
		return
	}

	proposal, err := h.proposalRepo.GetByID(id)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Proposal not found")
		return
	}

	project, err := h.projectRepo.GetByID(proposal.ProjectID)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Project not found")
		return
	}
	if project.ClientID != uid {
		ErrorResponse(c, http.StatusForbidden, "Not the project owner")
		return
	}
	if proposal.Status != models.ProposalStatusPending {
		ErrorResponse(c, http.StatusConflict, "Proposta já foi processada")
		return
	}

	if err := h.proposalRepo.UpdateStatus(id, models.ProposalStatusAccepted); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to accept proposal")
		return
	}
	if err := h.projectRepo.UpdateStatus(project.ID, models.ProjectStatusInProgress); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to update project")
		return
	}

	proposal.Status = models.ProposalStatusAccepted
	c.JSON(http.StatusOK, proposal)
}

// Withdraw withdraws the caller's own pending proposal
func (h *ProposalHandler) Withdraw(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid proposal ID")
		return
	}

	proposal, err := h.proposalRepo.GetByID(id)
	if err != nil {
		ErrorResponse(c, http.StatusNotFound, "Proposal not found")
		return
	}
	if proposal.FreelancerID != uid {
		ErrorResponse(c, http.StatusForbidden, "Not the proposal owner")
		return
	}
	if proposal.Status != models.ProposalStatusPending {
		ErrorResponse(c, http.StatusConflict, "Proposta já foi processada")
		return
	}

	if err := h.proposalRepo.UpdateStatus(id, models.ProposalStatusWithdrawn); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to withdraw proposal")
		return
	}

	proposal.Status = models.ProposalStatusWithdrawn
	c.JSON(http.StatusOK, proposal)
}
