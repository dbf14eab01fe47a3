package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/newsloom/internal/analysis/store"
	"github.com/kart-io/newsloom/internal/model"
	"github.com/kart-io/newsloom/pkg/id"
	"github.com/kart-io/newsloom/pkg/response"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
	"github.com/kart-io/newsloom/pkg/validator"
)

// WorkspaceHandler handles workspace management requests.
type WorkspaceHandler struct {
	store store.Factory
}

// NewWorkspaceHandler creates a new WorkspaceHandler.
func NewWorkspaceHandler(factory store.Factory) *WorkspaceHandler {
	return &WorkspaceHandler{store: factory}
}

// CreateWorkspaceRequest is the request body for creating a workspace.
type CreateWorkspaceRequest struct {
	OrganizationID    string `json:"organization_id" validate:"required"`
	Name              string `json:"name" validate:"required,min=1,max=128"`
	Description       string `json:"description" validate:"required"`
	Language          string `json:"language" validate:"required,oneof=fr en de"`
	RelevanceCriteria string `json:"relevance_criteria"`
	Enabled           *bool  `json:"enabled"`
}

// Create handles workspace creation.
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Write(c, errs.ErrBadRequest.WithMessage(err.Error()), nil)
		return
	}
	if err := validator.Global().Validate(&req); err != nil {
		response.Write(c, errs.ErrValidationFailed.WithMessage(err.Error()), nil)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	now := time.Now().UTC()
	workspace := &model.Workspace{
		ID:                id.New(),
		OrganizationID:    req.OrganizationID,
		Name:              req.Name,
		Description:       req.Description,
		Language:          req.Language,
		RelevanceCriteria: req.RelevanceCriteria,
		Enabled:           enabled,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := h.store.Workspaces().Create(c.Request.Context(), workspace); err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, workspace)
}

// Get returns a workspace by id.
func (h *WorkspaceHandler) Get(c *gin.Context) {
	workspace, err := h.store.Workspaces().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, workspace)
}

// List returns workspaces, newest first.
func (h *WorkspaceHandler) List(c *gin.Context) {
	page, pageSize, offset := pagination(c)
	total, list, err := h.store.Workspaces().List(c.Request.Context(), offset, pageSize)
	if err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, response.Page(list, total, page, pageSize))
}

// UpdateWorkspaceRequest is the request body for updating a workspace.
// Zero-valued fields are left unchanged.
type UpdateWorkspaceRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	Language          string `json:"language" validate:"omitempty,oneof=fr en de"`
	RelevanceCriteria *string `json:"relevance_criteria"`
	Enabled           *bool  `json:"enabled"`
}

// Update handles partial workspace updates.
func (h *WorkspaceHandler) Update(c *gin.Context) {
	workspace, err := h.store.Workspaces().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Write(c, err, nil)
		return
	}

	var req UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Write(c, errs.ErrBadRequest.WithMessage(err.Error()), nil)
		return
	}
	if err := validator.Global().Validate(&req); err != nil {
		response.Write(c, errs.ErrValidationFailed.WithMessage(err.Error()), nil)
		return
	}

	if req.Name != "" {
		workspace.Name = req.Name
	}
	if req.Description != "" {
		workspace.Description = req.Description
	}
	if req.Language != "" {
		workspace.Language = req.Language
	}
	if req.RelevanceCriteria != nil {
		workspace.RelevanceCriteria = *req.RelevanceCriteria
	}
	if req.Enabled != nil {
		workspace.Enabled = *req.Enabled
	}
	workspace.UpdatedAt = time.Now().UTC()

	if err := h.store.Workspaces().Update(c.Request.Context(), workspace); err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, workspace)
}

// Delete removes a workspace.
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	if err := h.store.Workspaces().Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, nil)
}
