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

// TaskHandler handles analysis task submission and inspection.
type TaskHandler struct {
	store store.Factory
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(factory store.Factory) *TaskHandler {
	return &TaskHandler{store: factory}
}

// CreateTaskRequest is the request body for submitting an analysis task.
type CreateTaskRequest struct {
	WorkspaceID string    `json:"workspace_id" validate:"required"`
	DataStart   time.Time `json:"data_start" validate:"required"`
	DataEnd     time.Time `json:"data_end" validate:"required"`
}

// Create 提交分析任务。任务以 pending 状态入库，由 watcher 认领执行。
func (h *TaskHandler) Create(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Write(c, errs.ErrBadRequest.WithMessage(err.Error()), nil)
		return
	}
	if err := validator.Global().Validate(&req); err != nil {
		response.Write(c, errs.ErrValidationFailed.WithMessage(err.Error()), nil)
		return
	}
	if !req.DataStart.Before(req.DataEnd) {
		response.Write(c, errs.ErrAnalysisInvalidWindow, nil)
		return
	}

	workspace, err := h.store.Workspaces().Get(c.Request.Context(), req.WorkspaceID)
	if err != nil {
		response.Write(c, err, nil)
		return
	}
	if !workspace.Enabled {
		response.Write(c, errs.ErrWorkspaceDisabled, nil)
		return
	}

	task := &model.AnalysisTask{
		ID:          id.New(),
		WorkspaceID: req.WorkspaceID,
		Status:      model.TaskPending,
		DataStart:   req.DataStart.UTC(),
		DataEnd:     req.DataEnd.UTC(),
	}
	if err := h.store.Tasks().Create(c.Request.Context(), task); err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, task)
}

// Get returns a task by id.
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.store.Tasks().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, task)
}

// List returns tasks, optionally filtered by workspace_id, newest first.
func (h *TaskHandler) List(c *gin.Context) {
	page, pageSize, offset := pagination(c)
	total, list, err := h.store.Tasks().List(c.Request.Context(), c.Query("workspace_id"), offset, pageSize)
	if err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, response.Page(list, total, page, pageSize))
}
