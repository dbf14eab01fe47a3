package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/newsloom/internal/analysis/store"
	"github.com/kart-io/newsloom/pkg/response"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

// SessionHandler exposes clustering sessions and their artifacts.
type SessionHandler struct {
	store store.Factory
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(factory store.Factory) *SessionHandler {
	return &SessionHandler{store: factory}
}

// Get returns a session by id.
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.store.Sessions().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, session)
}

// List returns a workspace's sessions, newest first.
func (h *SessionHandler) List(c *gin.Context) {
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		response.Write(c, errs.ErrInvalidParam.WithMessage("workspace_id is required"), nil)
		return
	}

	page, pageSize, offset := pagination(c)
	total, list, err := h.store.Sessions().ListByWorkspace(c.Request.Context(), workspaceID, offset, pageSize)
	if err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, response.Page(list, total, page, pageSize))
}

// Clusters 返回会话的全部簇，按发现顺序排列。
func (h *SessionHandler) Clusters(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := h.store.Sessions().Get(c.Request.Context(), sessionID); err != nil {
		response.Write(c, err, nil)
		return
	}
	clusters, err := h.store.Clusters().ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, clusters)
}

// Starters returns the conversation starters generated for a session.
func (h *SessionHandler) Starters(c *gin.Context) {
	starters, err := h.store.Starters().GetBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, starters)
}
