package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/newsloom/internal/analysis/store"
	"github.com/kart-io/newsloom/pkg/response"
)

// ClusterHandler exposes individual clusters.
type ClusterHandler struct {
	store store.Factory
}

// NewClusterHandler creates a new ClusterHandler.
func NewClusterHandler(factory store.Factory) *ClusterHandler {
	return &ClusterHandler{store: factory}
}

// Get returns a cluster by id.
func (h *ClusterHandler) Get(c *gin.Context) {
	cluster, err := h.store.Clusters().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Write(c, err, nil)
		return
	}
	response.Write(c, nil, cluster)
}

// Articles 返回簇成员文章的完整文档，保持质心距离排序。
func (h *ClusterHandler) Articles(c *gin.Context) {
	cluster, err := h.store.Clusters().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Write(c, err, nil)
		return
	}
	articles, err := h.store.Articles().ListByIDs(c.Request.Context(), cluster.Articles)
	if err != nil {
		response.Write(c, err, nil)
		return
	}

	// ListByIDs 不保证顺序，按簇内顺序重排
	byID := make(map[string]int, len(cluster.Articles))
	for i, articleID := range cluster.Articles {
		byID[articleID] = i
	}
	ordered := make([]interface{}, len(cluster.Articles))
	for _, a := range articles {
		if i, ok := byID[a.ID]; ok {
			ordered[i] = a
		}
	}
	compact := make([]interface{}, 0, len(ordered))
	for _, a := range ordered {
		if a != nil {
			compact = append(compact, a)
		}
	}
	response.Write(c, nil, compact)
}
