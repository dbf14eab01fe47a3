package model

// EvaluationDecision is the relevance verdict for a cluster or an article.
type EvaluationDecision string

const (
	// DecisionInclude 簇/文章与工作区编辑意图相关，保留。
	DecisionInclude EvaluationDecision = "include"
	// DecisionExclude 簇/文章不相关，保留存储但不进入下游。
	DecisionExclude EvaluationDecision = "exclude"
)

// ClusterOverview is the LLM-generated title and summary for a cluster.
type ClusterOverview struct {
	Title   string `bson:"title" json:"title"`
	Summary string `bson:"summary" json:"summary"`
}

// ClusterEvaluation records the include/exclude decision for a cluster.
// Schema contract: Decision=include ⇔ IrrelevancyReason is empty;
// Decision=exclude requires a non-empty Justification.
type ClusterEvaluation struct {
	Decision          EvaluationDecision `bson:"decision" json:"decision"`
	Justification     string             `bson:"justification,omitempty" json:"justification,omitempty"`
	IrrelevancyReason string             `bson:"irrelevancy_reason,omitempty" json:"irrelevancy_reason,omitempty"`
}

// Cluster is a group of thematically related articles with a computed
// centroid. Articles are ordered ascending by Euclidean distance to the
// centroid, ties broken by ascending article id. ArticleCount equals
// len(Articles) and is always >= 1.
type Cluster struct {
	ID           string             `bson:"_id" json:"id"`
	SessionID    string             `bson:"session_id" json:"session_id"`
	WorkspaceID  string             `bson:"workspace_id" json:"workspace_id"`
	Articles     []string           `bson:"articles" json:"articles"`
	ArticleCount int                `bson:"articles_count" json:"articles_count"`
	Center       []float32          `bson:"center" json:"center"`
	Overview     *ClusterOverview   `bson:"overview,omitempty" json:"overview,omitempty"`
	Evaluation   *ClusterEvaluation `bson:"evaluation,omitempty" json:"evaluation,omitempty"`
	FirstImage   string             `bson:"first_image,omitempty" json:"first_image,omitempty"`
}

// CollectionName specifies the MongoDB collection for Cluster.
func (Cluster) CollectionName() string {
	return "clusters"
}

// Retained reports whether the cluster survives relevance filtering and
// flows into session summarization.
func (c *Cluster) Retained() bool {
	return c.Evaluation != nil && c.Evaluation.Decision == DecisionInclude
}
