package model

import (
	"time"
)

// Article represents an ingested news/web article scoped to a workspace.
// URL is unique per workspace. An article with VectorIndexed=true has a
// vector in the vector store under the workspace namespace, keyed by the
// article id.
type Article struct {
	ID            string    `bson:"_id" json:"id"`
	WorkspaceID   string    `bson:"workspace_id" json:"workspace_id"`
	URL           string    `bson:"url" json:"url"`
	Title         string    `bson:"title" json:"title"`
	Body          string    `bson:"body" json:"body"`
	Date          time.Time `bson:"date" json:"date"`
	Source        string    `bson:"source" json:"source"`
	Image         string    `bson:"image,omitempty" json:"image,omitempty"`
	Content       string    `bson:"content,omitempty" json:"content,omitempty"`
	VectorIndexed bool      `bson:"vector_indexed" json:"vector_indexed"`

	// ContentFetchingResult holds the outcome of the ingestion-time
	// content fetch (cleaned markdown plus page metadata such as og:image).
	ContentFetchingResult *ContentFetchingResult `bson:"content_fetching_result,omitempty" json:"content_fetching_result,omitempty"`
}

// ContentFetchingResult is produced by the ingestion pipeline when the
// article page is fetched and converted to markdown.
type ContentFetchingResult struct {
	Status   string            `bson:"status" json:"status"`
	Markdown string            `bson:"markdown,omitempty" json:"markdown,omitempty"`
	HTML     string            `bson:"html,omitempty" json:"html,omitempty"`
	Metadata map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// CollectionName specifies the MongoDB collection for Article.
func (Article) CollectionName() string {
	return "articles"
}

// ArticleEmbedding pairs an article id with its embedding vector.
// Dimensionality is fixed per workspace by the embedding model.
type ArticleEmbedding struct {
	ID        string    `json:"id"`
	Embedding []float32 `json:"embedding"`
}
