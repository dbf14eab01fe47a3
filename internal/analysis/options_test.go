package app

import "testing"

func TestOptionsCompleteAppliesEnvironment(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://env-host:27017/newsloom")
	t.Setenv("MILVUS_ADDRESS", "env-milvus:19530")
	t.Setenv("MILVUS_USERNAME", "svc")
	t.Setenv("MILVUS_PASSWORD", "secret")
	t.Setenv("PROMPT_REGISTRY_ENDPOINT", "http://prompts.internal/api")
	t.Setenv("ARTICLE_EVAL_BATCH_SIZE", "25")

	opts := NewOptions()
	if err := opts.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if opts.MongoDB.URI != "mongodb://env-host:27017/newsloom" {
		t.Errorf("mongodb uri = %q", opts.MongoDB.URI)
	}
	if opts.Milvus.Address != "env-milvus:19530" {
		t.Errorf("milvus address = %q", opts.Milvus.Address)
	}
	if opts.Milvus.Username != "svc" || opts.Milvus.Password != "secret" {
		t.Errorf("milvus credentials = %q/%q", opts.Milvus.Username, opts.Milvus.Password)
	}
	if opts.Prompt.Endpoint != "http://prompts.internal/api" {
		t.Errorf("prompt endpoint = %q", opts.Prompt.Endpoint)
	}
	if opts.Analysis.ArticleEvalBatchSize != 25 {
		t.Errorf("article eval batch size = %d", opts.Analysis.ArticleEvalBatchSize)
	}
}

func TestOptionsCompleteKeepsFlagValues(t *testing.T) {
	t.Setenv("MILVUS_ADDRESS", "")
	t.Setenv("PROMPT_REGISTRY_ENDPOINT", "")

	opts := NewOptions()
	opts.Milvus.Address = "flag-milvus:19530"
	opts.Prompt.Endpoint = "http://flag-prompts/api"

	if err := opts.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if opts.Milvus.Address != "flag-milvus:19530" {
		t.Errorf("milvus address = %q", opts.Milvus.Address)
	}
	if opts.Prompt.Endpoint != "http://flag-prompts/api" {
		t.Errorf("prompt endpoint = %q", opts.Prompt.Endpoint)
	}
}
