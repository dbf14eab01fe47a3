package biz

import (
	"fmt"
	"sort"
	"testing"

	"github.com/kart-io/newsloom/internal/model"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

// blob 生成围绕 base 的确定性点集，偏移逐点递增。
func blob(prefix string, base []float32, count int, step float32) []model.ArticleEmbedding {
	out := make([]model.ArticleEmbedding, count)
	for i := 0; i < count; i++ {
		vec := make([]float32, len(base))
		for d := range base {
			vec[d] = base[d] + float32(i)*step
		}
		out[i] = model.ArticleEmbedding{
			ID:        fmt.Sprintf("%s-%02d", prefix, i),
			Embedding: vec,
		}
	}
	return out
}

func TestClustererInsufficientArticles(t *testing.T) {
	c := NewClusterer(&ClustererConfig{MinClusterSize: 3, MinSamples: 1, MinArticles: 10})

	_, _, err := c.Cluster(blob("a", []float32{0, 0, 0}, 9, 0.01))
	if !errs.IsCode(err, errs.ErrInsufficientArticles.Code) {
		t.Fatalf("err = %v, want ErrInsufficientArticles", err)
	}
}

func TestClustererDimensionMismatch(t *testing.T) {
	c := NewClusterer(&ClustererConfig{MinClusterSize: 3, MinSamples: 1, MinArticles: 2})

	embeddings := []model.ArticleEmbedding{
		{ID: "a", Embedding: []float32{1, 2, 3}},
		{ID: "b", Embedding: []float32{1, 2}},
	}
	_, _, err := c.Cluster(embeddings)
	if !errs.IsCode(err, errs.ErrEmbeddingDimMismatch.Code) {
		t.Fatalf("err = %v, want ErrEmbeddingDimMismatch", err)
	}
}

func TestClustererSeparatedBlobs(t *testing.T) {
	c := NewClusterer(&ClustererConfig{MinClusterSize: 3, MinSamples: 1, MinArticles: 10})

	var embeddings []model.ArticleEmbedding
	embeddings = append(embeddings, blob("left", []float32{0, 0, 0}, 6, 0.01)...)
	embeddings = append(embeddings, blob("right", []float32{50, 50, 50}, 5, 0.01)...)

	clusters, noise, err := c.Cluster(embeddings)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(clusters))
	}
	if noise != 0 {
		t.Errorf("noise = %d, want 0", noise)
	}

	// 簇顺序跟随成员在输入中的首次出现
	if len(clusters[0].Members) != 6 || len(clusters[1].Members) != 5 {
		t.Fatalf("cluster sizes = %d/%d, want 6/5",
			len(clusters[0].Members), len(clusters[1].Members))
	}
	for _, id := range clusters[0].Members {
		if id[:4] != "left" {
			t.Errorf("left cluster contains %s", id)
		}
	}
	for _, id := range clusters[1].Members {
		if id[:5] != "right" {
			t.Errorf("right cluster contains %s", id)
		}
	}
}

func TestClustererMembershipDisjoint(t *testing.T) {
	c := NewClusterer(&ClustererConfig{MinClusterSize: 3, MinSamples: 2, MinArticles: 10})

	var embeddings []model.ArticleEmbedding
	embeddings = append(embeddings, blob("a", []float32{0, 0}, 5, 0.02)...)
	embeddings = append(embeddings, blob("b", []float32{30, 0}, 5, 0.02)...)
	embeddings = append(embeddings, blob("c", []float32{0, 30}, 5, 0.02)...)

	clusters, noise, err := c.Cluster(embeddings)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}

	seen := make(map[string]int)
	total := 0
	for _, cl := range clusters {
		for _, id := range cl.Members {
			seen[id]++
			total++
		}
	}
	for id, count := range seen {
		if count > 1 {
			t.Errorf("article %s assigned to %d clusters", id, count)
		}
	}
	if total+noise != len(embeddings) {
		t.Errorf("clustered %d + noise %d != input %d", total, noise, len(embeddings))
	}
}

func TestClustererAllNoise(t *testing.T) {
	c := NewClusterer(&ClustererConfig{MinClusterSize: 3, MinSamples: 1, MinArticles: 10})

	// 两两等距的孤立点，没有任何密度结构
	dim := 12
	embeddings := make([]model.ArticleEmbedding, dim)
	for i := 0; i < dim; i++ {
		vec := make([]float32, dim)
		vec[i] = 100
		embeddings[i] = model.ArticleEmbedding{
			ID:        fmt.Sprintf("iso-%02d", i),
			Embedding: vec,
		}
	}

	clusters, noise, err := c.Cluster(embeddings)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(clusters) != 0 {
		t.Errorf("clusters = %d, want 0", len(clusters))
	}
	if noise != dim {
		t.Errorf("noise = %d, want %d", noise, dim)
	}
}

func TestClustererEquidistantTieBreakByID(t *testing.T) {
	c := NewClusterer(&ClustererConfig{MinClusterSize: 3, MinSamples: 1, MinArticles: 8})

	// 四个完全相同的向量，id 乱序：到质心距离全部相等
	dup := []model.ArticleEmbedding{
		{ID: "d", Embedding: []float32{1, 1, 1}},
		{ID: "b", Embedding: []float32{1, 1, 1}},
		{ID: "c", Embedding: []float32{1, 1, 1}},
		{ID: "a", Embedding: []float32{1, 1, 1}},
	}
	embeddings := append(dup, blob("far", []float32{80, 80, 80}, 4, 0.01)...)

	clusters, _, err := c.Cluster(embeddings)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(clusters))
	}

	want := []string{"a", "b", "c", "d"}
	got := clusters[0].Members
	if len(got) != len(want) {
		t.Fatalf("members = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("members = %v, want %v (id tie-break)", got, want)
		}
	}
}

func TestClustererMemberOrderByCentroidDistance(t *testing.T) {
	c := NewClusterer(&ClustererConfig{MinClusterSize: 3, MinSamples: 1, MinArticles: 10})

	var embeddings []model.ArticleEmbedding
	embeddings = append(embeddings, blob("near", []float32{0, 0, 0}, 7, 0.5)...)
	embeddings = append(embeddings, blob("far", []float32{200, 200, 200}, 5, 0.01)...)

	clusters, _, err := c.Cluster(embeddings)
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}

	for _, cl := range clusters {
		dists := make([]float64, len(cl.Members))
		byID := make(map[string]model.ArticleEmbedding)
		for _, e := range embeddings {
			byID[e.ID] = e
		}
		for i, id := range cl.Members {
			dists[i] = euclidean(byID[id].Embedding, cl.Center)
		}
		if !sort.Float64sAreSorted(dists) {
			t.Errorf("cluster members not sorted by centroid distance: %v", dists)
		}
	}
}
