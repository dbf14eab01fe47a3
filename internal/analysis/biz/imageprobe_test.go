package biz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kart-io/newsloom/internal/model"
)

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/img.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestImageProbeFirstResolvableWins(t *testing.T) {
	srv := imageServer(t)
	p := NewImageProbe(2*time.Second, nil)

	articles := []*model.Article{
		{ID: "a", Image: srv.URL + "/missing.png"},
		{ID: "b", Image: srv.URL + "/img.png"},
		{ID: "c", Image: srv.URL + "/img.png"},
	}
	got := p.FirstImage(context.Background(), articles)
	if got != articles[1].Image {
		t.Errorf("FirstImage = %q, want %q", got, articles[1].Image)
	}
}

func TestImageProbeRejectsNonImageContent(t *testing.T) {
	srv := imageServer(t)
	p := NewImageProbe(2*time.Second, nil)

	articles := []*model.Article{
		{ID: "a", Image: srv.URL + "/page.html"},
	}
	if got := p.FirstImage(context.Background(), articles); got != "" {
		t.Errorf("FirstImage = %q, want empty for non-image content type", got)
	}
}

func TestImageProbeOGImageFallback(t *testing.T) {
	p := NewImageProbe(500*time.Millisecond, nil)

	articles := []*model.Article{
		{ID: "a"},
		{
			ID: "b",
			ContentFetchingResult: &model.ContentFetchingResult{
				Status:   "fetched",
				Metadata: map[string]string{"og:image": "https://cdn.example.com/meta.png"},
			},
		},
	}
	if got := p.FirstImage(context.Background(), articles); got != "https://cdn.example.com/meta.png" {
		t.Errorf("FirstImage = %q, want og:image from metadata", got)
	}
}

func TestImageProbeOGImageFromHTML(t *testing.T) {
	p := NewImageProbe(500*time.Millisecond, nil)

	articles := []*model.Article{
		{
			ID: "a",
			ContentFetchingResult: &model.ContentFetchingResult{
				Status: "fetched",
				HTML:   `<html><head><meta property="og:image" content="https://cdn.example.com/from-html.png"></head></html>`,
			},
		},
	}
	if got := p.FirstImage(context.Background(), articles); got != "https://cdn.example.com/from-html.png" {
		t.Errorf("FirstImage = %q, want og:image parsed from html", got)
	}
}

func TestImageProbeEmptyArticles(t *testing.T) {
	p := NewImageProbe(500*time.Millisecond, nil)
	if got := p.FirstImage(context.Background(), nil); got != "" {
		t.Errorf("FirstImage = %q, want empty", got)
	}
}
