package biz

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kart-io/logger"

	"github.com/kart-io/newsloom/internal/model"
	"github.com/kart-io/newsloom/pkg/infra/pool"
)

// ImageProbe resolves a representative image for a cluster. Candidate
// URLs are probed concurrently with HEAD requests under one global time
// budget covering the whole article list, then the first article (in
// centroid order) with a resolvable image wins. Articles without a
// working image URL fall back to the og:image of their fetched page.
type ImageProbe struct {
	client *http.Client
	pool   *pool.Pool
	budget time.Duration
}

// NewImageProbe 创建图片探测器。budget 是整个文章列表的总预算。
func NewImageProbe(budget time.Duration, probePool *pool.Pool) *ImageProbe {
	return &ImageProbe{
		client: &http.Client{Timeout: budget},
		pool:   probePool,
		budget: budget,
	}
}

// FirstImage 返回簇的代表图片 URL，找不到时返回空串。
// articles 必须已按质心距离排序。
func (p *ImageProbe) FirstImage(ctx context.Context, articles []*model.Article) string {
	ctx, cancel := context.WithTimeout(ctx, p.budget)
	defer cancel()

	resolved := make([]bool, len(articles))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, article := range articles {
		if article.Image == "" {
			continue
		}

		wg.Add(1)
		idx, url := i, article.Image
		probe := func() {
			defer wg.Done()
			if p.headIsImage(ctx, url) {
				mu.Lock()
				resolved[idx] = true
				mu.Unlock()
			}
		}

		if p.pool != nil {
			if err := p.pool.Submit(probe); err == nil {
				continue
			}
		}
		go probe()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		// 预算用尽，已得到的结果照常使用
	}

	mu.Lock()
	defer mu.Unlock()
	for i, ok := range resolved {
		if ok {
			return articles[i].Image
		}
	}

	// 降级：取第一篇能解析出 og:image 的文章
	for _, article := range articles {
		if img := ogImage(article); img != "" {
			return img
		}
	}
	return ""
}

// headIsImage 用 HEAD 请求验证 URL 指向图片资源。
func (p *ImageProbe) headIsImage(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return false
	}
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "image/")
}

// ogImage 从抓取结果中提取 og:image。
// 优先用摄取管道解析好的 metadata，其次解析原始 HTML。
func ogImage(article *model.Article) string {
	cfr := article.ContentFetchingResult
	if cfr == nil {
		return ""
	}

	if img := cfr.Metadata["og:image"]; img != "" {
		return img
	}

	if cfr.HTML == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cfr.HTML))
	if err != nil {
		logger.Debugw("failed to parse article html for og:image",
			"article_id", article.ID,
			"error", err.Error(),
		)
		return ""
	}

	img, _ := doc.Find(`meta[property="og:image"]`).Attr("content")
	return img
}
