package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/newsloom/internal/analysis/biz"
	"github.com/kart-io/newsloom/internal/analysis/router"
	"github.com/kart-io/newsloom/internal/analysis/store"
	"github.com/kart-io/newsloom/pkg/component/milvus"
	"github.com/kart-io/newsloom/pkg/component/mongodb"
	"github.com/kart-io/newsloom/pkg/component/redis"
	"github.com/kart-io/newsloom/pkg/component/storage"
	"github.com/kart-io/newsloom/pkg/infra/app"
	"github.com/kart-io/newsloom/pkg/infra/pool"
	"github.com/kart-io/newsloom/pkg/llm"
	"github.com/kart-io/newsloom/pkg/llm/prompt"
	"github.com/kart-io/newsloom/pkg/llm/resilience"

	// Register the OpenAI chat provider.
	_ "github.com/kart-io/newsloom/pkg/llm/openai"
)

// pipeline holds the fully wired analysis stack shared by the server
// and the clusterize subcommand.
type pipeline struct {
	storages     *storage.Manager
	factory      store.Factory
	orchestrator *biz.Orchestrator
	llmPool      *pool.Pool
	probePool    *pool.Pool
}

// close releases worker pools and storage clients in reverse order.
func (p *pipeline) close() {
	if p.probePool != nil {
		_ = p.probePool.ReleaseTimeout(5 * time.Second)
	}
	if p.llmPool != nil {
		_ = p.llmPool.ReleaseTimeout(5 * time.Second)
	}
	if err := p.storages.CloseAll(); err != nil {
		logger.Errorw("failed to close storage clients", "error", err)
	}
}

// buildPipeline connects to the backing stores and wires the analysis
// pipeline from the options.
func buildPipeline(ctx context.Context, opts *Options) (*pipeline, error) {
	storages := storage.NewManager()

	mongoClient, err := mongodb.New(opts.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mongodb: %w", err)
	}
	storages.MustRegister("mongodb", mongoClient)

	milvusClient, err := milvus.New(opts.Milvus)
	if err != nil {
		_ = storages.CloseAll()
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	storages.MustRegister("milvus", milvusClient)

	var redisClient *redis.Client
	if opts.Prompt.CacheEnabled {
		redisClient, err = redis.New(opts.Redis)
		if err != nil {
			_ = storages.CloseAll()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		storages.MustRegister("redis", redisClient)
	}

	factory := store.NewMongoFactory(mongoClient)
	if err := factory.EnsureIndexes(ctx); err != nil {
		_ = storages.CloseAll()
		return nil, fmt.Errorf("failed to ensure mongodb indexes: %w", err)
	}
	vectors := store.NewMilvusRepository(milvusClient, opts.Milvus.Collection)

	gateway, err := buildGateway(opts, redisClient)
	if err != nil {
		_ = storages.CloseAll()
		return nil, err
	}

	llmPool, err := pool.NewPool("llm", pool.LLMPool, pool.LLMPoolConfig(opts.Analysis.OverviewMaxConcurrency))
	if err != nil {
		_ = storages.CloseAll()
		return nil, fmt.Errorf("failed to create llm pool: %w", err)
	}
	probePool, err := pool.NewPool("probe", pool.ProbePool, pool.DefaultPoolConfig())
	if err != nil {
		llmPool.Release()
		_ = storages.CloseAll()
		return nil, fmt.Errorf("failed to create probe pool: %w", err)
	}

	clusterer := biz.NewClusterer(&biz.ClustererConfig{
		MinClusterSize: opts.Analysis.MinClusterSize,
		MinSamples:     opts.Analysis.MinSamples,
		MinArticles:    opts.Analysis.MinArticlesForClustering,
	})
	probe := biz.NewImageProbe(opts.Analysis.ImageProbeBudget, probePool)
	overviews := biz.NewOverviewGenerator(gateway, probe, &biz.OverviewConfig{
		MaxArticles:     opts.Analysis.OverviewMaxArticles,
		IncludeContents: opts.Analysis.OverviewIncludeContents,
	})
	evaluator := biz.NewClusterEvaluator(gateway)
	filter := biz.NewArticleFilter(gateway, llmPool, &biz.ArticleFilterConfig{
		BatchSize:      opts.Analysis.ArticleEvalBatchSize,
		MinClusterSize: opts.Analysis.MinClusterSize,
	})
	summarizer := biz.NewSessionSummarizer(gateway, &biz.SummarizerConfig{
		DetailThreshold: opts.Analysis.SessionSummaryDetailThreshold,
		MaxClusters:     opts.Analysis.SessionSummaryMaxClusters,
	})
	orchestrator := biz.NewOrchestrator(
		factory, vectors, clusterer, overviews, evaluator, filter, summarizer,
		llmPool,
		&biz.OrchestratorConfig{
			MinArticles: opts.Analysis.MinArticlesForClustering,
			MaxRuntime:  opts.Analysis.MaxRuntime,
		},
	)

	return &pipeline{
		storages:     storages,
		factory:      factory,
		orchestrator: orchestrator,
		llmPool:      llmPool,
		probePool:    probePool,
	}, nil
}

// buildGateway assembles the LLM gateway: provider with retry and
// circuit breaking, plus the prompt registry chain.
func buildGateway(opts *Options, redisClient *redis.Client) (*llm.Gateway, error) {
	provider, err := llm.NewChatProvider(opts.LLM.Provider, opts.LLM.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to create llm provider: %w", err)
	}
	resilient := resilience.NewResilientChatProvider(provider, nil, nil)

	var registry prompt.Registry = prompt.NewStaticRegistry()
	if opts.Prompt.Endpoint != "" {
		registry = prompt.NewHTTPRegistry(opts.Prompt.Endpoint, opts.Prompt.Timeout, opts.Prompt.MaxRetries, registry)
	}
	if opts.Prompt.CacheEnabled && redisClient != nil {
		registry = prompt.NewCachedRegistry(registry, redisClient.Client(), opts.Prompt.CacheTTL)
	}

	return llm.NewGateway(resilient, registry, resilience.NewBackoff(nil)), nil
}

// Run runs the Analysis Core service with the given options.
func Run(opts *Options) error {
	printBanner(opts)

	opts.Log.AddInitialField("service.name", appName)
	opts.Log.AddInitialField("service.version", app.GetVersion())
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting analysis service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, opts)
	if err != nil {
		return err
	}
	defer p.close()
	logger.Info("Analysis pipeline initialized")

	watcher := biz.NewWatcher(p.factory.Tasks(), p.orchestrator, opts.Analysis.PollingInterval)
	go watcher.Run(ctx)
	logger.Infow("task watcher started", "interval", opts.Analysis.PollingInterval)

	gin.SetMode(opts.HTTP.Mode)
	engine := gin.New()
	router.Register(engine, p.factory, p.storages)

	srv := &http.Server{
		Addr:         opts.HTTP.Addr,
		Handler:      engine,
		ReadTimeout:  opts.HTTP.ReadTimeout,
		WriteTimeout: opts.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("http server listening", "addr", opts.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logger.Info("Analysis service stopped")
	return nil
}
