// Package analysis provides tuning options for the analysis pipeline.
package analysis

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kart-io/newsloom/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// Options 定义分析流水线的调优参数。
// 每个参数都可以通过同名环境变量覆盖（容器部署场景）。
type Options struct {
	// MinArticlesForClustering 低于该数量时会话以 InsufficientData 失败。
	MinArticlesForClustering int `json:"min-articles-for-clustering" mapstructure:"min-articles-for-clustering"`

	// MinClusterSize HDBSCAN 最小簇规模。
	MinClusterSize int `json:"min-cluster-size" mapstructure:"min-cluster-size"`

	// MinSamples HDBSCAN 核心距离的邻居数。
	MinSamples int `json:"min-samples" mapstructure:"min-samples"`

	// OverviewMaxArticles 概览生成时送入提示词的文章数上限（按与质心距离排序取前 N）。
	OverviewMaxArticles int `json:"overview-max-articles" mapstructure:"overview-max-articles"`

	// OverviewMaxConcurrency 概览生成的并发上限。
	OverviewMaxConcurrency int `json:"overview-max-concurrency" mapstructure:"overview-max-concurrency"`

	// OverviewIncludeContents 是否在提示词中包含文章正文。
	OverviewIncludeContents bool `json:"overview-include-contents" mapstructure:"overview-include-contents"`

	// ArticleEvalBatchSize 文章逐条评估的批大小。
	ArticleEvalBatchSize int `json:"article-eval-batch-size" mapstructure:"article-eval-batch-size"`

	// SessionSummaryDetailThreshold 保留簇数低于该值时，会话摘要包含完整簇摘要。
	SessionSummaryDetailThreshold int `json:"session-summary-detail-threshold" mapstructure:"session-summary-detail-threshold"`

	// SessionSummaryMaxClusters 参与会话摘要的保留簇数量上限。
	SessionSummaryMaxClusters int `json:"session-summary-max-clusters" mapstructure:"session-summary-max-clusters"`

	// PollingInterval 任务轮询间隔。
	PollingInterval time.Duration `json:"polling-interval" mapstructure:"polling-interval"`

	// MaxRuntime 单次会话最大运行时长。
	MaxRuntime time.Duration `json:"max-runtime" mapstructure:"max-runtime"`

	// ImageProbeBudget 每个簇的首图探测总预算。
	ImageProbeBudget time.Duration `json:"image-probe-budget" mapstructure:"image-probe-budget"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		MinArticlesForClustering:      10,
		MinClusterSize:                3,
		MinSamples:                    1,
		OverviewMaxArticles:           30,
		OverviewMaxConcurrency:        5,
		OverviewIncludeContents:       true,
		ArticleEvalBatchSize:          10,
		SessionSummaryDetailThreshold: 30,
		SessionSummaryMaxClusters:     400,
		PollingInterval:               10 * time.Second,
		MaxRuntime:                    1800 * time.Second,
		ImageProbeBudget:              5 * time.Second,
	}
}

// AddFlags adds flags for analysis options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)
	fs.IntVar(&o.MinArticlesForClustering, join+"analysis.min-articles-for-clustering", o.MinArticlesForClustering, "Minimum article count required to run clustering.")
	fs.IntVar(&o.MinClusterSize, join+"analysis.min-cluster-size", o.MinClusterSize, "HDBSCAN minimum cluster size.")
	fs.IntVar(&o.MinSamples, join+"analysis.min-samples", o.MinSamples, "HDBSCAN min samples for core distance.")
	fs.IntVar(&o.OverviewMaxArticles, join+"analysis.overview-max-articles", o.OverviewMaxArticles, "Maximum articles included in an overview prompt.")
	fs.IntVar(&o.OverviewMaxConcurrency, join+"analysis.overview-max-concurrency", o.OverviewMaxConcurrency, "Maximum concurrent overview generations.")
	fs.BoolVar(&o.OverviewIncludeContents, join+"analysis.overview-include-contents", o.OverviewIncludeContents, "Include article contents in overview prompts.")
	fs.IntVar(&o.ArticleEvalBatchSize, join+"analysis.article-eval-batch-size", o.ArticleEvalBatchSize, "Batch size for per-article evaluation.")
	fs.IntVar(&o.SessionSummaryDetailThreshold, join+"analysis.session-summary-detail-threshold", o.SessionSummaryDetailThreshold, "Retained cluster count up to which full summaries go into the session summary.")
	fs.IntVar(&o.SessionSummaryMaxClusters, join+"analysis.session-summary-max-clusters", o.SessionSummaryMaxClusters, "Maximum retained clusters fed into session summarization.")
	fs.DurationVar(&o.PollingInterval, join+"analysis.polling-interval", o.PollingInterval, "Task polling interval.")
	fs.DurationVar(&o.MaxRuntime, join+"analysis.max-runtime", o.MaxRuntime, "Maximum session runtime before the run is failed as timed out.")
	fs.DurationVar(&o.ImageProbeBudget, join+"analysis.image-probe-budget", o.ImageProbeBudget, "Total time budget for probing a cluster's first image.")
}

// Complete applies environment variable overrides. The variable names
// follow the deployment contract used by the ingestion stack.
func (o *Options) Complete() error {
	intEnv("MIN_ARTICLES_FOR_CLUSTERING", &o.MinArticlesForClustering)
	intEnv("DEFAULT_MIN_CLUSTER_SIZE", &o.MinClusterSize)
	intEnv("DEFAULT_MIN_SAMPLES", &o.MinSamples)
	intEnv("OVERVIEW_GENERATION_MAX_ARTICLES", &o.OverviewMaxArticles)
	intEnv("OVERVIEW_GENERATION_MAX_CONCURRENCY", &o.OverviewMaxConcurrency)
	boolEnv("OVERVIEW_GENERATION_INCLUDE_CONTENTS", &o.OverviewIncludeContents)
	intEnv("ARTICLE_EVAL_BATCH_SIZE", &o.ArticleEvalBatchSize)
	intEnv("INCLUDE_CLUSTER_SUMMARIES_FOR_SESSION_SUMMARY_THRESHOLD", &o.SessionSummaryDetailThreshold)
	intEnv("SESSION_SUMMARY_MAX_CLUSTERS", &o.SessionSummaryMaxClusters)
	secondsEnv("POLLING_INTERVAL_S", &o.PollingInterval)
	secondsEnv("MAX_RUNTIME_S", &o.MaxRuntime)
	return nil
}

// Validate validates the analysis options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.MinClusterSize < 2 {
		errs = append(errs, fmt.Errorf("analysis.min-cluster-size must be >= 2"))
	}
	if o.MinSamples < 1 {
		errs = append(errs, fmt.Errorf("analysis.min-samples must be >= 1"))
	}
	if o.OverviewMaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("analysis.overview-max-concurrency must be >= 1"))
	}
	if o.ArticleEvalBatchSize < 1 {
		errs = append(errs, fmt.Errorf("analysis.article-eval-batch-size must be >= 1"))
	}
	if o.SessionSummaryMaxClusters < 1 {
		errs = append(errs, fmt.Errorf("analysis.session-summary-max-clusters must be >= 1"))
	}
	if o.PollingInterval <= 0 {
		errs = append(errs, fmt.Errorf("analysis.polling-interval must be positive"))
	}
	if o.MaxRuntime <= 0 {
		errs = append(errs, fmt.Errorf("analysis.max-runtime must be positive"))
	}
	return errs
}

func intEnv(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func boolEnv(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func secondsEnv(name string, dst *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(n) * time.Second
		}
	}
}
