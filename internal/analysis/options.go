// Package app provides the Analysis Core service application.
package app

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	analysisopts "github.com/kart-io/newsloom/pkg/options/analysis"
	appopts "github.com/kart-io/newsloom/pkg/options/app"
	httpopts "github.com/kart-io/newsloom/pkg/options/http"
	llmopts "github.com/kart-io/newsloom/pkg/options/llm"
	logopts "github.com/kart-io/newsloom/pkg/options/logger"
	milvusopts "github.com/kart-io/newsloom/pkg/options/milvus"
	mongoopts "github.com/kart-io/newsloom/pkg/options/mongodb"
	promptopts "github.com/kart-io/newsloom/pkg/options/prompt"
	redisopts "github.com/kart-io/newsloom/pkg/options/redis"
)

var _ appopts.CliOptions = (*Options)(nil)

// Options contains all Analysis Core service options.
type Options struct {
	// HTTP contains the admin HTTP server configuration.
	HTTP *httpopts.Options `json:"http" mapstructure:"http"`

	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// MongoDB contains document store configuration.
	MongoDB *mongoopts.Options `json:"mongodb" mapstructure:"mongodb"`

	// Milvus contains vector store configuration.
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// Redis contains cache configuration. Only used when prompt
	// template caching is enabled.
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`

	// LLM contains LLM provider configuration.
	LLM *llmopts.ProviderOptions `json:"llm" mapstructure:"llm"`

	// Prompt contains prompt registry configuration.
	Prompt *promptopts.Options `json:"prompt" mapstructure:"prompt"`

	// Analysis contains pipeline tuning parameters.
	Analysis *analysisopts.Options `json:"analysis" mapstructure:"analysis"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	httpOpts := httpopts.NewOptions()
	httpOpts.Addr = ":8083"

	return &Options{
		HTTP:     httpOpts,
		Log:      logopts.NewOptions(),
		MongoDB:  mongoopts.NewOptions(),
		Milvus:   milvusopts.NewOptions(),
		Redis:    redisopts.NewOptions(),
		LLM:      llmopts.NewProviderOptions(),
		Prompt:   promptopts.NewOptions(),
		Analysis: analysisopts.NewOptions(),
	}
}

// Flags returns all option flags grouped into named sections.
func (o *Options) Flags() (fss appopts.NamedFlagSets) {
	o.HTTP.AddFlags(fss.FlagSet("http"))
	o.Log.AddFlags(fss.FlagSet("logs"))
	o.MongoDB.AddFlags(fss.FlagSet("mongodb"))
	o.Milvus.AddFlags(fss.FlagSet("milvus"))
	o.Redis.AddFlags(fss.FlagSet("redis"))
	o.LLM.AddFlags(fss.FlagSet("llm"))
	o.Prompt.AddFlags(fss.FlagSet("prompt"))
	o.Analysis.AddFlags(fss.FlagSet("analysis"))
	return fss
}

// Complete fills in values derived from the environment.
func (o *Options) Complete() error {
	if err := o.Log.Complete(); err != nil {
		return err
	}
	if err := o.MongoDB.Complete(); err != nil {
		return err
	}
	if err := o.Milvus.Complete(); err != nil {
		return err
	}
	if err := o.LLM.Complete(); err != nil {
		return err
	}
	if err := o.Prompt.Complete(); err != nil {
		return err
	}
	return o.Analysis.Complete()
}

// Validate validates all options and aggregates the failures.
func (o *Options) Validate() error {
	var errs []error

	if err := o.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := o.Redis.Validate(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, o.HTTP.Validate()...)
	errs = append(errs, o.MongoDB.Validate()...)
	errs = append(errs, o.Milvus.Validate()...)
	errs = append(errs, o.LLM.Validate()...)
	errs = append(errs, o.Prompt.Validate()...)
	errs = append(errs, o.Analysis.Validate()...)

	return utilerrors.NewAggregate(errs)
}
