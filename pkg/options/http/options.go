// Package http provides options for the admin HTTP server.
package http

import (
	"fmt"
	"time"

	"github.com/kart-io/newsloom/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// Options contains HTTP server configuration.
type Options struct {
	// Addr is the listen address (host:port).
	Addr string `json:"addr" mapstructure:"addr"`

	// Mode is the gin mode: debug, release or test.
	Mode string `json:"mode" mapstructure:"mode"`

	// ReadTimeout bounds reading the full request including the body.
	ReadTimeout time.Duration `json:"read-timeout" mapstructure:"read-timeout"`

	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`

	// ShutdownTimeout bounds graceful shutdown on exit.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Addr:            ":8080",
		Mode:            "release",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// AddFlags adds flags for HTTP server options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)
	fs.StringVar(&o.Addr, join+"http.addr", o.Addr, "HTTP server listen address.")
	fs.StringVar(&o.Mode, join+"http.mode", o.Mode, "Gin mode: debug, release or test.")
	fs.DurationVar(&o.ReadTimeout, join+"http.read-timeout", o.ReadTimeout, "HTTP read timeout.")
	fs.DurationVar(&o.WriteTimeout, join+"http.write-timeout", o.WriteTimeout, "HTTP write timeout.")
	fs.DurationVar(&o.ShutdownTimeout, join+"http.shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout.")
}

// Validate validates the HTTP server options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Addr == "" {
		errs = append(errs, fmt.Errorf("http.addr is required"))
	}
	switch o.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("http.mode must be debug, release or test"))
	}
	return errs
}
