package adaptapi

import (
	"errors"
)

// Builder helps build a Pipeline: it collects adapters into a Registry and
// version declarations into a Config.
type Builder struct {
	registry *Registry
	config   *ConfigBuilder
	logger   Logger
	metrics  *Metrics
	errs     []error
}

// NewBuilder creates a new pipeline builder
func NewBuilder() *Builder {
	return &Builder{
		registry: NewRegistry(),
		config:   NewConfigBuilder(),
	}
}

// Register adds a named adapter
func (b *Builder) Register(name string, adapter Adapter) *Builder {
	if err := b.registry.Register(name, adapter); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// RegisterFuncs adds a named adapter from an upgrade/downgrade pair
func (b *Builder) RegisterFuncs(name string, upgrade, downgrade TransformFunc) *Builder {
	return b.Register(name, AdapterFuncs{UpgradeFunc: upgrade, DowngradeFunc: downgrade})
}

// AddVersion declares that version of template is upgraded by adapters, in order
func (b *Builder) AddVersion(template, version string, adapters ...string) *Builder {
	b.config.AddVersion(template, version, adapters...)
	return b
}

// Placeholder sets the template segment replaced by version ids
func (b *Builder) Placeholder(placeholder string) *Builder {
	b.config.WithPlaceholder(placeholder)
	return b
}

// VersionHeader sets the header carrying the caller version; "-" disables it
func (b *Builder) VersionHeader(header string) *Builder {
	b.config.WithVersionHeader(header)
	return b
}

// MaxBodyBytes sets the buffering limit
func (b *Builder) MaxBodyBytes(limit int64) *Builder {
	b.config.WithMaxBodyBytes(limit)
	return b
}

// Debug enables debug logging
func (b *Builder) Debug(debug bool) *Builder {
	b.config.WithDebug(debug)
	return b
}

// AllowEmptyBody lets empty bodies through unadapted
func (b *Builder) AllowEmptyBody(allow bool) *Builder {
	b.config.WithAllowEmptyBody(allow)
	return b
}

// WithLogger sets the pipeline logger
func (b *Builder) WithLogger(logger Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetrics sets the pipeline metrics
func (b *Builder) WithMetrics(m *Metrics) *Builder {
	b.metrics = m
	return b
}

// Config returns the configuration assembled so far
func (b *Builder) Config() *Config {
	return b.config.Build()
}

// Registry returns the adapters registered so far
func (b *Builder) Registry() *Registry {
	return b.registry
}

// Build resolves the configuration and creates the Pipeline
func (b *Builder) Build() (*Pipeline, error) {
	if len(b.errs) > 0 {
		return nil, &ConfigError{Err: errors.Join(b.errs...)}
	}

	p, err := New(b.config.Build(), b.registry)
	if err != nil {
		return nil, err
	}
	if b.logger != nil {
		p.SetLogger(b.logger)
	}
	p.SetMetrics(b.metrics)
	return p, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Pipeline {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}
