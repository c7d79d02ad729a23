package adaptapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bhatti/adaptapi-go/internal/jsoncodec"
)

// TracerName is the instrumentation name used for pipeline spans.
const TracerName = "github.com/bhatti/adaptapi-go/adaptapi"

// ErrorHandler renders a request-scoped adaptation failure.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, status int, err error)

// Pipeline intercepts requests to versioned paths, upgrades their bodies for
// the latest handler and downgrades the responses for the caller.
type Pipeline struct {
	table         *VersionTable
	config        *Config
	versionHeader string
	maxBodyBytes  int64
	logger        Logger
	metrics       *Metrics
	tracer        trace.Tracer
	errorHandler  ErrorHandler
}

// New resolves config against registry and returns a ready pipeline. Any
// error is a *ConfigError.
func New(config *Config, registry *Registry) (*Pipeline, error) {
	table, err := Resolve(config, registry)
	if err != nil {
		return nil, err
	}
	return NewPipeline(table, config), nil
}

// NewPipeline creates a pipeline over an already resolved table. Only the
// settings part of config is used; nil means defaults.
func NewPipeline(table *VersionTable, config *Config) *Pipeline {
	if config == nil {
		config = &Config{}
	}
	return &Pipeline{
		table:         table,
		config:        config,
		versionHeader: config.versionHeader(),
		maxBodyBytes:  config.maxBodyBytes(),
		logger:        NoOpLogger{},
		tracer:        otel.Tracer(TracerName),
		errorHandler:  DefaultErrorHandler,
	}
}

// SetLogger sets a custom logger
func (p *Pipeline) SetLogger(logger Logger) {
	if logger == nil {
		logger = NoOpLogger{}
	}
	p.logger = logger
}

// SetMetrics sets the collectors updated per request; nil disables metrics.
func (p *Pipeline) SetMetrics(m *Metrics) {
	p.metrics = m
}

// SetTracer sets the tracer used for versioned requests.
func (p *Pipeline) SetTracer(tracer trace.Tracer) {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	p.tracer = tracer
}

// SetErrorHandler overrides how adaptation failures are rendered.
func (p *Pipeline) SetErrorHandler(h ErrorHandler) {
	if h == nil {
		h = DefaultErrorHandler
	}
	p.errorHandler = h
}

// Table returns the resolved version table.
func (p *Pipeline) Table() *VersionTable {
	return p.table
}

// VersionHeader returns the header carrying the caller's version to the
// latest handler, or "" when disabled.
func (p *Pipeline) VersionHeader() string {
	return p.versionHeader
}

// Middleware returns the pipeline as a standard middleware constructor.
func (p *Pipeline) Middleware() func(http.Handler) http.Handler {
	return p.Handler
}

// Handler wraps next. Requests whose path is not versioned reach next
// untouched.
func (p *Pipeline) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chain, ok := p.table.Route(r.URL.Path)
		if !ok {
			p.metrics.observeRequest("", OutcomePassthrough)
			next.ServeHTTP(w, r)
			return
		}
		p.serveVersioned(w, r, next, chain)
	})
}

func (p *Pipeline) serveVersioned(w http.ResponseWriter, r *http.Request, next http.Handler, chain *Chain) {
	ctx, span := p.tracer.Start(r.Context(), "adaptapi.versioned_request",
		trace.WithAttributes(
			attribute.String("adaptapi.versioned_path", chain.VersionedPath()),
			attribute.String("adaptapi.canonical_path", chain.CanonicalPath()),
			attribute.String("adaptapi.version", chain.Version()),
			attribute.Int("adaptapi.steps", chain.Len()),
		))
	defer span.End()

	raw, err := ReadBody(ctx, r.Body, p.maxBodyBytes)
	if err != nil {
		if ctx.Err() != nil {
			p.abandon(span, chain, "request body", ctx.Err())
			return
		}
		p.fail(w, r, span, chain, OutcomeRequestError, requestStatus(err), err)
		return
	}

	body := []byte{}
	if !p.skipEmpty(raw) {
		start := time.Now()
		body, err = RewriteBody(raw, chain.Upgrade)
		if err != nil {
			p.fail(w, r, span, chain, OutcomeRequestError, requestStatus(err), err)
			return
		}
		p.metrics.observeTransform(chain.Version(), DirectionUpgrade, time.Since(start), len(body))
	}

	if p.config.Debug {
		p.logger.Debug("Upgraded request ", chain.VersionedPath(), " -> ", chain.CanonicalPath(), " (", len(raw), " -> ", len(body), " bytes)")
	}

	rec := newResponseBuffer(p.maxBodyBytes)
	next.ServeHTTP(rec, p.rewriteRequest(ctx, r, chain, body))

	if err := ctx.Err(); err != nil {
		p.abandon(span, chain, "downstream response", err)
		return
	}
	if rec.err != nil {
		p.fail(w, r, span, chain, OutcomeResponseError, http.StatusInternalServerError, rec.err)
		return
	}

	if !bodyAllowed(rec.status) || p.skipEmpty(rec.body.Bytes()) {
		p.complete(w, r, span, chain, rec, rec.body.Bytes())
		return
	}
	if !isJSON(rec.header.Get("Content-Type")) {
		p.logger.Debug("Skipping downgrade of non-JSON response for ", chain.VersionedPath())
		p.complete(w, r, span, chain, rec, rec.body.Bytes())
		return
	}

	start := time.Now()
	out, err := RewriteBody(rec.body.Bytes(), chain.Downgrade)
	if err != nil {
		p.fail(w, r, span, chain, OutcomeResponseError, http.StatusInternalServerError, err)
		return
	}
	p.metrics.observeTransform(chain.Version(), DirectionDowngrade, time.Since(start), len(out))

	p.complete(w, r, span, chain, rec, out)
}

// skipEmpty reports whether raw is an empty body the config lets through
// without adaptation.
func (p *Pipeline) skipEmpty(raw []byte) bool {
	return p.config.AllowEmptyBody && jsoncodec.IsBlank(raw)
}

// rewriteRequest builds the request handed to the latest handler. r itself is
// left untouched.
func (p *Pipeline) rewriteRequest(ctx context.Context, r *http.Request, chain *Chain, body []byte) *http.Request {
	req := r.Clone(ctx)
	req.URL.Path = chain.CanonicalPath()
	req.URL.RawPath = ""
	req.RequestURI = req.URL.RequestURI()

	req.Body = io.NopCloser(bytes.NewReader(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	req.ContentLength = int64(len(body))
	req.TransferEncoding = nil
	req.Header.Set("Content-Length", strconv.Itoa(len(body)))

	if p.versionHeader != "" {
		req.Header.Set(p.versionHeader, chain.Version())
	}
	return req
}

func (p *Pipeline) complete(w http.ResponseWriter, r *http.Request, span trace.Span, chain *Chain, rec *responseBuffer, body []byte) {
	if err := writeBuffered(w, rec, body); err != nil {
		// Headers are already sent; nothing left but to record it.
		p.logger.Warn("Failed to write adapted response for ", chain.VersionedPath(), ": ", err)
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", rec.status))
	p.metrics.observeRequest(chain.Version(), OutcomeAdapted)

	if p.config.Debug {
		p.logger.Debug("Downgraded response ", r.Method, " ", chain.VersionedPath(), " status=", rec.status, " bytes=", len(body))
	}
}

func (p *Pipeline) fail(w http.ResponseWriter, r *http.Request, span trace.Span, chain *Chain, outcome string, status int, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	p.metrics.observeRequest(chain.Version(), outcome)

	if status >= http.StatusInternalServerError {
		p.logger.Error("Adapting response for ", chain.VersionedPath(), " failed: ", err)
	} else {
		p.logger.Warn("Rejected request to ", chain.VersionedPath(), ": ", err)
	}
	p.errorHandler(w, r, status, err)
}

func (p *Pipeline) abandon(span trace.Span, chain *Chain, stage string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, OutcomeCanceled)
	p.metrics.observeRequest(chain.Version(), OutcomeCanceled)
	p.logger.Debug("Abandoned ", chain.VersionedPath(), " while awaiting ", stage, ": ", err)
}

// requestStatus maps a request-side failure to the client-facing status.
func requestStatus(err error) int {
	var decodeErr *BodyDecodeError
	var transformErr *TransformError
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &decodeErr):
		return http.StatusBadRequest
	case errors.As(err, &transformErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
