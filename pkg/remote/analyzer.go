// Package remote calls the multimodal model and turns its reply into a
// normalized payload or a structured failure.
package remote

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/menta2k/photo-verifier/pkg/client"
	"github.com/menta2k/photo-verifier/pkg/normalize"
	"github.com/menta2k/photo-verifier/pkg/processing"
	"github.com/menta2k/photo-verifier/pkg/types"
)

const (
	DefaultTimeout = 120 * time.Second

	rawLimitFailure = 1000
	rawLimitPartial = 500
	imageQuality    = 90
)

// Analyzer runs one remote analysis per call. It holds no per-request state.
type Analyzer struct {
	client    client.ChatClient
	model     string
	timeout   time.Duration
	maxDim    int
	processor *processing.Processor
	logger    *zap.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithTimeout overrides the per-call timeout
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMaxDimension downscales images above n pixels before upload; 0 disables
func WithMaxDimension(n int) Option {
	return func(a *Analyzer) { a.maxDim = n }
}

// WithLogger sets the analyzer logger
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAnalyzer creates an analyzer over a chat backend
func NewAnalyzer(c client.ChatClient, model string, opts ...Option) *Analyzer {
	a := &Analyzer{
		client:    c,
		model:     model,
		timeout:   DefaultTimeout,
		processor: processing.NewProcessor(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Model returns the configured model name
func (a *Analyzer) Model() string { return a.model }

// Provider returns the backend name
func (a *Analyzer) Provider() string {
	if a.client == nil {
		return "none"
	}
	return a.client.Name()
}

// Analyze sends the image and auxiliary context to the model. It never
// returns an error; failures are reported through the outcome.
func (a *Analyzer) Analyze(ctx context.Context, data []byte, mime string, aux *AuxContext, p types.Perspective) types.AnalyzerOutcome {
	out := types.AnalyzerOutcome{Model: a.model, MissingFields: []string{}, Payload: normalize.Normalize(nil)}
	if a.client == nil {
		out.Error = "no analyzer backend configured"
		return out
	}

	imgData, imgMIME, err := a.processor.PrepareImageForModel(data, mime, a.maxDim, imageQuality)
	if err != nil {
		a.logger.Warn("image preparation failed, sending original", zap.Error(err))
		imgData, imgMIME = data, mime
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	text, err := a.client.Complete(ctx, client.ChatRequest{
		Model:        a.model,
		SystemPrompt: SystemPrompt(p),
		UserText:     UserPrompt(aux),
		Image:        imgData,
		MIME:         imgMIME,
		Temperature:  0,
	})
	if err != nil {
		a.logger.Warn("analyzer call failed",
			zap.String("provider", a.client.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		out.Error = err.Error()
		out.RawResponse = rawFromError(err)
		return out
	}

	res := Parse(text)
	switch res.Status {
	case ParseFull:
		out.Success = true
		out.RawResponse = res.Candidate
	case ParsePartial:
		out.Success = true
		out.Partial = true
		out.RawResponse = client.Truncate(res.Candidate, rawLimitPartial)
	default:
		out.Error = "JSON parse error: " + res.Err.Error()
		out.RawResponse = client.Truncate(res.Candidate, rawLimitFailure)
		a.logger.Warn("analyzer reply unparseable", zap.Error(res.Err))
		return out
	}

	out.MissingFields = MissingFields(res.Data)
	out.Payload = normalize.Normalize(res.Data)

	a.logger.Info("analyzer reply parsed",
		zap.String("status", res.Status.String()),
		zap.Strings("missing_fields", out.MissingFields),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out
}

func rawFromError(err error) string {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Body
	}
	var emptyErr *client.EmptyResponseError
	if errors.As(err, &emptyErr) {
		return emptyErr.Body
	}
	return ""
}
