// Package pipeline runs one photo through forensics, detection, the remote
// analyzer, the evidence gate and report assembly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/photo-verifier/internal/logging"
	"github.com/menta2k/photo-verifier/pkg/detection"
	"github.com/menta2k/photo-verifier/pkg/forensics"
	"github.com/menta2k/photo-verifier/pkg/normalize"
	"github.com/menta2k/photo-verifier/pkg/processing"
	"github.com/menta2k/photo-verifier/pkg/remote"
	"github.com/menta2k/photo-verifier/pkg/report"
	"github.com/menta2k/photo-verifier/pkg/types"
)

// Stage names used in logs and OperationErrors
const (
	OpDecode    = "decode"
	OpForensics = "forensics"
	OpDetect    = "detect"
	OpAnalyze   = "analyze"
)

// Forensics computes local credibility signals
type Forensics interface {
	Analyze(data []byte, img image.Image) types.ForensicsResult
}

// Detector finds persons and objects
type Detector interface {
	Detect(ctx context.Context, img image.Image) (types.DetectionResult, error)
	EngineName() string
}

// Analyzer calls the remote multimodal model
type Analyzer interface {
	Analyze(ctx context.Context, data []byte, mime string, aux *remote.AuxContext, p types.Perspective) types.AnalyzerOutcome
}

// Pipeline holds the stage implementations shared by every request.
// It keeps no per-request state.
type Pipeline struct {
	processor *processing.Processor
	forensics Forensics
	detector  Detector
	analyzer  Analyzer
	logger    *zap.Logger
	newID     func() string
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithIDFunc overrides image id generation
func WithIDFunc(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a pipeline. A nil forensics stage falls back to the default
// analyzer; a nil detector or analyzer yields failure stand-ins.
func New(fx Forensics, det Detector, an Analyzer, opts ...Option) *Pipeline {
	p := &Pipeline{
		processor: processing.NewProcessor(),
		forensics: fx,
		detector:  det,
		analyzer:  an,
		logger:    zap.NewNop(),
		newID:     NewImageID,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.forensics == nil {
		p.forensics = forensics.New(p.logger)
	}
	return p
}

// NewImageID returns a short random id for a report
func NewImageID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Run analyzes one validated photo. The returned error is non-nil only when
// ctx was cancelled; every stage failure is reported inside the Report.
func (p *Pipeline) Run(ctx context.Context, data []byte, mime string, perspective types.Perspective) (types.Report, error) {
	imageID := p.newID()
	logger := logging.WithOperation(p.logger, "pipeline", imageID)
	start := time.Now()

	img, err := p.processor.DecodeBytes(data)
	if err != nil {
		logger.Warn("decode failed, continuing with metadata only",
			zap.Error(logging.NewOperationError(OpDecode, imageID, err)))
		img = nil
	}

	fx, det := p.runLocal(ctx, imageID, data, img)
	if err := ctx.Err(); err != nil {
		return types.Report{}, logging.NewOperationError(OpAnalyze, imageID, err)
	}

	outcome := p.analyze(ctx, imageID, data, mime, remote.NewAuxContext(det, fx), perspective)
	r := report.Assemble(imageID, det, fx, outcome)

	logger.Info("analysis complete",
		zap.Bool("model_success", outcome.Success),
		zap.Bool("partial", outcome.Partial),
		zap.String("engine", det.Engine),
		zap.Bool("person_detected", r.Analysis.Person.Detected),
		zap.Duration("elapsed", time.Since(start)),
	)
	return r, nil
}

// runLocal runs forensics and detection concurrently. Both always produce
// a result; a panic or error in one is replaced by its failure stand-in.
func (p *Pipeline) runLocal(ctx context.Context, imageID string, data []byte, img image.Image) (types.ForensicsResult, types.DetectionResult) {
	var (
		fx  types.ForensicsResult
		det types.DetectionResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				err := logging.PanicError(OpForensics, imageID, r)
				p.logger.Error("forensics panicked", zap.Error(err))
				fx = forensics.Failed(err)
			}
		}()
		fx = p.forensics.Analyze(data, img)
		return nil
	})
	g.Go(func() error {
		engine := p.engineName()
		defer func() {
			if r := recover(); r != nil {
				err := logging.PanicError(OpDetect, imageID, r)
				p.logger.Error("detector panicked", zap.Error(err))
				det = detection.Failed(engine, err)
			}
		}()
		det = p.detect(gctx, imageID, engine, img)
		return nil
	})
	// stages never return an error; a failure must not cancel its sibling
	_ = g.Wait()
	return fx, det
}

func (p *Pipeline) detect(ctx context.Context, imageID, engine string, img image.Image) types.DetectionResult {
	if p.detector == nil {
		return detection.Failed(engine, detection.ErrNoEngine)
	}
	if img == nil {
		return detection.Failed(engine, fmt.Errorf("image could not be decoded"))
	}
	det, err := p.detector.Detect(ctx, img)
	if err != nil {
		err = logging.NewOperationError(OpDetect, imageID, err)
		p.logger.Warn("detection failed", zap.Error(err))
		return detection.Failed(engine, err)
	}
	return det
}

func (p *Pipeline) analyze(ctx context.Context, imageID string, data []byte, mime string, aux remote.AuxContext, perspective types.Perspective) types.AnalyzerOutcome {
	if p.analyzer == nil {
		return types.AnalyzerOutcome{Model: "unknown", Payload: normalize.Normalize(nil), Error: "no analyzer backend configured"}
	}
	outcome := p.analyzer.Analyze(ctx, data, mime, &aux, perspective)
	if !outcome.Success {
		p.logger.Warn("analyzer unavailable, degrading report",
			zap.Error(logging.NewOperationError(OpAnalyze, imageID, errors.New(outcome.Error))))
	}
	return outcome
}

func (p *Pipeline) engineName() string {
	if p.detector == nil {
		return "none"
	}
	return p.detector.EngineName()
}
