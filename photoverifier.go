// Package photoverifier checks whether a dating-profile photo holds up.
//
// A Verifier runs local forensics and person/object detection concurrently,
// asks a remote multimodal model for a structured reading of the photo and
// then gates every claim on cited evidence before it reaches the report.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"encoding/json"
//		"log"
//		"os"
//
//		photoverifier "github.com/menta2k/photo-verifier"
//		"github.com/menta2k/photo-verifier/internal/config"
//	)
//
//	func main() {
//		v, err := photoverifier.New(config.Default())
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer v.Close()
//
//		report, err := v.AnalyzeFile(context.Background(), "photo.jpg", "boyfriend")
//		if err != nil {
//			log.Fatal(err)
//		}
//		json.NewEncoder(os.Stdout).Encode(report)
//	}
//
// The package consists of these main components:
//
//  1. Intake (pkg/intake): size bound, content-type allow-list and decode check
//  2. Forensics (pkg/forensics): blur, noise, EXIF, lens angle and editing hints
//  3. Detection (pkg/detection): YOLO or HOG person and object detection
//  4. Remote (pkg/remote): model prompt, call and tolerant JSON parsing
//  5. Gate and report (pkg/gate, pkg/report): evidence rules and assembly
//
// Claims without evidence never reach the report; they are replaced by an
// explicit insufficient-evidence finding.
package photoverifier

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/menta2k/photo-verifier/internal/config"
	"github.com/menta2k/photo-verifier/internal/logging"
	"github.com/menta2k/photo-verifier/internal/utils"
	"github.com/menta2k/photo-verifier/pkg/client"
	"github.com/menta2k/photo-verifier/pkg/detection"
	"github.com/menta2k/photo-verifier/pkg/forensics"
	"github.com/menta2k/photo-verifier/pkg/intake"
	"github.com/menta2k/photo-verifier/pkg/ollama"
	"github.com/menta2k/photo-verifier/pkg/openrouter"
	"github.com/menta2k/photo-verifier/pkg/pipeline"
	"github.com/menta2k/photo-verifier/pkg/processing"
	"github.com/menta2k/photo-verifier/pkg/remote"
	"github.com/menta2k/photo-verifier/pkg/types"
)

// Version of the photo verifier
const Version = "1.0.0"

// Verifier is the high-level entry point. It is safe for concurrent use.
type Verifier struct {
	intake   *intake.Validator
	detector *detection.Detector
	analyzer *remote.Analyzer
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
}

// Health describes the resolved backends
type Health struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Engine   string `json:"engine"`
}

type options struct {
	logger    *zap.Logger
	engine    detection.Engine
	engineSet bool
	chat      client.ChatClient
	chatSet   bool
	idFunc    func() string
}

// Option customizes New
type Option func(*options)

// WithLogger sets the logger used by every stage
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEngine skips engine resolution and uses e
func WithEngine(e detection.Engine) Option {
	return func(o *options) { o.engine, o.engineSet = e, true }
}

// WithChatClient skips backend construction and uses c
func WithChatClient(c client.ChatClient) Option {
	return func(o *options) { o.chat, o.chatSet = c, true }
}

// WithIDFunc overrides report id generation
func WithIDFunc(fn func() string) Option {
	return func(o *options) { o.idFunc = fn }
}

// New wires a Verifier from cfg. A missing detection engine is not fatal:
// detection then fails per request and the report says so.
func New(cfg *config.Config, opts ...Option) (*Verifier, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.OrNop(o.logger)

	engine := o.engine
	if !o.engineSet {
		engine = resolveEngine(cfg.Detector, logger)
	}

	chat := o.chat
	if !o.chatSet {
		var err error
		chat, err = NewChatClient(cfg.Analyzer)
		if err != nil {
			if engine != nil {
				engine.Close()
			}
			return nil, err
		}
	}

	det := detection.NewDetector(engine,
		detection.WithMaxDimension(cfg.Detector.MaxDimension),
		detection.WithLogger(logger.Named("detection")),
	)
	an := remote.NewAnalyzer(chat, cfg.Analyzer.Model,
		remote.WithTimeout(cfg.AnalyzerTimeout()),
		remote.WithMaxDimension(cfg.Analyzer.MaxDimension),
		remote.WithLogger(logger.Named("remote")),
	)

	return &Verifier{
		intake: intake.NewWithConfig(intake.Config{
			MaxBytes:     cfg.Upload.MaxBytes,
			AllowedMIME:  cfg.Upload.AllowedMIME,
			MinImageSize: cfg.Upload.MinImageSize,
		}),
		detector: det,
		analyzer: an,
		pipeline: pipeline.New(
			forensics.New(logger.Named("forensics")),
			det,
			an,
			pipeline.WithLogger(logger),
			pipeline.WithIDFunc(o.idFunc),
		),
		logger: logger,
	}, nil
}

func resolveEngine(cfg config.DetectorConfig, logger *zap.Logger) detection.Engine {
	var providers []detection.Provider
	for _, name := range cfg.Engines {
		switch name {
		case config.EngineYOLO:
			providers = append(providers, detection.YOLOProvider(detection.YOLOConfig{
				ModelPath:     cfg.ModelPath,
				LibraryPath:   cfg.LibraryPath,
				PoolSize:      cfg.PoolSize,
				ConfThreshold: cfg.ConfThreshold,
				IoUThreshold:  cfg.IoUThreshold,
			}))
		case config.EngineHOG:
			providers = append(providers, detection.HOGProvider())
		}
	}
	engine, err := detection.Resolve(logger, providers...)
	if err != nil {
		logger.Warn("running without a detection engine", zap.Error(err))
		return nil
	}
	return engine
}

// NewChatClient builds the remote backend named by cfg.Backend.
// The "none" backend yields a nil client.
func NewChatClient(cfg config.AnalyzerConfig) (client.ChatClient, error) {
	switch cfg.Backend {
	case config.BackendOpenRouter:
		return openrouter.NewClient(cfg.URL, cfg.APIKey), nil
	case config.BackendOllama:
		url := cfg.URL
		if url == "" || url == openrouter.DefaultURL {
			url = ollama.DefaultURL
		}
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return c, nil
	case config.BackendNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown analyzer backend %q", cfg.Backend)
}

// Analyze validates one upload and produces its report. perspective is
// "boyfriend", "girlfriend" or empty for the default.
func (v *Verifier) Analyze(ctx context.Context, data []byte, mime, perspective string) (types.Report, error) {
	p, err := types.ParsePerspective(perspective)
	if err != nil {
		return types.Report{}, err
	}
	info, err := v.intake.Validate(data, mime)
	if err != nil {
		return types.Report{}, err
	}
	v.logger.Debug("upload accepted",
		zap.String("format", info.Format),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Int("bytes", info.Bytes),
	)
	return v.pipeline.Run(ctx, data, info.MIME, p)
}

// AnalyzeFile reads path and analyzes it, taking the content type from
// the file extension
func (v *Verifier) AnalyzeFile(ctx context.Context, path, perspective string) (types.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Report{}, fmt.Errorf("failed to read image: %w", err)
	}
	mt := utils.MIMEFromExtension(path)
	if mt == "" {
		if _, format, err := processing.NewProcessor().DecodeConfig(data); err == nil {
			mt = intake.MIMEFromFormat(format)
		}
	}
	return v.Analyze(ctx, data, mt, perspective)
}

// Health reports the resolved provider, model and detection engine
func (v *Verifier) Health() Health {
	return Health{
		Status:   "ok",
		Provider: v.analyzer.Provider(),
		Model:    v.analyzer.Model(),
		Engine:   v.detector.EngineName(),
	}
}

// MaxUploadBytes returns the configured upload bound
func (v *Verifier) MaxUploadBytes() int64 {
	return v.intake.MaxBytes()
}

// Close releases the detection engine
func (v *Verifier) Close() error {
	return v.detector.Close()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
