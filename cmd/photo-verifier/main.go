package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	photoverifier "github.com/menta2k/photo-verifier"
	"github.com/menta2k/photo-verifier/internal/config"
	"github.com/menta2k/photo-verifier/internal/logging"
	"github.com/menta2k/photo-verifier/internal/utils"
)

func main() {
	var in, outDir, cfgPath, writeCfg, target, backend, model, url string
	var timeout int
	var debug, version bool

	flag.StringVar(&in, "in", "", "input image or directory (jpg/png/webp)")
	flag.StringVar(&outDir, "out", "", "write <name>.report.json files here (default: print to stdout)")
	flag.StringVar(&cfgPath, "config", "", "config file (.json or .yaml)")
	flag.StringVar(&writeCfg, "write-config", "", "write the effective config to this file and exit")
	flag.StringVar(&target, "target", "boyfriend", "whose photo is checked: boyfriend|girlfriend")
	flag.StringVar(&backend, "backend", "", "analyzer backend override: openrouter|ollama|none")
	flag.StringVar(&model, "model", "", "model name override")
	flag.StringVar(&url, "url", "", "analyzer endpoint override")
	flag.IntVar(&timeout, "timeout", 0, "analyzer timeout override in seconds")
	flag.BoolVar(&debug, "debug", false, "debug logging")
	flag.BoolVar(&version, "version", false, "print version and exit")

	flag.Parse()
	if version {
		fmt.Println(photoverifier.GetVersion())
		return
	}
	if in == "" && writeCfg == "" {
		log.Fatalf("usage: %s -in photo.jpg|dir [-out outdir] [-target boyfriend|girlfriend] [-backend openrouter|ollama|none] [-config file]", filepath.Base(os.Args[0]))
	}

	if cfgPath == "" {
		if p := config.GetConfigPath(); utils.FileExists(p) {
			cfgPath = p
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if backend != "" {
		cfg.Analyzer.Backend = backend
	}
	if model != "" {
		cfg.Analyzer.Model = model
	}
	if url != "" {
		cfg.Analyzer.URL = url
	}
	if timeout > 0 {
		cfg.Analyzer.TimeoutSeconds = timeout
	}
	if writeCfg != "" {
		if err := utils.EnsureDir(filepath.Dir(writeCfg)); err != nil {
			log.Fatal(err)
		}
		if err := cfg.SaveToFile(writeCfg); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s", writeCfg)
		return
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}

	logger, err := logging.NewLogger(level, true)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync() //nolint:errcheck

	v, err := photoverifier.New(cfg, photoverifier.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to initialize verifier", zap.Error(err))
	}
	defer v.Close()

	h := v.Health()
	logger.Info("verifier ready",
		zap.String("provider", h.Provider),
		zap.String("model", h.Model),
		zap.String("engine", h.Engine),
	)

	files := []string{in}
	if utils.DirExists(in) {
		files, err = utils.ListImageFiles(in)
		if err != nil {
			logger.Fatal("failed to list images", zap.Error(err))
		}
		if len(files) == 0 {
			logger.Fatal("no images found", zap.String("dir", in))
		}
	}
	if outDir != "" {
		if err := utils.EnsureDir(outDir); err != nil {
			logger.Fatal("failed to create output dir", zap.Error(err))
		}
	}

	failed := 0
	for _, path := range files {
		if err := processFile(v, path, outDir, target, logger); err != nil {
			logger.Error("analysis failed", zap.String("file", path), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		logger.Warn("finished with failures", zap.Int("failed", failed), zap.Int("total", len(files)))
		os.Exit(1)
	}
}

func processFile(v *photoverifier.Verifier, path, outDir, target string, logger *zap.Logger) error {
	start := time.Now()
	report, err := v.AnalyzeFile(context.Background(), path, target)
	if err != nil {
		return err
	}

	js, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if outDir == "" {
		fmt.Println(string(js))
	} else {
		reportPath := utils.ReportFileName(path, outDir)
		if err := os.WriteFile(reportPath, js, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info("wrote report", zap.String("path", reportPath))
	}

	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	logger.Info("analyzed",
		zap.String("file", path),
		zap.String("size", utils.FormatFileSize(size)),
		zap.String("image_id", report.ImageID),
		zap.Bool("model_success", report.Meta.ModelSuccess),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
