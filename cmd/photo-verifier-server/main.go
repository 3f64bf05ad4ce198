package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	photoverifier "github.com/menta2k/photo-verifier"
	"github.com/menta2k/photo-verifier/internal/config"
	"github.com/menta2k/photo-verifier/internal/httpapi"
	"github.com/menta2k/photo-verifier/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "config file (.json or .yaml)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	v, err := photoverifier.New(cfg, photoverifier.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to initialize verifier", zap.Error(err))
	}
	defer v.Close()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(v, logger.Named("http"))

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	h := v.Health()
	logger.Info("photo verifier listening",
		zap.String("addr", server.Addr),
		zap.String("provider", h.Provider),
		zap.String("model", h.Model),
		zap.String("engine", h.Engine),
	)
	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if err := serveHTTPServer(server, shutdownTimeout, logger, nil, nil); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// serveHTTPServer runs server until it fails or a shutdown signal arrives.
// listener and signalCh may be nil to use ListenAndServe and OS signals.
func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	sigCh := signalCh
	if sigCh == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigCh = ch
	}

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
