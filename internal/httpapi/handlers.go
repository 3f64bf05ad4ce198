package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	photoverifier "github.com/menta2k/photo-verifier"
	"github.com/menta2k/photo-verifier/internal/logging"
	"github.com/menta2k/photo-verifier/pkg/intake"
	"github.com/menta2k/photo-verifier/pkg/types"
)

// multipartOverhead is the slack allowed above the image bound for form framing
const multipartOverhead = 1 << 20

// Service is the verifier surface the handlers need
type Service interface {
	Analyze(ctx context.Context, data []byte, mime, perspective string) (types.Report, error)
	Health() photoverifier.Health
	MaxUploadBytes() int64
}

// NewRouter builds a gin engine with the verifier routes registered
func NewRouter(svc Service, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.MaxMultipartMemory = svc.MaxUploadBytes() + multipartOverhead
	RegisterRoutes(router, svc)
	return router
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, svc Service) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Health())
	})

	router.POST("/api/analyze", func(c *gin.Context) {
		limit := svc.MaxUploadBytes()
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

		file, err := c.FormFile("image")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": intake.ErrTooLarge.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		if file.Size > limit {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": intake.ErrTooLarge.Error()})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
			return
		}

		perspective := c.DefaultPostForm("target_gender", string(types.PerspectiveBoyfriend))
		report, err := svc.Analyze(c.Request.Context(), data, file.Header.Get("Content-Type"), perspective)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, report)
	})
}

// statusFor maps intake and request errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, intake.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, intake.ErrUnsupportedMIME):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, intake.ErrEmpty),
		errors.Is(err, intake.ErrUndecodable),
		errors.Is(err, intake.ErrTooSmall),
		errors.Is(err, types.ErrUnknownPerspective):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	logger = logging.OrNop(logger)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
