package cli

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mchmarny/riskscore/pkg/predict"
)

const (
	predictPath  = "/predict"
	maxBodyBytes = 1 << 20
)

func makeRouter(svc *predict.Service) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(),
		// a bare "*" in allowed headers does not cover Authorization in browsers
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{http.MethodPost, http.MethodOptions},
			AllowHeaders:    []string{"*", "Authorization"},
			MaxAge:          12 * time.Hour,
		}),
	)

	r.POST(predictPath, predictHandler(svc))

	return r
}

// requestLogger never logs request or response bodies.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := uuid.NewString()

		c.Next()

		slog.Debug("request",
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}

func predictHandler(svc *predict.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

		record, err := predict.DecodeRecord(body)
		if err != nil {
			writeError(c, http.StatusBadRequest, predict.ErrInvalidBody)
			return
		}

		a, err := svc.Score(record)
		if err != nil {
			if predict.IsClientError(err) {
				writeError(c, http.StatusBadRequest, err)
				return
			}
			slog.Error("prediction failed", "error", err)
			writeError(c, http.StatusInternalServerError, errors.New("prediction failed"))
			return
		}

		c.JSON(http.StatusOK, a)
	}
}

func writeError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
