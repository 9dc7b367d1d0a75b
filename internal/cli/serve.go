package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/law-makers/profilefeed/internal/app"
	"github.com/law-makers/profilefeed/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Refresher is the part of the Application the trigger server needs.
type Refresher interface {
	// Refresh runs one cycle and reports its outcome.
	Refresh(ctx context.Context) (*app.Result, error)
	// LastResult returns the most recent outcome, or nil before the first run.
	LastResult() *app.Result
	// Uptime reports how long the application has been running.
	Uptime() time.Duration
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose refresh as an HTTP endpoint for a scheduler",
		Long: `Serve starts an HTTP server so a scheduler can trigger refreshes:

- POST /refresh runs one cycle (409 while another is running)
- GET /health reports uptime and the last run`,
		Example: `profilefeed serve --addr :9000
# then from the scheduler
curl -X POST localhost:9000/refresh`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	config.RegisterServeFlags(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return errors.New("application not initialized")
	}
	ctx := cmd.Context()
	logger := *a.Logger

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           NewRouter(ctx, a, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info().Str("addr", a.Config.Addr).Msg("Trigger server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", a.Config.Addr, err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down trigger server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter wires the trigger endpoints. Refreshes run under base rather than
// the request context, so a client hanging up does not abort a publish.
func NewRouter(base context.Context, r Refresher, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  r.Uptime().Round(time.Second).String(),
			"lastRun": r.LastResult(),
		})
	})

	router.POST("/refresh", func(c *gin.Context) {
		result, err := r.Refresh(base)
		switch {
		case errors.Is(err, app.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case err != nil && result == nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		case err != nil:
			c.JSON(http.StatusInternalServerError, result)
		default:
			c.JSON(http.StatusOK, result)
		}
	})

	return router
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}
