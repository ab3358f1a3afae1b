// Command server is a thin manual-testing harness around jarvisbrain's
// process() entry point, analogous to the teacher's cmd/server/main.go but
// exposing a single endpoint over gin instead of the teacher's full
// workflow/execution REST surface — this domain has no CRUD resources to
// expose, only one request/response round trip.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	jarvisbrain "github.com/jarvis-brain/core"
	"github.com/jarvis-brain/core/internal/devicehub"
	"github.com/jarvis-brain/core/internal/infrastructure/config"
	"github.com/jarvis-brain/core/internal/infrastructure/logger"
)

type processRequest struct {
	Text    string         `json:"text" binding:"required"`
	UserID  string         `json:"user_id"`
	Context map[string]any `json:"context"`
}

type processResponse struct {
	RequestID       string `json:"request_id"`
	IntentType      string `json:"intent_type"`
	Complexity      string `json:"complexity"`
	TargetProvider  string `json:"target_provider"`
	OK              bool   `json:"ok"`
	UserVisibleText string `json:"user_visible_text"`
	CommandSent     bool   `json:"command_sent"`
	CommandID       string `json:"command_id,omitempty"`
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel)

	hub := devicehub.NewHub(log)
	brain := jarvisbrain.New(cfg, log, hub)

	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", handleHealth)
	router.POST("/api/v1/process", handleProcess(brain))

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server exited gracefully")
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleProcess(brain *jarvisbrain.Brain) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req processRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := jarvisbrain.WithTimeout(c.Request.Context())
		defer cancel()

		resp := brain.Process(ctx, req.Text, req.UserID, req.Context)

		c.JSON(http.StatusOK, processResponse{
			RequestID:       resp.RequestID,
			IntentType:      string(resp.Intent.Type),
			Complexity:      string(resp.Routing.Complexity),
			TargetProvider:  string(resp.Routing.TargetProvider),
			OK:              resp.Result.OK,
			UserVisibleText: resp.Result.UserVisibleText,
			CommandSent:     resp.Result.CommandSent,
			CommandID:       resp.Result.CommandID,
		})
	}
}
