package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Conversly/whatsapp-assistant/internal/api/channels/whatsapp"
	"github.com/Conversly/whatsapp-assistant/internal/config"
	"github.com/Conversly/whatsapp-assistant/internal/controllers"
	"github.com/Conversly/whatsapp-assistant/internal/core"
	"github.com/Conversly/whatsapp-assistant/internal/document"
	"github.com/Conversly/whatsapp-assistant/internal/llm"
	"github.com/Conversly/whatsapp-assistant/internal/marketing"
	"github.com/Conversly/whatsapp-assistant/internal/routes"
	"github.com/Conversly/whatsapp-assistant/internal/telemetry"
	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		fmt.Println("Warning: Error loading .env file", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	cleanup := utils.InitLogger(cfg)
	defer cleanup()

	utils.Zlog.Info("Starting application",
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.ServerPort),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Strings("models", cfg.LLM.Models))

	ctx := context.Background()

	tel, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		utils.Zlog.Error("Failed to set up telemetry", zap.Error(err))
		os.Exit(1)
	}

	backend, err := llm.NewBackend(ctx, cfg.LLM)
	if err != nil {
		utils.Zlog.Error("Failed to create LLM backend", zap.Error(err))
		os.Exit(1)
	}
	client := llm.NewClient(backend, llm.SettingsFromConfig(cfg.LLM))

	executor, err := core.NewExecutor(ctx, client)
	if err != nil {
		utils.Zlog.Error("Failed to compile message pipeline", zap.Error(err))
		os.Exit(1)
	}

	summarizer, err := document.NewSummarizer(ctx, nil)
	if err != nil {
		utils.Zlog.Error("Failed to create document summarizer", zap.Error(err))
		os.Exit(1)
	}

	deps := &routes.Dependencies{
		Pipeline:   executor,
		Generator:  client,
		Marketing:  marketing.NewGenerator(client, marketing.WithModels(cfg.LLM.MarketingModels...)),
		Summarizer: summarizer,
		Checks: []controllers.ReadinessCheck{{
			Name: "llm",
			Check: client.Ping,
		}},
	}
	if cfg.WhatsApp.Enabled() {
		graph := whatsapp.NewGraphClient(cfg.WhatsApp.GraphAPIBaseURL, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.AccessToken)
		deps.WhatsApp = whatsapp.NewService(executor, graph, cfg.WhatsApp.ProcessTimeout)
	} else {
		utils.Zlog.Info("WhatsApp channel disabled: access token or phone number id missing")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	routes.SetupRoutes(router, deps, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		utils.Zlog.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Zlog.Error("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Zlog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Zlog.Error("Server forced to shutdown", zap.Error(err))
	}

	if deps.WhatsApp != nil {
		done := make(chan struct{})
		go func() {
			deps.WhatsApp.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			utils.Zlog.Warn("Gave up waiting for WhatsApp replies")
		}
	}

	if err := tel.Shutdown(shutdownCtx); err != nil {
		utils.Zlog.Error("Telemetry shutdown error", zap.Error(err))
	}

	utils.Zlog.Info("Server exited")
}
