package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/momento/internal/config"
	"github.com/Skotchmaster/momento/internal/devserver"
	"github.com/Skotchmaster/momento/internal/logging"
	"github.com/labstack/echo/v4"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.ReadTimeout = cfg.ProxyTimeout
	e.Server.WriteTimeout = cfg.ProxyTimeout + 5*time.Second

	if err := devserver.Register(e, &devserver.Deps{
		APITarget: cfg.APITarget,
		StaticDir: cfg.StaticDir,
		Timeout:   cfg.ProxyTimeout,
		Log:       logger,
	}); err != nil {
		logger.Error("register routes", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := e.Start(cfg.ListenAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("start", "error", err)
			os.Exit(1)
		}
	}()

	fmt.Printf("momento dev server running: http://localhost:%d\n", cfg.Port)
	fmt.Printf("proxying %s -> %s\n", devserver.APIMount, cfg.APITarget)
	logger.Info("dev server started", "addr", cfg.ListenAddr(), "static_dir", cfg.StaticDir, "api_target", cfg.APITarget)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("dev server stopped")
}
