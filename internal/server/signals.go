package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalHandler manages graceful shutdown of the HTTP server
type SignalHandler struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	onShutdown      []func()
}

// NewSignalHandler creates a new signal handler. onShutdown hooks run in
// order after the server has stopped accepting requests.
func NewSignalHandler(server *http.Server, shutdownTimeout time.Duration, logger *slog.Logger, onShutdown ...func()) *SignalHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignalHandler{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
		onShutdown:      onShutdown,
	}
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then shuts down gracefully
func (sh *SignalHandler) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	sig := <-quit
	sh.logger.Info("Received signal, initiating graceful shutdown", "signal", sig.String())

	sh.Shutdown()
}

// Shutdown stops the server and runs the shutdown hooks
func (sh *SignalHandler) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), sh.shutdownTimeout)
	defer cancel()

	if err := sh.server.Shutdown(ctx); err != nil {
		sh.logger.Error("Server forced to shutdown", "error", err)
	} else {
		sh.logger.Info("Server gracefully shut down")
	}

	for _, hook := range sh.onShutdown {
		hook()
	}
}

// HandleSignals starts the server and blocks until it is shut down by a
// signal. It returns an error if the listener could not be started.
func HandleSignals(server *http.Server, shutdownTimeout time.Duration, logger *slog.Logger, onShutdown ...func()) error {
	handler := NewSignalHandler(server, shutdownTimeout, logger, onShutdown...)

	errCh := make(chan error, 1)
	go func() {
		handler.logger.Info("Starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		for _, hook := range handler.onShutdown {
			hook()
		}
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		handler.logger.Info("Received signal, initiating graceful shutdown", "signal", sig.String())
		handler.Shutdown()
		return nil
	}
}
