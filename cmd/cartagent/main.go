// cartagent exposes a live shopping-cart session as MCP tools, either
// over stdio (for local agent clients) or as a streamable HTTP endpoint.
// The cart engine is the same one the storefront UI embeds: a state
// store, a sync coordinator, and the storefront gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/agent"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/cache"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/cartstate"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/config"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/gateway"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/middleware"
	"github.com/Platina1337/NP-Pigments-frontend-sub000/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		listen = flag.String("listen", ":8080", "HTTP listen address for the MCP endpoint")
		stdio  = flag.Bool("stdio", false, "serve MCP over stdio instead of HTTP")
	)
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Stdio transport owns stdout; logs go to stderr there.
	logOut := io.Writer(os.Stdout)
	if *stdio {
		logOut = os.Stderr
	}
	logger := initLogger(cfg, logOut)
	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("storefront_url", cfg.Storefront.BaseURL),
		slog.Duration("sync_debounce", cfg.SyncDebounce),
		slog.Bool("redis_cache", cfg.Cache.RedisURL != ""),
	)

	gw, err := gateway.New(gateway.Config{
		BaseURL: cfg.Storefront.BaseURL,
		Timeout: cfg.Storefront.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("creating storefront gateway: %w", err)
	}

	cartCache, err := buildCache(cfg)
	if err != nil {
		return fmt.Errorf("creating cart cache: %w", err)
	}

	store := cartstate.NewStore()
	co := session.New(store, gw, cartCache, session.Options{
		Debounce: cfg.SyncDebounce,
		Logger:   logger,
	})
	defer co.Close()

	// Bring the session up before accepting tool calls. A configured
	// service token means this process owns an account cart.
	if cfg.Storefront.ServiceToken != "" {
		if err := co.SetAuthenticated(ctx, cfg.Storefront.ServiceToken); err != nil {
			logger.Warn("initial authenticated fetch failed, starting with an empty cart",
				slog.String("error", err.Error()))
		}
	} else {
		co.HydrateGuest(ctx)
	}

	srv := agent.New(co, logger)

	if *stdio {
		logger.Info("serving MCP over stdio")
		return srv.NewMCPServer().Run(ctx, &mcp.StdioTransport{})
	}
	return serveHTTP(srv, logger, *listen)
}

// serveHTTP mounts the MCP endpoint and runs until SIGINT/SIGTERM.
func serveHTTP(srv *agent.Server, logger *slog.Logger, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", srv.NewMCPHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Recovery outermost so it catches panics from the logging layer too.
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
	)(mux)

	server := &http.Server{
		Addr:         addr,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// buildCache picks the guest cart cache backend. Redis when configured,
// otherwise an in-process map that lasts for this run only.
func buildCache(cfg *config.Config) (cache.Store, error) {
	if cfg.Cache.RedisURL == "" {
		return cache.NewMemory(), nil
	}
	sessionID := cfg.Cache.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return cache.NewRedis(cfg.Cache.RedisURL, sessionID)
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
