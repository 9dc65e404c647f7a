package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"schoolplus/internal/app"
	"schoolplus/internal/config"
	"schoolplus/internal/infra/memory"
	redisrepo "schoolplus/internal/infra/redis"
	"schoolplus/internal/transport/ws"
)

// NewBridgeCmd serves browser tabs over websockets.
func NewBridgeCmd(configPath, apiBaseURL *string) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Serve the quiz and chat controllers to browser tabs over websockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBridge(cmd.Context(), *configPath, *apiBaseURL, port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides config)")
	return cmd
}

func runBridge(ctx context.Context, configPath, apiBaseURL, port string) error {
	cfg, err := loadConfig(configPath, apiBaseURL)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Bridge.Port = port
	}

	tabTTL := config.Duration(cfg.Bridge.TabTTL, 30*time.Minute)
	var tabs app.TabRepository
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(context.Background()).Err(); err != nil {
			return err
		}
		tabs = redisrepo.NewTabStore(client, tabTTL)
		log.Printf("tab liveness tracked in redis at %s", cfg.Redis.Addr)
	} else {
		tabs = memory.NewTabStore(tabTTL)
	}

	// touch well inside the ttl so connected tabs never lapse
	handler := ws.NewHandler(tabs, tabDeps(cfg), ws.WithHeartbeat(tabTTL/3))

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", handler.ServeWS)
	r.Get("/tabs/{id}", handler.TabStatus)

	log.Printf("bridge listening on :%s (api %s)", cfg.Bridge.Port, cfg.API.BaseURL)
	return serve(ctx, &http.Server{
		Addr:        ":" + cfg.Bridge.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
	})
}

// serve runs srv until SIGINT/SIGTERM or ctx cancellation, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Printf("server stopped")
	return nil
}
