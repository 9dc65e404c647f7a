package cli

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"schoolplus/internal/config"
	"schoolplus/internal/infra/memory"
	"schoolplus/internal/infra/postgres"
	redisrepo "schoolplus/internal/infra/redis"
	"schoolplus/internal/stub"
)

// NewStubCmd runs the reference backend the clients talk to.
func NewStubCmd(configPath *string) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run the reference quiz, assistant and forum backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStub(cmd.Context(), *configPath, port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides config)")
	return cmd
}

func runStub(ctx context.Context, configPath, port string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Stub.Port = port
	}
	if ctx == nil {
		ctx = context.Background()
	}

	banks, cleanup, err := buildBankRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	games := stub.NewGameService(memory.NewGameStore(), banks, cfg.Stub.Bank)
	handler := stub.NewHandler(games, stub.NewAssistant(), stub.NewForum(stub.DefaultIssues()...))

	log.Printf("stub backend listening on :%s (bank %s)", cfg.Stub.Port, cfg.Stub.Bank)
	return serve(ctx, &http.Server{
		Addr:         ":" + cfg.Stub.Port,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
}

// buildBankRepository picks Postgres or the built-in banks as the source and Redis or memory as
// the cache, depending on what is configured.
func buildBankRepository(ctx context.Context, cfg config.Config) (stub.BankRepository, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var loader memory.BankLoader = memory.NewStaticBankLoader(stub.DefaultBanks())
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, cleanup, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, pool.Close)

		pgLoader := postgres.NewBankLoader(pool)
		for _, bank := range stub.DefaultBanks() {
			if err := pgLoader.SaveBank(ctx, bank); err != nil {
				cleanup()
				return nil, func() {}, err
			}
		}
		loader = pgLoader
		log.Printf("question banks loaded from postgres")
	}

	ttl := config.Duration(cfg.Stub.BankTTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		log.Printf("question banks cached in redis at %s", cfg.Redis.Addr)
		return redisrepo.NewBankRepository(client, loader, ttl), cleanup, nil
	}
	return memory.NewBankRepository(loader, ttl), cleanup, nil
}
