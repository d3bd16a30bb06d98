package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/timothy-pham/Blockly-BE/internal/app"
	"github.com/timothy-pham/Blockly-BE/internal/config"
	"github.com/timothy-pham/Blockly-BE/internal/domain"
	"github.com/timothy-pham/Blockly-BE/internal/infra/memory"
	pginfra "github.com/timothy-pham/Blockly-BE/internal/infra/postgres"
	redisinfra "github.com/timothy-pham/Blockly-BE/internal/infra/redis"
	transport "github.com/timothy-pham/Blockly-BE/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.GroupLoader = memory.NewStaticGroupLoader(sampleGroups())
	if pool != nil {
		loader = pginfra.NewGroupLoader(pool)
	}

	groupTTL := config.TTLDuration(cfg.Game.GroupTTL, 10*time.Minute)
	var source app.QuestionSource
	if redisClient != nil {
		source = redisinfra.NewQuestionSource(redisClient, loader, groupTTL)
	} else {
		source = memory.NewQuestionSource(loader, groupTTL)
	}

	var store app.RoomStore
	var bus app.EventBus
	if redisClient != nil {
		store = redisinfra.NewRoomStore(redisClient)
		bus = redisinfra.NewEventBus(redisClient)
	} else {
		store = memory.NewRoomStore()
		bus = memory.NewEventBus()
	}

	var profiles app.ProfileStore = memory.NewProfileStore()
	if pool != nil {
		profiles = pginfra.NewProfileStore(pool)
	}

	gameCfg := app.DefaultGameConfig()
	gameCfg.ExpiryGrace = config.TTLDuration(cfg.Game.ExpiryGrace, gameCfg.ExpiryGrace)
	if cfg.Game.WrongLimit > 0 {
		gameCfg.WrongLimit = cfg.Game.WrongLimit
	}

	registry := app.NewRegistry()
	service := app.NewRoomService(
		store,
		bus,
		app.NewSampler(source),
		app.NewSettlement(profiles),
		registry,
		gameCfg,
	)
	defer service.Shutdown()

	wsHandler := transport.NewWSHandler(service)
	roomHandler := transport.NewRoomHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	roomHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz room service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleGroups provides a minimal question set; production swaps this for
// the Postgres loader.
func sampleGroups() map[string][]domain.Question {
	return map[string][]domain.Question{
		"group-1": {
			{ID: "q1", Prompt: "What is 2 + 2?", Answer: "4"},
			{ID: "q2", Prompt: "What is 3 * 3?", Answer: "9"},
			{ID: "q3", Prompt: "What is 10 - 7?", Answer: "3"},
			{ID: "q4", Prompt: "What is 12 / 4?", Answer: "3"},
			{ID: "q5", Prompt: "What is 5 + 8?", Answer: "13"},
		},
	}
}
