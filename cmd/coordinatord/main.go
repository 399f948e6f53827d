// coordinatord is the long-running orchestrator: it exposes the HTTP
// control surface, drains the durable work queue, and periodically
// validates and self-heals the agent network.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/agentmesh/coordinator/pkg/api"
	"github.com/agentmesh/coordinator/pkg/config"
	"github.com/agentmesh/coordinator/pkg/events"
	"github.com/agentmesh/coordinator/pkg/learning"
	"github.com/agentmesh/coordinator/pkg/metrics"
	"github.com/agentmesh/coordinator/pkg/network"
	"github.com/agentmesh/coordinator/pkg/notify"
	"github.com/agentmesh/coordinator/pkg/queue"
	"github.com/agentmesh/coordinator/pkg/store"
	"github.com/agentmesh/coordinator/pkg/worker"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	gin.SetMode(getEnv("GIN_MODE", "debug"))

	log.Printf("Starting agent network coordinator")
	log.Printf("HTTP Port: %s", httpPort)
	log.Printf("Config Directory: %s", *configDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, filepath.Join(*configDir, "config.yaml"))
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}
	cfgStats := cfg.Stats()

	dbClient, err := store.NewClient(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("Error closing database client: %v", err)
		}
	}()
	log.Println("Connected to PostgreSQL database; migrations applied")

	skills, err := cfg.ToSkillRegistry()
	if err != nil {
		log.Fatalf("Failed to build skill registry: %v", err)
	}

	coordinator := network.NewCoordinator(cfg.Coordinator, skills)

	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.Notify.Enabled {
		token := os.Getenv(cfg.Notify.TokenEnv)
		notifier = notify.NewSlackNotifier(token, cfg.Notify.Channel)
	}

	engine := learning.NewEngineWithConfig(cfg.Learning)
	processor := worker.NewJobProcessor(engine, dbClient, notifier)

	pool := queue.NewPool("coordinatord", dbClient, queue.Config{
		WorkerCount:             cfg.Queue.WorkerCount,
		ClaimBatchSize:          1,
		ClaimVisibility:         cfg.Queue.ClaimVisibility,
		PollInterval:            cfg.Queue.PollInterval,
		OrphanDetectionInterval: cfg.Queue.OrphanDetectionInterval,
	}, processor)
	pool.Start(ctx)
	defer pool.Stop()

	sub := coordinator.Subscribe()
	go relayNotifications(ctx, sub, notifier)
	defer coordinator.Unsubscribe(sub)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 1m", func() {
		runValidationTick(ctx, coordinator)
	}); err != nil {
		log.Fatalf("Failed to schedule validation tick: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := api.NewServer(coordinator)
	router := api.NewRouter(srv)
	router.GET("/health", func(c *gin.Context) {
		dbHealth := dbClient.Health(c.Request.Context())
		poolHealth := pool.Health(c.Request.Context())
		status := http.StatusOK
		if dbHealth.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":   dbHealth.Status,
			"database": dbHealth,
			"queue":    poolHealth,
			"configuration": gin.H{
				"skills": cfgStats.Skills,
			},
		})
	})

	httpServer := &http.Server{Addr: ":" + httpPort, Handler: router}
	go func() {
		log.Printf("HTTP server listening on :%s", httpPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}

// runValidationTick validates the network, records metrics, and attempts
// self-healing on any violation. Operator notifications for both are
// handled by relayNotifications, which observes the same events this
// produces on the coordinator's broadcast channel.
func runValidationTick(ctx context.Context, coordinator *network.NetworkCoordinator) {
	result := coordinator.ValidateNetwork(ctx)
	metrics.RecordValidation(result)
	metrics.RecordStats(coordinator.Stats())
	if result.Valid {
		return
	}

	actions, err := coordinator.SelfHeal(ctx)
	if err != nil {
		log.Printf("self-heal failed: %v", err)
		return
	}
	metrics.RecordSelfHeal(actions)
}

// relayNotifications watches network events for anything worth paging an
// operator about — failed validations and self-healing actions — until ctx
// is done.
func relayNotifications(ctx context.Context, sub *events.Subscription[network.NetworkEvent], notifier notify.Notifier) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.C:
			if !ok {
				return
			}
			switch evt.Kind {
			case network.EventSelfHealingAction:
				if err := notifier.Notify(ctx, notify.SelfHealingMessage(evt.Action)); err != nil {
					log.Printf("notify self-heal action: %v", err)
				}
			case network.EventValidationComplete:
				if !evt.Result.Valid {
					if err := notifier.Notify(ctx, notify.ValidationFailureMessage(evt.Result)); err != nil {
						log.Printf("notify validation failure: %v", err)
					}
				}
			}
		}
	}
}
