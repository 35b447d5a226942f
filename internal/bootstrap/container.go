// Package bootstrap wires every component of the thought pipeline together:
// configuration, logging, storage, the broker, the semantic cache, the agent
// stack, the orchestrator, the fan-out bus, operator diagnostics, and the
// recovery sweeper. It replaces the teacher's note/auth/payment/admin
// controller wiring entirely, but keeps the teacher's shape for this file:
// one NewContainer(db, cfg) building every dependency by hand and returning
// a struct of public fields for main.go to consume.
package bootstrap

import (
	"log"
	"time"

	"thoughtstream/internal/agent"
	"thoughtstream/internal/broker"
	"thoughtstream/internal/cache"
	"thoughtstream/internal/config"
	"thoughtstream/internal/embedding"
	"thoughtstream/internal/fanout"
	llmfactory "thoughtstream/internal/llm/factory"
	"thoughtstream/internal/ops"
	"thoughtstream/internal/pipeline"
	"thoughtstream/internal/pkg/logger"
	"thoughtstream/internal/repository/implementation"
	"thoughtstream/internal/server"
	"thoughtstream/internal/sink"
	"thoughtstream/internal/sweeper"

	pktnats "thoughtstream/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"gorm.io/gorm"
)

// Container holds every wired component main.go needs, split across the API
// process (ThoughtHandler, CacheHandler) and the worker process (Consumer,
// Sweeper); both processes share this one wiring but run different subsets
// of it per the concurrency model of §5.
type Container struct {
	Config *config.Config
	Logger logger.ILogger

	ThoughtHandler *server.ThoughtHandler
	CacheHandler   *server.CacheHandler

	Producer *broker.Producer
	Consumer *broker.Consumer
	Sweeper  *sweeper.Sweeper

	Bus *fanout.Bus
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.Ambient.LogFilePath, cfg.Ambient.LogLevel == "production")
	watermillLogger := watermill.NewStdLogger(false, false)

	// Repositories
	thoughtRepo := implementation.NewThoughtRepository(db)
	cacheRepo := implementation.NewCacheEntryRepository(db)
	userContextRepo := implementation.NewUserContextRepository(db)

	// Storage-facing services
	thoughtSink := sink.New(thoughtRepo)
	semanticCache := cache.New(cacheRepo, cache.Config{
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
		TTL:                 time.Duration(cfg.Cache.TTLDays) * 24 * time.Hour,
	})
	embeddingMemo := cache.NewEmbeddingMemo(24 * time.Hour)

	// Adapters
	embedder, err := embedding.New(embedding.Config{Provider: cfg.Embedding.Provider, APIKey: cfg.Embedding.APIKey})
	if err != nil {
		log.Fatalf("[FATAL] failed to initialize embedding provider: %v", err)
	}
	log.Printf("[INFO] using embedding provider: %s (%s)", cfg.Embedding.Provider, cfg.Embedding.Model)

	llmProvider, err := llmfactory.New(llmfactory.Config{Provider: cfg.LLM.Provider, APIKey: cfg.LLM.APIKey, Model: cfg.LLM.Model})
	if err != nil {
		log.Fatalf("[FATAL] failed to initialize llm provider: %v", err)
	}
	log.Printf("[INFO] using llm provider: %s (%s)", cfg.LLM.Provider, cfg.LLM.Model)

	agentPipeline := agent.New(llmProvider)

	// Fan-out bus (Redis)
	bus, err := fanout.NewBus(fanout.Config{
		RedisURL:                  cfg.Fanout.BusURL,
		ChannelPrefix:             cfg.Fanout.ChannelPrefix,
		HeartbeatIntervalSeconds:  cfg.Fanout.HeartbeatIntervalSeconds,
		MaxConnectionsPerInstance: cfg.Fanout.MaxConnectionsPerInstance,
	})
	if err != nil {
		log.Fatalf("[FATAL] failed to initialize fanout bus: %v", err)
	}

	// Broker (Kafka work queue + DLQ)
	brokerCfg := broker.Config{
		BootstrapServers: cfg.Broker.BootstrapServers,
		WorkTopic:        cfg.Broker.WorkTopic,
		DLQTopic:         cfg.Broker.DLQTopic,
		ConsumerGroup:    cfg.Broker.ConsumerGroup,
		Partitions:       cfg.Broker.Partitions,
		MaxRetries:       cfg.Broker.MaxRetries,
		RetryBackoffMs:   cfg.Broker.RetryBackoffMs,
		BatchSize:        cfg.Broker.BatchSize,
		LingerMs:         cfg.Broker.LingerMs,
		SessionTimeoutMs: cfg.Broker.SessionTimeoutMs,
		Enabled:          cfg.Broker.Enabled,
	}
	producer, err := broker.NewProducer(brokerCfg, watermillLogger)
	if err != nil {
		log.Fatalf("[FATAL] failed to initialize broker producer: %v", err)
	}
	dlq, err := broker.NewDeadLetterPublisher(brokerCfg, watermillLogger)
	if err != nil {
		log.Fatalf("[FATAL] failed to initialize dead letter publisher: %v", err)
	}

	// Orchestrator ties the sink, cache, adapters, agents and bus together
	// behind the single Run(ctx, thoughtID) entry point the consumer drives;
	// the sweeper re-enters it only by republishing through the producer.
	orchestrator := pipeline.New(
		thoughtSink,
		semanticCache,
		embeddingMemo,
		embedder,
		agentPipeline,
		userContextRepo,
		bus,
		pipeline.Config{ContextVersion: 1},
	)

	var consumer *broker.Consumer
	if brokerCfg.Enabled {
		consumer, err = broker.NewConsumer(brokerCfg, watermillLogger, orchestrator, dlq)
		if err != nil {
			log.Fatalf("[FATAL] failed to initialize broker consumer: %v", err)
		}
	}

	// Operator diagnostics (NATS JetStream), disabled when ops_nats_url is
	// unset; the sweeper still runs, it just never reports to NATS.
	var natsPublisher *pktnats.Publisher
	if cfg.Ambient.OpsNatsURL != "" {
		natsPublisher, err = pktnats.NewPublisher(cfg.Ambient.OpsNatsURL)
		if err != nil {
			log.Printf("[WARN] failed to connect to ops NATS publisher: %v", err)
			natsPublisher = nil
		}
	}
	opsPublisher := ops.NewPublisher(natsPublisher, sysLogger)

	recoverySweeper := sweeper.New(sweeper.Config{
		IntervalSeconds:     sweeperIntervalSeconds(cfg.Pipeline.StuckGraceMinutes),
		StuckGraceMinutes:   cfg.Pipeline.StuckGraceMinutes,
		PipelineMaxAttempts: cfg.Pipeline.PipelineMaxAttempts,
	}, thoughtSink, producer, bus, opsPublisher, sysLogger)

	thoughtHandler := server.NewThoughtHandler(thoughtRepo, producer, bus, cfg.Fanout.HeartbeatIntervalSeconds, sysLogger)
	cacheHandler := server.NewCacheHandler(semanticCache)

	return &Container{
		Config:         cfg,
		Logger:         sysLogger,
		ThoughtHandler: thoughtHandler,
		CacheHandler:   cacheHandler,
		Producer:       producer,
		Consumer:       consumer,
		Sweeper:        recoverySweeper,
		Bus:            bus,
	}
}

// sweeperIntervalSeconds scans more often than the grace window so a stuck
// thought is not left waiting for nearly a full extra window before the
// first scan can catch it, a fifth of the grace window floored at 30s.
func sweeperIntervalSeconds(graceMinutes int) int {
	interval := graceMinutes * 60 / 5
	if interval < 30 {
		return 30
	}
	return interval
}
