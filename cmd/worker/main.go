// Command worker runs the broker consumer and the recovery sweeper: the two
// background loops that drive thoughts through the pipeline. It carries no
// HTTP surface of its own (that is cmd/api's job), per the process split of
// §5. Shutdown follows the teacher's cmd/rest/main.go signal.NotifyContext
// pattern, generalized with a drain deadline: stop polling new messages,
// give in-flight pipeline runs up to drainDeadline to finish, then return.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"thoughtstream/internal/bootstrap"
	"thoughtstream/internal/config"
	"thoughtstream/internal/tracer"
	"thoughtstream/pkg/database"
)

const drainDeadline = 60 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}

	shutdownTracer := tracer.InitTracer(cfg.Ambient.OtelEnabled, cfg.Ambient.OtelEndpoint)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	gormDB, err := database.NewGormDBFromDSN(cfg.Ambient.DatabaseURL)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go container.Sweeper.Run(ctx)

	if container.Consumer == nil {
		log.Println("broker disabled, worker is idle except for the recovery sweeper")
		<-ctx.Done()
		return
	}

	done := make(chan error, 1)
	go func() {
		log.Println("worker: starting broker consumer")
		done <- container.Consumer.Consume(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	case <-ctx.Done():
		log.Println("worker: shutdown signal received, draining in-flight deliveries")
		select {
		case err := <-done:
			if err != nil {
				log.Printf("consumer drained with error: %v", err)
			}
		case <-time.After(drainDeadline):
			log.Println("worker: drain deadline exceeded, exiting; any in-flight thought stays in processing for the sweeper to reclaim")
		}
	}

	if err := container.Consumer.Close(); err != nil {
		log.Printf("error closing consumer: %v", err)
	}
}
