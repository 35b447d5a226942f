// Command api runs the HTTP/SSE front end: thought submission and progress
// streaming. It never touches the broker consumer or the recovery sweeper —
// those belong to cmd/worker, per the process split of §5.
package main

import (
	"context"
	"log"
	"time"

	"thoughtstream/internal/bootstrap"
	"thoughtstream/internal/config"
	"thoughtstream/internal/tracer"
	"thoughtstream/pkg/database"
)

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

	srv := bootstrap.NewHTTPServer(container)
	log.Fatal(srv.Run())
}
