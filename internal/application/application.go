package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/carryhub/carry-service/internal/config"
	"github.com/carryhub/carry-service/internal/database"
	"github.com/carryhub/carry-service/internal/handler"
	"github.com/carryhub/carry-service/internal/kafka"
	"github.com/carryhub/carry-service/internal/router"
	"github.com/carryhub/carry-service/internal/service"
)

// API — приложение режима api: HTTP-сервер поверх доменных сервисов.
type API struct {
	cfg      *config.Config
	httpSrv  *http.Server
	producer *kafka.Producer
}

// NewAPI валидирует конфиг, применяет миграции и собирает серверы.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	producer := kafka.NewProducer(kafka.ParseBrokers(cfg.KafkaBrokers), cfg.KafkaTopic)

	ticketSvc := service.NewTicketService(db, cfg)
	sessionSvc := service.NewSessionService(db)
	queueSvc := service.NewQueueService(db)
	blacklistSvc := service.NewBlacklistService(db)
	proofSvc := service.NewProofService(db)

	mux := router.New(router.Handlers{
		Ticket:    handler.NewTicketHandler(ticketSvc, queueSvc, producer),
		Session:   handler.NewSessionHandler(sessionSvc, producer),
		Blacklist: handler.NewBlacklistHandler(blacklistSvc),
		Proof:     handler.NewProofHandler(proofSvc),
		Ready:     handler.Ready(db),
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, httpSrv: httpSrv, producer: producer}, nil
}

// Run запускает HTTP-сервер, блокируется до отмены ctx.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.httpSrv.Addr)
	log.Printf("  Swagger UI:    %s/swagger", base)
	log.Printf("  Swagger spec:  %s/swagger/openapi.json", base)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  API v1:        %s/api/v1/", base)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		log.Printf("kafka: close: %v", err)
	}
	return nil
}
