package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/catalog"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/messaging"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/observability"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventory-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventory-ledger/pkg/config"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

func main() {
	// .env opcional en desarrollo; las variables del entorno tienen prioridad.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Bool("kafka", cfg.Kafka.Enabled()).
		Bool("auth", cfg.JWT.Secret != "").
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := observability.SetupTracing(ctx, cfg.App, cfg.Otel)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	// Almacén de existencias
	var stock repository.StockRepository
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		stock = memory.NewStockRepository()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("crear esquema de inventario")
		}
		stock = postgres.NewStockRepository(pool)
	}

	catalogClient := catalog.NewHTTPClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, log.Zerolog())

	// Eventos: Kafka si hay brokers, si no solo log.
	var publisher inventory.EventPublisher = messaging.NewLogPublisher(log.Zerolog())
	var producer messaging.Producer
	if cfg.Kafka.Enabled() {
		producer, err = messaging.NewProducer(messaging.WriterConfig{
			Brokers:      cfg.Kafka.Brokers,
			ClientID:     cfg.Kafka.ClientID,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			BatchSize:    cfg.Kafka.BatchSize,
		}, tp, log.Component("kafka-writer"))
		if err != nil {
			log.Fatal().Err(err).Msg("productor Kafka")
		}
		publisher = messaging.NewKafkaPublisher(producer, log.Zerolog())
	}

	ledger := inventory.NewLedgerUseCase(stock, catalogClient, publisher, log.Zerolog())

	// Consumidor de comandos de ajuste
	consumerDone := make(chan struct{})
	if cfg.Kafka.Enabled() {
		reader, err := messaging.NewConsumer(messaging.ReaderConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.AdjustTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("consumidor Kafka")
		}
		adjustConsumer := messaging.NewAdjustConsumer(reader, ledger, log.Zerolog())
		go func() {
			defer close(consumerDone)
			if err := adjustConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("consumidor de ajustes finalizado")
			}
			if err := adjustConsumer.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar consumidor de ajustes")
			}
		}()
	} else {
		close(consumerDone)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:    ledger,
		Logger:    log.Zerolog(),
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	<-consumerDone
	if producer != nil {
		// Close vacía el lote pendiente del writer asíncrono.
		if err := producer.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar productor Kafka")
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("vaciar trazas")
	}

	log.Info().Msg("aplicación detenida")
}
