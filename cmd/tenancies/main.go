package main

import (
	bookingsrepo "stayd/internal/bookings/repository"
	bookingsvalidator "stayd/internal/bookings/validator"
	"stayd/internal/tenancies/handler"
	"stayd/internal/tenancies/service"
	"stayd/pkg/app"
	"stayd/pkg/config"
	"stayd/pkg/events"
	"stayd/pkg/kafka"
	kafka_config "stayd/pkg/kafka/config"
	kafkamw "stayd/pkg/kafka/middleware"
)

func main() {
	cfg := config.Load(config.ServiceTenancies)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Tenancies service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	producer := initProducer(cfg)
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}()

	tenancyService := initServices(cfg, producer)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewTenancyHandler(tenancyService, cfg.Log))
	serverApp.Run()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, events.TopicBookingStatus, events.TopicBookingStatusDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafkamw.ProducerLogging())
	return producer
}

func initServices(cfg *config.Config, producer *kafka.Producer) service.TenancyService {
	bookingValidator := bookingsvalidator.NewBookingValidator(cfg.Log, cfg.MaxStayDays)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	roomReader := bookingsrepo.NewMongoRoomReader(cfg)
	lockRepo := bookingsrepo.NewRoomLockRepository(cfg)

	tenancyService := service.NewTenancyService(
		bookingRepo,
		roomReader,
		lockRepo,
		bookingValidator,
		producer,
		cfg,
	)

	cfg.Log.Info("Tenancy service initialized", "database", cfg.MongoDatabaseName)
	return tenancyService
}
