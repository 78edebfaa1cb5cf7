package main

import (
	"stayd/internal/bookings/handler"
	"stayd/internal/bookings/repository"
	"stayd/internal/bookings/service"
	"stayd/internal/bookings/validator"
	"stayd/pkg/app"
	"stayd/pkg/config"
	"stayd/pkg/events"
	"stayd/pkg/kafka"
	kafka_config "stayd/pkg/kafka/config"
	kafkamw "stayd/pkg/kafka/middleware"
)

func main() {
	cfg := config.Load(config.ServiceBookings)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Bookings service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	producer := initProducer(cfg)
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}()

	bookingService := initServices(cfg, producer)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
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

func initServices(cfg *config.Config, producer *kafka.Producer) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log, cfg.MaxStayDays)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	roomReader := repository.NewMongoRoomReader(cfg)
	lockRepo := repository.NewRoomLockRepository(cfg)

	bookingService := service.NewBookingService(
		bookingRepo,
		roomReader,
		lockRepo,
		bookingValidator,
		producer,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}
