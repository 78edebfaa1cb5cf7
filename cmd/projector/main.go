package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	bookingsrepo "stayd/internal/bookings/repository"
	"stayd/internal/projector"
	projectorrepo "stayd/internal/projector/repository"
	"stayd/pkg/config"
	"stayd/pkg/events"
	"stayd/pkg/kafka"
	kafka_config "stayd/pkg/kafka/config"
	kafkamw "stayd/pkg/kafka/middleware"
)

const consumerGroup = "stayd-projector"

func main() {
	cfg := config.Load(config.ServiceProjector)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Projector service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg := kafka_config.Load()

	dlqProducer, err := kafka.NewProducer(kafkaCfg, events.TopicBookingStatus, events.TopicBookingStatusDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create DLQ producer", "error", err)
	}
	defer func() {
		if err := dlqProducer.Close(); err != nil {
			cfg.Log.Error("Failed to close DLQ producer", "error", err)
		}
	}()

	roomStatusRepo := projectorrepo.NewMongoRoomStatusRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	proj := projector.New(roomStatusRepo, bookingRepo, cfg)

	consumer, err := kafka.NewConsumer(kafkaCfg, events.TopicBookingStatus, consumerGroup, proj.HandleMessage, dlqProducer)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafkamw.ConsumerLogging())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- consumer.Start(ctx)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-done:
		if err != nil {
			cfg.Log.Fatal("Consumer stopped with error", "error", err)
		}
	case sig := <-shutdown:
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		if err := consumer.Stop(); err != nil {
			cfg.Log.Error("Failed to stop consumer", "error", err)
		}
	}

	cfg.Log.Info("Projector stopped")
}
