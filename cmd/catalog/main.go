package main

import (
	bookingsrepo "stayd/internal/bookings/repository"
	"stayd/internal/catalog/handler"
	"stayd/internal/catalog/repository"
	"stayd/internal/catalog/service"
	"stayd/internal/catalog/validator"
	"stayd/pkg/app"
	"stayd/pkg/config"
)

func main() {
	cfg := config.Load(config.ServiceCatalog)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Catalog service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	catalogHandler := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(catalogHandler)
	serverApp.Run()
}

func initServices(cfg *config.Config) *handler.CatalogHandler {
	catalogValidator := validator.NewCatalogValidator(cfg.Log)
	propertyRepo := repository.NewMongoPropertyRepository(cfg)
	roomRepo := repository.NewMongoRoomRepository(cfg)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)

	propertyService := service.NewPropertyService(propertyRepo, roomRepo, catalogValidator, cfg)
	roomService := service.NewRoomService(roomRepo, propertyRepo, bookingRepo, catalogValidator, cfg)

	cfg.Log.Info("Catalog service initialized", "database", cfg.MongoDatabaseName)
	return handler.NewCatalogHandler(
		handler.NewPropertyHandler(propertyService, roomService, cfg.Log),
		handler.NewRoomHandler(roomService, cfg.Log),
	)
}
