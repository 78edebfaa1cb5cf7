package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "stayd"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Advisory room locks: long enough to cover a confirm/assign
	// transaction, short enough that a crashed holder does not wedge
	// the room.
	DefaultRoomLockTTL        = 10 * time.Second
	DefaultRoomLockRetryDelay = 150 * time.Millisecond

	// Longest bookable stay. Guards against fat-fingered year-long
	// typos, not a business rule anyone has asked to tune.
	DefaultMaxStayDays = 730

	DefaultPaginationLimit = 100

	DefaultBookingsBaseURL = "http://localhost:8082"
	DefaultCatalogBaseURL  = "http://localhost:8081"
)

// Service names, used for logging and as event sources.
const (
	ServiceCatalog   = "catalog"
	ServiceBookings  = "bookings"
	ServiceTenancies = "tenancies"
	ServiceProjector = "projector"
)
