package config

import "time"

const defaultPort = 8080

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "campusdrop",
	Pass: "campusdrop",
	Name: "campusdrop",
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       5,
	Burst:      10,
	TTL:        10 * time.Minute,
	MaxBuckets: 10000,
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:             defaultPort,
		OperationTimeout: 5 * time.Second,
		DB:               defaultDB,
		Storage:          Storage{Driver: DriverPostgres, AutoMigrate: true},
		Auth:             Auth{Secret: "dev-secret", TTL: 24 * time.Hour},
		Kafka:            Kafka{Topic: "campusdrop.events"},
		RateLimit:        defaultRateLimit,
		Events:           Events{SubscriberBuffer: 32},
		Log:              Log{Backend: "slog", Level: "info"},
	}
}
