package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quickbite/backend/common/database"
)

type Config struct {
	Port              string
	Env               string
	UserServiceURL    string
	MenuServiceURL    string
	PaymentServiceURL string
	KafkaBrokers      []string
	OrderEventsTopic  string
	SNSTopicArn       string
	ReconcileInterval time.Duration
	ReconcileMaxAge   time.Duration
	PostgresUser      string
	PostgresPassword  string
	PostgresDB        string
	PostgresHost      string
	PostgresPort      string
	PostgresSSLMode   string
	PostgresTimeZone  string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("APP_ENV", "development"),
		UserServiceURL:    getEnv("USER_SERVICE_URL", "http://localhost:8081"),
		MenuServiceURL:    getEnv("RESTAURANT_SERVICE_URL", "http://localhost:8082"),
		PaymentServiceURL: getEnv("PAYMENT_SERVICE_URL", "http://localhost:8083"),
		OrderEventsTopic:  getEnv("ORDER_EVENTS_TOPIC", "order-events"),
		SNSTopicArn:       os.Getenv("SNS_TOPIC_ARN"),
		PostgresUser:      os.Getenv("POSTGRES_USER"),
		PostgresPassword:  os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:        os.Getenv("POSTGRES_DB"),
		PostgresHost:      getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:   getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:  getEnv("POSTGRES_TIMEZONE", "UTC"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	var err error
	cfg.ReconcileInterval, err = time.ParseDuration(getEnv("RECONCILE_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_INTERVAL: %w", err)
	}
	cfg.ReconcileMaxAge, err = time.ParseDuration(getEnv("RECONCILE_MAX_AGE", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_MAX_AGE: %w", err)
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

func (c *Config) DSN() string {
	return database.DSN(c.PostgresHost, c.PostgresUser, c.PostgresPassword,
		c.PostgresDB, c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
