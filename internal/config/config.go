package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	// RabbitMQ event bus (optional; notifications are disabled when empty)
	AMQPURL      string
	AMQPExchange string

	// Admin back-office credentials
	AdminEmail        string
	AdminPasswordHash string

	// Payment gateway
	WompiPublicKey     string
	WompiPrivateKey    string
	WompiCallbackToken string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: os.Getenv("AMQP_EXCHANGE"),

		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		WompiPublicKey:     os.Getenv("WOMPI_PUBLIC_KEY"),
		WompiPrivateKey:    os.Getenv("WOMPI_PRIVATE_KEY"),
		WompiCallbackToken: os.Getenv("WOMPI_CALLBACK_TOKEN"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}

	if cfg.AMQPExchange == "" {
		cfg.AMQPExchange = "uziwear.events"
	}

	return cfg
}
