package db

import (
	"database/sql"
	"fmt"
	"time"

	"uziwear-be/internal/config"
	"uziwear-be/internal/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func InitDB(cfg *config.Config) *sql.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	database, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.L().Fatal("cannot open postgres connection, check DB_HOST/DB_USER/DB_NAME",
			zap.Error(err),
		)
	}

	// Checkout runs serializable transactions; a small pool keeps the number
	// of concurrently conflicting transactions down.
	database.SetMaxOpenConns(10)
	database.SetMaxIdleConns(5)
	database.SetConnMaxLifetime(30 * time.Minute)

	if err = database.Ping(); err != nil {
		logger.L().Fatal("postgres is unreachable",
			zap.String("host", cfg.DBHost),
			zap.String("db", cfg.DBName),
			zap.Error(err),
		)
	}

	logger.L().Info("database connection established",
		zap.String("host", cfg.DBHost),
		zap.String("db", cfg.DBName),
	)
	return database
}
