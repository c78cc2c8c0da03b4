package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"go-fwpm/internal/config"

	_ "github.com/lib/pq"
	"go.uber.org/fx"
)

// PostgresDB is only opened when TASK_STORE=postgres
type PostgresDB struct {
	DB *sql.DB
}

func NewPostgres(lc fx.Lifecycle, cfg *config.Config) (*PostgresDB, error) {
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required when TASK_STORE=%s", config.TaskStorePostgres)
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("Connected to PostgreSQL!")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Closing PostgreSQL pool...")
			return db.Close()
		},
	})

	return &PostgresDB{DB: db}, nil
}
