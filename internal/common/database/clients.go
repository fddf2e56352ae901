// internal/common/database/clients.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ticket-triage/internal/common/config"

	_ "github.com/lib/pq"
)

const connMaxAge = 5 * time.Minute

// PostgresClient backs the ticket repository.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pool sized from cfg. No connection is made until the first Ping.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(connMaxAge)
	db.SetConnMaxIdleTime(connMaxAge)
	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return pingErr("postgres", c.DB.PingContext(ctx))
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// RedisClient backs the analysis cache.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) *RedisClient {
	return &RedisClient{Client: redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   "ticket-triage",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	return pingErr("redis", c.Client.Ping(ctx).Err())
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

func pingErr(backend string, err error) error {
	if err != nil {
		return fmt.Errorf("%s ping failed: %w", backend, err)
	}
	return nil
}
