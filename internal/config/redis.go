package config

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type RedisConfig struct {
	Addr     string
	Password string
}

func NewRedisConfig() *RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Fatal("REDIS_ADDR not set")
	}
	return &RedisConfig{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")}
}

func NewRedisClient(lc fx.Lifecycle, config *RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	logger.Info("connected to Redis", zap.String("addr", config.Addr))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("closing Redis connection")
			return client.Close()
		},
	})
	return client, nil
}
