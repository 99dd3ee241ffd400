package config

import (
	"context"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/renthive/rental-app/utils"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// InitRedis connects the search-cache client. Returns nil when REDIS_ADDR is
// unset or the server is unreachable; callers treat a nil client as cache off.
func InitRedis() *redis.Client {
	redisOnce.Do(func() {
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			utils.InfoLogger.Println("REDIS_ADDR not set, search cache disabled")
			return
		}

		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		})

		if _, err := client.Ping(context.Background()).Result(); err != nil {
			utils.ErrorLogger.Printf("failed to connect to Redis, search cache disabled: %v", err)
			return
		}

		utils.InfoLogger.Println("connected to Redis")
		redisClient = client
	})
	return redisClient
}
