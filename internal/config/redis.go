package config

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	Redis   *redis.Client
	redisMu sync.Mutex
)

// ConnectRedis opens the shared Redis client. Redis is optional: it returns nil
// when REDIS_ADDR is empty or the server cannot be reached, and callers fall
// back to the SQL-only code paths.
func ConnectRedis(env Env) *redis.Client {
	redisMu.Lock()
	defer redisMu.Unlock()

	if Redis != nil {
		return Redis
	}
	if env.RedisAddr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     env.RedisAddr,
		Password: env.RedisPassword,
		DB:       env.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable at %s, continuing without it: %v", env.RedisAddr, err)
		_ = rdb.Close()
		return nil
	}

	Redis = rdb
	log.Printf("connected to Redis at %s", env.RedisAddr)
	return Redis
}

func CloseRedis() {
	redisMu.Lock()
	defer redisMu.Unlock()

	if Redis != nil {
		_ = Redis.Close()
		Redis = nil
	}
}
