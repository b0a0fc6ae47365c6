package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Vantorrr/influenta-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client
var Ctx = context.Background()

func InitRedis() {
	Redis = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       0,
	})

	_, err := Redis.Ping(Ctx).Result()
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Token revocation and rate counters will be disabled.", err)
	} else {
		log.Println("Connected to Redis successfully")
	}
}

// BlacklistToken revokes a token until its natural expiry
func BlacklistToken(jti string, ttl time.Duration) error {
	if Redis == nil || jti == "" {
		return nil
	}
	key := fmt.Sprintf("token_blacklist:%s", jti)
	return Redis.Set(Ctx, key, "revoked", ttl).Err()
}

// IsTokenBlacklisted checks if a token has been revoked via logout
func IsTokenBlacklisted(jti string) bool {
	if Redis == nil || jti == "" {
		return false
	}
	key := fmt.Sprintf("token_blacklist:%s", jti)
	exists, err := Redis.Exists(Ctx, key).Result()
	if err != nil {
		return false
	}
	return exists > 0
}

// CheckRateLimit is a shared per-user counter for hot write paths
func CheckRateLimit(userId string, limit int, duration time.Duration) (bool, error) {
	if Redis == nil {
		return true, nil
	}
	key := fmt.Sprintf("rate_limit:%s", userId)
	count, err := Redis.Incr(Ctx, key).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		Redis.Expire(Ctx, key, duration)
	}

	if count > int64(limit) {
		return false, nil
	}
	return true, nil
}
