package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// Every helper here is a no-op while redis is not connected, so a cold cache
// only costs db reads and never fails a request.
var (
	rdb    *redis.Client
	locker *redislock.Client
)

var ctx = context.Background()

func init() {
	godotenv.Load()
}

func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

// SetRedisClient installs an already connected client. Used by tools and integration tests.
func SetRedisClient(c *redis.Client) {
	rdb = c
	locker = nil
	if c != nil {
		locker = redislock.New(c)
	}
}

// getRedisString reads key; a missing key is not an error.
func getRedisString(key string) (string, bool, error) {
	if rdb == nil {
		return "", false, nil
	}
	val, err := rdb.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return val, true, nil
}

// GetRedisObject decodes the JSON stored at key into dest.
func GetRedisObject(key string, dest interface{}) (bool, error) {
	val, exists, err := getRedisString(key)
	if err != nil || !exists {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func GetRedisValue(key string) (string, bool, error) {
	return getRedisString(key)
}

func SetRedisObject(key string, obj interface{}, exp time.Duration) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return SetRedisValue(key, string(b), exp)
}

func SetRedisValue(key string, value string, exp time.Duration) error {
	if rdb == nil {
		return nil
	}
	return rdb.Set(ctx, key, value, exp).Err()
}

func RemoveRedisKey(keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// GetRedisCounter increments key and returns the new value. It returns 0 without redis.
func GetRedisCounter(ctx context.Context, key string) (int64, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.Incr(ctx, key).Result()
}

// SetRedisCounter seeds a counter so the next GetRedisCounter returns value+1.
func SetRedisCounter(ctx context.Context, key string, value int64) error {
	if rdb == nil {
		return nil
	}
	return rdb.Set(ctx, key, value, 0).Err()
}

// ConnectRedisWithRetry blocks until redis answers PING, then installs the
// client and the lock client. main calls it after the HTTP listener is up.
func ConnectRedisWithRetry() {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		addr = "localhost:6379"
		log.Printf("REDIS_ADDRESS not set; defaulting to %s", addr)
	}
	opts := &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		PoolSize: intFromEnv("REDIS_POOL_SIZE", 100),
	}

	for attempt := 1; ; attempt++ {
		client := redis.NewClient(opts)
		err := client.Ping(ctx).Err()
		if err == nil {
			SetRedisClient(client)
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, addr)
			return
		}
		_ = client.Close()
		sleep := retryBackoff(attempt)
		log.Printf("redis not ready (attempt=%d addr=%s): %v; retrying in %s", attempt, addr, err, sleep)
		time.Sleep(sleep)
	}
}
