package errx

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// IsRedisNil reports whether err is the go-redis "key does not exist" sentinel.
func IsRedisNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// WrapRedis maps Redis errors to a StorageFailure AppError.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	return New(StorageFailure, err, RedisErrorMessage)
}
