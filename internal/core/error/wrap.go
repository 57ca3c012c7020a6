package errx

import (
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps Redis errors to the unified AppError type.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, KindUpstream, http.StatusNotFound, RedisErrorMessage)
	}
	return New(err, KindUpstream, http.StatusBadGateway, RedisErrorMessage)
}

// WrapStore wraps relational store errors with a consistent status and message.
// SQL text and driver detail stay in Err, never in Message.
func WrapStore(err error) error {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return err
	}
	return New(err, KindUpstream, http.StatusBadGateway, StoreErrorMessage)
}
