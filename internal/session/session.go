// Package session holds per-user session state that outlives a single
// request. The only field today is the pending withdrawal amount remembered
// between submitting a withdrawal and authenticating its pin. Only the most
// recent submission survives; a second submission before authentication
// overwrites the first.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zetahub/kryptonite/internal/cache"
)

const pendingWithdrawalTTL = 24 * time.Hour

type Store interface {
	SetPendingWithdrawal(userID string, amount float64) error
	PendingWithdrawal(userID string) (float64, error)
	ClearPendingWithdrawal(userID string) error
}

type RedisStore struct {
	cache *cache.Cache
}

func NewRedisStore(cache *cache.Cache) *RedisStore {
	return &RedisStore{cache: cache}
}

func pendingWithdrawalKey(userID string) string {
	return fmt.Sprintf("session:%s:pending_withdrawal_amount", userID)
}

func (s *RedisStore) SetPendingWithdrawal(userID string, amount float64) error {
	value := strconv.FormatFloat(amount, 'f', -1, 64)
	return s.cache.Set(pendingWithdrawalKey(userID), value, pendingWithdrawalTTL)
}

// PendingWithdrawal returns the remembered amount, or 0 when the session has
// no pending withdrawal.
func (s *RedisStore) PendingWithdrawal(userID string) (float64, error) {
	value, err := s.cache.Get(pendingWithdrawalKey(userID))
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return strconv.ParseFloat(value, 64)
}

func (s *RedisStore) ClearPendingWithdrawal(userID string) error {
	return s.cache.Delete(pendingWithdrawalKey(userID))
}
