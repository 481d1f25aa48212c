package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
)

// ErrCacheMiss is returned when a key is not cached.
var ErrCacheMiss = errors.New("cache miss")

// TokenDecimalsCacheRepository caches ERC20 decimals in Redis.
type TokenDecimalsCacheRepository struct {
	client  *redis.Client
	chainID int64
	exp     time.Duration // zero keeps entries forever, decimals never change
}

func NewTokenDecimalsCacheRepository(client *redis.Client, chainID int64, expiration time.Duration) *TokenDecimalsCacheRepository {
	return &TokenDecimalsCacheRepository{
		client:  client,
		chainID: chainID,
		exp:     expiration,
	}
}

func (r *TokenDecimalsCacheRepository) key(token string) string {
	return fmt.Sprintf("token_decimals:%d:%s", r.chainID, strings.ToLower(token))
}

// GetDecimals returns the cached decimals of token.
func (r *TokenDecimalsCacheRepository) GetDecimals(ctx context.Context, token string) (uint8, error) {
	key := r.key(token)

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		logger.Log.Debugw("token decimals cache get",
			"key", key,
			"error", err,
		)
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, err
	}

	decimals, err := strconv.ParseUint(val, 10, 8)

	logger.Log.Debugw("token decimals cache get",
		"key", key,
		"value", val,
		"result", decimals,
		"error", err,
	)

	if err != nil {
		return 0, err
	}
	return uint8(decimals), nil
}

// SetDecimals stores the decimals of token.
func (r *TokenDecimalsCacheRepository) SetDecimals(ctx context.Context, token string, decimals uint8) error {
	key := r.key(token)
	err := r.client.Set(ctx, key, strconv.Itoa(int(decimals)), r.exp).Err()

	logger.Log.Debugw("token decimals cache set",
		"key", key,
		"decimals", decimals,
		"error", err,
	)

	return err
}
