package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fathima-sithara/whisper-backend/internal/apperr"
	"github.com/fathima-sithara/whisper-backend/internal/config"
)

const (
	otpPrefix          = "otp:"
	otpRateLimitPrefix = "otp_rate_limit:"
	refreshTokenPrefix = "refresh_token:"
	presencePrefix     = "presence:"
)

// Store wraps the Redis client for OTP storage, refresh-token rotation and
// the presence mirror.
type Store struct {
	rdb *redis.Client
}

func NewStore(cfg *config.Config) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return &Store{rdb: rdb}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// StoreOTP saves a code for the phone with TTL, enforcing the hourly
// per-phone request limit first.
func (s *Store) StoreOTP(ctx context.Context, phone, code string, ttl time.Duration, maxPerHour int) error {
	limitKey := otpRateLimitPrefix + phone
	count, err := s.rdb.Incr(ctx, limitKey).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		if err := s.rdb.Expire(ctx, limitKey, time.Hour).Err(); err != nil {
			return err
		}
	} else if count > int64(maxPerHour) {
		s.rdb.Decr(ctx, limitKey)
		return apperr.ErrOTPRateLimited
	}
	return s.rdb.Set(ctx, otpPrefix+phone, code, ttl).Err()
}

// ConsumeOTP validates the code for the phone and deletes it on success.
func (s *Store) ConsumeOTP(ctx context.Context, phone, code string) error {
	stored, err := s.rdb.Get(ctx, otpPrefix+phone).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperr.ErrOTPExpired
		}
		return err
	}
	if stored != code {
		return apperr.ErrInvalidOTP
	}
	s.rdb.Del(ctx, otpPrefix+phone)
	return nil
}

// StoreRefreshToken keeps the current refresh token for a user; rotation
// overwrites the previous one so only the newest token stays valid.
func (s *Store) StoreRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error {
	return s.rdb.Set(ctx, refreshTokenPrefix+userID, token, ttl).Err()
}

// CheckRefreshToken verifies the presented token matches the stored one.
func (s *Store) CheckRefreshToken(ctx context.Context, userID, token string) error {
	stored, err := s.rdb.Get(ctx, refreshTokenPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperr.ErrInvalidToken
		}
		return err
	}
	if stored != token {
		return apperr.ErrInvalidToken
	}
	return nil
}

func (s *Store) DeleteRefreshToken(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, refreshTokenPrefix+userID).Err()
}

// SetPresence mirrors "user is online" with a TTL. The realtime registry is
// the routing source of truth; this key only serves the REST presence
// endpoint and the notification worker.
func (s *Store) SetPresence(ctx context.Context, userID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, presencePrefix+userID, "online", ttl).Err()
}

func (s *Store) ClearPresence(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, presencePrefix+userID).Err()
}

func (s *Store) IsOnline(ctx context.Context, userID string) bool {
	val, err := s.rdb.Get(ctx, presencePrefix+userID).Result()
	return err == nil && val == "online"
}
