package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tiffin/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// Wallet caching, keyed by owner
func (s *CacheService) CacheWallet(ctx context.Context, wallet *models.Wallet) error {
	if wallet == nil {
		return errors.New("cannot cache nil wallet")
	}
	key := s.GenerateKey("wallet", "owner", wallet.OwnerID)
	return s.Set(ctx, key, wallet)
}

func (s *CacheService) GetWallet(ctx context.Context, ownerID uint) (*models.Wallet, error) {
	key := s.GenerateKey("wallet", "owner", ownerID)
	var wallet models.Wallet
	found, err := s.Get(ctx, key, &wallet)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("wallet not found in cache")
	}
	return &wallet, nil
}

func (s *CacheService) InvalidateWallet(ctx context.Context, ownerID uint) error {
	return s.Delete(ctx, s.GenerateKey("wallet", "owner", ownerID))
}

// User caching
func (s *CacheService) CacheUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("cannot cache nil user")
	}

	keys := []string{
		s.GenerateKey("user", "id", user.ID),
		s.GenerateKey("user", "email", user.Email),
	}
	for _, key := range keys {
		if err := s.Set(ctx, key, user); err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheService) GetUser(ctx context.Context, key string) (*models.User, error) {
	var user models.User
	found, err := s.Get(ctx, key, &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("user not found in cache")
	}
	return &user, nil
}

func (s *CacheService) InvalidateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return nil
	}
	return s.Delete(ctx,
		s.GenerateKey("user", "id", user.ID),
		s.GenerateKey("user", "email", user.Email),
	)
}

func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (s *CacheService) Close() error {
	return s.client.Close()
}
