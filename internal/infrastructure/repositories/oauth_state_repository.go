package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/marketauth/domain"
)

// OAuthStateRepositoryImpl implements domain.OAuthStateStore using Redis
type OAuthStateRepositoryImpl struct {
	client *redis.Client
	prefix string
}

// NewOAuthStateRepository creates a new OAuth state repository
func NewOAuthStateRepository(client *redis.Client) domain.OAuthStateStore {
	return &OAuthStateRepositoryImpl{
		client: client,
		prefix: "oauth_state:",
	}
}

// Save implements domain.OAuthStateStore
func (r *OAuthStateRepositoryImpl) Save(ctx context.Context, state string, provider domain.Provider, ttl time.Duration) error {
	ok, err := r.client.SetNX(ctx, r.prefix+state, string(provider), ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("oauth state collision for %q", state)
	}
	return nil
}

// Consume implements domain.OAuthStateStore. A state can be consumed once.
func (r *OAuthStateRepositoryImpl) Consume(ctx context.Context, state string) (domain.Provider, error) {
	if state == "" {
		return "", domain.ErrOAuthStateInvalid
	}

	val, err := r.client.GetDel(ctx, r.prefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrOAuthStateInvalid
		}
		return "", err
	}
	return domain.Provider(val), nil
}
