package repositories

import (
	"context"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/shared"
)

// StoreCredentials reads and writes tokens saved in a [models.Store], one key per token.
type StoreCredentials struct {
	store models.Store
}

func NewStoreCredentials(store models.Store) *StoreCredentials {
	return &StoreCredentials{store: store}
}

func (c *StoreCredentials) Credential(ctx context.Context, key string) (string, bool, error) {
	var secret string
	ok, err := c.store.Get(ctx, key, &secret)
	if err != nil || !ok || secret == "" {
		return "", false, err
	}
	return secret, true, nil
}

// SetCredential saves secret under key. An empty secret removes the token.
func (c *StoreCredentials) SetCredential(ctx context.Context, key, secret string) error {
	return c.store.Set(ctx, key, secret)
}

// StaticCredentials is a fixed set of tokens, usually from the config file or environment.
type StaticCredentials map[string]string

func (c StaticCredentials) Credential(_ context.Context, key string) (string, bool, error) {
	secret, ok := c[key]
	return secret, ok && secret != "", nil
}

// ConfigCredentials returns the tokens present in cfg.
func ConfigCredentials(cfg *shared.Config) StaticCredentials {
	return StaticCredentials{
		models.DiscogsTokenKey: cfg.Credentials.Discogs.Token,
		models.TodoistTokenKey: cfg.Credentials.Todoist.Token,
	}
}

// ChainCredentials asks each store in order and returns the first token found.
type ChainCredentials []models.CredentialStore

func (c ChainCredentials) Credential(ctx context.Context, key string) (string, bool, error) {
	for _, store := range c {
		secret, ok, err := store.Credential(ctx, key)
		if err != nil {
			return "", false, err
		}
		if ok {
			return secret, true, nil
		}
	}
	return "", false, nil
}
