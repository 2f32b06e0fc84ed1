package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/soaringjerry/stackit/internal/models"
	"github.com/soaringjerry/stackit/internal/services"
)

const userKeyPrefix = "users:"

// authStoreAdapter keeps accounts in the same blob store as the board, one
// JSON record per key. mu makes the existence check and write in AddUser a
// single step, so an email can be registered once.
type authStoreAdapter struct {
	mu   sync.Mutex
	blob services.BlobStore
}

func newAuthStoreAdapter(blob services.BlobStore) services.AuthStore {
	return &authStoreAdapter{blob: blob}
}

func userKey(email string) string {
	return userKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

func (a *authStoreAdapter) FindUserByEmail(ctx context.Context, email string) (*services.User, error) {
	raw, ok, err := a.blob.Load(ctx, userKey(email))
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var rec models.UserRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", email, err)
	}
	if err := validate.Struct(&rec); err != nil {
		return nil, fmt.Errorf("user record %s: %w", email, err)
	}
	return &services.User{
		ID:        rec.ID,
		Email:     rec.Email,
		PassHash:  rec.PassHash,
		CreatedAt: time.UnixMilli(rec.CreatedAt).UTC(),
	}, nil
}

func (a *authStoreAdapter) AddUser(ctx context.Context, u *services.User) error {
	if u == nil {
		return services.NewInvalidError("user required")
	}
	rec := models.UserRecord{ID: u.ID, Email: u.Email, PassHash: u.PassHash, CreatedAt: u.CreatedAt.UnixMilli()}
	if err := validate.Struct(&rec); err != nil {
		return services.NewInvalidError(err.Error())
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, exists, err := a.blob.Load(ctx, userKey(u.Email))
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if exists {
		return services.NewConflictError("email exists")
	}
	return a.blob.Save(ctx, userKey(u.Email), string(b))
}

var _ services.AuthStore = (*authStoreAdapter)(nil)
