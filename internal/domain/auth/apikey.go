package auth

import "context"

// APIKeyInfo identifies a validated admin API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
}

// Repository provides lookup of active API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
