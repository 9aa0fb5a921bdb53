package redis

import (
	"context"
	"errors"
	"time"
)

// CartStore exposes the client as a byte-oriented key-value store for cart
// snapshots. Keys are cart session ids; namespacing happens here.
type CartStore struct {
	client *Client
	ttl    time.Duration
}

// NewCartStore wraps client; ttl <= 0 keeps snapshots forever.
func NewCartStore(client *Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

// Get returns the stored snapshot. A missing key reports found=false.
func (s *CartStore) Get(ctx context.Context, cartID string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(cartID))
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(raw), true, nil
}

// Put writes the snapshot and refreshes its expiry.
func (s *CartStore) Put(ctx context.Context, cartID string, payload []byte) error {
	return s.client.Set(ctx, s.client.CartKey(cartID), payload, s.ttl)
}
