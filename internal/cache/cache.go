package cache

import (
	"context"
	"errors"
	"time"
)

// Fragment is a rendered cart container together with its formatted total.
type Fragment struct {
	Revision   uint64    `json:"revision"`
	HTML       string    `json:"html"`
	Total      string    `json:"total"`
	RenderedAt time.Time `json:"rendered_at"`
}

type FragmentCache interface {
	Get(ctx context.Context, key string) (*Fragment, error)
	Set(ctx context.Context, key string, fragment *Fragment) error
	Delete(ctx context.Context, key string) error
}

var ErrCacheMiss = errors.New("cache miss")
