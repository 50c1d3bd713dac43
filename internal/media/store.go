// Package media stores product images with an image host and hands back
// public URLs plus a handle used to delete them.
package media

//go:generate mockgen -destination=mock_media/store.go -package=mock_media storefront/internal/media Store

import (
	"context"
	"errors"
	"io"

	"storefront/internal/domain"
)

// ErrNotFound is returned when deleting an unknown handle.
var ErrNotFound = errors.New("image not found")

// Upload is one image file to store.
type Upload struct {
	Name string
	Body io.Reader
}

type Store interface {
	Upload(ctx context.Context, u Upload) (domain.ProductImage, error)
	Delete(ctx context.Context, handle string) error
}
