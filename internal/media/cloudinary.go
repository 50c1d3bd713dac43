package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"storefront/internal/domain"
)

// Cloudinary stores images in a Cloudinary account.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Cloudinary{cld: cld, folder: folder}, nil
}

var _ Store = (*Cloudinary)(nil)

func (c *Cloudinary) Upload(ctx context.Context, u Upload) (domain.ProductImage, error) {
	res, err := c.cld.Upload.Upload(ctx, u.Body, uploader.UploadParams{
		ResourceType: "image",
		Folder:       c.folder,
	})
	if err != nil {
		return domain.ProductImage{}, fmt.Errorf("upload %s: %w", u.Name, err)
	}
	if res.Error.Message != "" {
		return domain.ProductImage{}, fmt.Errorf("upload %s: %s", u.Name, res.Error.Message)
	}
	return domain.ProductImage{URL: res.SecureURL, Handle: res.PublicID}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, handle string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     handle,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("destroy %s: %w", handle, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("destroy %s: %s", handle, res.Error.Message)
	}
	if res.Result == "not found" {
		return fmt.Errorf("destroy %s: %w", handle, ErrNotFound)
	}
	return nil
}

// IsNotFound reports whether err means the image was already gone.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
