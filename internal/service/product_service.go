package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/media"
	"storefront/internal/repository"
)

// MaxProductImages is how many images a product may carry.
const MaxProductImages = 4

// NewProduct holds the admin-supplied fields of a product.
type NewProduct struct {
	Name        string
	Description string
	Price       *decimal.Decimal
	Category    string
	SubCategory string
	Sizes       []string
	BestSeller  bool
}

// ProductService manages the catalog and the product images.
type ProductService struct {
	repo   repository.ProductRepository
	images media.Store
	log    *zap.Logger
}

func NewProductService(repo repository.ProductRepository, images media.Store, log *zap.Logger) *ProductService {
	return &ProductService{repo: repo, images: images, log: log}
}

func (in NewProduct) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Validation("name is required")
	}
	if in.Price == nil {
		return domain.Validation("price is required")
	}
	if in.Price.IsNegative() {
		return domain.Validation("price cannot be negative")
	}
	if strings.TrimSpace(in.Category) == "" {
		return domain.Validation("category is required")
	}
	if len(in.Sizes) == 0 {
		return domain.Validation("at least one size is required")
	}
	seen := make(map[string]struct{}, len(in.Sizes))
	for _, s := range in.Sizes {
		if err := domain.ValidateCartKey("size", s); err != nil {
			return err
		}
		if _, dup := seen[s]; dup {
			return domain.Validationf("size %q is listed twice", s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// Add uploads images in order, then stores the product. Uploaded images are
// removed again if the product cannot be stored.
func (s *ProductService) Add(ctx context.Context, c auth.Capability, in NewProduct, uploads []media.Upload) (*domain.Product, error) {
	if err := c.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if len(uploads) > MaxProductImages {
		return nil, domain.Validationf("at most %d images are allowed", MaxProductImages)
	}

	images := make([]domain.ProductImage, 0, len(uploads))
	for _, u := range uploads {
		img, err := s.images.Upload(ctx, u)
		if err != nil {
			s.discardImages(ctx, images)
			return nil, domain.Dependency("could not upload image", err)
		}
		images = append(images, img)
	}

	p := domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       *in.Price,
		Category:    strings.TrimSpace(in.Category),
		SubCategory: strings.TrimSpace(in.SubCategory),
		Sizes:       in.Sizes,
		Images:      images,
		BestSeller:  in.BestSeller,
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		s.discardImages(ctx, images)
		return nil, domain.Dependency("could not save product", err)
	}
	s.log.Info("product added", zap.String("product_id", p.ID), zap.Int("images", len(images)))
	return &p, nil
}

func (s *ProductService) discardImages(ctx context.Context, images []domain.ProductImage) {
	for _, img := range images {
		if err := s.images.Delete(ctx, img.Handle); err != nil {
			s.log.Warn("orphaned product image", zap.String("handle", img.Handle), zap.Error(err))
		}
	}
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.Validation("productId is required")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "product not found", "could not load product")
	}
	return p, nil
}

// List returns matching products; order is not guaranteed.
func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, domain.Dependency("could not list products", err)
	}
	return list, nil
}

// Remove deletes the product images, then the product. An image that fails
// to delete aborts the removal and leaves the record in place.
func (s *ProductService) Remove(ctx context.Context, c auth.Capability, id string) error {
	if err := c.RequireAdmin(); err != nil {
		return err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	for _, img := range p.Images {
		if img.Handle == "" {
			continue
		}
		if err := s.images.Delete(ctx, img.Handle); err != nil && !media.IsNotFound(err) {
			return domain.Dependency("could not delete product image", err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "product not found", "could not delete product")
	}
	s.log.Info("product removed", zap.String("product_id", id))
	return nil
}
