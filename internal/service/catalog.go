package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/storage"
)

type ProductIndex interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	SearchProducts(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	ImageURL    string
	Stock       int
	IsActive    *bool
}

type PatchProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	ImageURL    *string
	Stock       *int
	IsActive    *bool
}

type CatalogService struct {
	Repo    *repo.GormRepo
	Index   ProductIndex
	Storage storage.Uploader
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if id == 0 {
		return nil, validation("product id must be positive")
	}
	p, err := s.Repo.GetProduct(ctx, id, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product not found")
		}
		return nil, dependency("load product", err)
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	total, items, err := s.Repo.ListProducts(ctx, offset, limit)
	if err != nil {
		return 0, nil, dependency("list products", err)
	}
	return total, items, nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, validation("query is required")
	}

	if s.Index != nil {
		total, items, err := s.Index.SearchProducts(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "fallback", "db", "error", err)
	}

	total, items, err := s.Repo.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		return 0, nil, dependency("search products", err)
	}
	return total, items, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validation("name is required")
	}
	if in.Price < 0 {
		return nil, validation("price cannot be negative")
	}
	if in.Stock < 0 {
		return nil, validation("stock cannot be negative")
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p := &models.Product{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Stock:       in.Stock,
		IsActive:    active,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, dependency("create product", err)
	}
	s.reindex(ctx, p)
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uint, in PatchProductInput) (*models.Product, error) {
	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validation("name cannot be empty")
		}
		fields["name"] = name
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, validation("price cannot be negative")
		}
		fields["price"] = *in.Price
	}
	if in.ImageURL != nil {
		fields["image_url"] = strings.TrimSpace(*in.ImageURL)
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, validation("stock cannot be negative")
		}
		fields["stock"] = *in.Stock
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}

	p, err := s.Repo.UpdateProduct(ctx, id, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product not found")
		}
		return nil, dependency("update product", err)
	}
	s.reindex(ctx, p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("product not found")
		}
		return dependency("delete product", err)
	}
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_unindex_failed", "product_id", id, "error", err)
		}
	}
	return nil
}

func (s *CatalogService) UploadImage(ctx context.Context, id uint, filename, contentType string, r io.Reader, size int64) (*models.Product, error) {
	if err := checkImage(contentType, size); err != nil {
		return nil, err
	}
	if s.Storage == nil {
		return nil, &Error{Kind: ErrDependency, Msg: "file storage is not configured"}
	}
	if _, err := s.Repo.GetProduct(ctx, id, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product not found")
		}
		return nil, dependency("load product", err)
	}

	u, err := s.Storage.Upload(ctx, "products/"+strconv.FormatUint(uint64(id), 10), filename, contentType, r, size)
	if err != nil {
		return nil, dependency("upload image", err)
	}
	return s.PatchProduct(ctx, id, PatchProductInput{ImageURL: &u})
}

func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, *p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
	}
}
