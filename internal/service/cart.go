package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo

	// EnforceOwnership scopes UpdateItem and RemoveItem to the caller's rows.
	// When false, rows are addressed by id alone.
	EnforceOwnership bool
}

func (s *CartService) GetCart(ctx context.Context, userID uint) ([]models.CartLine, error) {
	if userID == 0 {
		return nil, unauthorized("authentication required")
	}
	lines, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, dependency("load cart", err)
	}
	return lines, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, error) {
	if userID == 0 || productID == 0 {
		return nil, validation("user id and product id must be positive")
	}
	if quantity <= 0 {
		return nil, validation("quantity must be more than zero")
	}

	if _, err := s.Repo.GetProduct(ctx, productID, true); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product not found")
		}
		return nil, dependency("load product", err)
	}

	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := s.Repo.AddToCart(ctx, item); err != nil {
		return nil, dependency("add to cart", err)
	}
	return item, nil
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uint, quantity int) (*models.CartItem, error) {
	if itemID == 0 {
		return nil, validation("item id must be positive")
	}
	if quantity <= 0 {
		return nil, validation("quantity must be more than zero")
	}
	if s.EnforceOwnership && userID == 0 {
		return nil, unauthorized("authentication required")
	}

	item, err := s.Repo.UpdateCartItem(ctx, itemID, s.owner(userID), quantity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("cart item not found")
		}
		return nil, dependency("update cart item", err)
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) error {
	if itemID == 0 {
		return validation("item id must be positive")
	}
	if s.EnforceOwnership && userID == 0 {
		return unauthorized("authentication required")
	}
	if err := s.Repo.DeleteCartItem(ctx, itemID, s.owner(userID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("cart item not found")
		}
		return dependency("delete cart item", err)
	}
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID uint) error {
	if userID == 0 {
		return unauthorized("authentication required")
	}
	if err := s.Repo.ClearCart(ctx, userID); err != nil {
		return dependency("clear cart", err)
	}
	return nil
}

func (s *CartService) owner(userID uint) uint {
	if s.EnforceOwnership {
		return userID
	}
	return 0
}
