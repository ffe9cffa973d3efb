package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type CommentStats struct {
	TotalComments int     `json:"totalComments"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int     `json:"ratingCount"`
}

type CommentService struct {
	Repo *repo.GormRepo
}

func (s *CommentService) GetComments(ctx context.Context, productID uint) ([]models.Comment, error) {
	if productID == 0 {
		return nil, validation("product id must be positive")
	}
	comments, err := s.Repo.CommentsByProduct(ctx, productID)
	if err != nil {
		return nil, dependency("load comments", err)
	}
	return comments, nil
}

func (s *CommentService) GetStats(ctx context.Context, productID uint) (*CommentStats, error) {
	comments, err := s.GetComments(ctx, productID)
	if err != nil {
		return nil, err
	}
	return ComputeStats(comments), nil
}

// ComputeStats averages the non-null ratings and rounds to one decimal.
func ComputeStats(comments []models.Comment) *CommentStats {
	stats := &CommentStats{TotalComments: len(comments)}
	sum := 0
	for _, c := range comments {
		if c.Rating == nil {
			continue
		}
		sum += *c.Rating
		stats.RatingCount++
	}
	if stats.RatingCount > 0 {
		avg := float64(sum) / float64(stats.RatingCount)
		stats.AverageRating = math.Round(avg*10) / 10
	}
	return stats
}

func (s *CommentService) AddComment(ctx context.Context, productID, userID uint, text string, rating *int) (*models.Comment, error) {
	if userID == 0 {
		return nil, unauthorized("authentication required")
	}
	if productID == 0 {
		return nil, validation("product id must be positive")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validation("comment text is required")
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, validation("rating must be between 1 and 5")
	}

	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized("user no longer exists")
		}
		return nil, dependency("load user", err)
	}
	if _, err := s.Repo.GetProduct(ctx, productID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product not found")
		}
		return nil, dependency("load product", err)
	}

	displayName := user.Username
	if p, err := s.Repo.ProfileByUserID(ctx, userID); err == nil && strings.TrimSpace(p.FullName) != "" {
		displayName = p.FullName
	}

	c := &models.Comment{
		ProductID: productID,
		UserID:    userID,
		UserName:  displayName,
		UserEmail: user.Email,
		Text:      text,
		Rating:    rating,
	}
	if err := s.Repo.CreateComment(ctx, c); err != nil {
		return nil, dependency("create comment", err)
	}
	return c, nil
}

// DeleteComment reports false when the comment is missing or owned by someone else.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID uint) (bool, error) {
	c, err := s.Repo.CommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, dependency("load comment", err)
	}
	if c.UserID != userID {
		return false, nil
	}
	if err := s.Repo.DeleteComment(ctx, commentID); err != nil {
		return false, dependency("delete comment", err)
	}
	return true, nil
}
