package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
)

// EnsureProfile returns the user's profile, inserting defaults when none exists.
func (r *GormRepo) EnsureProfile(ctx context.Context, defaults models.Profile) (*models.Profile, error) {
	var profile models.Profile
	err := r.DB.WithContext(ctx).
		Where(models.Profile{UserID: defaults.UserID}).
		Attrs(defaults).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *GormRepo) ProfileByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *GormRepo) UpdateProfile(ctx context.Context, userID uint, fields map[string]any) (*models.Profile, error) {
	if len(fields) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return r.ProfileByUserID(ctx, userID)
}
