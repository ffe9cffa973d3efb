package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/storage"
)

const birthdateLayout = "2006-01-02"

type ProfileView struct {
	Profile  *models.Profile
	Username string
}

type ProfilePatch struct {
	FullName  *string
	Bio       *string
	AvatarURL *string
	BannerURL *string
	// Birthdate is YYYY-MM-DD; an empty string clears it.
	Birthdate *string
}

type ProfileService struct {
	Repo    *repo.GormRepo
	Storage storage.Uploader
}

func (s *ProfileService) GetProfile(ctx context.Context, userID uint) (*ProfileView, error) {
	if userID == 0 {
		return nil, validation("user id must be positive")
	}
	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user not found")
		}
		return nil, dependency("load user", err)
	}
	p, err := s.Repo.EnsureProfile(ctx, DefaultProfile(user))
	if err != nil {
		return nil, dependency("load profile", err)
	}
	return &ProfileView{Profile: p, Username: user.Username}, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, patch ProfilePatch) (*ProfileView, error) {
	view, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*patch.FullName)
	}
	if patch.Bio != nil {
		fields["bio"] = strings.TrimSpace(*patch.Bio)
	}
	if patch.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*patch.AvatarURL)
	}
	if patch.BannerURL != nil {
		fields["banner_url"] = strings.TrimSpace(*patch.BannerURL)
	}
	if patch.Birthdate != nil {
		if *patch.Birthdate == "" {
			fields["birthdate"] = nil
		} else {
			d, err := time.Parse(birthdateLayout, *patch.Birthdate)
			if err != nil {
				return nil, validation("birthdate must be YYYY-MM-DD")
			}
			if d.After(time.Now()) {
				return nil, validation("birthdate cannot be in the future")
			}
			fields["birthdate"] = d
		}
	}

	p, err := s.Repo.UpdateProfile(ctx, userID, fields)
	if err != nil {
		return nil, dependency("update profile", err)
	}
	return &ProfileView{Profile: p, Username: view.Username}, nil
}

// UploadImage stores an avatar or banner and points the profile at it.
func (s *ProfileService) UploadImage(ctx context.Context, userID uint, kind, filename, contentType string, r io.Reader, size int64) (*ProfileView, error) {
	var column string
	switch kind {
	case "avatar":
		column = "avatar_url"
	case "banner":
		column = "banner_url"
	default:
		return nil, validation("image kind must be avatar or banner")
	}
	if err := checkImage(contentType, size); err != nil {
		return nil, err
	}
	if s.Storage == nil {
		return nil, &Error{Kind: ErrDependency, Msg: "file storage is not configured"}
	}

	view, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	u, err := s.Storage.Upload(ctx, kind+"s", filename, contentType, r, size)
	if err != nil {
		return nil, dependency("upload image", err)
	}
	p, err := s.Repo.UpdateProfile(ctx, userID, map[string]any{column: u})
	if err != nil {
		return nil, dependency("update profile", err)
	}
	return &ProfileView{Profile: p, Username: view.Username}, nil
}

const MaxImageBytes = 5 << 20

func checkImage(contentType string, size int64) error {
	if !strings.HasPrefix(contentType, "image/") {
		return validation("file must be an image")
	}
	if size <= 0 || size > MaxImageBytes {
		return validation("image must be between 1 byte and 5 MB")
	}
	return nil
}
