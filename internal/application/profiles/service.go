package profiles

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// Service holds DB and Redis for profile operations.
type Service struct {
	DB  *gorm.DB
	Rdb *redis.Client
}

// CreateProfileInput is the public registration payload.
type CreateProfileInput struct {
	Fullname      string  `json:"fullname" validate:"required,fullname,max=100"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,password"`
	Role          string  `json:"role" validate:"required,oneof=creator investor"`
	WalletAddress *string `json:"wallet_address" validate:"omitempty,ethaddr"`
	GithubLink    *string `json:"github_link" validate:"omitempty,http_url"`
	LinkedinLink  *string `json:"linkedin_link" validate:"omitempty,http_url"`
	ContactNumber *string `json:"contact_number" validate:"omitempty,max=32"`
	CalendlyLink  *string `json:"calendly_link" validate:"omitempty,http_url"`
	PhotoURL      *string `json:"photo_url" validate:"omitempty,http_url"`
}

// UpdateProfileInput lists the fields a user may change on their own profile.
// Email, role and password are fixed after registration.
type UpdateProfileInput struct {
	Fullname      *string `json:"fullname" validate:"omitempty,fullname,max=100"`
	WalletAddress *string `json:"wallet_address" validate:"omitempty,ethaddr"`
	GithubLink    *string `json:"github_link" validate:"omitempty,http_url"`
	LinkedinLink  *string `json:"linkedin_link" validate:"omitempty,http_url"`
	ContactNumber *string `json:"contact_number" validate:"omitempty,max=32"`
	CalendlyLink  *string `json:"calendly_link" validate:"omitempty,http_url"`
	PhotoURL      *string `json:"photo_url" validate:"omitempty,http_url"`
}

// CreateProfile registers a creator or investor.
func (s *Service) CreateProfile(ctx context.Context, in CreateProfileInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var existing domain.User
	err := s.DB.WithContext(ctx).Where("email = ?", in.Email).First(&existing).Error
	if err == nil {
		return nil, domain.Validationf("Email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Fullname:      titleCaseAndNormalize(in.Fullname),
		Email:         in.Email,
		PasswordHash:  string(hash),
		Role:          in.Role,
		WalletAddress: trimmed(in.WalletAddress),
		GithubLink:    trimmed(in.GithubLink),
		LinkedinLink:  trimmed(in.LinkedinLink),
		ContactNumber: trimmed(in.ContactNumber),
		CalendlyLink:  trimmed(in.CalendlyLink),
		PhotoURL:      trimmed(in.PhotoURL),
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateProfile applies in to the profile of userID.
// An empty string clears an optional field.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*domain.User, error) {
	upd := map[string]interface{}{}
	clearEmpty(upd, "wallet_address", &in.WalletAddress)
	clearEmpty(upd, "github_link", &in.GithubLink)
	clearEmpty(upd, "linkedin_link", &in.LinkedinLink)
	clearEmpty(upd, "contact_number", &in.ContactNumber)
	clearEmpty(upd, "calendly_link", &in.CalendlyLink)
	clearEmpty(upd, "photo_url", &in.PhotoURL)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Fullname != nil {
		upd["fullname"] = titleCaseAndNormalize(*in.Fullname)
	}
	setOptional(upd, "wallet_address", in.WalletAddress)
	setOptional(upd, "github_link", in.GithubLink)
	setOptional(upd, "linkedin_link", in.LinkedinLink)
	setOptional(upd, "contact_number", in.ContactNumber)
	setOptional(upd, "calendly_link", in.CalendlyLink)
	setOptional(upd, "photo_url", in.PhotoURL)
	if len(upd) == 0 {
		return nil, domain.Validationf("No valid update fields provided")
	}

	result := s.DB.WithContext(ctx).Model(&domain.User{}).Where("user_id = ?", userID).Updates(upd)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.NotFoundf("User not found")
	}
	return s.ViewProfile(ctx, userID)
}

// ViewProfile returns the profile of userID.
func (s *Service) ViewProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("User not found")
		}
		return nil, err
	}
	return &u, nil
}

// FindByID satisfies the lookups other services need without exposing the DB.
func (s *Service) FindByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.ViewProfile(ctx, userID)
}

// clearEmpty turns a blank value into a NULL update and removes it from validation.
func clearEmpty(upd map[string]interface{}, column string, v **string) {
	if *v != nil && strings.TrimSpace(**v) == "" {
		upd[column] = nil
		*v = nil
	}
}

func setOptional(upd map[string]interface{}, column string, v *string) {
	if v != nil {
		upd[column] = strings.TrimSpace(*v)
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func titleCaseAndNormalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	capitalize := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !capitalize {
				b.WriteRune(' ')
				capitalize = true
			}
			continue
		}
		if capitalize {
			b.WriteRune(unicode.ToUpper(r))
			capitalize = false
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
