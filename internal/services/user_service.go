// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/ideamarket-backend/internal/apperrors"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/models"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

type UserService struct {
	db *gorm.DB
}

type UpdateDisplayNameRequest struct {
	DisplayName string `json:"display_name" validate:"required,display_name"`
}

type TermsAgreementRequest struct {
	Agreed bool `json:"agreed"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(i18n.KeyUserNotFound, "user not found")
		}
		return nil, apperrors.Transient(i18n.KeyTransientError, "load user", err)
	}
	return &user, nil
}

// Profile returns the public profile of id as seen by viewer. The email is
// masked unless viewer is the profile owner.
func (s *UserService) Profile(ctx context.Context, id string, viewer uuid.UUID) (models.PublicProfile, error) {
	if !utils.IsValidIdentifier(id) {
		return models.PublicProfile{}, apperrors.NotFound(i18n.KeyUserNotFound, "user not found")
	}

	user, err := s.GetUserByID(ctx, uuid.MustParse(id))
	if err != nil {
		return models.PublicProfile{}, err
	}
	return utils.FilterSensitive(user.Profile(), identityOf(viewer)), nil
}

// Profiles loads public profiles for ids in one query, keyed by id. Missing
// users are simply absent from the map.
func (s *UserService) Profiles(ctx context.Context, ids []uuid.UUID, viewer uuid.UUID) (map[uuid.UUID]models.PublicProfile, error) {
	profiles := make(map[uuid.UUID]models.PublicProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", uniqueIDs(ids)).Find(&users).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "load profiles", err)
	}

	for _, user := range users {
		profiles[user.ID] = utils.FilterSensitive(user.Profile(), identityOf(viewer))
	}
	return profiles, nil
}

// DisplayName returns the stored display name, the local part of the email
// when the name is empty, or the localized fallback.
func (s *UserService) DisplayName(ctx context.Context, userID uuid.UUID, lang string) string {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "email", "display_name").
		First(&user, "id = ?", userID).Error; err != nil {
		return i18n.T(lang, i18n.KeyUserFallbackName)
	}
	return displayNameOf(&user, lang)
}

func (s *UserService) UpdateDisplayName(ctx context.Context, userID uuid.UUID, req *UpdateDisplayNameRequest) (*models.User, error) {
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(user).Update("display_name", req.DisplayName).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "update display name", err)
	}
	user.DisplayName = req.DisplayName
	return user, nil
}

// SaveTermsAgreement upserts the caller's single agreement row.
func (s *UserService) SaveTermsAgreement(ctx context.Context, userID uuid.UUID, agreed bool) (*models.TermsAgreement, error) {
	agreement := &models.TermsAgreement{UserID: userID, Agreed: agreed}
	if agreed {
		now := time.Now()
		agreement.AgreedAt = &now
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"agreed", "agreed_at", "updated_at"}),
	}).Create(agreement).Error
	if err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "save terms agreement", err)
	}
	return agreement, nil
}

func (s *UserService) HasAgreedToTerms(ctx context.Context, userID uuid.UUID) (bool, error) {
	var agreements []models.TermsAgreement
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&agreements).Error; err != nil {
		return false, apperrors.Transient(i18n.KeyTransientError, "load terms agreement", err)
	}
	return len(agreements) == 1 && agreements[0].Agreed, nil
}

func displayNameOf(user *models.User, lang string) string {
	if name := strings.TrimSpace(user.DisplayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(user.Email, "@"); ok && local != "" {
		return local
	}
	return i18n.T(lang, i18n.KeyUserFallbackName)
}

func identityOf(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
