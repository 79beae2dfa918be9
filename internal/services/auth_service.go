// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/ideamarket-backend/internal/apperrors"
	"github.com/javajoker/ideamarket-backend/internal/config"
	"github.com/javajoker/ideamarket-backend/internal/database"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/models"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer Mailer
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,password"`
	DisplayName string `json:"display_name" validate:"omitempty,display_name"`
}

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config, mailer Mailer) *AuthService {
	return &AuthService{
		db:     db,
		cfg:    cfg,
		mailer: mailer,
	}
}

func (s *AuthService) SignUp(ctx context.Context, req *SignUpRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", req.Email).Count(&existing).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "check existing user", err)
	}
	if existing > 0 {
		return nil, apperrors.Conflict(i18n.KeyAuthUserExists, "user with this email already exists")
	}

	user := &models.User{
		Email:       req.Email,
		DisplayName: req.DisplayName,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "hash password", err)
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.Conflict(i18n.KeyAuthUserExists, "user with this email already exists")
		}
		return nil, apperrors.Transient(i18n.KeyTransientError, "create user", err)
	}

	logrus.WithField("user_id", user.ID).Info("User signed up")
	return s.issueTokens(user)
}

func (s *AuthService) SignIn(ctx context.Context, req *SignInRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.CheckPassword(req.Password) != nil {
		return nil, apperrors.Unauthenticated(i18n.KeyAuthInvalidCredentials, "invalid email or password")
	}

	s.touchLastLogin(ctx, user)
	return s.issueTokens(user)
}

// SendOneTimeCode mails a sign-in code to an existing account. An unknown
// address gets the same response and nothing is sent.
func (s *AuthService) SendOneTimeCode(ctx context.Context, req *SendCodeRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := validateRequest(req); err != nil {
		return err
	}

	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if user == nil {
		logrus.Debug("One-time code requested for unknown email")
		return nil
	}

	code, err := utils.GenerateNumericCode(s.cfg.Auth.OTPLength)
	if err != nil {
		return apperrors.Transient(i18n.KeyTransientError, "generate code", err)
	}

	otp := &models.OneTimeCode{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.cfg.Auth.OTPTTL),
	}
	if err := otp.SetCode(code); err != nil {
		return apperrors.Transient(i18n.KeyTransientError, "hash code", err)
	}
	if err := s.db.WithContext(ctx).Create(otp).Error; err != nil {
		return apperrors.Transient(i18n.KeyTransientError, "store code", err)
	}

	if err := s.mailer.SendOneTimeCode(ctx, user.Email, code); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to send one-time code")
		return apperrors.Transient(i18n.KeyTransientError, "send code", err)
	}
	return nil
}

// VerifyOneTimeCode checks the newest live code for the account and consumes
// it on success.
func (s *AuthService) VerifyOneTimeCode(ctx context.Context, req *VerifyCodeRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	invalid := apperrors.Unauthenticated(i18n.KeyAuthCodeInvalid, "invalid or expired code")

	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, invalid
	}

	now := time.Now()
	var codes []models.OneTimeCode
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND consumed_at IS NULL AND expires_at > ?", user.ID, now).
		Order("created_at DESC").Limit(1).
		Find(&codes).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "load code", err)
	}
	if len(codes) == 0 {
		return nil, invalid
	}
	if !codes[0].Matches(req.Code) {
		s.recordFailedAttempt(ctx, &codes[0], now)
		return nil, invalid
	}

	consumed := false
	err = database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		// Consume with a guard so one code cannot sign in twice.
		res := tx.Model(&models.OneTimeCode{}).
			Where("id = ? AND consumed_at IS NULL", codes[0].ID).
			Update("consumed_at", now)
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		consumed = true

		if user.EmailVerifiedAt == nil {
			return tx.Model(user).Update("email_verified_at", now).Error
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "consume code", err)
	}
	if !consumed {
		return nil, invalid
	}
	if user.EmailVerifiedAt == nil {
		user.EmailVerifiedAt = &now
	}

	s.touchLastLogin(ctx, user)
	return s.issueTokens(user)
}

// recordFailedAttempt counts a wrong guess and consumes the code once
// MaxOneTimeCodeAttempts is reached.
func (s *AuthService) recordFailedAttempt(ctx context.Context, otp *models.OneTimeCode, now time.Time) {
	err := s.db.WithContext(ctx).Model(&models.OneTimeCode{}).
		Where("id = ? AND consumed_at IS NULL", otp.ID).
		Updates(map[string]interface{}{
			"failed_attempts": gorm.Expr("failed_attempts + 1"),
			"consumed_at":     gorm.Expr("CASE WHEN failed_attempts + 1 >= ? THEN ? ELSE consumed_at END", models.MaxOneTimeCodeAttempts, now),
		}).Error
	if err != nil {
		logrus.WithError(err).WithField("user_id", otp.UserID).Warn("Failed to record one-time code attempt")
	}
}

func (s *AuthService) Refresh(ctx context.Context, req *RefreshRequest) (*AuthResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	invalid := apperrors.Unauthenticated(i18n.KeyAuthRefreshInvalid, "invalid refresh token")

	subject, err := utils.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, invalid
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, invalid
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid
		}
		return nil, apperrors.Transient(i18n.KeyTransientError, "load user", err)
	}

	return s.issueTokens(&user)
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, apperrors.Unauthenticated(i18n.KeyAuthRequired, "not signed in")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthenticated(i18n.KeyAuthInvalidToken, "account no longer exists")
		}
		return nil, apperrors.Transient(i18n.KeyTransientError, "load user", err)
	}
	return &user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Email, user.EmailVerifiedAt != nil, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "generate access token", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "generate refresh token", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600, // Convert hours to seconds
	}, nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&users).Error; err != nil {
		return nil, apperrors.Transient(i18n.KeyTransientError, "load user", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (s *AuthService) touchLastLogin(ctx context.Context, user *models.User) {
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(user).Update("last_login_at", now).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRequest(req interface{}) error {
	if err := utils.ValidateStruct(req); err != nil {
		return apperrors.Validation(i18n.KeyValidationInvalid, err.Error()).WithData(utils.GetValidationErrors(err))
	}
	return nil
}
