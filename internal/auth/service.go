// Package auth provides account registration, password login and JWT
// session handling. One account exists per church; the church name on the
// token scopes every downstream query.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "church-attendance-backend/internal/errors"
	"church-attendance-backend/internal/logger"
	"church-attendance-backend/internal/models"
	"church-attendance-backend/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Service provides authentication functionality
type Service struct {
	store       store.Store
	jwtSecret   []byte
	tokenExpiry time.Duration
	log         *logger.Logger
}

// NewService creates a new authentication service
func NewService(st store.Store, jwtSecret string, tokenExpiry time.Duration) *Service {
	if tokenExpiry <= 0 {
		tokenExpiry = 72 * time.Hour
	}
	return &Service{
		store:       st,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: tokenExpiry,
		log:         logger.New().WithField("service", "auth"),
	}
}

// Claims represents JWT token claims
type Claims struct {
	UID    string      `json:"uid"`
	Email  string      `json:"email" example:"pastor@gracechapel.org"`
	Church string      `json:"church" example:"Grace Chapel"`
	Role   models.Role `json:"role" example:"admin"`
	jwt.RegisteredClaims
}

// RegisterRequest represents the request to create a church account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Church   string `json:"church" binding:"required"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest represents a password login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents an issued session
type TokenResponse struct {
	AccessToken string  `json:"accessToken"`
	TokenType   string  `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64   `json:"expiresIn" example:"259200"`
	Profile     Profile `json:"profile"`
}

// Profile represents the public view of a user account
type Profile struct {
	UID     string      `json:"uid"`
	Email   string      `json:"email"`
	Church  string      `json:"church"`
	Role    models.Role `json:"role"`
	Phone   string      `json:"phone,omitempty"`
	Address string      `json:"address,omitempty"`
}

// UpdateProfileRequest represents an edit of the account's contact fields
type UpdateProfileRequest struct {
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Register creates a new church account. Each church may hold exactly one
// account, and each email may be used once.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	church := strings.TrimSpace(req.Church)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("email", "a valid email is required")
	}
	if church == "" {
		return nil, apperrors.NewValidationError("church", "church name is required")
	}
	if len(req.Password) < 6 {
		return nil, apperrors.NewValidationError("password", "password must be at least 6 characters")
	}

	role := models.RoleAdmin
	switch models.Role(req.Role) {
	case "", models.RoleAdmin:
	case models.RoleUsher:
		role = models.RoleUsher
	default:
		return nil, apperrors.NewValidationError("role", "role must be admin or usher")
	}

	existing, err := s.store.QueryByField(ctx, store.UsersPath, "church", church)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("check church account", err)
	}
	if len(existing) > 0 {
		return nil, apperrors.ErrChurchExists
	}
	byEmail, err := s.store.QueryByField(ctx, store.UsersPath, "email", email)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("check email", err)
	}
	if len(byEmail) > 0 {
		return nil, &apperrors.AlreadyExistsError{Entity: "account", Context: "for this email"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Church:       church,
		Role:         role,
		PasswordHash: string(hash),
	}
	uid, err := s.store.Push(ctx, store.UsersPath, user)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("create account", err)
	}
	user.UID = uid

	s.log.WithField("church", church).Info("church account registered")
	return s.issue(user)
}

// Login verifies credentials and issues a session token
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issue(user)
}

// GetProfile returns the account record for a uid
func (s *Service) GetProfile(ctx context.Context, uid string) (*Profile, error) {
	user, err := s.userByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return profileOf(user), nil
}

// UpdateProfile edits the account's contact fields
func (s *Service) UpdateProfile(ctx context.Context, uid string, req *UpdateProfileRequest) (*Profile, error) {
	user, err := s.userByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		store.UserPath(uid) + "/phone":   req.Phone,
		store.UserPath(uid) + "/address": req.Address,
	}
	if err := s.store.Update(ctx, updates); err != nil {
		return nil, apperrors.NewStoreUnavailableError("update profile", err)
	}

	user.Phone = req.Phone
	user.Address = req.Address
	return profileOf(user), nil
}

// ValidateJWT validates and parses a session token
func (s *Service) ValidateJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) issue(user *models.User) (*TokenResponse, error) {
	now := time.Now()
	claims := &Claims{
		UID:    user.UID,
		Email:  user.Email,
		Church: user.Church,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "church-attendance-backend",
			Subject:   user.UID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenExpiry.Seconds()),
		Profile:     *profileOf(user),
	}, nil
}

func (s *Service) userByEmail(ctx context.Context, email string) (*models.User, error) {
	matches, err := s.store.QueryByField(ctx, store.UsersPath, "email", email)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("look up account", err)
	}
	for uid, raw := range matches {
		return decodeUser(uid, raw)
	}
	return nil, nil
}

func (s *Service) userByUID(ctx context.Context, uid string) (*models.User, error) {
	raw, err := s.store.Get(ctx, store.UserPath(uid))
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("load account", err)
	}
	if raw == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return decodeUser(uid, raw)
}

func decodeUser(uid string, raw json.RawMessage) (*models.User, error) {
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decoding user %s: %w", uid, err)
	}
	user.UID = uid
	return &user, nil
}

func profileOf(user *models.User) *Profile {
	return &Profile{
		UID:     user.UID,
		Email:   user.Email,
		Church:  user.Church,
		Role:    user.Role,
		Phone:   user.Phone,
		Address: user.Address,
	}
}
