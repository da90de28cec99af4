package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/huayu-app/huayu-backend/internal/apperr"
	"github.com/huayu-app/huayu-backend/internal/logger"
	"github.com/huayu-app/huayu-backend/internal/repos"
	"github.com/huayu-app/huayu-backend/internal/requestdata"
	"github.com/huayu-app/huayu-backend/internal/types"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthService interface {
	Register(ctx context.Context, email, password, displayName string) (*types.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context) (*TokenPair, error)
	Logout(ctx context.Context) error
	// SetContextFromToken validates an access token and returns a context
	// carrying the caller's identity, tier and admin flag.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := baseLog.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) Register(ctx context.Context, email, password, displayName string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &types.User{
		ID:               uuid.New(),
		Email:            email,
		Password:         string(hashed),
		DisplayName:      strings.TrimSpace(displayName),
		SubscriptionTier: types.TierFree,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
		as.log.Error("Register failed", "error", err, "email", email)
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return nil, fmt.Errorf("load user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, apperr.Validation("invalid email or password")
	}
	user := users[0]

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.Validation("invalid email or password")
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{user.ID}); err != nil {
			return fmt.Errorf("clear previous refresh tokens: %w", err)
		}
		p, err := as.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		as.log.Error("Login failed", "error", err, "user_id", user.ID)
		return nil, err
	}
	return pair, nil
}

func (as *authService) Refresh(ctx context.Context) (*TokenPair, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.RefreshToken == "" {
		return nil, apperr.Validation("refresh token is required")
	}

	tokens, err := as.userTokenRepo.GetByRefreshTokens(ctx, nil, []string{rd.RefreshToken})
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if len(tokens) == 0 || tokens[0].ExpiresAt.Before(time.Now()) {
		return nil, apperr.Forbidden("refresh token invalid or expired")
	}
	stored := tokens[0]

	users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{stored.UserID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apperr.NotFound("user")
	}
	user := users[0]

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{stored.ID}); err != nil {
			return fmt.Errorf("rotate refresh token: %w", err)
		}
		p, err := as.issueTokens(ctx, tx, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		as.log.Error("Refresh failed", "error", err, "user_id", user.ID)
		return nil, err
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return fmt.Errorf("request data not set in context")
	}
	if err := as.userTokenRepo.FullDeleteByUserIDs(ctx, nil, []uuid.UUID{rd.UserID}); err != nil {
		return fmt.Errorf("delete refresh tokens: %w", err)
	}
	return nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx, fmt.Errorf("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, fmt.Errorf("invalid token subject")
	}

	// Tier and admin flag are re-read from the store so a mid-session
	// upgrade takes effect without reissuing the token.
	users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return ctx, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return ctx, fmt.Errorf("user no longer exists")
	}
	user := users[0]

	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      user.ID,
		Tier:        user.SubscriptionTier,
		IsAdmin:     user.IsAdmin,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (*TokenPair, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"tier": user.SubscriptionTier,
		"iat":  now.Unix(),
		"exp":  now.Add(as.accessTTL).Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken := uuid.NewString() + uuid.NewString()
	stored := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(as.refreshTTL),
		CreatedAt:    now,
	}
	if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{stored}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
