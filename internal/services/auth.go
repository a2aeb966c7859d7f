package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"github.com/careerbridge/careerbridge-backend/internal/pkg/apperr"
	"github.com/careerbridge/careerbridge-backend/internal/pkg/logger"
	"github.com/careerbridge/careerbridge-backend/internal/repos"
	"github.com/careerbridge/careerbridge-backend/internal/types"
)

// AuthService is glue around the user store: registration, login, and token
// resolution for the middleware. The progress core never depends on it.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*types.User, error)
	Login(ctx context.Context, email, password string) (string, *types.User, error)
	ParseToken(tokenString string) (uuid.UUID, error)
}

type authService struct {
	log       *logger.Logger
	userRepo  repos.UserRepo
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(log *logger.Logger, userRepo repos.UserRepo, jwtSecret string, accessTTL time.Duration) AuthService {
	return &authService{
		log:       log.With("service", "AuthService"),
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
	}
}

func (as *authService) Register(ctx context.Context, name, email, password string) (*types.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("name, email and password are required: %w", apperr.ErrInvalidArgument)
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("email already in use: %w", apperr.ErrInvalidArgument)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// New users start with the persisted default progress document so the
	// leaderboard and stream see a well-formed record from day one.
	rawProgress, err := json.Marshal(types.DefaultProgress())
	if err != nil {
		return nil, fmt.Errorf("encode default progress: %w", err)
	}

	user := &types.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Progress: datatypes.JSON(rawProgress),
	}
	if _, err := as.userRepo.Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, *types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("email and password are required: %w", apperr.ErrInvalidArgument)
	}

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
	})
	signed, err := token.SignedString(as.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, user, nil
}

func (as *authService) ParseToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("parse token: %w", apperr.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("bad token subject: %w", apperr.ErrUnauthorized)
	}
	return userID, nil
}
