package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/tasknote/internal/domain/entities"
	"github.com/taskmaster/tasknote/internal/infrastructure/config"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

// Claims represents the JWT claims issued by the development server
type Claims struct {
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

// AuthService handles account registration and token issuance for the development server
type AuthService struct {
	userRepo  ports.UserRepository
	jwtConfig config.JWTConfig
	logger    *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, jwtConfig config.JWTConfig, log *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtConfig: jwtConfig,
		logger:    log.WithComponent("auth"),
	}
}

// Register creates a new account
func (s *AuthService) Register(ctx context.Context, nickname, password string) (*entities.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || password == "" {
		return nil, fmt.Errorf("nickname and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Nickname:     nickname,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("User registered", "user_id", user.ID, "nickname", user.Nickname)
	user.PasswordHash = ""
	return user, nil
}

// Login verifies the credentials and returns a signed access token
func (s *AuthService) Login(ctx context.Context, nickname, password string) (string, error) {
	user, err := s.userRepo.GetByNickname(ctx, strings.TrimSpace(nickname))
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			s.logger.LogSecurityEvent("login_unknown_user", "", "", map[string]interface{}{"nickname": nickname})
			return "", entities.ErrUnauthorized
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.LogSecurityEvent("login_bad_password", user.ID, "", nil)
		return "", entities.ErrUnauthorized
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logger.Infow("User logged in", "user_id", user.ID)
	return token, nil
}

// ValidateToken parses and verifies an access token
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, entities.ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(user *entities.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Nickname: user.Nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.jwtConfig.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}
