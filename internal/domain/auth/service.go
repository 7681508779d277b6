package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/yanqian/adlens/pkg/errors"
)

// Service exposes authentication workflows.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (UserView, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
	Profile(ctx context.Context, userID int64) (UserView, error)
	GoogleAuthURL(ctx context.Context, state, codeChallenge string) (string, error)
	GoogleCallback(ctx context.Context, code, codeVerifier string) (LoginResponse, error)
}

type service struct {
	cfg    Config
	repo   Repository
	logger *slog.Logger
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// NewService constructs a Service instance.
func NewService(cfg Config, repo Repository, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		repo:   repo,
		logger: logger.With("component", "auth.service"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (UserView, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return UserView{}, apperrors.Wrap("invalid_input", "invalid email address", err)
	}
	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		nickname = email[:strings.Index(email, "@")]
	}
	if err := validatePassword(req.Password); err != nil {
		return UserView{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserView{}, apperrors.Wrap("auth_error", "failed to hash password", err)
	}
	user, err := s.repo.Create(ctx, email, nickname, string(hashed))
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return UserView{}, apperrors.Wrap("email_exists", "email already registered", err)
		}
		return UserView{}, apperrors.Wrap("auth_error", "failed to create user", err)
	}
	return toView(user), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "invalid email address", err)
	}
	if strings.TrimSpace(req.Password) == "" {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "password cannot be empty", nil)
	}
	user, found, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to fetch user", err)
	}
	if !found {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid email or password", nil)
	}
	return s.buildLoginResponse(user)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (LoginResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return LoginResponse{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return LoginResponse{}, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	}
	user, found, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to load user", err)
	}
	if !found {
		return LoginResponse{}, apperrors.Wrap("user_not_found", "user not found", nil)
	}
	return s.buildLoginResponse(user)
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenTypeAccess {
		return Claims{}, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	}
	return claims, nil
}

func (s *service) Profile(ctx context.Context, userID int64) (UserView, error) {
	user, found, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return UserView{}, apperrors.Wrap("auth_error", "failed to load profile", err)
	}
	if !found {
		return UserView{}, apperrors.Wrap("user_not_found", "user not found", nil)
	}
	return toView(user), nil
}

func (s *service) buildLoginResponse(user User) (LoginResponse, error) {
	access, err := s.signToken(user, tokenTypeAccess, s.cfg.TokenTTL)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to sign token", err)
	}
	refresh, err := s.signToken(user, tokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to sign refresh token", err)
	}
	return LoginResponse{Token: access, RefreshToken: refresh, User: toView(user)}, nil
}

func (s *service) signToken(user User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"typ":   tokenType,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}

func (s *service) parseToken(raw string) (Claims, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, apperrors.Wrap("invalid_token", "invalid or expired token", err)
	}
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, apperrors.Wrap("invalid_token", "malformed claims", nil)
	}
	sub, _ := mapClaims["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID == 0 {
		return Claims{}, apperrors.Wrap("invalid_token", "malformed subject", err)
	}
	email, _ := mapClaims["email"].(string)
	tokenType, _ := mapClaims["typ"].(string)
	var expiresAt time.Time
	if exp, ok := mapClaims["exp"].(float64); ok {
		expiresAt = time.Unix(int64(exp), 0)
	}
	return Claims{UserID: userID, Email: email, TokenType: tokenType, ExpiresAt: expiresAt}, nil
}

func toView(user User) UserView {
	return UserView{
		ID:        user.ID,
		Email:     user.Email,
		Nickname:  user.Nickname,
		CreatedAt: user.CreatedAt,
	}
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", errors.New("malformed email")
	}
	return raw, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain letters and digits")
	}
	return nil
}
