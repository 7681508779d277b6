package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	apperrors "github.com/yanqian/adlens/pkg/errors"
)

const googleIssuerURL = "https://accounts.google.com"

type googleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
}

func (s *service) GoogleAuthURL(_ context.Context, state, codeChallenge string) (string, error) {
	cfg, err := s.googleOAuthConfig()
	if err != nil {
		return "", err
	}
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("access_type", "online"),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}
	return cfg.AuthCodeURL(state, opts...), nil
}

func (s *service) GoogleCallback(ctx context.Context, code, codeVerifier string) (LoginResponse, error) {
	cfg, err := s.googleOAuthConfig()
	if err != nil {
		return LoginResponse{}, err
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(codeVerifier) == "" {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "missing oauth code or verifier", nil)
	}
	token, err := cfg.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("oauth_exchange_failed", "failed to exchange oauth code", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return LoginResponse{}, apperrors.Wrap("oauth_exchange_failed", "missing id_token in oauth response", nil)
	}
	claims, err := s.verifyGoogleIDToken(ctx, rawIDToken)
	if err != nil {
		return LoginResponse{}, err
	}
	if !claims.EmailVerified {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "google account email not verified", nil)
	}
	email, err := normalizeEmail(claims.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "invalid email address", err)
	}

	user, found, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to fetch user", err)
	}
	if found {
		return s.buildLoginResponse(user)
	}

	nickname := googleNickname(claims)
	passwordHash, err := hashRandomPassword()
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to generate password hash", err)
	}
	user, err = s.repo.Create(ctx, email, nickname, passwordHash)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			// Registered concurrently; sign the existing account in.
			user, found, err = s.repo.GetByEmail(ctx, email)
			if err != nil || !found {
				return LoginResponse{}, apperrors.Wrap("auth_error", "failed to fetch user", err)
			}
			return s.buildLoginResponse(user)
		}
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to create user", err)
	}
	return s.buildLoginResponse(user)
}

func (s *service) googleOAuthConfig() (*oauth2.Config, error) {
	googleCfg := s.cfg.Google
	if !googleCfg.Enabled() {
		return nil, apperrors.Wrap("auth_not_configured", "google oauth is not configured", nil)
	}
	return &oauth2.Config{
		ClientID:     googleCfg.ClientID,
		ClientSecret: googleCfg.ClientSecret,
		RedirectURL:  googleCfg.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}, nil
}

func (s *service) verifyGoogleIDToken(ctx context.Context, rawToken string) (googleClaims, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuerURL)
	if err != nil {
		return googleClaims{}, apperrors.Wrap("auth_error", "failed to initialize oidc provider", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: s.cfg.Google.ClientID})
	idToken, err := verifier.Verify(ctx, rawToken)
	if err != nil {
		return googleClaims{}, apperrors.Wrap("invalid_token", "failed to verify id token", err)
	}
	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return googleClaims{}, apperrors.Wrap("invalid_token", "failed to parse id token claims", err)
	}
	if claims.Email == "" {
		return googleClaims{}, apperrors.Wrap("invalid_token", "missing email in id token", nil)
	}
	return claims, nil
}

func googleNickname(claims googleClaims) string {
	candidate := strings.TrimSpace(claims.GivenName)
	if candidate == "" {
		candidate = strings.TrimSpace(claims.Name)
	}
	if candidate == "" {
		candidate = strings.Split(claims.Email, "@")[0]
	}
	builder := strings.Builder{}
	count := 0
	for _, r := range candidate {
		if count >= 10 {
			break
		}
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' {
			builder.WriteRune(r)
			count++
		}
	}
	if name := builder.String(); name != "" {
		return name
	}
	return "User"
}

func hashRandomPassword() (string, error) {
	raw, err := randomString(32)
	if err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func randomString(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CodeChallengeFromVerifier computes the PKCE code challenge for a verifier.
func CodeChallengeFromVerifier(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// NewOAuthState returns a state, code verifier, and code challenge for PKCE.
func NewOAuthState() (state string, codeVerifier string, codeChallenge string, err error) {
	state, err = randomString(32)
	if err != nil {
		return "", "", "", err
	}
	codeVerifier, err = randomString(32)
	if err != nil {
		return "", "", "", err
	}
	codeChallenge = CodeChallengeFromVerifier(codeVerifier)
	return state, codeVerifier, codeChallenge, nil
}
