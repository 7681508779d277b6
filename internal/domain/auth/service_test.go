package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService(repo Repository) Service {
	return NewService(Config{
		Secret:          "test-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, repo, newTestLogger())
}

func TestService_RegisterLoginAndRefresh(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	view, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "User@Example.com",
		Password: "pass1234",
		Nickname: "AdMaker",
	})
	require.NoError(t, err)
	require.Equal(t, "user@example.com", view.Email)
	require.Equal(t, "AdMaker", view.Nickname)
	require.NotZero(t, view.ID)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "user@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, view.Email, resp.User.Email)

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, view.ID, claims.UserID)
	require.Equal(t, view.Email, claims.Email)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)

	refreshed, err := svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.Token)
	require.Equal(t, resp.User.Email, refreshed.User.Email)
	require.Equal(t, "AdMaker", refreshed.User.Nickname)
}

func TestService_DuplicateEmail(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "user@example.com",
		Password: "pass1234",
		Nickname: "NickOne",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email:    "user@example.com",
		Password: "pass12345",
		Nickname: "NickTwo",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")
}

func TestService_RejectsWeakPassword(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	cases := []struct {
		name     string
		password string
	}{
		{name: "too short", password: "ab1"},
		{name: "no digits", password: "justletters"},
		{name: "no letters", password: "1234567890"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), RegisterRequest{
				Email:    "weak@example.com",
				Password: tc.password,
			})
			require.Error(t, err)
		})
	}
}

func TestService_LoginWrongPassword(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "user@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "user@example.com",
		Password: "wrong5678",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid email or password")

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "unknown@example.com",
		Password: "pass1234",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid email or password")
}

func TestService_RefreshRejectsAccessToken(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "user@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "user@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), resp.Token)
	require.Error(t, err)
	require.Contains(t, err.Error(), "token type mismatch")

	_, err = svc.ValidateToken(context.Background(), resp.RefreshToken)
	require.Error(t, err)
	require.Contains(t, err.Error(), "token type mismatch")
}

func TestService_ValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.ValidateToken(context.Background(), "")
	require.Error(t, err)

	_, err = svc.ValidateToken(context.Background(), "not.a.jwt")
	require.Error(t, err)
}

func TestService_DefaultsNicknameFromEmail(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	view, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "maria@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)
	require.Equal(t, "maria", view.Nickname)
}

func TestGoogleNickname(t *testing.T) {
	cases := []struct {
		name   string
		claims googleClaims
		want   string
	}{
		{name: "given name", claims: googleClaims{GivenName: "Maria", Name: "Maria Silva"}, want: "Maria"},
		{name: "full name fallback", claims: googleClaims{Name: "Jo Doe"}, want: "JoDoe"},
		{name: "email fallback", claims: googleClaims{Email: "sam42@example.com"}, want: "sam"},
		{name: "truncated", claims: googleClaims{GivenName: "Maximiliano Augusto"}, want: "Maximilian"},
		{name: "empty", claims: googleClaims{}, want: "User"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, googleNickname(tc.claims))
		})
	}
}

func TestCodeChallengeFromVerifier(t *testing.T) {
	state, verifier, challenge, err := NewOAuthState()
	require.NoError(t, err)
	require.NotEmpty(t, state)
	require.NotEmpty(t, verifier)
	require.Equal(t, CodeChallengeFromVerifier(verifier), challenge)
	require.NotEqual(t, verifier, challenge)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type memoryRepo struct {
	users map[int64]User
	seq   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]User)}
}

func (m *memoryRepo) Create(_ context.Context, email, nickname, passwordHash string) (User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return User{}, ErrEmailExists
		}
	}
	m.seq++
	user := User{
		ID:           m.seq,
		Email:        email,
		Nickname:     nickname,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryRepo) GetByEmail(_ context.Context, email string) (User, bool, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, true, nil
		}
	}
	return User{}, false, nil
}

func (m *memoryRepo) GetByID(_ context.Context, id int64) (User, bool, error) {
	user, ok := m.users[id]
	return user, ok, nil
}
