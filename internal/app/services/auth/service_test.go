package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainauth "stayhub/internal/domain/auth"
	domainuser "stayhub/internal/domain/user"
	"stayhub/internal/infra/security"
	"stayhub/internal/infra/storage/memory"
)

func newService() *Service {
	return &Service{
		Users:      memory.NewUserRepository(),
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{
		Email:     "  Guest@Example.COM ",
		FirstName: "Dawit",
		LastName:  "Abebe",
		Password:  "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, "guest@example.com", registered.User.Email)
	require.NotEmpty(t, registered.Token)
	require.NotEqual(t, "correct horse", registered.User.PasswordHash)

	resolved, err := svc.ResolveToken(ctx, registered.Token)
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, resolved.ID)

	loggedIn, err := svc.Login(ctx, LoginParams{Email: "guest@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, loggedIn.User.ID)
	require.NotEqual(t, registered.Token, loggedIn.Token)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{
		Email: "guest@example.com", FirstName: "Dawit", LastName: "Abebe", Password: "correct horse",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterParams{
		Email: "GUEST@example.com", FirstName: "Sara", LastName: "Bekele", Password: "battery staple",
	})
	require.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newService()

	_, err := svc.Register(context.Background(), RegisterParams{
		Email: "guest@example.com", FirstName: "Dawit", LastName: "Abebe", Password: "short",
	})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{
		Email: "guest@example.com", FirstName: "Dawit", LastName: "Abebe", Password: "correct horse",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginParams{Email: "guest@example.com", Password: "wrong horse"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginParams{Email: "nobody@example.com", Password: "correct horse"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterParams{
		Email: "guest@example.com", FirstName: "Dawit", LastName: "Abebe", Password: "correct horse",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, registered.Token))

	_, err = svc.ResolveToken(ctx, registered.Token)
	require.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}
