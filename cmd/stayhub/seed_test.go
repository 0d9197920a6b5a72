package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stayhub/internal/app/services/auth"
	"stayhub/internal/app/services/listings"
	domainlistings "stayhub/internal/domain/listings"
	"stayhub/internal/infra/security"
	"stayhub/internal/infra/storage/memory"
)

func TestSeedDemoDataIdempotent(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	authSvc := &auth.Service{
		Users:      factory.UsersRepo,
		Sessions:   memory.NewSessionStore(),
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}
	listingSvc := &listings.Service{UoW: factory}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, seedDemoData(ctx, logger, authSvc, listingSvc, factory.UsersRepo, "ETB"))

	seeded, err := listingSvc.Search(ctx, domainlistings.SearchParams{})
	require.NoError(t, err)
	require.Len(t, seeded, 5)

	// a second run reuses the accounts and adds nothing
	require.NoError(t, seedDemoData(ctx, logger, authSvc, listingSvc, factory.UsersRepo, "ETB"))

	again, err := listingSvc.Search(ctx, domainlistings.SearchParams{})
	require.NoError(t, err)
	require.Len(t, again, 5)

	// seeded accounts are usable
	_, err = authSvc.Login(ctx, auth.LoginParams{Email: "dawit@stayhub.local", Password: demoPassword})
	require.NoError(t, err)
}
