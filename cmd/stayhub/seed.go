package main

import (
	"context"
	"errors"
	"log/slog"

	"stayhub/internal/app/services/auth"
	"stayhub/internal/app/services/listings"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

type seedListing struct {
	name        string
	description string
	location    string
	nightly     int64 // minor units
}

type seedAccount struct {
	email     string
	firstName string
	lastName  string
	phone     string
	listings  []seedListing
}

// demoAccounts is the dev fixture set: two hosts with listings and a guest
// for exercising bookings. All passwords are "stayhub-demo".
var demoAccounts = []seedAccount{
	{
		email: "hana@stayhub.local", firstName: "Hana", lastName: "Tesfaye", phone: "0911000001",
		listings: []seedListing{
			{"Lakeside Cabin", "Quiet two-bed cabin on the lake shore.", "Bahir Dar", 120000},
			{"Garden Studio", "Self-contained studio with a private garden.", "Bahir Dar", 85000},
		},
	},
	{
		email: "samuel@stayhub.local", firstName: "Samuel", lastName: "Girma", phone: "0911000002",
		listings: []seedListing{
			{"Bole Apartment", "Modern two-bedroom flat near the airport.", "Addis Ababa", 250000},
			{"Piassa Loft", "Bright loft in the old town.", "Addis Ababa", 180000},
			{"Entoto View Room", "Single room with a mountain view.", "Addis Ababa", 95000},
		},
	},
	{
		email: "dawit@stayhub.local", firstName: "Dawit", lastName: "Abebe", phone: "0911000003",
	},
}

const demoPassword = "stayhub-demo"

// seedDemoData registers the demo accounts and their listings. It is
// idempotent: accounts that already exist are reused and hosts that already
// have listings are left alone.
func seedDemoData(ctx context.Context, logger *slog.Logger, authSvc *auth.Service, listingSvc *listings.Service, users domainuser.Repository, currency string) error {
	for _, account := range demoAccounts {
		hostID, err := seedAccountID(ctx, authSvc, users, account)
		if err != nil {
			return err
		}
		if len(account.listings) == 0 {
			continue
		}
		existing, err := listingSvc.ByHost(ctx, hostID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}
		for _, l := range account.listings {
			if _, err := listingSvc.Create(ctx, listings.CreateParams{
				HostID:      hostID,
				Name:        l.name,
				Description: l.description,
				Location:    l.location,
				Nightly:     money.Must(l.nightly, currency),
			}); err != nil {
				return err
			}
		}
		logger.Info("demo listings seeded", "host", account.email, "listings", len(account.listings))
	}
	return nil
}

func seedAccountID(ctx context.Context, authSvc *auth.Service, users domainuser.Repository, account seedAccount) (domainuser.ID, error) {
	result, err := authSvc.Register(ctx, auth.RegisterParams{
		Email:     account.email,
		FirstName: account.firstName,
		LastName:  account.lastName,
		Phone:     account.phone,
		Password:  demoPassword,
	})
	if err == nil {
		return result.User.ID, nil
	}
	if !errors.Is(err, domainuser.ErrEmailAlreadyUsed) {
		return "", err
	}
	existing, err := users.ByEmail(ctx, account.email)
	if err != nil {
		return "", err
	}
	return existing.ID, nil
}
