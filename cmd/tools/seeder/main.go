package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/db"
	"github.com/noah-isme/backend-pos/internal/migrations"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/tax"
	"github.com/noah-isme/backend-pos/internal/taxconfig"
)

type demoStore struct {
	ID     string
	Config tax.Configuration
}

func demoStores() []demoStore {
	pct := decimal.RequireFromString
	return []demoStore{
		{
			ID: "dubai-marina",
			Config: tax.Configuration{
				Country:        "AE",
				Enabled:        true,
				DefaultTaxRate: pct("5"),
				ServiceCharge: tax.Some(tax.ServiceCharge{
					Enabled:                 true,
					Rate:                    pct("10"),
					ApplyTaxOnServiceCharge: tax.Some(true),
				}),
				MunicipalityFee: tax.Some(tax.MunicipalityFee{Enabled: true, Rate: pct("7")}),
				CustomComponents: []tax.Component{
					{Name: "Tourism Dirham", Rate: pct("1")},
				},
			},
		},
		{
			ID: "mumbai-bandra",
			Config: tax.Configuration{
				Country:        "IN",
				Enabled:        true,
				DefaultTaxRate: pct("5"),
				ServiceCharge: tax.Some(tax.ServiceCharge{
					Enabled: true,
					Rate:    pct("10"),
				}),
			},
		},
		{
			ID: "kiosk-untaxed",
			Config: tax.Configuration{
				Country: "AE",
				Enabled: false,
			},
		},
	}
}

func main() {
	logger := obs.NewLogger("console", "info")
	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	if err := migrations.Up(dbURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, dbURL, "pos-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	store := taxconfig.PostgresStore{DB: pool}
	for _, demo := range demoStores() {
		if err := tax.ValidateConfiguration(demo.Config); err != nil {
			logger.Fatal().Err(err).Str("store_id", demo.ID).Msg("invalid demo configuration")
		}
		rec, err := store.Upsert(ctx, demo.ID, demo.Config, 0)
		if err != nil {
			logger.Fatal().Err(err).Str("store_id", demo.ID).Msg("seed tax config")
		}
		logger.Info().Str("store_id", rec.StoreID).Str("country", rec.Config.Country).Int64("version", rec.Version).Msg("seeded tax config")
	}
	logger.Info().Msg("seeding completed")
}
