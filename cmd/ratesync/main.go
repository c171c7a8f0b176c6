package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/zikomart/pricing-engine/internal/currency"
	"github.com/zikomart/pricing-engine/pkg/config"
	"github.com/zikomart/pricing-engine/pkg/db"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	"github.com/zikomart/pricing-engine/pkg/logger"
	zmredis "github.com/zikomart/pricing-engine/pkg/redis"
)

// rateFile is the JSON document an operator feeds the sync:
// {"rates": [{"from": "USD", "to": "MWK", "rate": "4000"}]}
type rateFile struct {
	Rates []rateEntry `json:"rates"`
}

type rateEntry struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "ratesync"})

	_ = godotenv.Load()

	file := flag.String("file", "rates.json", "path to the rates JSON file")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "ratesync",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"file": *file,
	})

	entries, err := loadRates(*file)
	requireResource(ctx, logg, "rates file", err)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	redisClient, err := zmredis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	repo := currency.NewRepository(dbClient.DB())
	synced := 0
	var syncErr error
	for _, entry := range entries {
		rate := &models.ExchangeRate{
			FromCurrency: entry.From,
			ToCurrency:   entry.To,
			Rate:         entry.Rate,
		}
		if _, err := repo.UpsertRate(ctx, rate); err != nil {
			syncErr = multierr.Append(syncErr, fmt.Errorf("upsert %s->%s: %w", entry.From, entry.To, err))
			continue
		}
		synced++
	}

	// Clear every cached pair, not just the synced ones: a new edge can
	// change pivot results for pairs that never appear in the file.
	if err := redisClient.DeleteByPrefix(ctx, zmredis.RatePrefix()); err != nil {
		syncErr = multierr.Append(syncErr, fmt.Errorf("clear rate cache: %w", err))
	}

	syncErr = multierr.Append(syncErr, redisClient.Close())
	syncErr = multierr.Append(syncErr, dbClient.Close())

	if syncErr != nil {
		logg.Error(ctx, "rate sync finished with errors", syncErr)
		os.Exit(1)
	}
	logg.Info(ctx, fmt.Sprintf("synced %d exchange rates", synced))
}

func loadRates(path string) ([]rateEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rates file: %w", err)
	}
	var doc rateFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse rates file: %w", err)
	}
	if len(doc.Rates) == 0 {
		return nil, fmt.Errorf("rates file contains no rates")
	}
	for i, entry := range doc.Rates {
		from := strings.ToUpper(strings.TrimSpace(entry.From))
		to := strings.ToUpper(strings.TrimSpace(entry.To))
		if len(from) != 3 || len(to) != 3 {
			return nil, fmt.Errorf("entry %d: currency codes must be 3 letters", i)
		}
		if from == to {
			return nil, fmt.Errorf("entry %d: identity pair %s->%s", i, from, to)
		}
		if !entry.Rate.IsPositive() {
			return nil, fmt.Errorf("entry %d: rate must be positive", i)
		}
		doc.Rates[i].From = from
		doc.Rates[i].To = to
	}
	return doc.Rates, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
