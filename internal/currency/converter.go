package currency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/pkg/cache"
	"github.com/zikomart/pricing-engine/pkg/config"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	"github.com/zikomart/pricing-engine/pkg/enums"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
	"github.com/zikomart/pricing-engine/pkg/logger"
	"github.com/zikomart/pricing-engine/pkg/metrics"
	zmredis "github.com/zikomart/pricing-engine/pkg/redis"
	"github.com/zikomart/pricing-engine/pkg/types"
)

type rateStore interface {
	FindCurrency(ctx context.Context, code string) (*models.Currency, error)
	ListRatesAmong(ctx context.Context, codes []string) ([]models.ExchangeRate, error)
}

// Converter resolves exchange rates and renders amounts for display.
type Converter interface {
	ResolveRate(ctx context.Context, from, to string) (Resolution, error)
	Convert(ctx context.Context, amount types.Money, target string) (types.Money, Resolution, error)
	Format(ctx context.Context, amount types.Money) (string, error)
}

type converter struct {
	repo    rateStore
	cache   cache.Cache
	metrics *metrics.PricingMetrics
	logg    *logger.Logger
	pivot   string
	ttl     time.Duration
}

// NewConverter builds a converter pivoting through the configured default
// currency.
func NewConverter(repo rateStore, store cache.Cache, recorder *metrics.PricingMetrics, logg *logger.Logger, cfg config.PricingConfig) (Converter, error) {
	if repo == nil {
		return nil, fmt.Errorf("rate repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache required")
	}
	return &converter{
		repo:    repo,
		cache:   store,
		metrics: recorder,
		logg:    logg,
		pivot:   cfg.NormalizedDefaultCurrency(),
		ttl:     cfg.RateCacheTTL,
	}, nil
}

// ResolveRate resolves the pair through identity, direct, inverse, and pivot
// paths, falling back to a degraded identity rate. Only clean resolutions are
// cached so a late-arriving rate takes effect immediately.
func (c *converter) ResolveRate(ctx context.Context, from, to string) (Resolution, error) {
	from = types.NormalizeCurrency(from)
	to = types.NormalizeCurrency(to)
	if from == "" || to == "" {
		return Resolution{}, pkgerrors.New(pkgerrors.CodeValidation, "currency codes required")
	}
	if from == to {
		return Resolution{From: from, To: to, Rate: decimal.NewFromInt(1), Source: SourceIdentity}, nil
	}

	key := zmredis.RateKey(from, to)
	var cached Resolution
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.warn(ctx, "rate cache read failed", err)
	}
	if hit {
		c.metrics.IncCacheHit("rates")
		return cached, nil
	}
	c.metrics.IncCacheMiss("rates")

	rows, err := c.repo.ListRatesAmong(ctx, []string{from, to, c.pivot})
	if err != nil {
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load exchange rates")
	}
	resolution := NewRateGraph(rows).Resolve(from, to, c.pivot)
	if resolution.Degraded {
		c.metrics.IncDegraded("missing_rate")
		c.warn(ctx, fmt.Sprintf("no conversion path %s->%s, using identity rate", from, to), nil)
		return resolution, nil
	}
	if err := c.cache.Put(ctx, key, resolution, c.ttl); err != nil {
		c.warn(ctx, "rate cache write failed", err)
	}
	return resolution, nil
}

// Convert re-denominates the amount in the target currency, rounding to the
// target's configured decimal places.
func (c *converter) Convert(ctx context.Context, amount types.Money, target string) (types.Money, Resolution, error) {
	resolution, err := c.ResolveRate(ctx, amount.Currency, target)
	if err != nil {
		return types.Money{}, Resolution{}, err
	}
	converted := types.NewMoney(amount.Amount.Mul(resolution.Rate), target)
	converted = converted.Round(c.decimalPlaces(ctx, converted.Currency))
	return converted, resolution, nil
}

// Format renders the amount with the currency's decimal places and symbol
// position. Presentation only; it never feeds back into computation.
func (c *converter) Format(ctx context.Context, amount types.Money) (string, error) {
	meta, err := c.loadCurrency(ctx, amount.Currency)
	if err != nil {
		return "", err
	}
	if meta == nil {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), amount.Currency), nil
	}
	rendered := amount.StringFixed(meta.DecimalPlaces)
	if meta.SymbolPosition == enums.SymbolPositionAfter {
		return rendered + meta.Symbol, nil
	}
	return meta.Symbol + rendered, nil
}

func (c *converter) decimalPlaces(ctx context.Context, code string) int32 {
	meta, err := c.loadCurrency(ctx, code)
	if err != nil || meta == nil {
		return 2
	}
	return meta.DecimalPlaces
}

// loadCurrency returns nil without error for unknown codes; display falls back
// to two decimal places.
func (c *converter) loadCurrency(ctx context.Context, code string) (*models.Currency, error) {
	code = types.NormalizeCurrency(code)
	key := zmredis.CurrencyKey(code)

	var cached models.Currency
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.warn(ctx, "currency cache read failed", err)
	}
	if hit {
		c.metrics.IncCacheHit("currencies")
		return &cached, nil
	}
	c.metrics.IncCacheMiss("currencies")

	meta, err := c.repo.FindCurrency(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load currency")
	}
	if err := c.cache.Put(ctx, key, meta, c.ttl); err != nil {
		c.warn(ctx, "currency cache write failed", err)
	}
	return meta, nil
}

func (c *converter) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	c.logg.Warn(ctx, msg)
}
