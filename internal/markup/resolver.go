package markup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zikomart/pricing-engine/pkg/cache"
	"github.com/zikomart/pricing-engine/pkg/config"
	"github.com/zikomart/pricing-engine/pkg/db/models"
	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
	"github.com/zikomart/pricing-engine/pkg/logger"
	"github.com/zikomart/pricing-engine/pkg/metrics"
	zmredis "github.com/zikomart/pricing-engine/pkg/redis"
)

type bracketStore interface {
	FindSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	ListSellerBrackets(ctx context.Context, sellerID uuid.UUID) ([]models.MarkupBracket, error)
	ListTemplateBrackets(ctx context.Context, templateID uuid.UUID) ([]models.TemplateBracket, error)
}

// Resolution carries the resolved markup. Degraded distinguishes "no bracket
// matched, zero applied" from a schedule that genuinely configures zero.
type Resolution struct {
	Markup   decimal.Decimal `json:"markup"`
	Currency string          `json:"currency"`
	Degraded bool            `json:"degraded"`
}

// Resolver maps a seller and base price to a markup amount.
type Resolver interface {
	Resolve(ctx context.Context, sellerID uuid.UUID, basePrice decimal.Decimal) (Resolution, error)
	Table(ctx context.Context, sellerID uuid.UUID) (BracketTable, error)
}

type resolver struct {
	repo    bracketStore
	cache   cache.Cache
	metrics *metrics.PricingMetrics
	logg    *logger.Logger
	ttl     time.Duration
}

// NewResolver builds a bracket resolver with a per-seller cached table.
func NewResolver(repo bracketStore, store cache.Cache, recorder *metrics.PricingMetrics, logg *logger.Logger, cfg config.PricingConfig) (Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("bracket repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache required")
	}
	return &resolver{
		repo:    repo,
		cache:   store,
		metrics: recorder,
		logg:    logg,
		ttl:     cfg.BracketCacheTTL,
	}, nil
}

// Resolve looks the base price up in the seller's bracket table. A missing
// seller, empty schedule, or out-of-range price degrades to zero markup so the
// item still prices.
func (r *resolver) Resolve(ctx context.Context, sellerID uuid.UUID, basePrice decimal.Decimal) (Resolution, error) {
	table, err := r.Table(ctx, sellerID)
	if err != nil {
		return Resolution{}, err
	}
	if amount, ok := table.Lookup(basePrice); ok {
		return Resolution{Markup: amount, Currency: table.Currency}, nil
	}
	r.metrics.IncDegraded("missing_bracket")
	if r.logg != nil {
		r.logg.Warn(ctx, fmt.Sprintf("no markup bracket for seller %s at base %s, passing cost through", sellerID, basePrice))
	}
	return Resolution{Markup: decimal.Zero, Currency: table.Currency, Degraded: true}, nil
}

// Table returns the seller's active bracket table, template rows when a
// template is assigned, the seller's own rows otherwise. Unknown sellers get
// an empty table.
func (r *resolver) Table(ctx context.Context, sellerID uuid.UUID) (BracketTable, error) {
	key := zmredis.BracketKey(sellerID.String())
	var cached BracketTable
	hit, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		r.warn(ctx, "bracket cache read failed", err)
	}
	if hit {
		r.metrics.IncCacheHit("brackets")
		return cached, nil
	}
	r.metrics.IncCacheMiss("brackets")

	table, err := r.loadTable(ctx, sellerID)
	if err != nil {
		return BracketTable{}, err
	}
	if err := r.cache.Put(ctx, key, table, r.ttl); err != nil {
		r.warn(ctx, "bracket cache write failed", err)
	}
	return table, nil
}

func (r *resolver) loadTable(ctx context.Context, sellerID uuid.UUID) (BracketTable, error) {
	seller, err := r.repo.FindSeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BracketTable{}, nil
		}
		return BracketTable{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}

	if seller.TemplateID != nil {
		rows, err := r.repo.ListTemplateBrackets(ctx, *seller.TemplateID)
		if err != nil {
			return BracketTable{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load template brackets")
		}
		return TableFromTemplateBrackets(seller.ScheduleCurrency, rows), nil
	}

	rows, err := r.repo.ListSellerBrackets(ctx, sellerID)
	if err != nil {
		return BracketTable{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller brackets")
	}
	return TableFromSellerBrackets(seller.ScheduleCurrency, rows), nil
}

func (r *resolver) warn(ctx context.Context, msg string, err error) {
	if r.logg == nil {
		return
	}
	r.logg.Warn(ctx, fmt.Sprintf("%s: %v", msg, err))
}
