package collector

import (
	"context"

	"github.com/wonny/bondmaster/backend/internal/contracts"
	"github.com/wonny/bondmaster/backend/internal/session"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

// RedeemSource fetches the redemption status feed keyed by bond id
type RedeemSource interface {
	FetchRedeem(ctx context.Context, jar *session.Jar) (map[string]contracts.Redeem, error)
}

// RedeemIndex maps bond id → redemption overlay. The zero value is an empty index.
type RedeemIndex struct {
	entries  map[string]contracts.Redeem
	degraded bool
}

// NewRedeemIndex wraps entries (nil is allowed)
func NewRedeemIndex(entries map[string]contracts.Redeem) RedeemIndex {
	return RedeemIndex{entries: entries}
}

// Lookup returns the overlay for id; ok=false means no enrichment, not an error
func (ix RedeemIndex) Lookup(id string) (contracts.Redeem, bool) {
	r, ok := ix.entries[id]
	return r, ok
}

// Len returns the number of enriched ids
func (ix RedeemIndex) Len() int {
	return len(ix.entries)
}

// Degraded reports that the feed failed and the index is empty because of it
func (ix RedeemIndex) Degraded() bool {
	return ix.degraded
}

// Enricher loads the redemption overlay once per aggregation
type Enricher struct {
	source RedeemSource
	logger *logger.Logger
}

// NewEnricher creates an enricher
func NewEnricher(source RedeemSource, log *logger.Logger) *Enricher {
	return &Enricher{
		source: source,
		logger: log.Component("enricher"),
	}
}

// Load never fails: any fetch or parse problem yields an empty index and a warning
func (e *Enricher) Load(ctx context.Context, jar *session.Jar) RedeemIndex {
	entries, err := e.source.FetchRedeem(ctx, jar)
	if err != nil {
		e.logger.WithError(err).Warn("Redeem feed unavailable, continuing without enrichment")
		return RedeemIndex{degraded: true}
	}

	e.logger.WithField("entries", len(entries)).Debug("Redeem feed loaded")
	return NewRedeemIndex(entries)
}
