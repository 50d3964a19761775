// Package aggregator runs one end-to-end aggregation:
// prime session → paginate ∥ enrich → normalize → score → sort.
package aggregator

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/bondmaster/backend/internal/collector"
	"github.com/wonny/bondmaster/backend/internal/contracts"
	"github.com/wonny/bondmaster/backend/internal/metrics"
	"github.com/wonny/bondmaster/backend/internal/normalize"
	"github.com/wonny/bondmaster/backend/internal/scoring"
	"github.com/wonny/bondmaster/backend/internal/session"
	"github.com/wonny/bondmaster/backend/pkg/config"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

// Source is the upstream the pipeline reads from
type Source interface {
	collector.PageSource
	collector.RedeemSource
	Prime(ctx context.Context, jar *session.Jar) (*session.Jar, error)
}

// Request is one aggregation call
type Request struct {
	Cookie string // caller's session cookie, opaque
	Config *scoring.Config
	Sort   scoring.SortOrder
}

// Result is a ranked listing plus run statistics
type Result struct {
	Bonds      []contracts.Bond     `json:"bonds"`
	Config     scoring.Config       `json:"config"`
	ConfigHash string               `json:"configHash"`
	Sort       scoring.SortOrder    `json:"sort"`
	Pages      int                  `json:"pages"`
	StopReason collector.StopReason `json:"stopReason"`
	Enriched   int                  `json:"enriched"`
	Degraded   bool                 `json:"enrichmentDegraded"`
	FetchedAt  time.Time            `json:"fetchedAt"`
	Duration   time.Duration        `json:"duration"`
}

// Aggregator is safe for concurrent use: every Run owns its jar, seen-set and records.
type Aggregator struct {
	source   Source
	pageSize int
	maxPages int
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// New creates an aggregator. m may be nil.
func New(source Source, cfg config.JisiluConfig, log *logger.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		source:   source,
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
		logger:   log.Component("aggregator"),
		metrics:  m,
	}
}

// Run executes the pipeline. Any listing failure aborts with a *contracts.Error;
// a redeem feed failure only empties the overlay.
// ⭐ SSOT: 집계 파이프라인 순서는 여기서만
func (a *Aggregator) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	pages := 0

	res, err := a.run(ctx, req, &pages)

	outcome := "success"
	if err != nil {
		outcome = string(contracts.KindOf(err))
		if outcome == "" {
			outcome = "unknown"
		}
		a.metrics.ObserveAggregation(outcome, time.Since(start), pages, 0)
		a.logger.WithError(err).WithField("pages", pages).Warn("Aggregation failed")
		return nil, err
	}

	res.Duration = time.Since(start)
	a.metrics.ObserveAggregation(outcome, res.Duration, res.Pages, len(res.Bonds))
	if res.Degraded {
		a.metrics.EnrichmentDegraded()
	}

	a.logger.WithFields(map[string]interface{}{
		"bonds":    len(res.Bonds),
		"pages":    res.Pages,
		"reason":   string(res.StopReason),
		"enriched": res.Enriched,
		"sort":     string(res.Sort),
		"duration": res.Duration.String(),
	}).Info("Aggregation completed")

	return res, nil
}

func (a *Aggregator) run(ctx context.Context, req Request, pages *int) (*Result, error) {
	if strings.TrimSpace(req.Cookie) == "" {
		return nil, contracts.NewInputError("cookie is required, please log in to jisilu first")
	}

	cfg := scoring.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	order := req.Sort
	if order == "" {
		order = scoring.SortDoubleLow
	}

	jar, err := a.source.Prime(ctx, session.Parse(req.Cookie))
	if err != nil {
		return nil, contracts.AsCanceled(err)
	}

	var (
		collection *collector.Collection
		index      collector.RedeemIndex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := collector.NewPaginator(a.source, a.pageSize, a.maxPages, a.logger).CollectWithStats(gctx, jar)
		if err != nil {
			return err
		}
		collection = c
		return nil
	})
	g.Go(func() error {
		index = collector.NewEnricher(a.source, a.logger).Load(gctx, jar)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	*pages = collection.Pages

	// A cancel that lands after the last page still wins over a partial overlay
	if err := ctx.Err(); err != nil {
		return nil, contracts.NewCanceledError(err)
	}

	bonds := normalize.Bonds(collection.Records, index)
	scoring.Apply(bonds, cfg)
	scoring.Sort(bonds, order)

	hash, err := scoring.Hash(cfg)
	if err != nil {
		return nil, err
	}

	return &Result{
		Bonds:      bonds,
		Config:     cfg,
		ConfigHash: hash,
		Sort:       order,
		Pages:      collection.Pages,
		StopReason: collection.StopReason,
		Enriched:   index.Len(),
		Degraded:   index.Degraded(),
		FetchedAt:  time.Now(),
	}, nil
}
