// Package collector gathers the raw listing and its redemption overlay for one aggregation.
package collector

import (
	"context"
	"fmt"

	"github.com/wonny/bondmaster/backend/internal/contracts"
	"github.com/wonny/bondmaster/backend/internal/normalize"
	"github.com/wonny/bondmaster/backend/internal/session"
	"github.com/wonny/bondmaster/backend/pkg/config"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

// DefaultPageSize is the rp sent with every page request
const DefaultPageSize = 30

// StopReason records why pagination ended
type StopReason string

const (
	StopEmptyPage    StopReason = "empty_page"
	StopTotalReached StopReason = "total_reached"
	StopNoNewRecords StopReason = "no_new_records"
	StopPageBound    StopReason = "page_bound"
)

// PageSource fetches one listing page
type PageSource interface {
	FetchPage(ctx context.Context, jar *session.Jar, page, rp int) (*contracts.ListingPage, error)
}

// Collection is the outcome of one pagination run
type Collection struct {
	Records    []contracts.RawRecord
	Pages      int
	Total      *int // first total declared by the source
	StopReason StopReason
}

// Paginator walks the listing page by page.
// Pages are fetched sequentially: each stop condition depends on what was already seen.
type Paginator struct {
	source   PageSource
	pageSize int
	maxPages int
	logger   *logger.Logger
}

// NewPaginator creates a paginator. maxPages is clamped to [1, config.MaxPageBound].
func NewPaginator(source PageSource, pageSize, maxPages int, log *logger.Logger) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if maxPages <= 0 || maxPages > config.MaxPageBound {
		maxPages = config.MaxPageBound
	}
	return &Paginator{
		source:   source,
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   log.Component("paginator"),
	}
}

// Collect returns the deduplicated raw rows in first-seen order
func (p *Paginator) Collect(ctx context.Context, jar *session.Jar) ([]contracts.RawRecord, error) {
	c, err := p.CollectWithStats(ctx, jar)
	if err != nil {
		return nil, err
	}
	return c.Records, nil
}

// CollectWithStats is Collect plus page count and stop reason.
//
// Stops on the first of: empty page, declared total reached, a page with no new
// ids, the page bound. Rows sharing an id with an earlier row are dropped; rows
// without an id are always kept. Any page error aborts the run with no partial result.
func (p *Paginator) CollectWithStats(ctx context.Context, jar *session.Jar) (*Collection, error) {
	seen := make(map[string]struct{})
	out := &Collection{StopReason: StopPageBound}

	for page := 1; page <= p.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, contracts.NewCanceledError(err)
		}

		lp, err := p.source.FetchPage(ctx, jar, page, p.pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, contracts.AsCanceled(err))
		}
		out.Pages = page

		if out.Total == nil && lp.Total != nil {
			total := *lp.Total
			out.Total = &total
		}

		if len(lp.Rows) == 0 {
			out.StopReason = StopEmptyPage
			break
		}

		added := 0
		for _, row := range lp.Rows {
			id := normalize.RecordID(row)
			if id != "" {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
			}
			out.Records = append(out.Records, row)
			added++
		}

		p.logger.WithFields(map[string]interface{}{
			"page":  page,
			"rows":  len(lp.Rows),
			"added": added,
			"total": len(out.Records),
		}).Debug("Page collected")

		if out.Total != nil && len(out.Records) >= *out.Total {
			out.StopReason = StopTotalReached
			break
		}
		if added == 0 {
			out.StopReason = StopNoNewRecords
			break
		}
	}

	if out.Records == nil {
		out.Records = []contracts.RawRecord{}
	}

	p.logger.WithFields(map[string]interface{}{
		"pages":   out.Pages,
		"records": len(out.Records),
		"reason":  string(out.StopReason),
	}).Info("Listing collected")

	return out, nil
}
