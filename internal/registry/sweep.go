package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/licitaware/edital-resolver/internal/edital"
)

// errFound cancels the sweep group once a visitor reports a match.
var errFound = errors.New("registry: match found")

type dateBlock struct {
	from string
	to   string
}

// dateBlocks splits the search window centered on anchor into StepDays
// wide blocks, newest first, so a fresh publication is found with the
// fewest calls.
func (c *Client) dateBlocks(anchor time.Time) []dateBlock {
	total := c.cfg.TotalDays
	if total <= 0 {
		total = 365
	}
	step := c.cfg.StepDays
	if step <= 0 {
		step = 30
	}
	// The window leans toward the past: publications precede the
	// moment someone asks about them, with a small forward margin for
	// clock skew and scheduled notices.
	end := anchor.AddDate(0, 0, step/2)
	start := end.AddDate(0, 0, -total)

	var blocks []dateBlock
	for hi := end; hi.After(start); hi = hi.AddDate(0, 0, -step) {
		lo := hi.AddDate(0, 0, -step+1)
		if lo.Before(start) {
			lo = start
		}
		blocks = append(blocks, dateBlock{
			from: lo.Format("20060102"),
			to:   hi.Format("20060102"),
		})
	}
	return blocks
}

// sweepFilter narrows the publication-search calls when the caller
// already knows part of the answer.
type sweepFilter struct {
	region string
	taxID  string
}

// sweep walks {date block × modality code × page} with a bounded worker
// pool and feeds every row to visit. The sweep stops as soon as visit
// returns true; page loops within one combination stay sequential so an
// empty page ends that combination early.
func (c *Client) sweep(ctx context.Context, anchor time.Time, filter sweepFilter, visit func(edital.RegistryRecord) bool) error {
	blocks := c.dateBlocks(anchor)
	codes := c.modalCodes()
	pageLimit := c.cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = 10
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for _, block := range blocks {
		for _, code := range codes {
			block, code := block, code
			g.Go(func() error {
				for page := 1; page <= pageLimit; page++ {
					if err := ctx.Err(); err != nil {
						return err
					}
					resp, err := c.searchPage(ctx, searchQuery{
						dateFrom:  block.from,
						dateTo:    block.to,
						modalCode: code,
						page:      page,
						region:    filter.region,
						taxID:     filter.taxID,
					})
					if err != nil {
						// One bad combination must not sink the
						// whole sweep.
						c.logger.Debug("registry sweep page failed",
							zap.String("from", block.from),
							zap.String("to", block.to),
							zap.Int("modality", code),
							zap.Int("page", page),
							zap.Error(err))
						return nil
					}
					if len(resp.rows) == 0 {
						return nil
					}
					for _, row := range resp.rows {
						if visit(row.record()) {
							return errFound
						}
					}
					if len(resp.rows) < c.cfg.PageSize {
						return nil
					}
				}
				return nil
			})
		}
	}

	err := g.Wait()
	if errors.Is(err, errFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("registry sweep: %w", err)
	}
	return nil
}
