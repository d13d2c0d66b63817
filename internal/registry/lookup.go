package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/edital"
	"github.com/licitaware/edital-resolver/internal/metrics"
	"github.com/licitaware/edital-resolver/internal/relevance"
)

// FindRecordByLink sweeps publications for a record whose origin-system
// link matches the given one. First match wins and cancels the rest of
// the sweep. A tax ID narrows the sweep to one entity when the caller
// knows it.
func (c *Client) FindRecordByLink(ctx context.Context, link string, dateHint time.Time, taxID, region string) edital.StageResult[edital.RegistryRecord] {
	if !c.cfg.Enabled {
		return edital.Fail[edital.RegistryRecord]("registry disabled")
	}
	var (
		mu    sync.Mutex
		found edital.RegistryRecord
		ok    bool
	)
	err := c.sweep(ctx, dateHint, sweepFilter{region: region, taxID: taxID}, func(rec edital.RegistryRecord) bool {
		if rec.OriginLink == "" || !LinksMatch(rec.OriginLink, link) {
			return false
		}
		if taxID != "" && rec.TaxID != onlyDigits(taxID) {
			return false
		}
		mu.Lock()
		found, ok = rec, true
		mu.Unlock()
		return true
	})
	if err != nil {
		return edital.FailErr[edital.RegistryRecord](fmt.Errorf("registry sweep failed: %w", err))
	}
	if !ok {
		return edital.Fail[edital.RegistryRecord]("no record matched link")
	}
	metrics.ObserveSweepHit("link")
	c.logger.Info("registry record matched by link",
		zap.String("control_number", found.ControlNumber),
		zap.String("tax_id", found.TaxID))
	return edital.Ok(found)
}

// FindRecordByPurchaseNumber sweeps for a record whose purchase number
// parses to the same (sequence, year) pair. A tax ID narrows the sweep
// to one entity when the caller knows it.
func (c *Client) FindRecordByPurchaseNumber(ctx context.Context, purchaseNumber string, dateHint time.Time, taxID, region string) edital.StageResult[edital.RegistryRecord] {
	if !c.cfg.Enabled {
		return edital.Fail[edital.RegistryRecord]("registry disabled")
	}
	wantSeq, wantYear, okNum := ParsePurchaseNumber(purchaseNumber)
	if !okNum {
		return edital.Fail[edital.RegistryRecord]("unparseable purchase number")
	}
	var (
		mu    sync.Mutex
		found edital.RegistryRecord
		ok    bool
	)
	err := c.sweep(ctx, dateHint, sweepFilter{region: region, taxID: taxID}, func(rec edital.RegistryRecord) bool {
		if rec.Sequence != wantSeq || rec.Year != wantYear {
			return false
		}
		if taxID != "" && rec.TaxID != onlyDigits(taxID) {
			return false
		}
		mu.Lock()
		found, ok = rec, true
		mu.Unlock()
		return true
	})
	if err != nil {
		return edital.FailErr[edital.RegistryRecord](fmt.Errorf("registry sweep failed: %w", err))
	}
	if !ok {
		return edital.Fail[edital.RegistryRecord]("no record matched purchase number")
	}
	metrics.ObserveSweepHit("purchase-number")
	return edital.Ok(found)
}

// minNameScore is the token-overlap floor below which an entity name
// match is treated as noise.
const minNameScore = 0.5

// ResolveTaxIDByEntityName sweeps publications and returns the tax ID
// of the entity whose name overlaps the query best. Unlike the link and
// purchase-number lookups this one cannot stop at the first hit, so it
// scans the whole (bounded) sweep and keeps the best score.
func (c *Client) ResolveTaxIDByEntityName(ctx context.Context, entityName string, dateHint time.Time, region string) edital.StageResult[string] {
	if !c.cfg.Enabled {
		return edital.Fail[string]("registry disabled")
	}
	var (
		mu        sync.Mutex
		bestScore float64
		bestTaxID string
	)
	err := c.sweep(ctx, dateHint, sweepFilter{region: region}, func(rec edital.RegistryRecord) bool {
		if rec.TaxID == "" || rec.EntityName == "" {
			return false
		}
		score := relevance.Jaccard(entityName, rec.EntityName)
		mu.Lock()
		if score > bestScore {
			bestScore, bestTaxID = score, rec.TaxID
		}
		mu.Unlock()
		return false
	})
	if err != nil {
		return edital.FailErr[string](fmt.Errorf("registry sweep failed: %w", err))
	}
	if bestTaxID == "" || bestScore < minNameScore {
		return edital.Fail[string]("no entity name matched")
	}
	metrics.ObserveSweepHit("entity-name")
	c.logger.Info("entity name resolved",
		zap.String("name", entityName),
		zap.String("tax_id", bestTaxID),
		zap.Float64("score", bestScore))
	return edital.Ok(bestTaxID)
}
