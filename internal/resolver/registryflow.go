package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/edital"
	"github.com/licitaware/edital-resolver/internal/registry"
)

// resolveViaRegistry finds the registry record behind the request and
// extracts text from its official documents. When the documents cannot
// be used, the record's origin page is mined like any HTML page.
func (s *Service) resolveViaRegistry(ctx context.Context, req Request, logger *zap.Logger) (extracted, bool) {
	rec, ok := s.locateRecord(ctx, req, logger)
	if !ok {
		return extracted{}, false
	}
	logger.Info("registry record located",
		zap.String("control_number", rec.ControlNumber),
		zap.String("tax_id", rec.TaxID),
		zap.Int("year", rec.Year),
		zap.Int("sequence", rec.Sequence))

	if out, ok := s.extractFromDocuments(ctx, rec, logger); ok {
		return out, true
	}

	// The attachments were unusable; the origin page may still link to
	// the document directly.
	if rec.OriginLink != "" && rec.OriginLink != req.Link {
		if out, ok := s.resolveDirect(ctx, rec.OriginLink, logger); ok {
			out.method = edital.MethodRegistryHTML
			return out, true
		}
	}
	return extracted{}, false
}

// locateRecord tries the lookup ladder: by origin link, then by
// purchase number, resolving the entity name to a tax ID first when
// that is all the caller gave.
func (s *Service) locateRecord(ctx context.Context, req Request, logger *zap.Logger) (edital.RegistryRecord, bool) {
	dateHint := registry.NormalizeDate(req.DateHint, s.clock.Now())

	if res := s.registry.FindRecordByLink(ctx, req.Link, dateHint, req.TaxID, req.Region); res.OK() {
		return res.Value(), true
	} else {
		logger.Info("registry link lookup missed", zap.String("reason", res.Reason()))
	}

	if req.PurchaseNumber == "" {
		return edital.RegistryRecord{}, false
	}

	taxID := req.TaxID
	if taxID == "" && req.EntityName != "" {
		if res := s.registry.ResolveTaxIDByEntityName(ctx, req.EntityName, dateHint, req.Region); res.OK() {
			taxID = res.Value()
		} else {
			logger.Info("entity name lookup missed", zap.String("reason", res.Reason()))
		}
	}

	res := s.registry.FindRecordByPurchaseNumber(ctx, req.PurchaseNumber, dateHint, taxID, req.Region)
	if !res.OK() {
		logger.Info("purchase number lookup missed", zap.String("reason", res.Reason()))
		return edital.RegistryRecord{}, false
	}
	return res.Value(), true
}

// extractFromDocuments downloads the record's attachments best first
// and returns the first one that yields text.
func (s *Service) extractFromDocuments(ctx context.Context, rec edital.RegistryRecord, logger *zap.Logger) (extracted, bool) {
	list := s.registry.ListDocuments(ctx, rec)
	if !list.OK() {
		logger.Info("document listing failed", zap.String("reason", list.Reason()))
		return extracted{}, false
	}

	for _, doc := range registry.RankDocuments(list.Value()) {
		download := s.registry.DownloadDocument(ctx, rec, doc)
		if !download.OK() {
			logger.Info("document download failed",
				zap.Int("sequence", doc.Sequence),
				zap.String("reason", download.Reason()))
			continue
		}
		payload := download.Value()
		out, ok := s.processResource(ctx, edital.FetchedResource{
			URL:         docURL(payload),
			Body:        payload.Data,
			ContentType: payload.ContentType,
		}, logger, false)
		if !ok {
			continue
		}
		out.method = edital.MethodRegistryDocs
		return out, true
	}
	return extracted{}, false
}

func docURL(payload registry.DownloadedDocument) string {
	if payload.Info.URL != "" {
		return payload.Info.URL
	}
	return payload.Filename
}
