package matching

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/fiscalhub/backend/internal/domain/catalog"
	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/fiscalhub/backend/internal/domain/matching"
	"github.com/google/uuid"
)

// placeholderBarcodes are supplier-side values that mean "no barcode".
var placeholderBarcodes = map[string]bool{
	"":         true,
	"SEM GTIN": true,
	"SEM EAN":  true,
}

// isPlaceholderBarcode filters out empty and all-zero identifiers.
func isPlaceholderBarcode(barcode string) bool {
	barcode = strings.TrimSpace(strings.ToUpper(barcode))
	if placeholderBarcodes[barcode] {
		return true
	}
	return strings.Trim(barcode, "0") == ""
}

// ---------------------------------------------------------------------------
// Stage 1: exact de-para lookup
// ---------------------------------------------------------------------------

// supplierCodeStrategy resolves a line through a previously learned mapping
// for (tenant, supplier tax id, supplier code). Checked first because it is
// the cheapest and most trustworthy signal once learned.
type supplierCodeStrategy struct {
	mappings matching.SupplierMappingRepository
}

func (s *supplierCodeStrategy) Match(ctx context.Context, tenantID uuid.UUID, item matching.Item) (*matching.Result, error) {
	if item.SupplierTaxID == "" || item.SupplierCode == "" {
		return nil, nil
	}

	mapping, err := s.mappings.FindBySupplierCode(ctx, tenantID, item.SupplierTaxID, item.SupplierCode)
	if err != nil {
		if errors.Is(err, matching.ErrMappingNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !mapping.Active {
		return nil, nil
	}

	mapping.RecordUse()
	if err := s.mappings.Update(ctx, mapping); err != nil {
		return nil, err
	}

	productID := mapping.ProductID
	return &matching.Result{
		ProductID: &productID,
		Method:    matching.MethodSupplierCode,
		Score:     matching.ScoreSupplierCode,
	}, nil
}

// ---------------------------------------------------------------------------
// Stage 2: global identifier lookup
// ---------------------------------------------------------------------------

// identifierStrategy resolves a line through its barcode. A hit upserts a
// supplier mapping so stage 1 catches this supplier code next time.
type identifierStrategy struct {
	products catalog.ProductReader
	mappings matching.SupplierMappingRepository
}

func (s *identifierStrategy) Match(ctx context.Context, tenantID uuid.UUID, item matching.Item) (*matching.Result, error) {
	if isPlaceholderBarcode(item.Barcode) {
		return nil, nil
	}

	product, err := s.products.FindByBarcode(ctx, tenantID, item.Barcode)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := learnMapping(ctx, s.mappings, tenantID, item, product.ID, matching.OriginAutomatic, matching.ScoreIdentifier); err != nil {
		return nil, err
	}

	productID := product.ID
	return &matching.Result{
		ProductID: &productID,
		Method:    matching.MethodIdentifier,
		Score:     matching.ScoreIdentifier,
	}, nil
}

// ---------------------------------------------------------------------------
// Stage 3: classification code + fuzzy description
// ---------------------------------------------------------------------------

// fuzzyStrategy scores internal products sharing the line's classification
// code against its description. Below the threshold it returns the top
// candidates as suggestions rather than a match.
type fuzzyStrategy struct {
	products catalog.ProductReader
	mappings matching.SupplierMappingRepository
}

func (s *fuzzyStrategy) Match(ctx context.Context, tenantID uuid.UUID, item matching.Item) (*matching.Result, error) {
	if item.ClassificationCode == "" || item.Description == "" {
		return nil, nil
	}

	candidates, err := s.products.FindByClassification(ctx, tenantID, item.ClassificationCode)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scored := make([]inbox.Suggestion, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, inbox.Suggestion{
			ProductID: candidate.ID,
			Name:      candidate.Name,
			Score:     matching.Similarity(item.Description, candidate.Name),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	top := scored[0]
	if top.Score >= matching.FuzzyThreshold {
		if err := learnMapping(ctx, s.mappings, tenantID, item, top.ProductID, matching.OriginFuzzy, top.Score); err != nil {
			return nil, err
		}
		productID := top.ProductID
		return &matching.Result{
			ProductID: &productID,
			Method:    matching.MethodFuzzy,
			Score:     top.Score,
		}, nil
	}

	if len(scored) > matching.MaxSuggestions {
		scored = scored[:matching.MaxSuggestions]
	}
	return &matching.Result{
		Method:      matching.MethodManual,
		Suggestions: scored,
	}, nil
}

// learnMapping upserts a de-para mapping after a confirmed match so the
// supplier-code stage short-circuits future lines from this supplier.
func learnMapping(ctx context.Context, repo matching.SupplierMappingRepository, tenantID uuid.UUID, item matching.Item, productID uuid.UUID, origin matching.MappingOrigin, confidence int) error {
	if item.SupplierTaxID == "" || item.SupplierCode == "" {
		return nil
	}

	mapping, err := matching.NewSupplierMapping(tenantID, item.SupplierTaxID, item.SupplierCode, productID, origin, confidence)
	if err != nil {
		return err
	}
	mapping.SupplierDescription = item.Description
	mapping.Barcode = item.Barcode
	mapping.ClassificationCode = item.ClassificationCode
	return repo.Upsert(ctx, mapping)
}
