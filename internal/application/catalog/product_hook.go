// Package catalog provides the read-only product hook used to browse the
// dealer catalog and price order lines.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dealerportal/backend/internal/domain/catalog"
	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/dealerportal/backend/internal/infrastructure/metrics"
	"github.com/dealerportal/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// KindProduct labels product logs and metrics
const KindProduct = "product"

// State is a copy of the product list state
type State struct {
	Items   []catalog.Product
	Loading bool
	Err     error
}

// Error returns the last fetch error message, or ""
func (s State) Error() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// ProductHook keeps a filtered product list
type ProductHook struct {
	repo    catalog.ProductRepository
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	state    State
	filter   catalog.ProductFilter
	seq      uint64
	disposed bool
}

// NewProductHook creates a product hook with an empty list. Nothing is
// fetched until Fetch, Refetch or SetFilter is called.
func NewProductHook(repo catalog.ProductRepository, logger *zap.Logger, m *metrics.Metrics) *ProductHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductHook{
		repo:    repo,
		logger:  logger.Named("product_hook"),
		metrics: m,
		state:   State{Items: []catalog.Product{}},
	}
}

// State returns a copy of the list state
func (h *ProductHook) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := h.state
	out.Items = append([]catalog.Product(nil), h.state.Items...)
	return out
}

// Products returns the current list
func (h *ProductHook) Products() []catalog.Product { return h.State().Items }

// Loading reports whether a fetch is in flight
func (h *ProductHook) Loading() bool { return h.State().Loading }

// Error returns the last fetch error message, or ""
func (h *ProductHook) Error() string { return h.State().Error() }

// Filter returns the stored filter
func (h *ProductHook) Filter() catalog.ProductFilter {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.filter
}

// SetFilter stores filter and refetches when it selects different rows
func (h *ProductHook) SetFilter(ctx context.Context, filter catalog.ProductFilter) error {
	h.mu.Lock()
	changed := !h.filter.Equal(filter)
	h.filter = filter
	h.mu.Unlock()
	if !changed {
		return nil
	}
	return h.Refetch(ctx)
}

// Refetch reloads the list with the stored filter
func (h *ProductHook) Refetch(ctx context.Context) error {
	return h.Fetch(ctx, h.Filter())
}

// Fetch loads the products matching filter. On error the previous list is
// kept. A result overtaken by a newer fetch is dropped and
// shared.ErrSuperseded returned.
func (h *ProductHook) Fetch(ctx context.Context, filter catalog.ProductFilter) error {
	_, err := h.fetch(ctx, filter)
	return err
}

// List stores filter and returns the products this call loaded, even when a
// newer fetch has since replaced them in the state.
func (h *ProductHook) List(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	h.mu.Lock()
	h.filter = filter
	h.mu.Unlock()

	products, err := h.fetch(ctx, filter)
	if errors.Is(err, shared.ErrSuperseded) {
		return products, nil
	}
	return products, err
}

func (h *ProductHook) fetch(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return nil, shared.ErrInvalidState
	}
	h.seq++
	seq := h.seq
	h.state.Loading = true
	h.mu.Unlock()

	ctx, span := telemetry.StartServiceSpan(ctx, KindProduct, "fetch")
	defer span.End()

	start := time.Now()
	products, err := h.repo.FindAll(ctx, filter.Normalized())
	h.metrics.FetchObserved(KindProduct, time.Since(start), err)
	if !errors.Is(err, context.Canceled) {
		telemetry.RecordError(span, err)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrResults, len(products))
	if err == nil && products == nil {
		products = []catalog.Product{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed || seq != h.seq {
		h.metrics.FetchDropped(KindProduct)
		if err != nil {
			return nil, err
		}
		return products, shared.ErrSuperseded
	}
	h.state.Loading = false
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			h.logger.Error("failed to fetch products", zap.Error(err))
			h.state.Err = err
		}
		return nil, err
	}
	h.state.Items = products
	h.state.Err = nil
	return products, nil
}

// PriceLookup returns the dealer price of each known product id. Unknown
// and inactive products are left out so callers can reject those lines.
func (h *ProductHook) PriceLookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	prices := make(map[uuid.UUID]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}
	products, err := h.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up prices: %w", err)
	}
	for _, p := range products {
		if p.IsActive {
			prices[p.ID] = p.DealerPrice
		}
	}
	return prices, nil
}

// Dispose stops the hook; in-flight results are dropped
func (h *ProductHook) Dispose() {
	h.mu.Lock()
	h.disposed = true
	h.mu.Unlock()
}
