// Package trade provides the order and quote hooks: company-scoped lists
// that follow the session, and the create flow that writes a header and
// its line items.
package trade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dealerportal/backend/internal/application/session"
	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/dealerportal/backend/internal/domain/trade"
	"github.com/dealerportal/backend/internal/infrastructure/metrics"
	"github.com/dealerportal/backend/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Session is the part of the session store a hook depends on
type Session interface {
	Snapshot() session.Snapshot
	Watch(fn func(session.Snapshot)) (cancel func())
}

// State is a copy of a hook's list state
type State[D trade.Document] struct {
	Items   []D
	Loading bool
	Err     error
}

// Error returns the last fetch error message, or ""
func (s State[D]) Error() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// PriceSource resolves the dealer price of active products. Unknown and
// inactive products are missing from the result.
type PriceSource interface {
	PriceLookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

// Options configure a DocumentHook
type Options struct {
	TaxPolicy trade.TaxPolicy

	// Prices prices lines from the catalog. Without it the submitted
	// prices are used as given.
	Prices PriceSource

	// AtomicCreate runs header and item inserts in one transaction when the
	// store supports it
	AtomicCreate bool

	Validator *validator.Validate
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// scope identifies who a document is created for
type scope struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
}

// DocumentHook keeps the newest-first document list of the session's
// company and creates new documents for it.
type DocumentHook[D trade.Document] struct {
	kind     string
	session  Session
	store    trade.DocumentStore[D]
	numbers  *trade.NumberGenerator
	tax      trade.TaxPolicy
	prices   PriceSource
	atomic   bool
	validate *validator.Validate
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	state    State[D]
	filter   trade.ListFilter
	seq      uint64
	company  uuid.UUID
	unwatch  func()
	disposed bool
}

// NewDocumentHook creates a hook and attaches it to the session. When the
// session already has a company, a first fetch starts in the background.
func NewDocumentHook[D trade.Document](kind string, sess Session, store trade.DocumentStore[D], numbers *trade.NumberGenerator, opts Options) *DocumentHook[D] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := opts.Validator
	if v == nil {
		v = NewValidator()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &DocumentHook[D]{
		kind:     kind,
		session:  sess,
		store:    store,
		numbers:  numbers,
		tax:      opts.TaxPolicy,
		prices:   opts.Prices,
		atomic:   opts.AtomicCreate,
		validate: v,
		logger:   logger.Named(kind + "_hook"),
		metrics:  opts.Metrics,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		state:    State[D]{Items: []D{}},
	}

	h.mu.Lock()
	h.unwatch = sess.Watch(h.onSession)
	h.mu.Unlock()
	h.onSession(sess.Snapshot())
	return h
}

// onSession runs inside the session's notification; the fetch itself is
// moved off that goroutine.
func (h *DocumentHook[D]) onSession(snap session.Snapshot) {
	companyID := snap.CompanyID()

	h.mu.Lock()
	if h.disposed || companyID == h.company {
		h.mu.Unlock()
		return
	}
	h.company = companyID
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		err := h.Refetch(h.ctx)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, shared.ErrSuperseded) {
			h.logger.Debug("auto-fetch failed", zap.Error(err))
		}
	}()
}

// State returns a copy of the list state
func (h *DocumentHook[D]) State() State[D] {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := h.state
	out.Items = append([]D(nil), h.state.Items...)
	return out
}

// Items returns the current list
func (h *DocumentHook[D]) Items() []D { return h.State().Items }

// Loading reports whether a fetch is in flight
func (h *DocumentHook[D]) Loading() bool { return h.State().Loading }

// Error returns the last fetch error message, or ""
func (h *DocumentHook[D]) Error() string { return h.State().Error() }

// Filter returns the stored filter
func (h *DocumentHook[D]) Filter() trade.ListFilter {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.filter
}

// SetFilter stores filter and refetches with it
func (h *DocumentHook[D]) SetFilter(ctx context.Context, filter trade.ListFilter) error {
	h.mu.Lock()
	h.filter = filter
	h.mu.Unlock()
	return h.Refetch(ctx)
}

// Refetch reloads the list with the stored filter
func (h *DocumentHook[D]) Refetch(ctx context.Context) error {
	return h.Fetch(ctx, h.Filter())
}

// Fetch loads the session company's documents matching filter. On error the
// previous list is kept. When a newer fetch started or the hook was disposed
// meanwhile the result is dropped and shared.ErrSuperseded is returned.
func (h *DocumentHook[D]) Fetch(ctx context.Context, filter trade.ListFilter) error {
	_, err := h.fetch(ctx, filter)
	return err
}

// List stores filter like SetFilter and returns the documents this call
// loaded, even when a newer fetch has since replaced them in the state.
func (h *DocumentHook[D]) List(ctx context.Context, filter trade.ListFilter) ([]D, error) {
	h.mu.Lock()
	h.filter = filter
	h.mu.Unlock()

	docs, err := h.fetch(ctx, filter)
	if errors.Is(err, shared.ErrSuperseded) {
		return docs, nil
	}
	return docs, err
}

func (h *DocumentHook[D]) fetch(ctx context.Context, filter trade.ListFilter) (_ []D, retErr error) {
	ctx, span := telemetry.StartServiceSpan(ctx, h.kind, "fetch")
	defer func() {
		if !errors.Is(retErr, context.Canceled) && !errors.Is(retErr, shared.ErrSuperseded) {
			telemetry.RecordError(span, retErr)
		}
		span.End()
	}()

	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return nil, shared.ErrInvalidState
	}
	h.seq++
	seq := h.seq
	h.state.Loading = true
	h.mu.Unlock()

	companyID := h.session.Snapshot().CompanyID()
	telemetry.SetAttribute(span, telemetry.SpanAttrCompanyID, companyID)
	if companyID == uuid.Nil {
		docs := []D{}
		if !h.finish(seq, func(s *State[D]) {
			s.Items = docs
			s.Err = nil
		}) {
			return docs, shared.ErrSuperseded
		}
		return docs, nil
	}

	start := time.Now()
	docs, err := h.load(ctx, companyID, filter)
	h.metrics.FetchObserved(h.kind, time.Since(start), err)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.finish(seq, func(*State[D]) {})
			return nil, err
		}
		h.logger.Error("failed to fetch documents",
			zap.String("company_id", companyID.String()),
			zap.Error(err),
		)
		h.finish(seq, func(s *State[D]) { s.Err = err })
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrResults, len(docs))
	if !h.finish(seq, func(s *State[D]) {
		s.Items = docs
		s.Err = nil
	}) {
		return docs, shared.ErrSuperseded
	}
	return docs, nil
}

func (h *DocumentHook[D]) load(ctx context.Context, companyID uuid.UUID, filter trade.ListFilter) ([]D, error) {
	docs, err := h.store.FindAllForCompany(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", h.kind, err)
	}
	if len(docs) == 0 {
		return []D{}, nil
	}

	ids := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.DocumentID())
	}
	items, err := h.store.FindItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s items: %w", h.kind, err)
	}
	for _, d := range docs {
		lines := items[d.DocumentID()]
		if lines == nil {
			lines = []trade.LineItem{}
		}
		d.AttachItems(lines)
	}
	return docs, nil
}

// finish applies a fetch outcome if seq is still the latest fetch and
// reports whether it did
func (h *DocumentHook[D]) finish(seq uint64, apply func(*State[D])) bool {
	h.mu.Lock()
	if h.disposed || seq != h.seq {
		h.mu.Unlock()
		h.metrics.FetchDropped(h.kind)
		return false
	}
	apply(&h.state)
	h.state.Loading = false
	h.mu.Unlock()
	return true
}

// create runs the shared create flow. input is validated as a whole; build
// turns the computed number and totals into a header.
func (h *DocumentHook[D]) create(ctx context.Context, input any, lines []trade.LineInput, build func(scope, string, trade.Totals) (D, error)) (_ D, retErr error) {
	var zero D

	ctx, span := telemetry.StartServiceSpan(ctx, h.kind, "create",
		telemetry.WithAttribute(telemetry.SpanAttrLines, len(lines)))
	defer func() {
		telemetry.RecordError(span, retErr)
		span.End()
	}()

	h.mu.RLock()
	disposed := h.disposed
	h.mu.RUnlock()
	if disposed {
		return zero, shared.ErrInvalidState
	}

	snap := h.session.Snapshot()
	if snap.User == nil || snap.CompanyID() == uuid.Nil {
		h.metrics.CreateFailed(h.kind, metrics.StageScope)
		return zero, shared.ErrUnauthenticated
	}
	if err := h.validate.StructCtx(ctx, input); err != nil {
		h.metrics.CreateFailed(h.kind, metrics.StageValidate)
		return zero, invalidInput(err)
	}
	lines, err := h.price(ctx, lines)
	if err != nil {
		h.metrics.CreateFailed(h.kind, metrics.StagePricing)
		return zero, err
	}

	rate := h.tax.RateFor(snap.Company.TaxJurisdiction)
	totals := trade.ComputeTotals(lines, rate)
	number := h.numbers.Next()
	telemetry.SetAttribute(span, telemetry.SpanAttrDocumentNumber, number)
	telemetry.SetAttribute(span, telemetry.SpanAttrCompanyID, snap.Company.ID)

	doc, err := build(scope{UserID: snap.User.ID, CompanyID: snap.Company.ID}, number, totals)
	if err != nil {
		h.metrics.CreateFailed(h.kind, metrics.StageValidate)
		return zero, err
	}
	items := trade.NewLineItems(doc.DocumentID(), lines, h.now())

	logger := h.logger.With(
		zap.String("number", number),
		zap.String("company_id", snap.Company.ID.String()),
	)

	if err := h.persist(ctx, logger, doc, items); err != nil {
		return zero, err
	}

	doc.AttachItems(items)
	telemetry.SetAttribute(span, telemetry.SpanAttrTotal, totals.Total.StringFixed(2))
	h.metrics.DocumentCreated(h.kind, totals.Total.InexactFloat64())
	logger.Info("document created",
		zap.Int("lines", len(items)),
		zap.String("total", totals.Total.StringFixed(2)),
	)

	if err := h.Refetch(ctx); err != nil && !errors.Is(err, shared.ErrSuperseded) {
		logger.Warn("refetch after create failed", zap.Error(err))
	}
	return doc, nil
}

func (h *DocumentHook[D]) price(ctx context.Context, lines []trade.LineInput) ([]trade.LineInput, error) {
	if h.prices == nil {
		return lines, nil
	}
	prices, err := h.prices.PriceLookup(ctx, trade.ProductIDs(lines))
	if err != nil {
		return nil, fmt.Errorf("failed to price %s: %w", h.kind, err)
	}
	return trade.ApplyPrices(lines, prices)
}

func (h *DocumentHook[D]) persist(ctx context.Context, logger *zap.Logger, doc D, items []trade.LineItem) error {
	if ts, ok := h.store.(trade.TransactionalStore[D]); ok && h.atomic {
		err := ts.WithinTransaction(ctx, func(tx trade.DocumentStore[D]) error {
			if err := tx.InsertHeader(ctx, doc); err != nil {
				return err
			}
			return tx.InsertItems(ctx, items)
		})
		if err != nil {
			h.metrics.CreateFailed(h.kind, metrics.StageCommit)
			logger.Error("failed to create document", zap.Error(err))
			return fmt.Errorf("failed to create %s: %w", h.kind, err)
		}
		return nil
	}

	if err := h.store.InsertHeader(ctx, doc); err != nil {
		h.metrics.CreateFailed(h.kind, metrics.StageHeader)
		logger.Error("failed to insert header", zap.Error(err))
		return fmt.Errorf("failed to create %s: %w", h.kind, err)
	}

	if err := h.store.InsertItems(ctx, items); err != nil {
		h.metrics.CreateFailed(h.kind, metrics.StageItems)
		logger.Error("failed to insert items, removing header", zap.Error(err))
		itemsErr := fmt.Errorf("failed to create %s items: %w", h.kind, err)

		// The header must go even when the caller's context is already done.
		telemetry.AddEvent(telemetry.SpanFromContext(ctx), "compensating_delete", telemetry.SpanAttrDocumentNumber, doc.Number())
		if derr := h.store.DeleteHeader(context.WithoutCancel(ctx), doc.DocumentID()); derr != nil {
			h.metrics.Compensated(h.kind, metrics.OutcomeFailed)
			logger.Error("compensating delete failed, header left behind", zap.Error(derr))
			return errors.Join(itemsErr, fmt.Errorf("compensating delete of %s: %w", doc.Number(), derr))
		}
		h.metrics.Compensated(h.kind, metrics.OutcomeDeleted)
		return itemsErr
	}
	return nil
}

// Dispose detaches the hook from the session and cancels background
// fetches. Later results are dropped. Safe to call more than once.
func (h *DocumentHook[D]) Dispose() {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return
	}
	h.disposed = true
	unwatch := h.unwatch
	h.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	h.cancel()
	h.wg.Wait()
}
