package trade

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dealerportal/backend/internal/application/session"
	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/dealerportal/backend/internal/domain/shared"
	"github.com/dealerportal/backend/internal/domain/trade"
	"github.com/dealerportal/backend/internal/infrastructure/config"
	"github.com/dealerportal/backend/internal/infrastructure/metrics"
	"github.com/dealerportal/backend/internal/infrastructure/persistence"
	"github.com/dealerportal/backend/internal/infrastructure/persistence/models"
	"github.com/dealerportal/backend/internal/testutil"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeSession is a settable Session
type fakeSession struct {
	mu       sync.Mutex
	snap     session.Snapshot
	watchers map[int]func(session.Snapshot)
	next     int
}

func newFakeSession(snap session.Snapshot) *fakeSession {
	return &fakeSession{snap: snap, watchers: map[int]func(session.Snapshot){}}
}

func (f *fakeSession) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSession) Watch(fn func(session.Snapshot)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := f.next
	f.watchers[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.watchers, id)
		f.mu.Unlock()
	}
}

func (f *fakeSession) set(snap session.Snapshot) {
	f.mu.Lock()
	f.snap = snap
	fns := make([]func(session.Snapshot), 0, len(f.watchers))
	for _, fn := range f.watchers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (f *fakeSession) watcherCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

// failingStore wraps a document store and injects errors per operation.
// It does not implement trade.TransactionalStore.
type failingStore[D trade.Document] struct {
	trade.DocumentStore[D]
	listErr   error
	headerErr error
	itemsErr  error
	deleteErr error
}

func (s *failingStore[D]) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter trade.ListFilter) ([]D, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.DocumentStore.FindAllForCompany(ctx, companyID, filter)
}

func (s *failingStore[D]) InsertHeader(ctx context.Context, doc D) error {
	if s.headerErr != nil {
		return s.headerErr
	}
	return s.DocumentStore.InsertHeader(ctx, doc)
}

func (s *failingStore[D]) InsertItems(ctx context.Context, items []trade.LineItem) error {
	if s.itemsErr != nil {
		return s.itemsErr
	}
	return s.DocumentStore.InsertItems(ctx, items)
}

func (s *failingStore[D]) DeleteHeader(ctx context.Context, id uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.DocumentStore.DeleteHeader(ctx, id)
}

// failingTxStore is transactional but fails item inserts inside the transaction
type failingTxStore struct {
	trade.TransactionalStore[*trade.Order]
	itemsErr error
}

func (s *failingTxStore) WithinTransaction(ctx context.Context, fn func(tx trade.DocumentStore[*trade.Order]) error) error {
	return s.TransactionalStore.WithinTransaction(ctx, func(tx trade.DocumentStore[*trade.Order]) error {
		return fn(&failingStore[*trade.Order]{DocumentStore: tx, itemsErr: s.itemsErr})
	})
}

// gatedStore blocks listings while gate is set
type gatedStore struct {
	trade.DocumentStore[*trade.Order]
	gate    atomic.Pointer[chan struct{}]
	entered chan struct{}
}

func (s *gatedStore) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter trade.ListFilter) ([]*trade.Order, error) {
	if g := s.gate.Swap(nil); g != nil {
		close(s.entered)
		<-*g
		return []*trade.Order{}, nil
	}
	return s.DocumentStore.FindAllForCompany(ctx, companyID, filter)
}

// statusGatedStore holds listings for one status until release is closed
type statusGatedStore struct {
	trade.DocumentStore[*trade.Order]
	status  string
	entered chan struct{}
	release chan struct{}
}

func (s *statusGatedStore) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter trade.ListFilter) ([]*trade.Order, error) {
	if filter.Status == s.status {
		close(s.entered)
		<-s.release
	}
	return s.DocumentStore.FindAllForCompany(ctx, companyID, filter)
}

type fixture struct {
	db        *gorm.DB
	orders    *persistence.OrderStore
	quotes    *persistence.QuoteStore
	session   *fakeSession
	metrics   *metrics.Metrics
	companyID uuid.UUID
	userID    uuid.UUID
	productA  uuid.UUID
	productB  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	companyID := testutil.SeedCompany(t, db, "Acme Dealers", "CA")
	userID := testutil.SeedUser(t, db, "dealer@example.com", &companyID)

	f := &fixture{
		db:        db,
		orders:    persistence.NewGormOrderStore(db),
		quotes:    persistence.NewGormQuoteStore(db),
		metrics:   metrics.New(config.MetricsConfig{Enabled: true, Namespace: "portal_test"}),
		companyID: companyID,
		userID:    userID,
		productA:  testutil.SeedProduct(t, db, "CH-100", "Task Chair", "seating", "100.00", true),
		productB:  testutil.SeedProduct(t, db, "DK-200", "Standing Desk", "desks", "50.00", true),
	}
	f.session = newFakeSession(f.signedIn())
	return f
}

func (f *fixture) signedIn() session.Snapshot {
	company := &identity.Company{Name: "Acme Dealers", TaxJurisdiction: "CA", IsActive: true}
	company.ID = f.companyID
	companyID := f.companyID
	return session.Snapshot{
		User:    &identity.User{ID: f.userID, Email: "dealer@example.com"},
		Profile: &identity.Profile{ID: f.userID, CompanyID: &companyID, Role: identity.RoleDealer},
		Company: company,
		Phase:   session.PhaseAuthenticated,
	}
}

func (f *fixture) options(atomicCreate bool) Options {
	return Options{
		TaxPolicy: trade.NewTaxPolicy(decimal.RequireFromString("0.08"), map[string]decimal.Decimal{
			"CA": decimal.RequireFromString("0.0725"),
		}),
		AtomicCreate: atomicCreate,
		Metrics:      f.metrics,
	}
}

// ordersHook builds a hook over store and waits for its initial fetch
func (f *fixture) ordersHook(t *testing.T, store trade.DocumentStore[*trade.Order], atomicCreate bool) *OrdersHook {
	t.Helper()
	h := NewOrdersHook(f.session, store, nil, f.options(atomicCreate))
	t.Cleanup(h.Dispose)
	h.wg.Wait()
	return h
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) orderInput() CreateOrderInput {
	return CreateOrderInput{
		Lines: []trade.LineInput{
			{ProductID: f.productA, Quantity: 2, Price: decimal.RequireFromString("100.00")},
			{ProductID: f.productB, Quantity: 1, Price: decimal.RequireFromString("50.00")},
		},
		OrderDetails: trade.OrderDetails{PONumber: "PO-7", ShippingAddress: "1 Main St"},
	}
}

func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestOrdersHook_CreateOrder(t *testing.T) {
	f := newFixture(t)
	hook := f.ordersHook(t, f.orders, false)
	ctx := testutil.Context(t)

	order, err := hook.CreateOrder(ctx, f.orderInput())
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-\d+-[0-9A-F]{6}$`, order.OrderNumber)
	assert.Equal(t, f.companyID, order.CompanyID)
	assert.Equal(t, f.userID, order.UserID)
	assert.Equal(t, trade.OrderStatusPending, order.Status)
	assert.Equal(t, "PO-7", order.PONumber)
	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("250")), "subtotal %s", order.Subtotal)
	assert.True(t, order.Tax.Equal(decimal.RequireFromString("18.13")), "tax %s", order.Tax)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("268.13")), "total %s", order.Total)

	require.Len(t, order.Items, 2)
	for _, item := range order.Items {
		assert.Equal(t, order.ID, item.DocumentID)
	}
	assert.True(t, order.Items[0].PriceAtTime.Equal(decimal.RequireFromString("100")))

	state := hook.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, order.ID, state.Items[0].ID)
	assert.Len(t, state.Items[0].Items, 2)
	assert.False(t, state.Loading)
	assert.Empty(t, hook.Error())

	assert.EqualValues(t, 1, f.count(t, &models.OrderModel{}))
	assert.EqualValues(t, 2, f.count(t, &models.OrderItemModel{}))
	assert.Equal(t, 1.0, metricValue(t, f.metrics.Registry(), "portal_test_documents_created_total", map[string]string{"kind": KindOrder}))
}

func TestOrdersHook_CreateRequiresCompany(t *testing.T) {
	tests := []struct {
		name string
		snap func(f *fixture) session.Snapshot
	}{
		{
			name: "anonymous",
			snap: func(*fixture) session.Snapshot { return session.Snapshot{Phase: session.PhaseAnonymous} },
		},
		{
			name: "signed in without company",
			snap: func(f *fixture) session.Snapshot {
				s := f.signedIn()
				s.Profile.CompanyID = nil
				s.Company = nil
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.session.set(tt.snap(f))
			hook := f.ordersHook(t, f.orders, false)

			_, err := hook.CreateOrder(testutil.Context(t), f.orderInput())
			assert.ErrorIs(t, err, shared.ErrUnauthenticated)
			assert.Zero(t, f.count(t, &models.OrderModel{}))
		})
	}
}

func TestOrdersHook_CreateValidatesInput(t *testing.T) {
	f := newFixture(t)
	hook := f.ordersHook(t, f.orders, false)

	tests := []struct {
		name  string
		lines []trade.LineInput
		field string
	}{
		{name: "no lines", lines: nil, field: "lines"},
		{name: "zero quantity", lines: []trade.LineInput{{ProductID: f.productA, Quantity: 0, Price: decimal.NewFromInt(1)}}, field: "quantity"},
		{name: "negative price", lines: []trade.LineInput{{ProductID: f.productA, Quantity: 1, Price: decimal.NewFromInt(-1)}}, field: "price"},
		{name: "missing product", lines: []trade.LineInput{{Quantity: 1, Price: decimal.NewFromInt(1)}}, field: "product_id"},
		{name: "sub-cent price", lines: []trade.LineInput{{ProductID: f.productA, Quantity: 1000, Price: decimal.RequireFromString("0.005")}}, field: "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := hook.CreateOrder(testutil.Context(t), CreateOrderInput{Lines: tt.lines})
			require.ErrorIs(t, err, shared.ErrInvalidInput)

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field())
		})
	}

	assert.Zero(t, f.count(t, &models.OrderModel{}))
}

func TestOrdersHook_HeaderFailure(t *testing.T) {
	f := newFixture(t)
	errHeader := errors.New("header rejected")
	hook := f.ordersHook(t, &failingStore[*trade.Order]{DocumentStore: f.orders, headerErr: errHeader}, false)

	_, err := hook.CreateOrder(testutil.Context(t), f.orderInput())
	require.ErrorIs(t, err, errHeader)

	assert.Zero(t, f.count(t, &models.OrderModel{}))
	assert.Zero(t, f.count(t, &models.OrderItemModel{}))
	assert.Equal(t, 1.0, metricValue(t, f.metrics.Registry(), "portal_test_document_create_failures_total",
		map[string]string{"kind": KindOrder, "stage": metrics.StageHeader}))
}

func TestOrdersHook_CompensatesFailedItems(t *testing.T) {
	f := newFixture(t)
	errItems := errors.New("items rejected")
	hook := f.ordersHook(t, &failingStore[*trade.Order]{DocumentStore: f.orders, itemsErr: errItems}, false)

	_, err := hook.CreateOrder(testutil.Context(t), f.orderInput())
	require.ErrorIs(t, err, errItems)

	assert.Zero(t, f.count(t, &models.OrderModel{}), "header must be removed")
	assert.Empty(t, hook.Orders())
	assert.Equal(t, 1.0, metricValue(t, f.metrics.Registry(), "portal_test_document_compensations_total",
		map[string]string{"kind": KindOrder, "outcome": metrics.OutcomeDeleted}))
}

func TestOrdersHook_CompensationFailureIsJoined(t *testing.T) {
	f := newFixture(t)
	errItems := errors.New("items rejected")
	errDelete := errors.New("delete rejected")
	hook := f.ordersHook(t, &failingStore[*trade.Order]{DocumentStore: f.orders, itemsErr: errItems, deleteErr: errDelete}, false)

	_, err := hook.CreateOrder(testutil.Context(t), f.orderInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, errItems)
	assert.ErrorIs(t, err, errDelete)
	assert.Contains(t, err.Error(), "compensating delete")

	assert.EqualValues(t, 1, f.count(t, &models.OrderModel{}))
	assert.Equal(t, 1.0, metricValue(t, f.metrics.Registry(), "portal_test_document_compensations_total",
		map[string]string{"kind": KindOrder, "outcome": metrics.OutcomeFailed}))
}

func TestOrdersHook_AtomicCreate(t *testing.T) {
	t.Run("commits header and items together", func(t *testing.T) {
		f := newFixture(t)
		hook := f.ordersHook(t, f.orders, true)

		order, err := hook.CreateOrder(testutil.Context(t), f.orderInput())
		require.NoError(t, err)
		assert.Len(t, order.Items, 2)
		assert.EqualValues(t, 1, f.count(t, &models.OrderModel{}))
		assert.EqualValues(t, 2, f.count(t, &models.OrderItemModel{}))
	})

	t.Run("rolls back without a compensating delete", func(t *testing.T) {
		f := newFixture(t)
		errItems := errors.New("items rejected")
		hook := f.ordersHook(t, &failingTxStore{TransactionalStore: f.orders, itemsErr: errItems}, true)

		_, err := hook.CreateOrder(testutil.Context(t), f.orderInput())
		require.ErrorIs(t, err, errItems)

		assert.Zero(t, f.count(t, &models.OrderModel{}))
		assert.Zero(t, metricValue(t, f.metrics.Registry(), "portal_test_document_compensations_total",
			map[string]string{"kind": KindOrder, "outcome": metrics.OutcomeDeleted}))
		assert.Equal(t, 1.0, metricValue(t, f.metrics.Registry(), "portal_test_document_create_failures_total",
			map[string]string{"kind": KindOrder, "stage": metrics.StageCommit}))
	})
}

func TestOrdersHook_FetchWithoutCompany(t *testing.T) {
	f := newFixture(t)
	f.session.set(session.Snapshot{Phase: session.PhaseAnonymous})
	hook := f.ordersHook(t, f.orders, false)

	require.NoError(t, hook.Refetch(testutil.Context(t)))

	state := hook.State()
	assert.Empty(t, state.Items)
	assert.NotNil(t, state.Items)
	assert.False(t, state.Loading)
	assert.NoError(t, state.Err)
}

func TestOrdersHook_RefetchIsIdempotent(t *testing.T) {
	f := newFixture(t)
	hook := f.ordersHook(t, f.orders, false)
	ctx := testutil.Context(t)

	first, err := hook.CreateOrder(ctx, f.orderInput())
	require.NoError(t, err)
	second, err := hook.CreateOrder(ctx, f.orderInput())
	require.NoError(t, err)

	require.NoError(t, hook.Refetch(ctx))
	a := hook.Orders()
	require.NoError(t, hook.Refetch(ctx))
	b := hook.Orders()

	require.Len(t, a, 2)
	require.Len(t, b, 2)
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.Len(t, b[i].Items, 2)
	}
	assert.Equal(t, second.ID, a[0].ID, "newest first")
	assert.Equal(t, first.ID, a[1].ID)
}

func TestOrdersHook_FetchErrorKeepsList(t *testing.T) {
	f := newFixture(t)
	store := &failingStore[*trade.Order]{DocumentStore: f.orders}
	hook := f.ordersHook(t, store, false)
	ctx := testutil.Context(t)

	_, err := hook.CreateOrder(ctx, f.orderInput())
	require.NoError(t, err)
	require.Len(t, hook.Orders(), 1)

	store.listErr = errors.New("connection reset")
	err = hook.Refetch(ctx)
	require.Error(t, err)

	state := hook.State()
	assert.Len(t, state.Items, 1)
	assert.False(t, state.Loading)
	assert.Contains(t, state.Error(), "connection reset")

	store.listErr = nil
	require.NoError(t, hook.Refetch(ctx))
	assert.Empty(t, hook.Error())
}

func TestOrdersHook_StaleFetchDropped(t *testing.T) {
	f := newFixture(t)
	store := &gatedStore{DocumentStore: f.orders, entered: make(chan struct{})}
	hook := f.ordersHook(t, store, false)
	ctx := testutil.Context(t)

	_, err := hook.CreateOrder(ctx, f.orderInput())
	require.NoError(t, err)

	release := make(chan struct{})
	store.gate.Store(&release)

	done := make(chan error, 1)
	go func() { done <- hook.Refetch(ctx) }()
	<-store.entered

	require.NoError(t, hook.Refetch(ctx))
	require.Len(t, hook.Orders(), 1)
	assert.False(t, hook.Loading())

	close(release)
	require.ErrorIs(t, <-done, shared.ErrSuperseded)

	assert.Len(t, hook.Orders(), 1, "older empty result must not replace the newer list")
	assert.Equal(t, 1.0, metricValue(t, f.metrics.Registry(), "portal_test_list_fetch_stale_total", map[string]string{"kind": KindOrder}))
}

func TestOrdersHook_ConcurrentListsKeepTheirFilter(t *testing.T) {
	f := newFixture(t)
	store := &statusGatedStore{
		DocumentStore: f.orders,
		status:        string(trade.OrderStatusPending),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	hook := f.ordersHook(t, store, false)
	ctx := testutil.Context(t)

	_, err := hook.CreateOrder(ctx, f.orderInput())
	require.NoError(t, err)
	shipped, err := hook.CreateOrder(ctx, f.orderInput())
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.OrderModel{}).Where("id = ?", shipped.ID).
		Update("status", string(trade.OrderStatusShipped)).Error)

	type result struct {
		orders []*trade.Order
		err    error
	}
	pending := make(chan result, 1)
	go func() {
		orders, err := hook.List(ctx, trade.ListFilter{Status: string(trade.OrderStatusPending)})
		pending <- result{orders, err}
	}()
	<-store.entered

	shippedOnly, err := hook.List(ctx, trade.ListFilter{Status: string(trade.OrderStatusShipped)})
	require.NoError(t, err)
	require.Len(t, shippedOnly, 1)
	assert.Equal(t, trade.OrderStatusShipped, shippedOnly[0].Status)

	close(store.release)
	got := <-pending
	require.NoError(t, got.err)
	require.Len(t, got.orders, 1)
	assert.Equal(t, trade.OrderStatusPending, got.orders[0].Status)
	assert.Len(t, got.orders[0].Items, 2)

	state := hook.Orders()
	require.Len(t, state, 1, "the newer listing owns the state")
	assert.Equal(t, shipped.ID, state[0].ID)
}

func TestOrdersHook_SetFilter(t *testing.T) {
	f := newFixture(t)
	hook := f.ordersHook(t, f.orders, false)
	ctx := testutil.Context(t)

	_, err := hook.CreateOrder(ctx, f.orderInput())
	require.NoError(t, err)

	require.NoError(t, hook.SetFilter(ctx, trade.ListFilter{Status: string(trade.OrderStatusCancelled)}))
	assert.Empty(t, hook.Orders())
	assert.Equal(t, string(trade.OrderStatusCancelled), hook.Filter().Status)

	require.NoError(t, hook.SetFilter(ctx, trade.ListFilter{Status: string(trade.OrderStatusPending)}))
	assert.Len(t, hook.Orders(), 1)
}

func TestOrdersHook_FollowsSessionCompany(t *testing.T) {
	f := newFixture(t)
	signedIn := f.signedIn()
	f.session.set(session.Snapshot{Phase: session.PhaseAnonymous})

	seed := NewOrdersHook(newFakeSession(signedIn), f.orders, nil, f.options(false))
	_, err := seed.CreateOrder(testutil.Context(t), f.orderInput())
	require.NoError(t, err)
	seed.Dispose()

	hook := f.ordersHook(t, f.orders, false)
	assert.Empty(t, hook.Orders())

	f.session.set(signedIn)
	require.Eventually(t, func() bool { return len(hook.Orders()) == 1 }, time.Second, 10*time.Millisecond)

	f.session.set(session.Snapshot{Phase: session.PhaseAnonymous})
	require.Eventually(t, func() bool { return len(hook.Orders()) == 0 }, time.Second, 10*time.Millisecond)
}

func TestOrdersHook_Dispose(t *testing.T) {
	f := newFixture(t)
	hook := NewOrdersHook(f.session, f.orders, nil, f.options(false))
	require.Equal(t, 1, f.session.watcherCount())

	hook.Dispose()
	hook.Dispose()

	assert.Zero(t, f.session.watcherCount())
	assert.ErrorIs(t, hook.Refetch(testutil.Context(t)), shared.ErrInvalidState)
	_, err := hook.CreateOrder(testutil.Context(t), f.orderInput())
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

// priceTable is a PriceSource over a fixed price list
type priceTable struct {
	prices map[uuid.UUID]decimal.Decimal
	err    error
}

func (p priceTable) PriceLookup(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(ids))
	for _, id := range ids {
		if price, ok := p.prices[id]; ok {
			out[id] = price
		}
	}
	return out, nil
}

func TestOrdersHook_PricesLinesFromCatalog(t *testing.T) {
	f := newFixture(t)
	opts := f.options(true)
	opts.Prices = priceTable{prices: map[uuid.UUID]decimal.Decimal{
		f.productA: decimal.RequireFromString("100.00"),
		f.productB: decimal.RequireFromString("50.00"),
	}}
	hook := NewOrdersHook(f.session, f.orders, nil, opts)
	t.Cleanup(hook.Dispose)
	hook.wg.Wait()
	ctx := testutil.Context(t)

	t.Run("missing price is filled in", func(t *testing.T) {
		in := f.orderInput()
		in.Lines[0].Price = decimal.Zero
		order, err := hook.CreateOrder(ctx, in)
		require.NoError(t, err)
		assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("250")), "subtotal %s", order.Subtotal)
		assert.True(t, order.Items[0].PriceAtTime.Equal(decimal.RequireFromString("100")))
		assert.True(t, in.Lines[0].Price.IsZero(), "caller's lines are not modified")
	})

	rejected := []struct {
		name string
		edit func(*CreateOrderInput)
		want error
	}{
		{name: "price below dealer price", edit: func(in *CreateOrderInput) { in.Lines[0].Price = decimal.RequireFromString("1.00") }, want: trade.ErrPriceMismatch},
		{name: "unknown product", edit: func(in *CreateOrderInput) { in.Lines[1].ProductID = uuid.New() }, want: trade.ErrProductUnavailable},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			in := f.orderInput()
			tt.edit(&in)
			_, err := hook.CreateOrder(ctx, in)
			require.ErrorIs(t, err, tt.want)
			assert.EqualValues(t, 1, f.count(t, &models.OrderModel{}))
		})
	}

	assert.Equal(t, 2.0, metricValue(t, f.metrics.Registry(), "portal_test_document_create_failures_total",
		map[string]string{"kind": KindOrder, "stage": metrics.StagePricing}))
}

func TestOrdersHook_PriceLookupFailure(t *testing.T) {
	f := newFixture(t)
	opts := f.options(false)
	opts.Prices = priceTable{err: errors.New("catalog unavailable")}
	hook := NewOrdersHook(f.session, f.orders, nil, opts)
	t.Cleanup(hook.Dispose)
	hook.wg.Wait()

	_, err := hook.CreateOrder(testutil.Context(t), f.orderInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog unavailable")
	assert.Zero(t, f.count(t, &models.OrderModel{}))
}

func TestQuotesHook_CreateQuote(t *testing.T) {
	f := newFixture(t)
	hook := NewQuotesHook(f.session, f.quotes, nil, 7*24*time.Hour, f.options(true))
	t.Cleanup(hook.Dispose)
	hook.wg.Wait()
	ctx := testutil.Context(t)

	before := time.Now()
	quote, err := hook.CreateQuote(ctx, CreateQuoteInput{
		Lines:        []trade.LineInput{{ProductID: f.productA, Quantity: 3, Price: decimal.RequireFromString("100.00")}},
		QuoteDetails: trade.QuoteDetails{ProjectName: "HQ refit"},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^QTE-`, quote.QuoteNumber)
	assert.Equal(t, trade.QuoteStatusDraft, quote.Status)
	assert.Equal(t, "HQ refit", quote.ProjectName)
	assert.WithinDuration(t, before.Add(7*24*time.Hour), quote.ValidUntil, time.Minute)
	assert.True(t, quote.Total.Equal(decimal.RequireFromString("321.75")), "total %s", quote.Total)

	quotes := hook.Quotes()
	require.Len(t, quotes, 1)
	assert.Equal(t, quote.ID, quotes[0].ID)
	assert.Len(t, quotes[0].Items, 1)

	t.Run("past valid-until is rejected", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, err := hook.CreateQuote(ctx, CreateQuoteInput{
			Lines:        []trade.LineInput{{ProductID: f.productA, Quantity: 1, Price: decimal.NewFromInt(1)}},
			QuoteDetails: trade.QuoteDetails{ValidUntil: &past},
		})
		require.Error(t, err)
		assert.Equal(t, "INVALID_VALID_UNTIL", shared.CodeOf(err))
	})
}
