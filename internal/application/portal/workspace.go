// Package portal assembles per-session workspaces: one session store with
// its order, quote and product hooks, tracked by session id.
package portal

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	appcatalog "github.com/dealerportal/backend/internal/application/catalog"
	"github.com/dealerportal/backend/internal/application/session"
	apptrade "github.com/dealerportal/backend/internal/application/trade"
	"github.com/dealerportal/backend/internal/domain/catalog"
	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/dealerportal/backend/internal/domain/trade"
	"github.com/dealerportal/backend/internal/infrastructure/auth"
	"github.com/dealerportal/backend/internal/infrastructure/config"
	"github.com/dealerportal/backend/internal/infrastructure/metrics"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Deps are the shared collaborators every workspace is built from
type Deps struct {
	Auth      *auth.Service
	Profiles  identity.ProfileRepository
	Companies identity.CompanyRepository
	Products  catalog.ProductRepository
	Orders    trade.DocumentStore[*trade.Order]
	Quotes    trade.DocumentStore[*trade.Quote]
	Portal    config.PortalConfig
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// Workspace is everything one signed-in session works with
type Workspace struct {
	Client   *auth.Client
	Session  *session.Store
	Orders   *apptrade.OrdersHook
	Quotes   *apptrade.QuotesHook
	Products *appcatalog.ProductHook

	lastUsed atomic.Int64
}

// SessionID returns the id of the session the workspace serves
func (w *Workspace) SessionID() string { return w.Client.SessionID() }

func (w *Workspace) touch(now time.Time) { w.lastUsed.Store(now.UnixNano()) }

// LastUsed returns when the workspace last served a request
func (w *Workspace) LastUsed() time.Time { return time.Unix(0, w.lastUsed.Load()) }

// Dispose detaches the hooks and the session store
func (w *Workspace) Dispose() {
	w.Orders.Dispose()
	w.Quotes.Dispose()
	w.Products.Dispose()
	w.Session.Dispose()
}

// builder creates workspaces; number generators are shared so document
// numbers stay unique across sessions.
type builder struct {
	deps      Deps
	orderNums *trade.NumberGenerator
	quoteNums *trade.NumberGenerator
	tax       trade.TaxPolicy
	validate  *validator.Validate
	logger    *zap.Logger
}

func newBuilder(deps Deps) *builder {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	orderPrefix := deps.Portal.OrderNumberPrefix
	if orderPrefix == "" {
		orderPrefix = trade.OrderNumberPrefix
	}
	quotePrefix := deps.Portal.QuoteNumberPrefix
	if quotePrefix == "" {
		quotePrefix = trade.QuoteNumberPrefix
	}
	return &builder{
		deps:      deps,
		orderNums: trade.NewNumberGenerator(orderPrefix),
		quoteNums: trade.NewNumberGenerator(quotePrefix),
		tax:       trade.NewTaxPolicy(deps.Portal.TaxDefaultRate, deps.Portal.TaxJurisdictions),
		validate:  apptrade.NewValidator(),
		logger:    logger,
	}
}

// build wires a workspace around client and resolves its session
func (b *builder) build(ctx context.Context, client *auth.Client) (*Workspace, error) {
	logger := b.logger.With(zap.String("session_id", client.SessionID()))
	store := session.NewStore(session.Deps{
		Auth:      client,
		Profiles:  b.deps.Profiles,
		Companies: b.deps.Companies,
		Logger:    logger,
		Metrics:   b.deps.Metrics,
	})
	products := appcatalog.NewProductHook(b.deps.Products, logger, b.deps.Metrics)
	opts := apptrade.Options{
		TaxPolicy:    b.tax,
		Prices:       products,
		AtomicCreate: b.deps.Portal.AtomicCreate,
		Validator:    b.validate,
		Logger:       logger,
		Metrics:      b.deps.Metrics,
	}
	ws := &Workspace{
		Client:   client,
		Session:  store,
		Orders:   apptrade.NewOrdersHook(store, b.deps.Orders, b.orderNums, opts),
		Quotes:   apptrade.NewQuotesHook(store, b.deps.Quotes, b.quoteNums, b.deps.Portal.QuoteValidity, opts),
		Products: products,
	}
	if err := store.Init(ctx); err != nil {
		ws.Dispose()
		return nil, fmt.Errorf("init session: %w", err)
	}
	return ws, nil
}
