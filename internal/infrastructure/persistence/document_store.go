package persistence

import (
	"context"

	"github.com/dealerportal/backend/internal/domain/trade"
	"github.com/dealerportal/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxDocumentPage = 500

// documentMapping binds a document type to its header and item models
type documentMapping[D trade.Document, H any, I any] struct {
	parentColumn     string // item column referencing the header
	headerFromDomain func(D) *H
	headerToDomain   func(*H) D
	itemFromDomain   func(trade.LineItem) I
	itemToDomain     func(*I) trade.LineItem
}

// GormDocumentStore implements trade.TransactionalStore for one document
// type. Every read is scoped to a company.
type GormDocumentStore[D trade.Document, H any, I any] struct {
	db      *gorm.DB
	mapping documentMapping[D, H, I]
}

// OrderStore persists orders and order_items
type OrderStore = GormDocumentStore[*trade.Order, models.OrderModel, models.OrderItemModel]

// QuoteStore persists quotes and quote_items
type QuoteStore = GormDocumentStore[*trade.Quote, models.QuoteModel, models.QuoteItemModel]

// NewGormOrderStore creates the order store
func NewGormOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{
		db: db,
		mapping: documentMapping[*trade.Order, models.OrderModel, models.OrderItemModel]{
			parentColumn:     "order_id",
			headerFromDomain: models.OrderModelFromDomain,
			headerToDomain:   (*models.OrderModel).ToDomain,
			itemFromDomain:   models.OrderItemModelFromDomain,
			itemToDomain:     (*models.OrderItemModel).ToDomain,
		},
	}
}

// NewGormQuoteStore creates the quote store
func NewGormQuoteStore(db *gorm.DB) *QuoteStore {
	return &QuoteStore{
		db: db,
		mapping: documentMapping[*trade.Quote, models.QuoteModel, models.QuoteItemModel]{
			parentColumn:     "quote_id",
			headerFromDomain: models.QuoteModelFromDomain,
			headerToDomain:   (*models.QuoteModel).ToDomain,
			itemFromDomain:   models.QuoteItemModelFromDomain,
			itemToDomain:     (*models.QuoteItemModel).ToDomain,
		},
	}
}

// FindAllForCompany returns headers newest-first, without items
func (s *GormDocumentStore[D, H, I]) FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter trade.ListFilter) ([]D, error) {
	query := s.db.WithContext(ctx).Model(new(H)).Where("company_id = ?", companyID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", filter.To.UTC())
	}
	limit := filter.Limit
	if limit <= 0 || limit > maxDocumentPage {
		limit = maxDocumentPage
	}

	var rows []H
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	docs := make([]D, len(rows))
	for i := range rows {
		docs[i] = s.mapping.headerToDomain(&rows[i])
	}
	return docs, nil
}

// FindItems loads the lines of all given documents in a single IN query
func (s *GormDocumentStore[D, H, I]) FindItems(ctx context.Context, documentIDs []uuid.UUID) (map[uuid.UUID][]trade.LineItem, error) {
	out := make(map[uuid.UUID][]trade.LineItem, len(documentIDs))
	if len(documentIDs) == 0 {
		return out, nil
	}

	var rows []I
	if err := s.db.WithContext(ctx).
		Where(s.mapping.parentColumn+" IN ?", documentIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	for i := range rows {
		item := s.mapping.itemToDomain(&rows[i])
		out[item.DocumentID] = append(out[item.DocumentID], item)
	}
	return out, nil
}

// InsertHeader inserts the header row; a duplicate number yields shared.ErrAlreadyExists
func (s *GormDocumentStore[D, H, I]) InsertHeader(ctx context.Context, doc D) error {
	return translateError(s.db.WithContext(ctx).Create(s.mapping.headerFromDomain(doc)).Error)
}

// InsertItems inserts all lines in one statement
func (s *GormDocumentStore[D, H, I]) InsertItems(ctx context.Context, items []trade.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]I, len(items))
	for i, item := range items {
		rows[i] = s.mapping.itemFromDomain(item)
	}
	return translateError(s.db.WithContext(ctx).Create(&rows).Error)
}

// DeleteHeader removes a header together with any lines that reference it
func (s *GormDocumentStore[D, H, I]) DeleteHeader(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(s.mapping.parentColumn+" = ?", id).Delete(new(I)).Error; err != nil {
			return translateError(err)
		}
		return translateError(tx.Where("id = ?", id).Delete(new(H)).Error)
	})
}

// WithinTransaction runs fn against a store bound to one transaction
func (s *GormDocumentStore[D, H, I]) WithinTransaction(ctx context.Context, fn func(tx trade.DocumentStore[D]) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormDocumentStore[D, H, I]{db: tx, mapping: s.mapping})
	})
}
