package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Document is the common shape of orders and quotes as seen by list/create flows
type Document interface {
	DocumentID() uuid.UUID
	Number() string
	CreatedAtTime() time.Time
	AttachItems(items []LineItem)
}

// ListFilter narrows a document listing. Nil and zero fields are ignored.
type ListFilter struct {
	Status string     `form:"status" json:"status,omitempty"`
	From   *time.Time `form:"from" json:"from,omitempty"`
	To     *time.Time `form:"to" json:"to,omitempty"`
	Limit  int        `form:"limit" json:"limit,omitempty"`
}

// DocumentStore is the persistence port used by the document hooks.
// All reads are scoped to a single company.
type DocumentStore[D Document] interface {
	// FindAllForCompany returns headers newest-first without items attached
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]D, error)

	// FindItems loads the items of many documents in one query, keyed by document id
	FindItems(ctx context.Context, documentIDs []uuid.UUID) (map[uuid.UUID][]LineItem, error)

	InsertHeader(ctx context.Context, doc D) error
	InsertItems(ctx context.Context, items []LineItem) error
	DeleteHeader(ctx context.Context, id uuid.UUID) error
}

// TransactionalStore is implemented by stores able to run header and item
// inserts atomically. fn receives a store bound to the transaction.
type TransactionalStore[D Document] interface {
	DocumentStore[D]
	WithinTransaction(ctx context.Context, fn func(tx DocumentStore[D]) error) error
}
