package trade

import (
	"context"
	"time"

	"github.com/dealerportal/backend/internal/domain/trade"
)

// KindQuote labels quote logs and metrics
const KindQuote = "quote"

// CreateQuoteInput is what a dealer submits to request a quote
type CreateQuoteInput struct {
	Lines []trade.LineInput `json:"lines" validate:"required,min=1,dive"`
	trade.QuoteDetails
}

// QuotesHook is the quote list and create flow of one session
type QuotesHook struct {
	*DocumentHook[*trade.Quote]
	validity time.Duration
}

// NewQuotesHook creates the quotes hook. validity is how long a quote stays
// open when the caller gives no date; zero uses trade.DefaultQuoteValidity.
func NewQuotesHook(sess Session, store trade.DocumentStore[*trade.Quote], numbers *trade.NumberGenerator, validity time.Duration, opts Options) *QuotesHook {
	if numbers == nil {
		numbers = trade.NewNumberGenerator(trade.QuoteNumberPrefix)
	}
	return &QuotesHook{
		DocumentHook: NewDocumentHook(KindQuote, sess, store, numbers, opts),
		validity:     validity,
	}
}

// Quotes returns the current list
func (h *QuotesHook) Quotes() []*trade.Quote { return h.Items() }

// CreateQuote creates a draft quote for the session's company
func (h *QuotesHook) CreateQuote(ctx context.Context, in CreateQuoteInput) (*trade.Quote, error) {
	return h.create(ctx, in, in.Lines, func(s scope, number string, totals trade.Totals) (*trade.Quote, error) {
		return trade.NewQuote(number, s.CompanyID, s.UserID, totals, in.QuoteDetails, h.validity)
	})
}
