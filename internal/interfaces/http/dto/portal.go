package dto

import (
	"time"

	"github.com/dealerportal/backend/internal/application/session"
	"github.com/dealerportal/backend/internal/domain/catalog"
	"github.com/dealerportal/backend/internal/domain/identity"
	"github.com/dealerportal/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SignInRequest is the body of POST /auth/sign-in
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignUpRequest is the body of POST /auth/sign-up
type SignUpRequest struct {
	Email     string     `json:"email" binding:"required,email"`
	Password  string     `json:"password" binding:"required,min=8,max=72"`
	FullName  string     `json:"full_name" binding:"required,max=200"`
	CompanyID *uuid.UUID `json:"company_id"`
}

// RefreshRequest is the body of POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest is the body of PATCH /session/profile.
// Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name" binding:"omitempty,max=200"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=500"`
}

// ToProfileUpdate converts the request to a domain update
func (r UpdateProfileRequest) ToProfileUpdate() identity.ProfileUpdate {
	return identity.ProfileUpdate{
		FullName:  r.FullName,
		Phone:     r.Phone,
		AvatarURL: r.AvatarURL,
	}
}

// ProductQuery is the query string of GET /products
type ProductQuery struct {
	Category   string `form:"category"`
	Brand      string `form:"brand"`
	Search     string `form:"search"`
	ActiveOnly *bool  `form:"active_only"`
	Limit      int    `form:"limit" binding:"omitempty,min=0,max=500"`
}

// ToFilter converts the query to a product filter
func (q ProductQuery) ToFilter() catalog.ProductFilter {
	return catalog.ProductFilter{
		Category:   q.Category,
		Brand:      q.Brand,
		Search:     q.Search,
		ActiveOnly: q.ActiveOnly,
		Limit:      q.Limit,
	}
}

// UserResponse is the signed-in identity
type UserResponse struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	CreatedAt    time.Time  `json:"created_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
}

// ProfileResponse is the portal profile of a user
type ProfileResponse struct {
	ID        uuid.UUID  `json:"id"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	FullName  string     `json:"full_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Role      string     `json:"role"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CompanyResponse is the dealer company a user acts for
type CompanyResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	AccountNumber   string          `json:"account_number,omitempty"`
	TaxJurisdiction string          `json:"tax_jurisdiction,omitempty"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	PaymentTerms    string          `json:"payment_terms,omitempty"`
	City            string          `json:"city,omitempty"`
	State           string          `json:"state,omitempty"`
	Country         string          `json:"country,omitempty"`
	IsActive        bool            `json:"is_active"`
}

// SessionResponse is the session state of the caller
type SessionResponse struct {
	Phase   string           `json:"phase"`
	Loading bool             `json:"loading"`
	User    *UserResponse    `json:"user"`
	Profile *ProfileResponse `json:"profile"`
	Company *CompanyResponse `json:"company"`
}

// AuthResponse is returned by sign-in and sign-up
type AuthResponse struct {
	SessionID    string          `json:"session_id"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresAt    time.Time       `json:"expires_at"`
	Session      SessionResponse `json:"session"`
}

// TokenResponse is returned by refresh
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LineItemResponse is one line of an order or quote
type LineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
	Amount      decimal.Decimal `json:"amount"`
}

// OrderResponse is an order with its items
type OrderResponse struct {
	ID                    uuid.UUID          `json:"id"`
	OrderNumber           string             `json:"order_number"`
	CompanyID             uuid.UUID          `json:"company_id"`
	UserID                uuid.UUID          `json:"user_id"`
	Status                string             `json:"status"`
	Subtotal              decimal.Decimal    `json:"subtotal"`
	Tax                   decimal.Decimal    `json:"tax"`
	Total                 decimal.Decimal    `json:"total"`
	ShippingAddress       string             `json:"shipping_address,omitempty"`
	BillingAddress        string             `json:"billing_address,omitempty"`
	PONumber              string             `json:"po_number,omitempty"`
	Notes                 string             `json:"notes,omitempty"`
	RequestedDeliveryDate *time.Time         `json:"requested_delivery_date,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	Items                 []LineItemResponse `json:"items"`
}

// QuoteResponse is a quote with its items
type QuoteResponse struct {
	ID          uuid.UUID          `json:"id"`
	QuoteNumber string             `json:"quote_number"`
	CompanyID   uuid.UUID          `json:"company_id"`
	UserID      uuid.UUID          `json:"user_id"`
	Status      string             `json:"status"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	Tax         decimal.Decimal    `json:"tax"`
	Total       decimal.Decimal    `json:"total"`
	ProjectName string             `json:"project_name,omitempty"`
	ValidUntil  time.Time          `json:"valid_until"`
	Notes       string             `json:"notes,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	Items       []LineItemResponse `json:"items"`
}

// ProductResponse is a catalog entry
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	DealerPrice decimal.Decimal `json:"dealer_price"`
	MSRP        decimal.Decimal `json:"msrp"`
	IsActive    bool            `json:"is_active"`
}

// ToSessionResponse converts a session snapshot
func ToSessionResponse(s session.Snapshot) SessionResponse {
	out := SessionResponse{Phase: string(s.Phase), Loading: s.Loading}
	if s.User != nil {
		out.User = &UserResponse{
			ID:           s.User.ID,
			Email:        s.User.Email,
			CreatedAt:    s.User.CreatedAt,
			LastSignInAt: s.User.LastSignInAt,
		}
	}
	if p := s.Profile; p != nil {
		out.Profile = ToProfileResponse(p)
	}
	if co := s.Company; co != nil {
		out.Company = &CompanyResponse{
			ID:              co.ID,
			Name:            co.Name,
			AccountNumber:   co.AccountNumber,
			TaxJurisdiction: co.TaxJurisdiction,
			CreditLimit:     co.CreditLimit,
			PaymentTerms:    co.PaymentTerms,
			City:            co.City,
			State:           co.State,
			Country:         co.Country,
			IsActive:        co.IsActive,
		}
	}
	return out
}

// ToProfileResponse converts a profile
func ToProfileResponse(p *identity.Profile) *ProfileResponse {
	return &ProfileResponse{
		ID:        p.ID,
		CompanyID: p.CompanyID,
		FullName:  p.FullName,
		Email:     p.Email,
		Phone:     p.Phone,
		Role:      p.Role,
		AvatarURL: p.AvatarURL,
		UpdatedAt: p.UpdatedAt,
	}
}

func toLineItemResponses(items []trade.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, LineItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceAtTime: item.PriceAtTime,
			Amount:      item.Amount(),
		})
	}
	return out
}

// ToOrderResponse converts an order
func ToOrderResponse(o *trade.Order) OrderResponse {
	return OrderResponse{
		ID:                    o.ID,
		OrderNumber:           o.OrderNumber,
		CompanyID:             o.CompanyID,
		UserID:                o.UserID,
		Status:                o.Status.String(),
		Subtotal:              o.Subtotal,
		Tax:                   o.Tax,
		Total:                 o.Total,
		ShippingAddress:       o.ShippingAddress,
		BillingAddress:        o.BillingAddress,
		PONumber:              o.PONumber,
		Notes:                 o.Notes,
		RequestedDeliveryDate: o.RequestedDeliveryDate,
		CreatedAt:             o.CreatedAt,
		Items:                 toLineItemResponses(o.Items),
	}
}

// ToOrderResponses converts a list of orders
func ToOrderResponses(orders []*trade.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToOrderResponse(o))
	}
	return out
}

// ToQuoteResponse converts a quote
func ToQuoteResponse(q *trade.Quote) QuoteResponse {
	return QuoteResponse{
		ID:          q.ID,
		QuoteNumber: q.QuoteNumber,
		CompanyID:   q.CompanyID,
		UserID:      q.UserID,
		Status:      q.Status.String(),
		Subtotal:    q.Subtotal,
		Tax:         q.Tax,
		Total:       q.Total,
		ProjectName: q.ProjectName,
		ValidUntil:  q.ValidUntil,
		Notes:       q.Notes,
		CreatedAt:   q.CreatedAt,
		Items:       toLineItemResponses(q.Items),
	}
}

// ToQuoteResponses converts a list of quotes
func ToQuoteResponses(quotes []*trade.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, ToQuoteResponse(q))
	}
	return out
}

// ToProductResponses converts catalog products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductResponse{
			ID:          p.ID,
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			Brand:       p.Brand,
			DealerPrice: p.DealerPrice,
			MSRP:        p.MSRP,
			IsActive:    p.IsActive,
		})
	}
	return out
}
