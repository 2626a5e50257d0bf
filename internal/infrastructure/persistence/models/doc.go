// Package models contains GORM persistence models for the portal tables.
// Domain entities stay free of ORM tags; each model converts to and from its
// entity with ToDomain / FromDomain.
package models

// All lists every model, in dependency order, for schema creation in tests
func All() []any {
	return []any{
		&UserModel{},
		&CompanyModel{},
		&ProfileModel{},
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
		&QuoteModel{},
		&QuoteItemModel{},
	}
}
