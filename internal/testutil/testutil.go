// Package testutil provides shared fixtures for the portal tests: mocked and
// in-memory databases, seed helpers and a scriptable auth provider.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dealerportal/backend/internal/infrastructure/persistence/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for SQL shape tests
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a Postgres-dialect GORM handle over sqlmock.
// The connection is closed when the test ends.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// ExpectationsWereMet verifies that all expectations were met
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// NewSQLiteDB opens an in-memory SQLite database with every portal table.
// A single connection keeps all statements on the same in-memory database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Discard,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// NewTestUUID generates a deterministic UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// SeedCompany inserts an active company in the given tax jurisdiction
func SeedCompany(t *testing.T, db *gorm.DB, name, jurisdiction string) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	m := &models.CompanyModel{
		BaseModel:       models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:            name,
		AccountNumber:   "ACCT-" + uuid.NewString()[:8],
		TaxJurisdiction: jurisdiction,
		CreditLimit:     decimal.NewFromInt(50000),
		PaymentTerms:    "NET30",
		Country:         "US",
		IsActive:        true,
	}
	require.NoError(t, db.Create(m).Error)
	return m.ID
}

// SeedUser inserts a user with a profile; companyID may be nil
func SeedUser(t *testing.T, db *gorm.DB, email string, companyID *uuid.UUID) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.New()
	require.NoError(t, db.Create(&models.UserModel{
		BaseModel:    models.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		Email:        email,
		PasswordHash: "x",
	}).Error)
	require.NoError(t, db.Create(&models.ProfileModel{
		BaseModel: models.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		CompanyID: companyID,
		FullName:  "Test Dealer",
		Email:     email,
		Role:      "dealer",
	}).Error)
	return id
}

// SeedProduct inserts a product with the given dealer price
func SeedProduct(t *testing.T, db *gorm.DB, sku, name, category, price string, active bool) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	dealer := decimal.RequireFromString(price)
	m := &models.ProductModel{
		BaseModel:   models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		SKU:         sku,
		Name:        name,
		Category:    category,
		Brand:       "Acme",
		DealerPrice: dealer,
		MSRP:        dealer.Mul(decimal.RequireFromString("1.4")),
		IsActive:    active,
	}
	require.NoError(t, db.Create(m).Error)
	return m.ID
}

// Context returns a context cancelled when the test ends
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
