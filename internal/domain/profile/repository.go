package profile

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type profileModel struct {
	ID          string     `gorm:"column:id;primaryKey;type:varchar(64)"`
	Email       *string    `gorm:"column:email"`
	FullName    *string    `gorm:"column:full_name"`
	Phone       *string    `gorm:"column:phone"`
	DateOfBirth *time.Time `gorm:"column:date_of_birth;type:date"`
	Address     *string    `gorm:"column:address"`
	City        *string    `gorm:"column:city"`
	State       *string    `gorm:"column:state"`
	ZipCode     *string    `gorm:"column:zip_code"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (profileModel) TableName() string { return "profiles" }

// updateColumns are overwritten by UpdateOne. email, id and created_at never are.
var updateColumns = []string{
	"full_name", "phone", "date_of_birth", "address", "city", "state", "zip_code", "updated_at",
}

func toRecord(m profileModel) *Record {
	var dob *time.Time
	if m.DateOfBirth != nil {
		y, mo, d := m.DateOfBirth.Date()
		day := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
		dob = &day
	}
	return &Record{
		ID:          m.ID,
		Email:       stringValue(m.Email),
		FullName:    stringValue(m.FullName),
		Phone:       stringValue(m.Phone),
		DateOfBirth: dob,
		Address:     stringValue(m.Address),
		City:        stringValue(m.City),
		State:       stringValue(m.State),
		ZipCode:     stringValue(m.ZipCode),
	}
}

// Migrate creates or updates the profiles table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&profileModel{})
}

// Repository is the gorm-backed Store.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ReadOne(ctx context.Context, id string) (*Record, error) {
	var m profileModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, storeError("read profile", err)
	}
	return toRecord(m), nil
}

// UpdateOne writes the mutable fields of id's profile. The row is created on
// first write so a user who never had a profile can save one.
func (r *Repository) UpdateOne(ctx context.Context, id string, u Update) error {
	now := time.Now().UTC()
	m := profileModel{
		ID:          id,
		FullName:    nullString(u.FullName),
		Phone:       nullString(u.Phone),
		DateOfBirth: u.DateOfBirth,
		Address:     nullString(u.Address),
		City:        nullString(u.City),
		State:       nullString(u.State),
		ZipCode:     nullString(u.ZipCode),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).Create(&m).Error
	if err != nil {
		return storeError("update profile", err)
	}
	return nil
}

// Provision inserts or fully replaces a profile, email included.
func (r *Repository) Provision(ctx context.Context, rec Record) error {
	now := time.Now().UTC()
	m := profileModel{
		ID:          rec.ID,
		Email:       nullString(rec.Email),
		FullName:    nullString(rec.FullName),
		Phone:       nullString(rec.Phone),
		DateOfBirth: rec.DateOfBirth,
		Address:     nullString(rec.Address),
		City:        nullString(rec.City),
		State:       nullString(rec.State),
		ZipCode:     nullString(rec.ZipCode),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(append([]string{"email"}, updateColumns...)),
	}).Create(&m).Error
	if err != nil {
		return storeError("provision profile", err)
	}
	return nil
}

func storeError(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exception, 57P0x: server shutting down
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0")
	}
	return false
}
