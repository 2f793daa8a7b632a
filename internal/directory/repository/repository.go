// Package repository provides Postgres persistence for contacts and properties.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Contact is a person linked to requests and quotes: an agent or a homeowner.
type Contact struct {
	ID        uuid.UUID
	Role      string
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Brokerage *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Property is a physical address a request refers to.
type Property struct {
	ID           uuid.UUID
	AddressKey   string
	Street       string
	City         string
	State        string
	PostalCode   string
	PropertyType *string
	Bedrooms     *int
	Bathrooms    *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateContactParams carries the fields for a new contact.
type CreateContactParams struct {
	Role      string
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Brokerage *string
}

// CreatePropertyParams carries the fields for a new property.
type CreatePropertyParams struct {
	AddressKey   string
	Street       string
	City         string
	State        string
	PostalCode   string
	PropertyType *string
	Bedrooms     *int
	Bathrooms    *float64
}

// Repository is the pgx-backed directory store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a directory repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contactColumns = `id, role, first_name, last_name, email, phone, brokerage, created_at, updated_at`

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.Role, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Brokerage, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	return c, err
}

// CreateContact inserts a new contact.
func (r *Repository) CreateContact(ctx context.Context, params CreateContactParams) (Contact, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (role, first_name, last_name, email, phone, brokerage)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+contactColumns,
		params.Role, params.FirstName, params.LastName, params.Email, params.Phone, params.Brokerage)
	return scanContact(row)
}

// GetContact fetches a contact by id.
func (r *Repository) GetContact(ctx context.Context, id uuid.UUID) (Contact, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	return scanContact(row)
}

// FindContactByEmail locates a contact by case-insensitive email and role.
func (r *Repository) FindContactByEmail(ctx context.Context, email, role string) (Contact, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE lower(email) = lower($1) AND role = $2
		ORDER BY created_at ASC
		LIMIT 1`, email, role)
	return scanContact(row)
}

const propertyColumns = `id, address_key, street, city, state, postal_code, property_type, bedrooms, bathrooms, created_at, updated_at`

func scanProperty(row pgx.Row) (Property, error) {
	var p Property
	err := row.Scan(&p.ID, &p.AddressKey, &p.Street, &p.City, &p.State, &p.PostalCode, &p.PropertyType, &p.Bedrooms, &p.Bathrooms, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Property{}, ErrNotFound
	}
	return p, err
}

// CreateProperty inserts a new property.
func (r *Repository) CreateProperty(ctx context.Context, params CreatePropertyParams) (Property, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO properties (address_key, street, city, state, postal_code, property_type, bedrooms, bathrooms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+propertyColumns,
		params.AddressKey, params.Street, params.City, params.State, params.PostalCode,
		params.PropertyType, params.Bedrooms, params.Bathrooms)
	return scanProperty(row)
}

// GetProperty fetches a property by id.
func (r *Repository) GetProperty(ctx context.Context, id uuid.UUID) (Property, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	return scanProperty(row)
}

// FindPropertyByAddressKey locates a property by its composed address string.
func (r *Repository) FindPropertyByAddressKey(ctx context.Context, addressKey string) (Property, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+propertyColumns+`
		FROM properties
		WHERE address_key = $1
		ORDER BY created_at ASC
		LIMIT 1`, addressKey)
	return scanProperty(row)
}
