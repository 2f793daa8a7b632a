// Package directory manages contacts and properties: the support entities the
// request workflow links to. Its find-or-create behavior prevents duplicate
// contact/property records across repeated submissions for the same person or
// address.
package directory

import (
	"context"
	"errors"
	"strings"

	"caseflow_backend/internal/directory/repository"
	"caseflow_backend/platform/phone"

	"github.com/google/uuid"
)

// Contact and Property are re-exported so callers don't import the repository.
type (
	Contact  = repository.Contact
	Property = repository.Property
)

// Contact roles.
const (
	RoleAgent     = "agent"
	RoleHomeowner = "homeowner"
)

// ContactPayload is the loosely-structured contact data arriving with an
// inbound request.
type ContactPayload struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Brokerage string
}

// PropertyPayload is the loosely-structured property data arriving with an
// inbound request.
type PropertyPayload struct {
	Street       string
	City         string
	State        string
	PostalCode   string
	PropertyType string
	Bedrooms     *int
	Bathrooms    *float64
}

// HasIdentity reports whether the payload carries enough data to resolve a contact.
func (p ContactPayload) HasIdentity() bool {
	return strings.TrimSpace(p.Email) != ""
}

// HasAddress reports whether the payload carries enough data to resolve a property.
func (p PropertyPayload) HasAddress() bool {
	return strings.TrimSpace(p.Street) != "" && strings.TrimSpace(p.City) != ""
}

// Store is the persistence surface the directory service needs.
type Store interface {
	CreateContact(ctx context.Context, params repository.CreateContactParams) (repository.Contact, error)
	GetContact(ctx context.Context, id uuid.UUID) (repository.Contact, error)
	FindContactByEmail(ctx context.Context, email, role string) (repository.Contact, error)
	CreateProperty(ctx context.Context, params repository.CreatePropertyParams) (repository.Property, error)
	GetProperty(ctx context.Context, id uuid.UUID) (repository.Property, error)
	FindPropertyByAddressKey(ctx context.Context, addressKey string) (repository.Property, error)
}

// Service resolves contact and property payloads to persisted records.
type Service struct {
	store Store
}

// New creates a directory service.
func New(store Store) *Service {
	return &Service{store: store}
}

// FindOrCreateContact resolves a contact by email within a role, creating it
// when no match exists. Phone numbers are normalized to E.164 before storage.
func (s *Service) FindOrCreateContact(ctx context.Context, role string, payload ContactPayload) (Contact, error) {
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	existing, err := s.store.FindContactByEmail(ctx, email, role)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return Contact{}, err
	}

	params := repository.CreateContactParams{
		Role:      role,
		FirstName: strings.TrimSpace(payload.FirstName),
		LastName:  strings.TrimSpace(payload.LastName),
		Email:     email,
	}
	if normalized := phone.NormalizeE164(payload.Phone); normalized != "" {
		params.Phone = &normalized
	}
	if brokerage := strings.TrimSpace(payload.Brokerage); brokerage != "" {
		params.Brokerage = &brokerage
	}

	return s.store.CreateContact(ctx, params)
}

// FindOrCreateProperty resolves a property by its composed address string,
// creating it when no match exists.
func (s *Service) FindOrCreateProperty(ctx context.Context, payload PropertyPayload) (Property, error) {
	key := AddressKey(payload)

	existing, err := s.store.FindPropertyByAddressKey(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return Property{}, err
	}

	params := repository.CreatePropertyParams{
		AddressKey: key,
		Street:     strings.TrimSpace(payload.Street),
		City:       strings.TrimSpace(payload.City),
		State:      strings.TrimSpace(payload.State),
		PostalCode: strings.TrimSpace(payload.PostalCode),
		Bedrooms:   payload.Bedrooms,
		Bathrooms:  payload.Bathrooms,
	}
	if propertyType := strings.TrimSpace(payload.PropertyType); propertyType != "" {
		params.PropertyType = &propertyType
	}

	return s.store.CreateProperty(ctx, params)
}

// GetContact fetches a contact by id.
func (s *Service) GetContact(ctx context.Context, id uuid.UUID) (Contact, error) {
	return s.store.GetContact(ctx, id)
}

// GetProperty fetches a property by id.
func (s *Service) GetProperty(ctx context.Context, id uuid.UUID) (Property, error) {
	return s.store.GetProperty(ctx, id)
}

// AddressKey composes the canonical lookup string for a property address.
func AddressKey(payload PropertyPayload) string {
	parts := []string{payload.Street, payload.City, payload.State, payload.PostalCode}
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cleaned = append(cleaned, strings.ToLower(trimmed))
		}
	}
	return strings.Join(cleaned, ", ")
}
