package directory

import (
	"context"
	"strings"
	"testing"

	"caseflow_backend/internal/directory/repository"

	"github.com/google/uuid"
)

type fakeStore struct {
	contactsByKey  map[string]repository.Contact
	propertiesByKey map[string]repository.Property
	contactCreates int
	propertyCreates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contactsByKey:   make(map[string]repository.Contact),
		propertiesByKey: make(map[string]repository.Property),
	}
}

func (f *fakeStore) CreateContact(_ context.Context, params repository.CreateContactParams) (repository.Contact, error) {
	f.contactCreates++
	contact := repository.Contact{
		ID:        uuid.New(),
		Role:      params.Role,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Email:     params.Email,
		Phone:     params.Phone,
		Brokerage: params.Brokerage,
	}
	f.contactsByKey[params.Role+"|"+params.Email] = contact
	return contact, nil
}

func (f *fakeStore) GetContact(_ context.Context, id uuid.UUID) (repository.Contact, error) {
	for _, c := range f.contactsByKey {
		if c.ID == id {
			return c, nil
		}
	}
	return repository.Contact{}, repository.ErrNotFound
}

func (f *fakeStore) FindContactByEmail(_ context.Context, email, role string) (repository.Contact, error) {
	if c, ok := f.contactsByKey[role+"|"+email]; ok {
		return c, nil
	}
	return repository.Contact{}, repository.ErrNotFound
}

func (f *fakeStore) CreateProperty(_ context.Context, params repository.CreatePropertyParams) (repository.Property, error) {
	f.propertyCreates++
	property := repository.Property{
		ID:         uuid.New(),
		AddressKey: params.AddressKey,
		Street:     params.Street,
		City:       params.City,
		State:      params.State,
		PostalCode: params.PostalCode,
	}
	f.propertiesByKey[params.AddressKey] = property
	return property, nil
}

func (f *fakeStore) GetProperty(_ context.Context, id uuid.UUID) (repository.Property, error) {
	for _, p := range f.propertiesByKey {
		if p.ID == id {
			return p, nil
		}
	}
	return repository.Property{}, repository.ErrNotFound
}

func (f *fakeStore) FindPropertyByAddressKey(_ context.Context, addressKey string) (repository.Property, error) {
	if p, ok := f.propertiesByKey[addressKey]; ok {
		return p, nil
	}
	return repository.Property{}, repository.ErrNotFound
}

func TestFindOrCreateContactReusesByEmailAndRole(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	payload := ContactPayload{FirstName: "Ana", LastName: "Cole", Email: "Ana.Cole@Example.com"}

	first, err := svc.FindOrCreateContact(context.Background(), RoleAgent, payload)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	if first.Email != "ana.cole@example.com" {
		t.Fatalf("expected lowercased email, got %q", first.Email)
	}

	second, err := svc.FindOrCreateContact(context.Background(), RoleAgent, payload)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected the existing contact to be reused")
	}
	if store.contactCreates != 1 {
		t.Fatalf("expected a single create, got %d", store.contactCreates)
	}
}

func TestFindOrCreateContactSeparatesRoles(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	payload := ContactPayload{Email: "shared@example.com"}

	asAgent, err := svc.FindOrCreateContact(context.Background(), RoleAgent, payload)
	if err != nil {
		t.Fatalf("agent resolve failed: %v", err)
	}
	asHomeowner, err := svc.FindOrCreateContact(context.Background(), RoleHomeowner, payload)
	if err != nil {
		t.Fatalf("homeowner resolve failed: %v", err)
	}
	if asAgent.ID == asHomeowner.ID {
		t.Fatal("same email under different roles must yield distinct contacts")
	}
}

func TestFindOrCreateContactNormalizesPhone(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	contact, err := svc.FindOrCreateContact(context.Background(), RoleHomeowner, ContactPayload{
		Email: "owner@example.com",
		Phone: "(415) 555-0147",
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if contact.Phone == nil || !strings.HasPrefix(*contact.Phone, "+1") {
		t.Fatalf("expected E.164 phone, got %v", contact.Phone)
	}
}

func TestFindOrCreatePropertyReusesByAddress(t *testing.T) {
	store := newFakeStore()
	svc := New(store)

	payload := PropertyPayload{Street: "12 Oak Ln", City: "Springfield", State: "IL", PostalCode: "62704"}

	first, err := svc.FindOrCreateProperty(context.Background(), payload)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	// Same address with different casing and spacing resolves to the same row.
	second, err := svc.FindOrCreateProperty(context.Background(), PropertyPayload{
		Street: "12 oak ln ", City: " SPRINGFIELD", State: "il", PostalCode: "62704",
	})
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatal("expected the existing property to be reused")
	}
	if store.propertyCreates != 1 {
		t.Fatalf("expected a single create, got %d", store.propertyCreates)
	}
}

func TestAddressKeySkipsBlankParts(t *testing.T) {
	key := AddressKey(PropertyPayload{Street: "12 Oak Ln", City: "Springfield"})
	if key != "12 oak ln, springfield" {
		t.Fatalf("unexpected key %q", key)
	}
}
