package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/esmailgumaan/contact_svc/internal/model"
)

const (
	// DefaultContactListLimit caps how many contacts a listing returns by default.
	DefaultContactListLimit = 100

	errorMessageNilDatabase  = "storage: nil database"
	errorMessageStoreContact = "storage: store contact"
	errorMessageListContacts = "storage: list contacts"
)

// ErrNilDatabase indicates a ContactStore was constructed without a database handle.
var ErrNilDatabase = errors.New(errorMessageNilDatabase)

// ContactStore persists and lists contact-form submissions.
type ContactStore struct {
	database *gorm.DB
}

// NewContactStore creates a ContactStore backed by the provided database.
func NewContactStore(database *gorm.DB) (*ContactStore, error) {
	if database == nil {
		return nil, ErrNilDatabase
	}
	return &ContactStore{database: database}, nil
}

// StoreContact inserts the contact record, assigning a fresh identifier, and
// returns the identifier. The write is committed before the call returns.
func (store *ContactStore) StoreContact(ctx context.Context, contact model.Contact) (string, error) {
	contact.ID = NewID()
	if createErr := store.database.WithContext(ctx).Create(&contact).Error; createErr != nil {
		return "", fmt.Errorf("%s: %w", errorMessageStoreContact, createErr)
	}
	return contact.ID, nil
}

// ListRecentContacts returns up to limit contacts ordered newest first. Ties
// on the creation timestamp are broken by insertion order. A non-positive or
// oversized limit is clamped to DefaultContactListLimit.
func (store *ContactStore) ListRecentContacts(ctx context.Context, limit int) ([]model.Contact, error) {
	if limit <= 0 || limit > DefaultContactListLimit {
		limit = DefaultContactListLimit
	}

	var contacts []model.Contact
	queryErr := store.database.WithContext(ctx).
		Order("created_at DESC, rowid DESC").
		Limit(limit).
		Find(&contacts).Error
	if queryErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageListContacts, queryErr)
	}

	return contacts, nil
}

// CountContacts returns the total number of stored contacts.
func (store *ContactStore) CountContacts(ctx context.Context) (int64, error) {
	var total int64
	if countErr := store.database.WithContext(ctx).Model(&model.Contact{}).Count(&total).Error; countErr != nil {
		return 0, fmt.Errorf("%s: %w", errorMessageListContacts, countErr)
	}
	return total, nil
}
