/*
Package memory holds the ledger document in process memory.

Used by tests and by read-only debug runs where touching the real state
file is not wanted. Save deep-copies the document, so later mutation of the
caller's copy cannot leak into the store.
*/
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/fhr/attendance-engine/ledger"
)

// ErrWriteFailed is returned by Save when the store is set to fail writes.
var ErrWriteFailed = errors.New("memory store: writes disabled")

type Store struct {
	mu  sync.Mutex
	doc *ledger.Document

	// FailWrites makes every Save return ErrWriteFailed. Tests use it to
	// exercise degraded commit paths.
	FailWrites bool

	// Saves counts successful Save calls.
	Saves int
}

func New() *Store {
	return &Store{doc: ledger.NewDocument()}
}

// Seed replaces the stored document. Test setup helper.
func (s *Store) Seed(doc *ledger.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = clone(doc)
}

func (s *Store) Load(ctx context.Context) (*ledger.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.doc), nil
}

func (s *Store) Save(ctx context.Context, doc *ledger.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return ErrWriteFailed
	}
	s.doc = clone(doc)
	s.Saves++
	return nil
}

// clone round-trips through JSON, the same shape the file store persists.
func clone(doc *ledger.Document) *ledger.Document {
	if doc == nil {
		return ledger.NewDocument()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return ledger.NewDocument()
	}
	var out ledger.Document
	if err := json.Unmarshal(data, &out); err != nil {
		return ledger.NewDocument()
	}
	if out.Users == nil {
		out.Users = make(map[string]*ledger.EmployeeState)
	}
	return &out
}
