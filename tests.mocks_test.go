package main

import (
	"context"
	"sync"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AddFunc    func(ctx context.Context, book *Book) error
	GetOneFunc func(ctx context.Context, id uint) (Book, error)
	UpdateFunc func(ctx context.Context, id uint, fields BookFields) (Book, error)
	DeleteFunc func(ctx context.Context, id uint) error
	GetAllFunc func(ctx context.Context) ([]Book, error)
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, book *Book) error {
	return m.AddFunc(ctx, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id uint) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id uint, fields BookFields) (Book, error) {
	return m.UpdateFunc(ctx, id, fields)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id uint) error {
	return m.DeleteFunc(ctx, id)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// MockQueuer implements a fake Queuer.
type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, book Book) error
	PopFunc  func(ctx context.Context, qids ...string) (string, Book, error)
}

func (mq *MockQueuer) Push(ctx context.Context, qid string, book Book) error {
	return mq.PushFunc(ctx, qid, book)
}

func (mq *MockQueuer) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	return mq.PopFunc(ctx, qids...)
}

// MockBookMirror is an in-memory BookMirror.
type MockBookMirror struct {
	mu    sync.Mutex
	books map[uint]Book
	err   error
}

func NewMockBookMirror() *MockBookMirror {
	return &MockBookMirror{books: map[uint]Book{}}
}

func (mm *MockBookMirror) Save(_ context.Context, book Book) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.err != nil {
		return mm.err
	}
	mm.books[book.ID] = book
	return nil
}

func (mm *MockBookMirror) Delete(_ context.Context, id uint) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.err != nil {
		return mm.err
	}
	delete(mm.books, id)
	return nil
}

func (mm *MockBookMirror) GetAll(_ context.Context) ([]Book, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.err != nil {
		return nil, mm.err
	}
	books := []Book{}
	for id := uint(1); len(books) < len(mm.books); id++ {
		if b, ok := mm.books[id]; ok {
			books = append(books, b)
		}
	}
	return books, nil
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `2023-07-02T00:00:00Z` in time.RFC3339 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDGenerator.
type MockUIDHandler struct {
	MockedUID string
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }
