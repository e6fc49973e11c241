package main

import (
	"context"
	"errors"
	"time"
)

var ErrBookNotFound = errors.New("book not found")

// Book columns which can be set from a request body.
const (
	BookAutor     = "autor"
	BookISBN      = "isbn"
	BookEditorial = "editorial"
	BookPaginas   = "paginas"
)

// Book represents a book entity. All attributes are nullable and
// absent ones are serialized as json null.
type Book struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Autor     *string   `json:"autor" gorm:"column:autor;type:text"`
	ISBN      *int64    `json:"isbn" gorm:"column:isbn;type:integer"`
	Editorial *string   `json:"editorial" gorm:"column:editorial;type:text"`
	Paginas   *int64    `json:"paginas" gorm:"column:paginas;type:integer"`
	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name used by the store.
func (Book) TableName() string {
	return "books"
}

// BookFields holds the book attributes present in a request body, keyed by
// column name. Values are string, int64 or nil (explicit null).
type BookFields map[string]interface{}

// Apply copies the fields values onto the book.
func (f BookFields) Apply(book *Book) {
	for column, value := range f {
		switch column {
		case BookAutor:
			book.Autor = stringOrNil(value)
		case BookEditorial:
			book.Editorial = stringOrNil(value)
		case BookISBN:
			book.ISBN = int64OrNil(value)
		case BookPaginas:
			book.Paginas = int64OrNil(value)
		}
	}
}

func stringOrNil(v interface{}) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func int64OrNil(v interface{}) *int64 {
	if n, ok := v.(int64); ok {
		return &n
	}
	return nil
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Add(ctx context.Context, book *Book) error
	GetOne(ctx context.Context, id uint) (Book, error)
	Update(ctx context.Context, id uint, fields BookFields) (Book, error)
	Delete(ctx context.Context, id uint) error
	GetAll(ctx context.Context) ([]Book, error)
}
