package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var _ BookStorage = (*sqliteBookStorage)(nil)

type sqliteBookStorage struct {
	logger *zap.Logger
	db     *gorm.DB
}

// BuildSQLiteDSN returns the connection string of the database file
// with the pragmas needed to share it between concurrent requests.
func BuildSQLiteDSN(config *DatabaseConfig) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	return config.FilePath + "?" + q.Encode()
}

// GetSQLiteClient opens the database file, bridges gorm logs into zap
// and creates the books table if it does not exist yet.
func GetSQLiteClient(config *Config, logger *zap.Logger, clock Clocker) (*gorm.DB, error) {
	slow := config.Database.SlowQuery
	if slow == 0 {
		slow = 200 * time.Millisecond
	}
	level := gormlogger.Warn
	if !config.IsProduction {
		level = gormlogger.Info
	}
	dbLogger := gormlogger.New(
		zap.NewStdLog(logger.Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(BuildSQLiteDSN(&config.Database)), &gorm.Config{
		Logger:  dbLogger,
		NowFunc: clock.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get the database handle, %v", err)
	}
	sqlDB.SetMaxOpenConns(config.Database.MaxOpenConns)

	if err = db.AutoMigrate(&Book{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to set up books table: %v", err)
	}
	return db, nil
}

// CloseSQLiteClient releases the database file.
func CloseSQLiteClient(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewSQLiteBookStorage provides an instance of gorm-based book storage.
func NewSQLiteBookStorage(logger *zap.Logger, db *gorm.DB) BookStorage {
	return &sqliteBookStorage{
		logger: logger,
		db:     db,
	}
}

// Add inserts a new book record. The store assigns its id and timestamps.
func (ss *sqliteBookStorage) Add(ctx context.Context, book *Book) error {
	book.ID = 0
	if err := ss.db.WithContext(ctx).Create(book).Error; err != nil {
		return fmt.Errorf("storage: create book: %w", err)
	}
	return nil
}

// GetOne retrieves a book record based on its ID.
func (ss *sqliteBookStorage) GetOne(ctx context.Context, id uint) (Book, error) {
	var book Book
	err := ss.db.WithContext(ctx).First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, fmt.Errorf("storage: get book %d: %w", id, err)
	}
	return book, nil
}

// Update applies the provided fields on an existing book record and returns
// the record as stored. The lookup and the write share one transaction.
func (ss *sqliteBookStorage) Update(ctx context.Context, id uint, fields BookFields) (Book, error) {
	var book Book
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, id).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&book).Updates(map[string]interface{}(fields)).Error; err != nil {
			return err
		}
		return tx.First(&book, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, fmt.Errorf("storage: update book %d: %w", id, err)
	}
	return book, nil
}

// Delete removes a book record based on its ID.
func (ss *sqliteBookStorage) Delete(ctx context.Context, id uint) error {
	result := ss.db.WithContext(ctx).Delete(&Book{}, id)
	if result.Error != nil {
		return fmt.Errorf("storage: delete book %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// GetAll retrieves all books in insertion order.
func (ss *sqliteBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	books := []Book{}
	if err := ss.db.WithContext(ctx).Order("id").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("storage: get all books: %w", err)
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}
