package main

import (
	"context"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	Add(ctx context.Context, fields BookFields) (Book, error)
	GetOne(ctx context.Context, id uint) (Book, error)
	Update(ctx context.Context, id uint, fields BookFields) (Book, error)
	Delete(ctx context.Context, id uint) error
	GetAll(ctx context.Context) ([]Book, error)
}

// BookService forwards book operations to the storage. When a queue is
// set, each successful change is published for the mirror consumer.
type BookService struct {
	logger  *zap.Logger
	config  *Config
	storage BookStorage
	queue   Queuer
}

func NewBookService(logger *zap.Logger, config *Config, storage BookStorage, queue Queuer) BookServiceProvider {
	return &BookService{
		logger:  logger,
		config:  config,
		storage: storage,
		queue:   queue,
	}
}

func (bs *BookService) publish(ctx context.Context, qid string, book Book) {
	if bs.queue == nil {
		return
	}
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", qid), zap.Uint("book.id", book.ID), zap.Error(err))
	}
}

func (bs *BookService) Add(ctx context.Context, fields BookFields) (Book, error) {
	var book Book
	fields.Apply(&book)
	if err := bs.storage.Add(ctx, &book); err != nil {
		return book, err
	}
	bs.publish(ctx, CreateQueue, book)
	return book, nil
}

func (bs *BookService) GetOne(ctx context.Context, id uint) (Book, error) {
	return bs.storage.GetOne(ctx, id)
}

func (bs *BookService) Update(ctx context.Context, id uint, fields BookFields) (Book, error) {
	book, err := bs.storage.Update(ctx, id, fields)
	if err != nil {
		return book, err
	}
	bs.publish(ctx, UpdateQueue, book)
	return book, nil
}

func (bs *BookService) Delete(ctx context.Context, id uint) error {
	if err := bs.storage.Delete(ctx, id); err != nil {
		return err
	}
	bs.publish(ctx, DeleteQueue, Book{ID: id})
	return nil
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	return bs.storage.GetAll(ctx)
}
