package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	MessageBookNotFound = "Book not found"
	MessageBookDeleted  = "Book deleted"
)

// CreateBook godoc
// @Summary      Create a book
// @Description  Creates a book from any subset of its attributes.
// @Tags         books
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        book  body      BookPayload  false  "book attributes"
// @Success      200   {object}  Book
// @Failure      400   {object}  MessageResponse
// @Failure      500   {object}  MessageResponse
// @Router       /book [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	fields, err := DecodeBookFieldsRequestBody(w, r)
	if err != nil {
		api.writeBadPayload(w, r, requestID, err)
		return
	}

	book, err := api.bookService.Add(r.Context(), fields)
	if err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		api.writeMessage(w, r, requestID, http.StatusInternalServerError, "failed to create the book")
		return
	}
	api.logger.Info("success to create book", zap.Uint("book.id", book.ID), zap.String("request.id", requestID))
	if err = WriteResponse(r.Context(), w, http.StatusOK, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetAllBooks godoc
// @Summary      List books
// @Tags         books
// @Produce      json
// @Success      200  {array}   Book
// @Failure      500  {object}  MessageResponse
// @Router       /book [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		api.logger.Error("failed to get all books", zap.String("request.id", requestID), zap.Error(err))
		api.writeMessage(w, r, requestID, http.StatusInternalServerError, "failed to get all books")
		return
	}
	api.logger.Info("success to get all books", zap.Int("books.total", len(books)), zap.String("request.id", requestID))
	if err = WriteResponse(r.Context(), w, http.StatusOK, books); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetOneBook godoc
// @Summary      Get a book
// @Description  Returns the book or null when it does not exist.
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "book id"
// @Success      200  {object}  Book
// @Failure      404  {object}  MessageResponse
// @Failure      500  {object}  MessageResponse
// @Router       /book/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	rawID := ps.ByName("id")

	var book *Book
	if id, ok := ParseBookID(rawID); ok {
		found, err := api.bookService.GetOne(r.Context(), id)
		switch {
		case err == nil:
			book = &found
		case !errors.Is(err, ErrBookNotFound):
			api.logger.Error("failed to get book", zap.String("book.id", rawID), zap.String("request.id", requestID), zap.Error(err))
			api.writeMessage(w, r, requestID, http.StatusInternalServerError, "failed to get the book")
			return
		}
	}

	if book == nil {
		api.logger.Info("book does not exist", zap.String("book.id", rawID), zap.String("request.id", requestID))
		if api.config.StrictNotFound {
			api.writeMessage(w, r, requestID, http.StatusNotFound, MessageBookNotFound)
			return
		}
	}

	if err := WriteResponse(r.Context(), w, http.StatusOK, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// UpdateBook godoc
// @Summary      Update a book
// @Description  Changes only the attributes present in the body.
// @Tags         books
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        id    path      int          true   "book id"
// @Param        book  body      BookPayload  false  "book attributes"
// @Success      200   {object}  Book
// @Failure      400   {object}  MessageResponse
// @Failure      404   {object}  MessageResponse
// @Failure      500   {object}  MessageResponse
// @Router       /book/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	rawID := ps.ByName("id")
	id, ok := ParseBookID(rawID)
	if !ok {
		api.logger.Info("book does not exist", zap.String("book.id", rawID), zap.String("request.id", requestID))
		api.writeMessage(w, r, requestID, http.StatusNotFound, MessageBookNotFound)
		return
	}

	fields, err := DecodeBookFieldsRequestBody(w, r)
	if err != nil {
		api.writeBadPayload(w, r, requestID, err)
		return
	}

	book, err := api.bookService.Update(r.Context(), id, fields)
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Info("book does not exist", zap.String("book.id", rawID), zap.String("request.id", requestID))
		api.writeMessage(w, r, requestID, http.StatusNotFound, MessageBookNotFound)
		return
	}
	if err != nil {
		api.logger.Error("failed to update book", zap.String("book.id", rawID), zap.String("request.id", requestID), zap.Error(err))
		api.writeMessage(w, r, requestID, http.StatusInternalServerError, "failed to update the book")
		return
	}
	api.logger.Info("success to update book", zap.Uint("book.id", book.ID), zap.String("request.id", requestID))
	if err = WriteResponse(r.Context(), w, http.StatusOK, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteOneBook godoc
// @Summary      Delete a book
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "book id"
// @Success      200  {object}  MessageResponse
// @Failure      404  {object}  MessageResponse
// @Failure      500  {object}  MessageResponse
// @Router       /book/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	rawID := ps.ByName("id")
	id, ok := ParseBookID(rawID)
	if !ok {
		api.logger.Info("book does not exist", zap.String("book.id", rawID), zap.String("request.id", requestID))
		api.writeMessage(w, r, requestID, http.StatusNotFound, MessageBookNotFound)
		return
	}

	err := api.bookService.Delete(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Info("book does not exist", zap.String("book.id", rawID), zap.String("request.id", requestID))
		api.writeMessage(w, r, requestID, http.StatusNotFound, MessageBookNotFound)
		return
	}
	if err != nil {
		api.logger.Error("failed to delete book", zap.String("book.id", rawID), zap.String("request.id", requestID), zap.Error(err))
		api.writeMessage(w, r, requestID, http.StatusInternalServerError, "failed to delete the book")
		return
	}
	api.logger.Info("success to delete book", zap.Uint("book.id", id), zap.String("request.id", requestID))
	api.writeMessage(w, r, requestID, http.StatusOK, MessageBookDeleted)
}

func (api *APIHandler) writeMessage(w http.ResponseWriter, r *http.Request, requestID string, status int, message string) {
	if err := WriteMessageResponse(r.Context(), w, status, message); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Int("status", status), zap.Error(err))
	}
}

func (api *APIHandler) writeBadPayload(w http.ResponseWriter, r *http.Request, requestID string, err error) {
	api.logger.Error("failed to decode book payload", zap.String("request.id", requestID), zap.Error(err))
	var fieldErr invalidFieldError
	if errors.As(err, &fieldErr) {
		api.writeMessage(w, r, requestID, http.StatusBadRequest, fieldErr.Error())
		return
	}
	api.writeMessage(w, r, requestID, http.StatusBadRequest, ErrInvalidBookPayload.Error())
}

// BookPayload documents the accepted body of creation and update requests.
type BookPayload struct {
	Autor     *string `json:"autor"`
	ISBN      *int64  `json:"isbn"`
	Editorial *string `json:"editorial"`
	Paginas   *int64  `json:"paginas"`
}
