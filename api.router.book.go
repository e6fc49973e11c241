package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects book related the api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.POST("/book", m.public(api.CreateBook))
	router.GET("/book", m.public(api.GetAllBooks))
	router.GET("/book/:id", m.public(api.GetOneBook))
	router.PUT("/book/:id", m.public(api.UpdateBook))
	router.DELETE("/book/:id", m.public(api.DeleteOneBook))
	return router
}
