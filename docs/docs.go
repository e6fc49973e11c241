// Package docs registers the swagger specification of the books api.
// Regenerate with `swag init` after changing the handlers annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/book": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "List books",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/main.Book"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/main.MessageResponse"}}
                }
            },
            "post": {
                "description": "Creates a book from any subset of its attributes.",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Create a book",
                "parameters": [
                    {"description": "book attributes", "name": "book", "in": "body", "schema": {"$ref": "#/definitions/main.BookPayload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.Book"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.MessageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/main.MessageResponse"}}
                }
            }
        },
        "/book/{id}": {
            "get": {
                "description": "Returns the book or null when it does not exist.",
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Get a book",
                "parameters": [
                    {"type": "integer", "description": "book id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.Book"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/main.MessageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/main.MessageResponse"}}
                }
            },
            "put": {
                "description": "Changes only the attributes present in the body.",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Update a book",
                "parameters": [
                    {"type": "integer", "description": "book id", "name": "id", "in": "path", "required": true},
                    {"description": "book attributes", "name": "book", "in": "body", "schema": {"$ref": "#/definitions/main.BookPayload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.Book"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/main.MessageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/main.MessageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/main.MessageResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Delete a book",
                "parameters": [
                    {"type": "integer", "description": "book id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.MessageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/main.MessageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/main.MessageResponse"}}
                }
            }
        }
    },
    "definitions": {
        "main.Book": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "autor": {"type": "string"},
                "isbn": {"type": "integer"},
                "editorial": {"type": "string"},
                "paginas": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "main.BookPayload": {
            "type": "object",
            "properties": {
                "autor": {"type": "string"},
                "isbn": {"type": "integer"},
                "editorial": {"type": "string"},
                "paginas": {"type": "integer"}
            }
        },
        "main.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Books API",
	Description:      "CRUD api over a single books table.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
