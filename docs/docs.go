// Package docs holds the OpenAPI description served by gin-swagger.
//
// Regenerate with:
//
//	swag init -g cmd/server/main.go -o docs
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
        "/menus": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Menus"],
                "summary": "List menus (paginated)",
                "operationId": "listMenus",
                "parameters": [
                    {"type": "string", "description": "Principal", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RestResult"}},
                    "304": {"description": "Not Modified"},
                    "400": {"description": "Invalid parameters", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "405": {"description": "Not authenticated or not permitted", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Menus"],
                "summary": "Create a menu",
                "operationId": "createMenu",
                "parameters": [
                    {"type": "string", "description": "Principal", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "Idempotency key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Menu payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.MenuRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RestResult"}},
                    "400": {"description": "Invalid body or parameters", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "405": {"description": "Not authenticated or not permitted", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/menus/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Menus"],
                "summary": "Get a menu",
                "operationId": "getMenu",
                "parameters": [
                    {"type": "string", "description": "Principal", "name": "X-User-ID", "in": "header", "required": true},
                    {"minimum": 1, "type": "integer", "description": "Menu ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RestResult"}},
                    "404": {"description": "Menu not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Menus"],
                "summary": "Replace a menu",
                "operationId": "updateMenu",
                "parameters": [
                    {"type": "string", "description": "Principal", "name": "X-User-ID", "in": "header", "required": true},
                    {"minimum": 1, "type": "integer", "description": "Menu ID", "name": "id", "in": "path", "required": true},
                    {"description": "Menu payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.MenuRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RestResult"}},
                    "404": {"description": "Menu not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Menus"],
                "summary": "Update some fields of a menu",
                "operationId": "patchMenu",
                "parameters": [
                    {"type": "string", "description": "Principal", "name": "X-User-ID", "in": "header", "required": true},
                    {"minimum": 1, "type": "integer", "description": "Menu ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PatchMenuRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RestResult"}},
                    "404": {"description": "Menu not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["Menus"],
                "summary": "Delete a menu",
                "operationId": "deleteMenu",
                "parameters": [
                    {"type": "string", "description": "Principal", "name": "X-User-ID", "in": "header", "required": true},
                    {"minimum": 1, "type": "integer", "description": "Menu ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Menu not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/user/menus": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Menus"],
                "summary": "Menus visible to the caller",
                "operationId": "findUserMenu",
                "parameters": [
                    {"type": "string", "description": "Principal", "name": "X-User-ID", "in": "header", "required": true},
                    {"enum": [0, 1, 2], "type": "integer", "description": "Menu type (0 catalog, 1 menu, 2 button)", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RestResult"}},
                    "400": {"description": "Invalid type", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "message": {"type": "string", "example": "name must not be blank"},
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "handlers.RestResult": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 200},
                "message": {"type": "string", "example": "ok"},
                "data": {}
            }
        },
        "handlers.MenuRequest": {
            "type": "object",
            "required": ["name", "type"],
            "properties": {
                "parent_id": {"type": "integer", "example": 1},
                "name": {"type": "string", "example": "Menus"},
                "url": {"type": "string", "example": "/system/menus"},
                "perms": {"type": "string", "example": "menu:list,menu:view"},
                "type": {"type": "integer", "example": 1},
                "icon": {"type": "string", "example": "menu"},
                "order_num": {"type": "integer", "example": 1}
            }
        },
        "handlers.PatchMenuRequest": {
            "type": "object",
            "properties": {
                "parent_id": {"type": "integer"},
                "name": {"type": "string"},
                "url": {"type": "string"},
                "perms": {"type": "string"},
                "type": {"type": "integer"},
                "icon": {"type": "string"},
                "order_num": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Menu Backend API",
	Description:      "Menu and permission service with localized validation errors.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
