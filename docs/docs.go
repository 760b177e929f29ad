// Package docs registers the Swagger 2.0 document served at /swagger/. It
// mirrors the swag annotations on the pkg/api handlers; keep the two in step
// when routes change.
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
        "/admin/summary": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "summary": "Order dashboard",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Summary"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "description": "Authenticates user and sets session cookie",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Login",
                "parameters": [
                    {"description": "Credentials", "name": "creds", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.userResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"SessionCookie": []}],
                "summary": "Logout",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.userResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Sign up",
                "parameters": [
                    {"description": "Account", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.Registration"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.userResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/orders": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "summary": "List orders",
                "parameters": [
                    {"type": "string", "description": "Owner filter (admin only)", "name": "userId", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/order.Order"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "post": {
                "security": [{"SessionCookie": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Create order",
                "parameters": [
                    {"description": "Order", "name": "order", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.NewOrder"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/order.Order"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/orders/{id}": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "summary": "Get order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "put": {
                "security": [{"SessionCookie": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Update order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "order", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.Patch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"SessionCookie": []}],
                "summary": "Delete order",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "patch": {
                "security": [{"SessionCookie": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Change order status",
                "parameters": [
                    {"type": "string", "description": "Order ID", "name": "id", "in": "path", "required": true},
                    {"description": "Status and optional note", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.transitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/products": {
            "get": {
                "produces": ["application/json"],
                "summary": "List products",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/product.Product"}}}
                }
            },
            "post": {
                "security": [{"SessionCookie": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Create product",
                "parameters": [
                    {"description": "Product", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/product.Product"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/product.Product"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get product",
                "parameters": [
                    {"type": "string", "description": "Product ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/product.Product"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "put": {
                "security": [{"SessionCookie": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Update product",
                "parameters": [
                    {"type": "string", "description": "Product ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/product.Patch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/product.Product"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"SessionCookie": []}],
                "summary": "Delete product",
                "parameters": [
                    {"type": "string", "description": "Product ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "api.loginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "api.transitionRequest": {
            "type": "object",
            "properties": {"note": {"type": "string"}, "status": {"type": "string"}}
        },
        "api.userResponse": {
            "type": "object",
            "properties": {"user": {"$ref": "#/definitions/user.User"}}
        },
        "order.HistoryEntry": {
            "type": "object",
            "properties": {
                "note": {"type": "string"},
                "status": {"$ref": "#/definitions/order.Status"},
                "timestamp": {"type": "string"}
            }
        },
        "order.LineItem": {
            "type": "object",
            "properties": {"productId": {"type": "string"}, "quantity": {"type": "integer"}}
        },
        "order.NewOrder": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/order.LineItem"}},
                "shippingAddress": {"$ref": "#/definitions/order.ShippingAddress"},
                "total": {"type": "number"},
                "userId": {"type": "string"}
            }
        },
        "order.Order": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "id": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/order.LineItem"}},
                "shippingAddress": {"$ref": "#/definitions/order.ShippingAddress"},
                "status": {"$ref": "#/definitions/order.Status"},
                "statusHistory": {"type": "array", "items": {"$ref": "#/definitions/order.HistoryEntry"}},
                "total": {"type": "number"},
                "trackingInfo": {"$ref": "#/definitions/order.TrackingInfo"},
                "updatedAt": {"type": "string"},
                "userId": {"type": "string"}
            }
        },
        "order.Patch": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/order.LineItem"}},
                "shippingAddress": {"$ref": "#/definitions/order.ShippingAddress"},
                "total": {"type": "number"},
                "trackingInfo": {"$ref": "#/definitions/order.TrackingInfo"}
            }
        },
        "order.ShippingAddress": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "city": {"type": "string"},
                "country": {"type": "string"},
                "fullName": {"type": "string"},
                "postalCode": {"type": "string"},
                "state": {"type": "string"}
            }
        },
        "order.Status": {
            "type": "string",
            "enum": ["pending", "processing", "packing", "dispatched", "delivered", "cancelled"]
        },
        "order.Summary": {
            "type": "object",
            "properties": {
                "activeOrders": {"type": "integer"},
                "byStatus": {"type": "object", "additionalProperties": {"type": "integer"}},
                "revenue": {"type": "number"},
                "totalOrders": {"type": "integer"}
            }
        },
        "order.TrackingInfo": {
            "type": "object",
            "properties": {"number": {"type": "string"}, "url": {"type": "string"}}
        },
        "product.Patch": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "image": {"type": "string"},
                "name": {"type": "string"},
                "price": {"type": "number"},
                "type": {"type": "string"},
                "volume": {"type": "string"}
            }
        },
        "product.Product": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "id": {"type": "string"},
                "image": {"type": "string"},
                "name": {"type": "string"},
                "price": {"type": "number"},
                "type": {"type": "string"},
                "volume": {"type": "string"}
            }
        },
        "user.Registration": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "name": {"type": "string"}, "password": {"type": "string"}}
        },
        "user.User": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "orders": {"type": "array", "items": {"type": "string"}},
                "role": {"type": "string", "enum": ["customer", "admin"]}
            }
        }
    },
    "securityDefinitions": {
        "SessionCookie": {"type": "apiKey", "name": "session_id", "in": "cookie"}
    }
}`

// SwaggerInfo holds the document metadata. Host and BasePath may be changed
// before the first request.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Catalog, checkout and order management for the storefront.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
