// Package docs holds the OpenAPI description of the storefront API served at
// /swagger when SWAGGER_ENABLED is set. Regenerate with:
//
//	swag init -g internal/http/router.go -o docs --parseDependency
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
        "/orders": {
            "post": {
                "tags": ["Orders"],
                "summary": "Submit an order",
                "operationId": "createOrder",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Client retry key", "name": "Idempotency-Key", "in": "header"},
                    {"type": "string", "description": "Client installation id", "name": "X-Client-ID", "in": "header"},
                    {"description": "Order", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateOrderRequest"}}
                ],
                "responses": {
                    "200": {"description": "Replayed", "schema": {"$ref": "#/definitions/handlers.OrderCreatedResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.OrderCreatedResponse"}},
                    "400": {"description": "Invalid order", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Order id reused", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Totals or promo rejected", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/orders/track": {
            "post": {
                "tags": ["Orders"],
                "summary": "Track orders by phone",
                "operationId": "trackOrders",
                "parameters": [
                    {"description": "Phone", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.TrackRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.OrdersResponse"}},
                    "400": {"description": "Phone missing", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/promo/validate": {
            "post": {
                "tags": ["Promo"],
                "summary": "Validate a promo code",
                "operationId": "validatePromo",
                "parameters": [
                    {"description": "Code and cart total", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ValidatePromoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ValidatePromoResponse"}},
                    "400": {"description": "Missing code or bad total", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/voice/session": {
            "get": {
                "tags": ["Voice"],
                "summary": "Get a live voice session descriptor",
                "operationId": "voiceSession",
                "responses": {
                    "200": {"description": "OK", "headers": {"Cache-Control": {"type": "string", "description": "no-store"}}, "schema": {"$ref": "#/definitions/services.VoiceDescriptor"}},
                    "503": {"description": "Voice not configured", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/ai/generate": {
            "post": {
                "tags": ["AI"],
                "summary": "Generate assistant text",
                "operationId": "generateText",
                "parameters": [
                    {"description": "Message or prompt", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.GenerateResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Every model failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Not configured", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/products": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List products (paginated)",
                "operationId": "listProducts",
                "parameters": [
                    {"type": "string", "name": "If-None-Match", "in": "header"},
                    {"type": "integer", "name": "category", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"},
                    {"minimum": 1, "type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "headers": {"ETag": {"type": "string"}}, "schema": {"$ref": "#/definitions/handlers.ListProductsResponse"}},
                    "304": {"description": "Not Modified"}
                }
            }
        },
        "/products/{id}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get a product",
                "operationId": "getProduct",
                "parameters": [{"minimum": 1, "type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/search": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Search the catalog",
                "operationId": "searchProducts",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query", "required": true},
                    {"maximum": 50, "minimum": 1, "type": "integer", "default": 10, "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SearchResponse"}}}
            }
        },
        "/categories": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List categories",
                "operationId": "listCategories",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Category"}}}}
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"type": "string", "example": "not_found"},
                "error": {"type": "string", "example": "Mahsulot topilmadi"}
            }
        },
        "handlers.CartLineRequest": {
            "type": "object",
            "properties": {
                "productId": {"type": "integer", "example": 12},
                "name": {"type": "string", "example": "Oltin uzuk"},
                "price": {"type": "integer", "example": 100000},
                "quantity": {"type": "integer", "example": 2},
                "image": {"type": "string"}
            }
        },
        "handlers.CreateOrderRequest": {
            "type": "object",
            "properties": {
                "orderId": {"type": "string"},
                "firstName": {"type": "string", "example": "Aziz"},
                "lastName": {"type": "string", "example": "Karimov"},
                "phone": {"type": "string", "example": "+998901234567"},
                "address": {"type": "string"},
                "city": {"type": "string", "example": "Toshkent"},
                "paymentMethod": {"type": "string", "enum": ["paynet", "card", "cash"]},
                "total": {"type": "integer", "example": 180000},
                "cart": {"type": "array", "items": {"$ref": "#/definitions/handlers.CartLineRequest"}},
                "promoCode": {"type": "string", "example": "LUXE2026"},
                "discountAmount": {"type": "integer", "example": 20000},
                "source": {"type": "string", "enum": ["web", "bot"]}
            }
        },
        "handlers.OrderCreatedResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "object", "properties": {"orderId": {"type": "string"}}}
            }
        },
        "handlers.OrdersResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.Order"}}
            }
        },
        "handlers.TrackRequest": {
            "type": "object",
            "properties": {"phone": {"type": "string", "example": "+998901234567"}}
        },
        "handlers.ValidatePromoRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "LUXE2026"},
                "cartTotal": {"type": "integer", "example": 200000}
            }
        },
        "handlers.ValidatePromoResponse": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"},
                "code": {"type": "string"},
                "discountAmount": {"type": "integer", "example": 20000},
                "discountPercent": {"type": "integer", "example": 10},
                "error": {"type": "string"},
                "reason": {"type": "string", "enum": ["not_found", "expired"]}
            }
        },
        "handlers.GenerateRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "prompt": {"type": "string"},
                "systemInstruction": {"type": "string"},
                "history": {"type": "array", "items": {"$ref": "#/definitions/assistant.Turn"}},
                "responseMimeType": {"type": "string", "example": "application/json"}
            }
        },
        "handlers.GenerateResponse": {
            "type": "object",
            "properties": {"text": {"type": "string"}}
        },
        "assistant.Turn": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "enum": ["user", "model"]},
                "text": {"type": "string"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.ListProductsResponse": {
            "type": "object",
            "properties": {
                "products": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.SearchResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "products": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}}
            }
        },
        "services.VoiceDescriptor": {
            "type": "object",
            "properties": {
                "wsUrl": {"type": "string"},
                "model": {"type": "string"}
            }
        },
        "domain.Category": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "slug": {"type": "string"},
                "image": {"type": "string"},
                "position": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "domain.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "category_id": {"type": "integer"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "price": {"type": "integer"},
                "old_price": {"type": "integer"},
                "image": {"type": "string"},
                "active": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.OrderItem": {
            "type": "object",
            "properties": {
                "productId": {"type": "integer"},
                "name": {"type": "string"},
                "price": {"type": "integer"},
                "quantity": {"type": "integer"},
                "image": {"type": "string"}
            }
        },
        "domain.Order": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "phone": {"type": "string"},
                "address": {"type": "string"},
                "city": {"type": "string"},
                "payment_method": {"type": "string"},
                "subtotal": {"type": "integer"},
                "discount_amount": {"type": "integer"},
                "total": {"type": "integer"},
                "promo_code": {"type": "string"},
                "status": {"type": "string"},
                "source": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.OrderItem"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "LUXECORE Storefront API",
	Description:      "Orders, promo codes, catalog, live voice sessions and the shopping assistant.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
