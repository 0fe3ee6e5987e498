// Package docs registers the OpenAPI description served under /swagger.
// It is maintained by hand alongside the handler annotations in
// cmd/order-service.
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
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Caller's orders, newest first",
                "parameters": [
                    {"type": "integer", "description": "page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "offset", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/fulfillment.OrderList"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Checkout the caller's cart",
                "parameters": [
                    {"type": "string", "description": "replay guard", "name": "Idempotency-Key", "in": "header"},
                    {"description": "checkout", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.CreateOrderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/order.Order"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {}}}
                }
            }
        },
        "/orders/{number}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Order detail with tracking summary",
                "parameters": [{"type": "string", "description": "order number", "name": "number", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/fulfillment.OrderDetail"}}}
            }
        },
        "/orders/{number}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Cancel a pending order",
                "parameters": [
                    {"type": "string", "description": "order number", "name": "number", "in": "path", "required": true},
                    {"description": "reason", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/order.CancelOrderRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {}}}
                }
            }
        },
        "/orders/{number}/status": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Advance an order (admin)",
                "parameters": [
                    {"type": "string", "description": "order number", "name": "number", "in": "path", "required": true},
                    {"description": "target status", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.UpdateOrderStatusRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/order.Order"}}}
            }
        },
        "/orders/{number}/tracking": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Tracking summary and event history",
                "parameters": [{"type": "string", "description": "order number", "name": "number", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/tracking.Summary"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Append a shipping update (admin)",
                "parameters": [
                    {"type": "string", "description": "order number", "name": "number", "in": "path", "required": true},
                    {"description": "update", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.ShippingUpdateRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/tracking.Event"}}}
            }
        },
        "/reviews": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reviews"],
                "summary": "Review a delivered product",
                "parameters": [{"description": "review", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/review.CreateReviewRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/review.Review"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {}}}
                }
            }
        },
        "/products/{id}/review-eligibility": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reviews"],
                "summary": "Whether the caller may review a product",
                "parameters": [{"type": "string", "description": "product id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/review.Eligibility"}}}
            }
        },
        "/cart": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Caller's cart",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/cart.Cart"}}}
            }
        },
        "/cart/items": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Add a product to the cart",
                "parameters": [{"description": "line", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/cart.AddItemRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/cart.Cart"}}}
            }
        },
        "/cart/items/{id}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Change a line quantity",
                "parameters": [
                    {"type": "string", "description": "line id", "name": "id", "in": "path", "required": true},
                    {"description": "quantity", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/cart.UpdateItemRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/cart.Cart"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cart"],
                "summary": "Remove a line",
                "parameters": [{"type": "string", "description": "line id", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/cart.Cart"}}}
            }
        }
    },
    "definitions": {
        "cart.AddItemRequest": {
            "type": "object",
            "properties": {
                "product_id": {"type": "string", "example": "iphone-15-128"},
                "quantity": {"type": "integer", "example": 1},
                "variant_id": {"type": "string", "example": "black"}
            }
        },
        "cart.UpdateItemRequest": {
            "type": "object",
            "properties": {"quantity": {"type": "integer", "example": 2}}
        },
        "cart.Line": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "cart_id": {"type": "string"},
                "product_id": {"type": "string"},
                "variant_id": {"type": "string"},
                "quantity": {"type": "integer"},
                "unit_price_snapshot": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "cart.Cart": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "lines": {"type": "array", "items": {"$ref": "#/definitions/cart.Line"}},
                "subtotal": {"type": "string"}
            }
        },
        "order.CreateOrderRequest": {
            "type": "object",
            "properties": {
                "cart_id": {"type": "string"},
                "shipping_address": {"type": "string", "example": "12 Nguyen Hue, District 1, HCMC"},
                "note": {"type": "string", "example": "Call before delivery"},
                "payment_method": {"type": "string", "example": "COD"}
            }
        },
        "order.UpdateOrderStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "PROCESSING"},
                "note": {"type": "string"}
            }
        },
        "order.CancelOrderRequest": {
            "type": "object",
            "properties": {"reason": {"type": "string", "example": "Changed my mind"}}
        },
        "order.ShippingUpdateRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "location": {"type": "string"},
                "tracking_number": {"type": "string"},
                "shipping_partner": {"type": "string"},
                "estimated_delivery": {"type": "string", "example": "2025-06-01T10:00:00Z"}
            }
        },
        "order.Item": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "order_id": {"type": "string"},
                "product_id": {"type": "string"},
                "color_variant": {"type": "string"},
                "quantity": {"type": "integer"},
                "unit_price": {"type": "string"}
            }
        },
        "order.Order": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "order_number": {"type": "string", "example": "ORD20250601101500ABC"},
                "user_id": {"type": "string"},
                "total_amount": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDING", "PROCESSING", "SHIPPED", "DELIVERED", "CANCELLED"]},
                "shipping_address": {"type": "string"},
                "payment_method": {"type": "string", "enum": ["COD", "BANK_TRANSFER", "CREDIT_CARD", "E_WALLET"]},
                "note": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/order.Item"}}
            }
        },
        "tracking.Event": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "order_id": {"type": "string"},
                "status": {"type": "string"},
                "description": {"type": "string"},
                "location": {"type": "string"},
                "tracking_number": {"type": "string"},
                "shipping_partner": {"type": "string"},
                "estimated_delivery": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "tracking.Summary": {
            "type": "object",
            "properties": {
                "current_status": {"type": "string"},
                "tracking_number": {"type": "string"},
                "shipping_partner": {"type": "string"},
                "estimated_delivery": {"type": "string"},
                "events": {"type": "array", "items": {"$ref": "#/definitions/tracking.Event"}}
            }
        },
        "fulfillment.OrderDetail": {
            "allOf": [
                {"$ref": "#/definitions/order.Order"},
                {
                    "type": "object",
                    "properties": {
                        "can_cancel": {"type": "boolean"},
                        "can_review": {"type": "boolean"},
                        "tracking": {"$ref": "#/definitions/tracking.Summary"}
                    }
                }
            ]
        },
        "fulfillment.OrderList": {
            "type": "object",
            "properties": {
                "orders": {"type": "array", "items": {"$ref": "#/definitions/order.Order"}},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"}
            }
        },
        "review.CreateReviewRequest": {
            "type": "object",
            "properties": {
                "product_id": {"type": "string"},
                "order_number": {"type": "string"},
                "rating": {"type": "integer", "example": 5},
                "comment": {"type": "string", "example": "Great"}
            }
        },
        "review.Review": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "product_id": {"type": "string"},
                "order_id": {"type": "string"},
                "rating": {"type": "integer"},
                "comment": {"type": "string"},
                "sentiment": {"type": "string", "enum": ["positive", "neutral", "negative"]},
                "purchased_at": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "review.Eligibility": {
            "type": "object",
            "properties": {
                "product_id": {"type": "string"},
                "can_review": {"type": "boolean"},
                "has_purchased": {"type": "boolean"},
                "already_reviewed": {"type": "boolean"},
                "first_purchase_date": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Phone Store Order Service",
	Description:      "Checkout, order lifecycle, tracking and reviews.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
