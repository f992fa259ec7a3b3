// Package docs registers the Swagger document served under /swagger/. It is
// maintained by hand alongside the handler annotations.
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
        "/admin/templates": {
            "post": {
                "security": [{"BearerAuth": []}],
                "summary": "Prepare generate_template",
                "parameters": [
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateTemplateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.CallResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/cards/{token_id}": {
            "get": {
                "summary": "Card view of a token",
                "parameters": [
                    {"type": "string", "description": "Token ID", "name": "token_id", "in": "path", "required": true},
                    {"type": "string", "description": "account id of the signed in user", "name": "viewer", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/cards.Card"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/cards/{token_id}/approve": {
            "post": {
                "summary": "Prepare nft_approve",
                "parameters": [
                    {"type": "string", "description": "Token ID", "name": "token_id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "schema": {"$ref": "#/definitions/httpgin.ApproveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.CallResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/cards/{token_id}/qr": {
            "get": {
                "produces": ["image/png"],
                "summary": "Check-in QR code of a card",
                "parameters": [
                    {"type": "string", "description": "Token ID", "name": "token_id", "in": "path", "required": true},
                    {"type": "integer", "description": "edge length in pixels", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/cards/{token_id}/refresh": {
            "post": {
                "summary": "Drop the cached token after a signed change",
                "parameters": [
                    {"type": "string", "description": "Token ID", "name": "token_id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/cards/{token_id}/share": {
            "post": {
                "summary": "Prepare set_accounts for a shared ticket",
                "parameters": [
                    {"type": "string", "description": "Token ID", "name": "token_id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.ShareRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.CallResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/tickets": {
            "get": {
                "summary": "List ticket categories with availability",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/tickets.Availability"}}},
                    "502": {"description": "ledger unavailable", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/tickets/{category}": {
            "get": {
                "summary": "Purchase page data: availability and a fresh token id",
                "parameters": [
                    {"type": "string", "description": "Category slug", "name": "category", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/tickets.PurchasePage"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/tickets/{category}/availability": {
            "get": {
                "summary": "Ticket counters of a category",
                "parameters": [
                    {"type": "string", "description": "Category slug", "name": "category", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/tickets.Availability"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/tickets/{category}/purchase": {
            "post": {
                "summary": "Create purchase intent (idempotent)",
                "parameters": [
                    {"type": "string", "description": "Category slug", "name": "category", "in": "path", "required": true},
                    {"type": "string", "description": "retries with the same key get the same token id", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "replayed", "schema": {"$ref": "#/definitions/tickets.PurchaseIntent"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/tickets.PurchaseIntent"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "sold out / idempotency key in progress", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "summary": "List registered users",
                "parameters": [
                    {"type": "integer", "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.User"}}}
                }
            },
            "post": {
                "summary": "Register a user",
                "parameters": [
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.RegisterUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/users/{account_id}": {
            "get": {
                "summary": "User profile",
                "parameters": [
                    {"type": "string", "description": "Account ID", "name": "account_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/users.Profile"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "definitions": {
        "availability.Visibility": {
            "type": "object",
            "properties": {"visible": {"type": "boolean"}}
        },
        "cards.Card": {
            "type": "object",
            "properties": {
                "role": {"type": "string"},
                "share_list": {"$ref": "#/definitions/availability.Visibility"},
                "share_list_hidden": {"type": "string"},
                "tickets_unused": {"type": "integer"},
                "token": {"$ref": "#/definitions/domain.Token"},
                "viewer": {"type": "string"}
            }
        },
        "domain.Category": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "media": {"type": "string"},
                "prefix": {"type": "string"},
                "price_near": {"type": "string"},
                "size": {"type": "integer"},
                "slug": {"type": "string"},
                "template_id": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "domain.TicketCounts": {
            "type": "object",
            "properties": {
                "template_id": {"type": "string"},
                "tickets_left": {"type": "integer"},
                "total_tickets": {"type": "integer"}
            }
        },
        "domain.Token": {
            "type": "object",
            "properties": {
                "approved_account_ids": {"type": "object", "additionalProperties": {"type": "integer"}},
                "metadata": {"type": "object"},
                "owner_id": {"type": "string"},
                "royalty": {"type": "object", "additionalProperties": {"type": "integer"}},
                "shared_owners": {"type": "array", "items": {"type": "string"}},
                "ticket_used": {"type": "array", "items": {"type": "boolean"}},
                "token_id": {"type": "string"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "account_id": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "httpgin.ApproveRequest": {
            "type": "object",
            "properties": {
                "account_id": {"type": "string"},
                "msg": {"type": "string"}
            }
        },
        "httpgin.CallResponse": {
            "type": "object",
            "properties": {
                "call": {"$ref": "#/definitions/txn.FunctionCall"},
                "token_id": {"type": "string"}
            }
        },
        "httpgin.CreateTemplateRequest": {
            "type": "object",
            "required": ["price_near", "template_id", "total_tickets"],
            "properties": {
                "price_near": {"type": "string"},
                "template_id": {"type": "string"},
                "total_tickets": {"type": "integer"}
            }
        },
        "httpgin.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "httpgin.RegisterUserRequest": {
            "type": "object",
            "required": ["account_id"],
            "properties": {"account_id": {"type": "string"}}
        },
        "httpgin.ShareRequest": {
            "type": "object",
            "required": ["accounts"],
            "properties": {"accounts": {"type": "array", "items": {"type": "string"}}}
        },
        "tickets.Availability": {
            "type": "object",
            "properties": {
                "category": {"$ref": "#/definitions/domain.Category"},
                "counts": {"$ref": "#/definitions/domain.TicketCounts"},
                "disabled": {"type": "string"},
                "sold_out": {"type": "boolean"}
            }
        },
        "tickets.PurchaseIntent": {
            "type": "object",
            "properties": {
                "call": {"$ref": "#/definitions/txn.FunctionCall"},
                "counts": {"$ref": "#/definitions/domain.TicketCounts"},
                "token_id": {"type": "string"}
            }
        },
        "tickets.PurchasePage": {
            "type": "object",
            "properties": {
                "category": {"$ref": "#/definitions/domain.Category"},
                "counts": {"$ref": "#/definitions/domain.TicketCounts"},
                "disabled": {"type": "string"},
                "sold_out": {"type": "boolean"},
                "token_id": {"type": "string"}
            }
        },
        "txn.FunctionCall": {
            "type": "object",
            "properties": {
                "args": {"type": "object"},
                "deposit": {"type": "string"},
                "gas": {"type": "string"},
                "method_name": {"type": "string"},
                "receiver_id": {"type": "string"}
            }
        },
        "users.Profile": {
            "type": "object",
            "properties": {
                "gravatar_url": {"type": "string"},
                "greeting": {"type": "string"},
                "others_greeting": {"type": "string"},
                "tokens": {"type": "array", "items": {"$ref": "#/definitions/domain.Token"}},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "NFT Tix API",
	Description:      "Ticket pages, card views and prepared contract calls for the NFT ticket market.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
