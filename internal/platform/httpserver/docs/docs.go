// Package docs registers the Swagger document served at /swagger/doc.json.
// It is maintained by hand; keep it in step with the godoc annotations on the
// handlers in package httpserver.
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
        "/v1/categories": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List active award categories",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/cataloghttp.CategoriesResponse"}}
                }
            }
        },
        "/v1/categories/{category_id}/contestants": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "List contestants with cached vote counts",
                "parameters": [
                    {"type": "string", "description": "Category ID", "name": "category_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/cataloghttp.ContestantsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/cataloghttp.ErrorResponse"}}
                }
            }
        },
        "/v1/categories/{category_id}/standings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Authoritative standings for a category",
                "parameters": [
                    {"type": "string", "description": "Category ID", "name": "category_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/votehttp.StandingsResponse"}}
                }
            }
        },
        "/v1/contestants/{contestant_id}/votes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Authoritative vote count for one contestant",
                "parameters": [
                    {"type": "string", "description": "Contestant ID", "name": "contestant_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/votehttp.ContestantVotesResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/votehttp.ErrorResponse"}}
                }
            }
        },
        "/v1/votes": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Start a paid vote",
                "parameters": [
                    {"type": "string", "description": "Client retry key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Vote", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/votehttp.BeginVoteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/votehttp.BeginVoteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/votehttp.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/votehttp.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/votehttp.ErrorResponse"}}
                }
            }
        },
        "/v1/votes/confirm": {
            "post": {
                "description": "The payment is verified with the provider; the asserted status is never trusted.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Confirm a vote after checkout",
                "parameters": [
                    {"description": "Confirmation", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/votehttp.ConfirmVoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/votehttp.ConfirmVoteResponse"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/votehttp.ConfirmVoteResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/votehttp.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/votehttp.ErrorResponse"}}
                }
            }
        },
        "/v1/votes/{payment_reference}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["votes"],
                "summary": "Look up a vote by payment reference",
                "parameters": [
                    {"type": "string", "description": "Payment reference", "name": "payment_reference", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/votehttp.VoteStatusResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/votehttp.ErrorResponse"}}
                }
            }
        },
        "/v1/payments/paystack/webhook": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Paystack webhook delivery",
                "parameters": [
                    {"type": "string", "description": "HMAC-SHA512 of the body", "name": "X-Paystack-Signature", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/votehttp.WebhookAckResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/votehttp.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "cataloghttp.CategoriesResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/cataloghttp.CategoryItem"}}
            }
        },
        "cataloghttp.CategoryItem": {
            "type": "object",
            "properties": {
                "category_id": {"type": "string"},
                "description": {"type": "string"},
                "is_active": {"type": "boolean"},
                "name": {"type": "string"}
            }
        },
        "cataloghttp.ContestantItem": {
            "type": "object",
            "properties": {
                "category_id": {"type": "string"},
                "contestant_id": {"type": "string"},
                "name": {"type": "string"},
                "photo_ref": {"type": "string"},
                "vote_count": {"type": "integer"}
            }
        },
        "cataloghttp.ContestantsResponse": {
            "type": "object",
            "properties": {
                "cache_ttl_seconds": {"type": "integer"},
                "category_id": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/cataloghttp.ContestantItem"}}
            }
        },
        "cataloghttp.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "votehttp.BeginVoteRequest": {
            "type": "object",
            "properties": {
                "amount_minor": {"type": "integer"},
                "contestant_id": {"type": "string"},
                "voter_email": {"type": "string"}
            }
        },
        "votehttp.BeginVoteResponse": {
            "type": "object",
            "properties": {
                "access_code": {"type": "string"},
                "amount_minor": {"type": "integer"},
                "category_id": {"type": "string"},
                "checkout_url": {"type": "string"},
                "contestant_id": {"type": "string"},
                "currency": {"type": "string"},
                "payment_reference": {"type": "string"},
                "replayed": {"type": "boolean"},
                "state": {"type": "string"},
                "vote_id": {"type": "string"}
            }
        },
        "votehttp.ConfirmVoteRequest": {
            "type": "object",
            "properties": {
                "payment_reference": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "votehttp.ConfirmVoteResponse": {
            "type": "object",
            "properties": {
                "contestant_id": {"type": "string"},
                "counted": {"type": "boolean"},
                "failure_reason": {"type": "string"},
                "message": {"type": "string"},
                "new_count": {"type": "integer"},
                "outcome": {"type": "string"},
                "payment_reference": {"type": "string"},
                "retryable": {"type": "boolean"},
                "state": {"type": "string"},
                "vote_id": {"type": "string"}
            }
        },
        "votehttp.ContestantVotesResponse": {
            "type": "object",
            "properties": {
                "category_id": {"type": "string"},
                "contestant_id": {"type": "string"},
                "name": {"type": "string"},
                "vote_count": {"type": "integer"}
            }
        },
        "votehttp.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "votehttp.StandingItem": {
            "type": "object",
            "properties": {
                "contestant_id": {"type": "string"},
                "name": {"type": "string"},
                "photo_ref": {"type": "string"},
                "rank": {"type": "integer"},
                "vote_count": {"type": "integer"}
            }
        },
        "votehttp.StandingsResponse": {
            "type": "object",
            "properties": {
                "category_id": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/votehttp.StandingItem"}}
            }
        },
        "votehttp.VoteStatusResponse": {
            "type": "object",
            "properties": {
                "amount_minor": {"type": "integer"},
                "category_id": {"type": "string"},
                "committed_at": {"type": "string"},
                "contestant_id": {"type": "string"},
                "created_at": {"type": "string"},
                "currency": {"type": "string"},
                "failed_at": {"type": "string"},
                "failure_reason": {"type": "string"},
                "payment_reference": {"type": "string"},
                "state": {"type": "string"},
                "vote_id": {"type": "string"}
            }
        },
        "votehttp.WebhookAckResponse": {
            "type": "object",
            "properties": {
                "outcome": {"type": "string"},
                "received": {"type": "boolean"}
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
	Title:            "Paid Vote API",
	Description:      "Paid voting for award categories. Votes are counted only after server-side payment verification.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
