// Package docs registers the OpenAPI description served at /swagger/*.
// Regenerate with `swag init -g cmd/pfms/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["health"], "summary": "Liveness check", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Database unavailable"}}}
        },
        "/api/chat": {
            "post": {"tags": ["chat"], "summary": "Ask the assistant", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.ChatRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ChatResponse"}},
                    "400": {"description": "Bad Request"}, "500": {"description": "Chat failed"}, "502": {"description": "Upstream error"}}}
        },
        "/api/goals": {
            "get": {"tags": ["goals"], "summary": "List goals", "produces": ["application/json"],
                "parameters": [{"in": "query", "name": "userId", "type": "string"}],
                "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["goals"], "summary": "Create a goal", "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/api/goals/{id}": {
            "put": {"tags": ["goals"], "summary": "Update a goal", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}},
            "delete": {"tags": ["goals"], "summary": "Delete a goal", "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/transactions": {
            "get": {"tags": ["transactions"], "summary": "List transactions", "parameters": [{"in": "query", "name": "userId", "type": "string"}],
                "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["transactions"], "summary": "Add a manual transaction", "consumes": ["application/json"],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/categorize": {
            "post": {"tags": ["transactions"], "summary": "Recategorise transactions", "consumes": ["application/json"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/upload-csv": {
            "post": {"tags": ["transactions"], "summary": "Import a bank statement", "consumes": ["multipart/form-data"],
                "parameters": [{"in": "formData", "name": "file", "required": true, "type": "file"}, {"in": "formData", "name": "userId", "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/gmail-auth-url": {
            "get": {"tags": ["gmail"], "summary": "Gmail consent URL", "responses": {"200": {"description": "OK"}, "500": {"description": "Not configured"}}}
        },
        "/api/gmail/callback": {
            "get": {"tags": ["gmail"], "summary": "Gmail OAuth callback",
                "parameters": [{"in": "query", "name": "code", "required": true, "type": "string"}, {"in": "query", "name": "userId", "type": "string"}],
                "responses": {"200": {"description": "OK"}, "500": {"description": "Failed to exchange code"}}}
        },
        "/api/gmail-sync": {
            "get": {"tags": ["gmail"], "summary": "Import receipts from Gmail", "parameters": [{"in": "query", "name": "userId", "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Gmail not connected"}}}
        },
        "/api/dashboard": {
            "get": {"tags": ["dashboard"], "summary": "Spending overview", "parameters": [{"in": "query", "name": "userId", "type": "string"}],
                "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "dto.ChatRequest": {
            "type": "object",
            "properties": {"userId": {"type": "string"}, "query": {"type": "string"}}
        },
        "dto.ChatResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "reply": {"type": "string"},
                "action": {"type": "object"},
                "actionResult": {"type": "object", "properties": {
                    "status": {"type": "string", "enum": ["applied", "noop", "invalid", "failed"]},
                    "affected": {"type": "integer"},
                    "reason": {"type": "string"}
                }}
            }
        }
    },
    "securityDefinitions": {
        "Bearer": {"description": "Type \"Bearer\" followed by a space and JWT token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "PFMS API",
	Description:      "Personal finance assistant: chat over your transactions, goals, statement import and Gmail receipts",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
