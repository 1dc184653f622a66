// Package docs registers the OpenAPI document served at /swagger/*any via
// gin-swagger (SPEC_FULL §3). Hand-maintained rather than `swag init`
// generated, since the handler surface is small enough to describe by hand.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
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
        "/auth/signup": { "post": { "summary": "Create an account", "responses": { "201": { "description": "created" } } } },
        "/auth/login": { "post": { "summary": "Authenticate and receive a bearer token", "responses": { "200": { "description": "ok" } } } },
        "/execution/request-fresh": { "post": { "summary": "Enqueue fresh evaluation work for prompts", "responses": { "200": { "description": "ok" } } } },
        "/execution/queue/status": { "get": { "summary": "Read the caller's queue status", "responses": { "200": { "description": "ok" } } } },
        "/evaluations/poll": { "post": { "summary": "Claim one prompt for a worker", "responses": { "200": { "description": "ok" } } } },
        "/evaluations/submit": { "post": { "summary": "Deliver an evaluation answer", "responses": { "200": { "description": "ok" } } } },
        "/billing/balance": { "get": { "summary": "Read the caller's credit balance", "responses": { "200": { "description": "ok" } } } },
        "/reports/groups/{id}/compare": { "get": { "summary": "Selection analysis and freshness diff for a group", "responses": { "200": { "description": "ok" } } } },
        "/reports/groups/{id}/generate": { "post": { "summary": "Generate a report snapshot", "responses": { "200": { "description": "ok" } } } },
        "/brightdata/webhook/{batch_id}": { "post": { "summary": "Receive asynchronous scraper batch results", "responses": { "200": { "description": "ok" } } } },
        "/prompts/ingest": { "post": { "summary": "Embed, dedup, and enqueue a batch of prompt texts", "responses": { "200": { "description": "ok" } } } }
    }
}`

// SwaggerInfo holds exported spec metadata registered with swag at init.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Prompt Volume Evaluation Platform API",
	Description:      "Demand-driven AI assistant evaluation platform: execution queue, charge engine, report generation, and batch correlation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
