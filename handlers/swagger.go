package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the Swagger UI at /swagger/index.html and the
// OpenAPI document at /swagger/doc.json.
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})
	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>doccheck - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "doccheck", "version": "v0.1.0" },
  "paths": {
    "/api/v1/verifications": {
      "post": {
        "summary": "Run a document generation verification for an order",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["orderId"],"properties":{"orderId":{"type":"string"},"targetStatus":{"type":"string"},"timeoutSeconds":{"type":"number"},"pollIntervalSeconds":{"type":"number"},"minDocuments":{"type":"integer"},"skipProbe":{"type":"boolean"}}}}}},
        "responses": { "200": { "description": "documents generated" }, "400": { "description": "invalid request" }, "422": { "description": "verification failed, result in body" } }
      }
    },
    "/api/v1/verifications/{runId}": {
      "get": { "summary": "Get a stored verification run", "responses": { "200": { "description": "run" }, "404": { "description": "not found" } } }
    },
    "/api/v1/orders/{orderId}/verifications": {
      "get": { "summary": "List runs of an order, newest first", "parameters": [{"name":"limit","in":"query","schema":{"type":"integer"}}], "responses": { "200": { "description": "runs" } } }
    },
    "/api/v1/orders/{orderId}/verifications/latest": {
      "get": { "summary": "Latest run of an order", "responses": { "200": { "description": "run" }, "404": { "description": "no runs" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
