package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the data server.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>tsl-dataserver Swagger</title>
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

// OpenAPI document describing the export and retrieval endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "tsl-dataserver", "version": "v1.0.0" },
  "paths": {
    "/export/{path}": {
      "post": {
        "summary": "Store an export; the storage file name is derived from the path",
        "requestBody": { "required": true, "content": { "application/json": { "schema": {} } } },
        "responses": { "200": { "description": "saved, response names the file" }, "400": { "description": "no valid JSON received" }, "413": { "description": "payload too large" } }
      },
      "get": { "summary": "Exporter URL verification", "responses": { "200": { "description": "online with file count" } } }
    },
    "/{file}": {
      "get": { "summary": "Fetch a stored file (the .json suffix is optional)", "responses": { "200": { "description": "stored JSON, verbatim" }, "404": { "description": "not found, re-run the export" } } }
    },
    "/": { "get": { "summary": "HTML listing of stored files", "responses": { "200": { "description": "listing page" } } } },
    "/status": { "get": { "summary": "Machine-readable store status", "responses": { "200": { "description": "file count, sorted names, per-file update time" } } } },
    "/clear": { "post": { "summary": "Remove every stored file", "responses": { "200": { "description": "cleared" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
