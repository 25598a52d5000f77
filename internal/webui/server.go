// FILE: internal/webui/server.go
package webui

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

//go:embed web
var webFS embed.FS

var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".css":  "text/css; charset=utf-8",
}

// New returns the dataset browser app. apiURL is where the page sends its
// API requests, the read-only server started by serve.
func New(apiURL string) (*fiber.App, error) {
	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		return nil, fmt.Errorf("failed to create web sub-filesystem: %w", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	})

	app.Use(logger.New(logger.Config{
		Format: "${time} WEB ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New())

	// Served before the static handler
	app.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"apiUrl": apiURL,
		})
	})

	app.Get("*", func(c *fiber.Ctx) error {
		p := c.Path()
		if p == "/" {
			p = "/index.html"
		}
		fsPath := path.Clean(p)[1:]

		data, err := fs.ReadFile(webContent, fsPath)
		if err != nil {
			// Unknown paths get the page itself, it routes by hash
			data, err = fs.ReadFile(webContent, "index.html")
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("index.html not found")
			}
			fsPath = "index.html"
		}

		contentType, ok := contentTypes[path.Ext(fsPath)]
		if !ok {
			contentType = "application/octet-stream"
		}
		c.Set(fiber.HeaderContentType, contentType)
		return c.Send(data)
	})

	return app, nil
}

// Start serves the browser until the listener fails
func Start(host string, port int, apiURL string) error {
	app, err := New(apiURL)
	if err != nil {
		return err
	}
	return app.Listen(fmt.Sprintf("%s:%d", host, port))
}
