package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// Metrics registers the /metrics endpoint on app and returns the request metrics
// middleware. Collectors are registered once per process.
func Metrics(app *fiber.App) fiber.Handler {
	promOnce.Do(func() {
		prom = fiberprometheus.NewWith("warbler", "warbler", "http")
	})
	prom.RegisterAt(app, "/metrics")
	return prom.Middleware
}
