package bootstrap

import (
	"log"

	"thoughtstream/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type HTTPServer struct {
	app  *fiber.App
	port string
}

func NewHTTPServer(container *Container) *HTTPServer {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.Ambient.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, container)

	return &HTTPServer{app: app, port: container.Config.Ambient.Port}
}

func (s *HTTPServer) GetApp() *fiber.App {
	return s.app
}

func (s *HTTPServer) Run() error {
	log.Printf("server listening on http://localhost:%s", s.port)
	return s.app.Listen(":" + s.port)
}

func registerRoutes(app *fiber.App, c *Container) {
	v1 := app.Group("/v1")

	c.ThoughtHandler.RegisterRoutes(v1)
	c.CacheHandler.RegisterRoutes(v1)
}
