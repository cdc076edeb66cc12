// Package agent exposes the printer pipeline to the POS UI over a local
// HTTP API.
package agent

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hendrawan/posprint/internal/ble"
	"github.com/hendrawan/posprint/internal/receipt"
)

// PrinterService is the slice of the connection manager the agent needs.
type PrinterService interface {
	Supported() bool
	Status() ble.Status
	Connect(ctx context.Context) error
	Disconnect() error
	Forget() error
	PrintWorkerCopy(ctx context.Context, sale receipt.Sale) error
	PrintBoth(ctx context.Context, sale receipt.Sale, workerCopy bool) error
}

// Server wires the HTTP routes to the printer service.
type Server struct {
	printer PrinterService
	store   *receipt.Store
	engine  *gin.Engine
}

// NewServer builds the router. The browser POS calls this agent from another
// origin, so CORS is wide open; the agent binds to localhost only.
func NewServer(printer PrinterService, store *receipt.Store) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type"},
		MaxAge:          time.Hour,
	}))

	s := &Server{printer: printer, store: store, engine: engine}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/ping", s.ping)

	api := s.engine.Group("/api")
	{
		api.GET("/printer/status", s.status)
		api.POST("/printer/connect", s.connect)
		api.POST("/printer/disconnect", s.disconnect)
		api.DELETE("/printer", s.forget)

		api.POST("/print/invoice", s.printInvoice)
		api.POST("/print/worker-copy", s.printWorkerCopy)
		api.POST("/print/preview", s.preview)
		api.POST("/print/test", s.printTest)
	}
}

// Handler returns the http.Handler for serving or testing.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
