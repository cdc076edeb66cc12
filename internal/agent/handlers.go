package agent

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hendrawan/posprint/internal/ble"
	"github.com/hendrawan/posprint/internal/receipt"
)

// response is the envelope every endpoint returns.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, response{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, code int, err error) {
	c.JSON(code, response{Success: false, Message: err.Error()})
}

// printRequest is the body for the print endpoints.
type printRequest struct {
	Sale            receipt.Sale `json:"sale"`
	PrintWorkerCopy bool         `json:"print_worker_copy"`
}

func (s *Server) ping(c *gin.Context) {
	ok(c, "pong", nil)
}

func (s *Server) status(c *gin.Context) {
	ok(c, "", s.printer.Status())
}

func (s *Server) connect(c *gin.Context) {
	err := s.printer.Connect(c.Request.Context())
	switch {
	case err == nil:
		ok(c, "printer connected", s.printer.Status())
	case ble.IsCancellation(err):
		// A dismissed chooser is not an error.
		ok(c, "device selection cancelled", s.printer.Status())
	case errors.Is(err, ble.ErrConnectInProgress):
		fail(c, http.StatusConflict, err)
	case errors.Is(err, ble.ErrUnsupported):
		fail(c, http.StatusServiceUnavailable, err)
	default:
		fail(c, http.StatusBadGateway, err)
	}
}

func (s *Server) disconnect(c *gin.Context) {
	if err := s.printer.Disconnect(); err != nil {
		slog.Warn("[AGENT] disconnect", "error", err)
	}
	ok(c, "printer disconnected", s.printer.Status())
}

func (s *Server) forget(c *gin.Context) {
	if err := s.printer.Forget(); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	ok(c, "printer forgotten", s.printer.Status())
}

func (s *Server) printInvoice(c *gin.Context) {
	var req printRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	jobID := uuid.NewString()
	if err := s.printer.PrintBoth(c.Request.Context(), req.Sale, req.PrintWorkerCopy); err != nil {
		s.printError(c, err)
		return
	}
	ok(c, "printed", gin.H{"job_id": jobID})
}

func (s *Server) printWorkerCopy(c *gin.Context) {
	var req printRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	jobID := uuid.NewString()
	if err := s.printer.PrintWorkerCopy(c.Request.Context(), req.Sale); err != nil {
		s.printError(c, err)
		return
	}
	ok(c, "printed", gin.H{"job_id": jobID})
}

// preview returns the sanitized text the printer would produce, from the
// same renderer the physical path uses.
func (s *Server) preview(c *gin.Context) {
	var req printRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	data := gin.H{
		"invoice": receipt.Preview(receipt.RenderInvoice(req.Sale, s.store)),
	}
	if req.PrintWorkerCopy || req.Sale.WorkerCopy {
		data["worker_copy"] = receipt.Preview(receipt.RenderWorkerCopy(req.Sale))
	}
	ok(c, "", data)
}

func (s *Server) printTest(c *gin.Context) {
	sale := testSale()
	if err := s.printer.PrintBoth(c.Request.Context(), sale, false); err != nil {
		s.printError(c, err)
		return
	}
	ok(c, "test receipt printed", gin.H{"sale_id": sale.ID})
}

func (s *Server) printError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ble.ErrNotConnected), errors.Is(err, ble.ErrConnectInProgress):
		fail(c, http.StatusConflict, err)
	default:
		fail(c, http.StatusBadGateway, err)
	}
}

// testSale is a fixed sale pushed through the full pipeline by /print/test.
func testSale() receipt.Sale {
	return receipt.Sale{
		ID:      "TEST-001",
		Time:    time.Now(),
		Payment: receipt.PaymentCash,
		Items: []receipt.LineItem{
			{Name: "Test Item A", Qty: 1, Basis: receipt.BasisRetail, RetailPrice: 10000, BulkPrice: 9000},
			{Name: "Test Item B", Qty: 2, Basis: receipt.BasisBulk, RetailPrice: 5000, BulkPrice: 4500},
		},
		Subtotal: 20000,
		Total:    19000,
	}
}
