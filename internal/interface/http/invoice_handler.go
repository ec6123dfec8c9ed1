package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-invoice-dashboard/internal/application"
	"github.com/oksasatya/go-invoice-dashboard/pkg/response"
)

type InvoiceHandler struct {
	Svc    *application.InvoiceService
	Logger *logrus.Logger
}

func NewInvoiceHandler(svc *application.InvoiceService, logger *logrus.Logger) *InvoiceHandler {
	return &InvoiceHandler{Svc: svc, Logger: logger}
}

// Create handles the new-invoice form: POST /api/invoices (form-encoded).
// Success is a 303 redirect to the invoice list; failure re-renders the
// form with the returned ActionState.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var form application.InvoiceForm
	// bind errors surface as field errors during validation, not here
	_ = c.ShouldBind(&form)

	if state := h.Svc.Create(c.Request.Context(), form); state != nil {
		c.JSON(stateStatus(state), state)
		return
	}
	c.Redirect(http.StatusSeeOther, application.InvoiceListPath)
}

// Update handles the edit form: POST /api/invoices/:id (form-encoded).
func (h *InvoiceHandler) Update(c *gin.Context) {
	var form application.InvoiceForm
	_ = c.ShouldBind(&form)

	if state := h.Svc.Update(c.Request.Context(), c.Param("id"), form); state != nil {
		c.JSON(stateStatus(state), state)
		return
	}
	c.Redirect(http.StatusSeeOther, application.InvoiceListPath)
}

// Delete handles POST /api/invoices/:id/delete. It always answers with
// an ActionState body, never a redirect.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	state, err := h.Svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, state)
		return
	}
	c.JSON(http.StatusOK, state)
}

// List serves GET /api/invoices?page=N or, with ?q=, a search.
func (h *InvoiceHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	q := c.Query("q")

	rows, err := h.Svc.List(c.Request.Context(), q, page)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to list invoices", err.Error())
		return
	}
	response.Success(c, http.StatusOK, rows, "invoices", map[string]any{"page": page, "query": q})
}

// Get serves GET /api/invoices/:id for the edit form.
func (h *InvoiceHandler) Get(c *gin.Context) {
	inv, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "invoice not found", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":             inv.ID,
		"customer_id":    inv.CustomerID,
		"amount":         inv.Amount,
		"status":         inv.Status,
		"date":           inv.Date,
		"attachment_url": inv.AttachmentURL,
	}, "invoice", nil)
}

// Customers serves GET /api/customers for the form dropdown.
func (h *InvoiceHandler) Customers(c *gin.Context) {
	customers, err := h.Svc.ListCustomers(c.Request.Context())
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to list customers", err.Error())
		return
	}
	response.Success(c, http.StatusOK, customers, "customers", nil)
}

// UploadAttachment serves POST /api/invoices/:id/attachment (multipart).
func (h *InvoiceHandler) UploadAttachment(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing file", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAttachment(c.Request.Context(), c.Param("id"), f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "attachment upload failed", err.Error())
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attachment_url": url}, "attachment uploaded", nil)
}

// stateStatus picks the HTTP status for a failed mutation: field errors
// mean the user's input was rejected, a bare message means the store
// mutation failed.
func stateStatus(state *application.ActionState) int {
	if len(state.Errors) > 0 {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
