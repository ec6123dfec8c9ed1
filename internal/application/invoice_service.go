package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-invoice-dashboard/internal/domain/entity"
	repo "github.com/oksasatya/go-invoice-dashboard/internal/domain/repository"
	"github.com/oksasatya/go-invoice-dashboard/pkg/helpers"
)

// InvoiceListPath is the logical path of the cached invoice list view;
// mutations invalidate it and successful Create/Update redirect to it.
const InvoiceListPath = "/dashboard/invoices"

// ListInvalidator marks cached renderings under a path stale.
type ListInvalidator interface {
	Invalidate(ctx context.Context, path string) error
}

// ListCache is the read-through view cache used by the list endpoint.
type ListCache interface {
	ListInvalidator
	Get(ctx context.Context, path string, dest any) (bool, error)
	Set(ctx context.Context, path string, value any) error
}

// EventPublisher pushes invoice lifecycle events onto the queue.
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// InvoiceEvent is the JSON payload published after a successful mutation
// and consumed by cmd/invoice_worker.
type InvoiceEvent struct {
	Type       string           `json:"type"` // invoice.created, invoice.updated, invoice.deleted
	InvoiceID  string           `json:"invoice_id"`
	Invoice    *repo.InvoiceRow `json:"invoice,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type InvoiceService struct {
	Invoices  repo.InvoiceRepository
	Customers repo.CustomerRepository
	Cache     ListCache
	Pub       EventPublisher
	Logger    *logrus.Logger
	ES        *elasticsearch.Client
	ESIndex   string
	GCS       *storage.Client
	GCSBucket string
	PerPage   int
}

func NewInvoiceService(invoices repo.InvoiceRepository, customers repo.CustomerRepository, cache ListCache, pub EventPublisher, logger *logrus.Logger, es *elasticsearch.Client, esIndex string, gcs *storage.Client, gcsBucket string, perPage int) *InvoiceService {
	if perPage <= 0 {
		perPage = 6
	}
	return &InvoiceService{
		Invoices:  invoices,
		Customers: customers,
		Cache:     cache,
		Pub:       pub,
		Logger:    logger,
		ES:        es,
		ESIndex:   esIndex,
		GCS:       gcs,
		GCSBucket: gcsBucket,
		PerPage:   perPage,
	}
}

// Create validates the form, inserts one row with a store-generated id
// and today's date, and only then invalidates the list view. A nil
// return means success and the caller redirects to InvoiceListPath.
func (s *InvoiceService) Create(ctx context.Context, form InvoiceForm) *ActionState {
	in, ferrs := ParseInvoiceForm(form)
	if len(ferrs) > 0 {
		return &ActionState{Errors: ferrs, Message: MsgCreateFailed}
	}

	inv := &entity.Invoice{
		CustomerID: in.CustomerID,
		Amount:     in.AmountCents,
		Status:     in.Status,
		Date:       time.Now().UTC().Format("2006-01-02"),
	}
	if err := s.Invoices.Create(ctx, inv); err != nil {
		s.logError("insert invoice failed", err, logrus.Fields{"customer_id": in.CustomerID})
		return &ActionState{Message: "Database Error: Failed to create invoice: " + err.Error()}
	}

	s.invalidateList(ctx)
	s.indexInvoice(ctx, inv.ID)
	s.publish(ctx, "invoice.created", inv.ID)
	return nil
}

// Update applies the same validation as Create to the same three
// fields, then rewrites customer, amount, and status on the matching
// row. The issue date is untouched. An id matching zero rows is still
// treated as success; there is no existence check here.
func (s *InvoiceService) Update(ctx context.Context, id string, form InvoiceForm) *ActionState {
	in, ferrs := ParseInvoiceForm(form)
	if len(ferrs) > 0 {
		return &ActionState{Errors: ferrs, Message: MsgUpdateFailed}
	}

	inv := &entity.Invoice{
		ID:         id,
		CustomerID: in.CustomerID,
		Amount:     in.AmountCents,
		Status:     in.Status,
	}
	if err := s.Invoices.Update(ctx, inv); err != nil {
		s.logError("update invoice failed", err, logrus.Fields{"invoice_id": id})
		return &ActionState{Message: "Database Error: Failed to update invoice: " + err.Error()}
	}

	s.invalidateList(ctx)
	s.indexInvoice(ctx, id)
	s.publish(ctx, "invoice.updated", id)
	return nil
}

// Delete removes the row matching id. Unlike Create/Update it never
// redirects: it always returns an ActionState, plus the store error
// when the mutation failed (in which case nothing was invalidated).
func (s *InvoiceService) Delete(ctx context.Context, id string) (*ActionState, error) {
	if err := s.Invoices.Delete(ctx, id); err != nil {
		s.logError("delete invoice failed", err, logrus.Fields{"invoice_id": id})
		return &ActionState{Message: "Database Error: Failed to delete invoice: " + err.Error()}, err
	}

	s.invalidateList(ctx)
	s.deindexInvoice(ctx, id)
	s.publish(ctx, "invoice.deleted", id)
	return &ActionState{Message: "Deleted invoice " + id}, nil
}

// Get fetches a single invoice for the edit form.
func (s *InvoiceService) Get(ctx context.Context, id string) (*entity.Invoice, error) {
	return s.Invoices.GetByID(ctx, id)
}

// ListCustomers feeds the form's customer dropdown.
func (s *InvoiceService) ListCustomers(ctx context.Context) ([]entity.Customer, error) {
	return s.Customers.List(ctx)
}

// List returns one page of invoices joined with customers, read through
// the view cache. A non-empty query goes to Elasticsearch instead and
// is never cached.
func (s *InvoiceService) List(ctx context.Context, query string, page int) ([]repo.InvoiceRow, error) {
	if page < 1 {
		page = 1
	}
	if query != "" {
		return s.searchInvoices(ctx, query)
	}

	path := listPagePath(page)
	if s.Cache != nil {
		var cached []repo.InvoiceRow
		if hit, err := s.Cache.Get(ctx, path, &cached); err == nil && hit {
			return cached, nil
		}
	}

	rows, err := s.Invoices.List(ctx, s.PerPage, (page-1)*s.PerPage)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, path, rows); err != nil {
			s.logError("view cache set failed", err, logrus.Fields{"path": path})
		}
	}
	return rows, nil
}

// UploadAttachment stores a receipt file in GCS and records its URL on
// the invoice.
func (s *InvoiceService) UploadAttachment(ctx context.Context, id string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("attachment storage not configured")
	}
	if _, err := s.Invoices.GetByID(ctx, id); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("invoices", id, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	if err := s.Invoices.SetAttachmentURL(ctx, id, url); err != nil {
		return "", err
	}
	return url, nil
}

func listPagePath(page int) string {
	if page == 1 {
		return InvoiceListPath
	}
	return InvoiceListPath + "?page=" + strconv.Itoa(page)
}

func (s *InvoiceService) invalidateList(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, InvoiceListPath); err != nil {
		s.logError("view cache invalidation failed", err, logrus.Fields{"path": InvoiceListPath})
	}
}

func (s *InvoiceService) publish(ctx context.Context, eventType, id string) {
	if s.Pub == nil {
		return
	}
	ev := InvoiceEvent{Type: eventType, InvoiceID: id, OccurredAt: time.Now().UTC()}
	if eventType != "invoice.deleted" {
		if row, err := s.Invoices.GetRowByID(ctx, id); err == nil {
			ev.Invoice = row
		}
	}
	if err := s.Pub.PublishJSON(ctx, ev); err != nil {
		s.logError("publish invoice event failed", err, logrus.Fields{"type": eventType, "invoice_id": id})
	}
}

func (s *InvoiceService) indexInvoice(ctx context.Context, id string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	row, err := s.Invoices.GetRowByID(ctx, id)
	if err != nil {
		s.logError("fetch invoice row for indexing failed", err, logrus.Fields{"invoice_id": id})
		return
	}
	b, _ := json.Marshal(row)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: id, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.logError("es index failed", err, logrus.Fields{"invoice_id": id})
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("invoice_id", id).Warn("es index response error")
	}
}

func (s *InvoiceService) deindexInvoice(ctx context.Context, id string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.logError("es delete failed", err, logrus.Fields{"invoice_id": id})
		return
	}
	_ = res.Body.Close()
}

func (s *InvoiceService) searchInvoices(ctx context.Context, q string) ([]repo.InvoiceRow, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []repo.InvoiceRow{}, nil
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"customer_name^2", "customer_email", "status"},
			},
		},
		"size": s.PerPage,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source repo.InvoiceRow `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]repo.InvoiceRow, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *InvoiceService) logError(msg string, err error, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithFields(fields).Error(msg)
}
