package srvreg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Versteel/Shipping-Form-Creator-sub000/assembly"
	"github.com/Versteel/Shipping-Form-Creator-sub000/layout"
	"github.com/Versteel/Shipping-Form-Creator-sub000/reconcile"
	"github.com/Versteel/Shipping-Form-Creator-sub000/repository"
	"github.com/Versteel/Shipping-Form-Creator-sub000/repository/models"
)

func jsonResponse(status int, v interface{}) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "Failed to encode response: "+err.Error())
	}
	return &Response{StatusCode: status, Headers: defaultHeaders, Body: string(body)}
}

func errorResponse(status int, message string) *Response {
	body, _ := json.Marshal(map[string]string{"error": message})
	return &Response{StatusCode: status, Headers: defaultHeaders, Body: string(body)}
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	var repoErr *repository.RepositoryError
	if errors.As(err, &repoErr) {
		switch repoErr.Code {
		case repository.CodeDuplicateOrder:
			return http.StatusConflict
		case repository.CodeInvalidPackingUnit:
			return http.StatusUnprocessableEntity
		case repository.CodeInvalidDocument:
			return http.StatusBadRequest
		}
	}
	switch {
	case errors.Is(err, models.ErrMalformedOrderKey),
		errors.Is(err, models.ErrDuplicateLineItem),
		errors.Is(err, assembly.ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.Is(err, assembly.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, reconcile.ErrAmbiguousLineItem),
		errors.Is(err, models.ErrQuantityOverflow),
		errors.Is(err, models.ErrInvalidPackingUnit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, assembly.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (sr *ServiceRegistry) failure(req *Request, err error) *Response {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		sr.logger.Error("Request failed", "method", req.Method, "path", req.Path, "request_id", req.RequestID, "err", err)
	} else {
		sr.logger.Debug("Request rejected", "method", req.Method, "path", req.Path, "status", status, "err", err)
	}
	return errorResponse(status, err.Error())
}

// view reads the truck filter, defaulting to every truck
func view(req *Request) string {
	if v := strings.TrimSpace(req.Query.Get("view")); v != "" {
		return v
	}
	return models.ViewAll
}

// load reconciles the order in the path. Only a plain order load records a
// journal snapshot; derived views peek so /changes keeps its baseline.
func (sr *ServiceRegistry) load(req *Request, record bool) (*assembly.Result, error) {
	special, _ := strconv.ParseBool(req.Query.Get("special_pricing"))
	return sr.service.Load(req.Context, pathParam(req.Path, 2), assembly.LoadOptions{SpecialPricing: special, Peek: !record})
}

// InfoHandler returns service information
func (sr *ServiceRegistry) InfoHandler(req *Request) (*Response, error) {
	info := map[string]interface{}{
		"type":       "Shipping Document Service",
		"status":     "active",
		"uptime":     time.Since(sr.startTime).Round(time.Second).String(),
		"unit_types": models.UnitTypes,
	}
	if sr.source != nil {
		if err := sr.source.HealthCheck(req.Context); err != nil {
			info["order_system"] = "unreachable: " + err.Error()
		} else {
			info["order_system"] = "reachable"
		}
	}
	return jsonResponse(http.StatusOK, info), nil
}

// LoadOrderHandler returns the reconciled document of an order
func (sr *ServiceRegistry) LoadOrderHandler(req *Request) (*Response, error) {
	result, err := sr.load(req, true)
	if err != nil {
		return sr.failure(req, err), nil
	}
	return jsonResponse(http.StatusOK, result), nil
}

// SaveOrderHandler stores a document with its packing data
func (sr *ServiceRegistry) SaveOrderHandler(req *Request) (*Response, error) {
	key, err := models.ParseOrderKey(pathParam(req.Path, 2))
	if err != nil {
		return sr.failure(req, err), nil
	}

	var doc models.Document
	if err := json.Unmarshal([]byte(req.Body), &doc); err != nil {
		return errorResponse(http.StatusBadRequest, fmt.Sprintf("Invalid request body: %s", err.Error())), nil
	}
	if doc.Header == nil {
		return errorResponse(http.StatusBadRequest, "header is required"), nil
	}
	if doc.Header.Key() != key {
		return errorResponse(http.StatusBadRequest,
			fmt.Sprintf("document is for order %s, not %s", doc.Header.Key(), key)), nil
	}

	if err := sr.service.Save(req.Context, &doc); err != nil {
		return sr.failure(req, err), nil
	}
	return jsonResponse(http.StatusOK, &doc), nil
}

// PagesHandler lays the document out for one truck view
func (sr *ServiceRegistry) PagesHandler(req *Request) (*Response, error) {
	result, err := sr.load(req, false)
	if err != nil {
		return sr.failure(req, err), nil
	}

	v := view(req)
	pages := sr.service.Pages(result.Document, v)
	type pageEnvelope struct {
		Kind layout.Kind `json:"kind"`
		Page layout.Page `json:"page"`
	}
	out := make([]pageEnvelope, len(pages))
	for i, p := range pages {
		out[i] = pageEnvelope{Kind: p.Kind(), Page: p}
	}
	return jsonResponse(http.StatusOK, map[string]interface{}{
		"order": result.Document.Header.Key().String(),
		"view":  v,
		"pages": out,
	}), nil
}

// SummaryHandler returns the bill-of-lading freight summary
func (sr *ServiceRegistry) SummaryHandler(req *Request) (*Response, error) {
	result, err := sr.load(req, false)
	if err != nil {
		return sr.failure(req, err), nil
	}

	v := view(req)
	summary := sr.service.Summary(result.Document, v)
	return jsonResponse(http.StatusOK, map[string]interface{}{
		"order":     result.Document.Header.Key().String(),
		"view":      v,
		"summary":   summary,
		"bol_notes": layout.BolNotes(result.Document),
		"trucks":    layout.TruckNumbers(result.Document),
	}), nil
}

// ChangesHandler reports what the order system changed since the last load
func (sr *ServiceRegistry) ChangesHandler(req *Request) (*Response, error) {
	result, err := sr.load(req, false)
	if err != nil {
		return sr.failure(req, err), nil
	}
	return jsonResponse(http.StatusOK, map[string]interface{}{
		"order":         result.Document.Header.Key().String(),
		"changes":       result.Changes,
		"previous_load": result.PreviousLoad,
	}), nil
}

// StoredOrderHandler returns the saved document without asking the order system
func (sr *ServiceRegistry) StoredOrderHandler(req *Request) (*Response, error) {
	doc, err := sr.service.Stored(req.Context, pathParam(req.Path, 2))
	if err != nil {
		return sr.failure(req, err), nil
	}
	return jsonResponse(http.StatusOK, doc), nil
}

// ShipmentsHandler lists the documents shipping on one day (YYYY-MM-DD)
func (sr *ServiceRegistry) ShipmentsHandler(req *Request) (*Response, error) {
	date, err := time.Parse(time.DateOnly, pathParam(req.Path, 2))
	if err != nil {
		return errorResponse(http.StatusBadRequest, "date must be YYYY-MM-DD"), nil
	}

	docs, err := sr.service.LoadShippedOn(req.Context, date)
	if err != nil {
		return sr.failure(req, err), nil
	}
	return jsonResponse(http.StatusOK, map[string]interface{}{
		"date":      date.Format(time.DateOnly),
		"documents": docs,
	}), nil
}
