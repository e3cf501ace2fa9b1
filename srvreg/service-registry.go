package srvreg

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/Versteel/Shipping-Form-Creator-sub000/assembly"
)

// Request represents an incoming HTTP request
type Request struct {
	Method    string
	Path      string
	Body      string
	Query     url.Values
	RequestID string
	Context   context.Context
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// HandlerFunc is a function that handles a request
type HandlerFunc func(*Request) (*Response, error)

// Pinger reports whether the order system is reachable
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// ServiceRegistry manages all service handlers
type ServiceRegistry struct {
	handlers  map[string]map[string]HandlerFunc
	service   *assembly.Service
	source    Pinger
	logger    cmtlog.Logger
	startTime time.Time
}

var defaultHeaders = map[string]string{
	"Content-Type": "application/json",
}

// NewServiceRegistry creates a new service registry. source may be nil.
func NewServiceRegistry(service *assembly.Service, source Pinger, logger cmtlog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		handlers:  make(map[string]map[string]HandlerFunc),
		service:   service,
		source:    source,
		logger:    logger,
		startTime: time.Now(),
	}
}

// RegisterHandler registers a handler for a specific method and path
func (sr *ServiceRegistry) RegisterHandler(method, path string, handler HandlerFunc) {
	if sr.handlers[method] == nil {
		sr.handlers[method] = make(map[string]HandlerFunc)
	}
	sr.handlers[method][path] = handler
	sr.logger.Debug("Registered handler", "method", method, "path", path)
}

// GetHandlerForPath finds the handler for a given method and path
func (sr *ServiceRegistry) GetHandlerForPath(method, path string) (HandlerFunc, bool) {
	methodHandlers, exists := sr.handlers[method]
	if !exists {
		return nil, false
	}

	// Try exact match first
	if handler, exists := methodHandlers[path]; exists {
		return handler, true
	}

	// Try pattern matching for paths with parameters
	for pattern, handler := range methodHandlers {
		if matchPath(pattern, path) {
			return handler, true
		}
	}

	return nil, false
}

// matchPath checks if a path matches a pattern with parameters
// It supports patterns like "/orders/:key" matching "/orders/4521-02"
func matchPath(pattern, path string) bool {
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")

	if len(patternParts) != len(pathParts) {
		return false
	}

	for i := 0; i < len(patternParts); i++ {
		if strings.HasPrefix(patternParts[i], ":") {
			if pathParts[i] == "" {
				return false
			}
			continue
		}
		if patternParts[i] != pathParts[i] {
			return false
		}
	}

	return true
}

// pathParam returns the i-th path segment ("/orders/X" has X at 2)
func pathParam(path string, i int) string {
	parts := strings.Split(path, "/")
	if i >= len(parts) {
		return ""
	}
	v, err := url.PathUnescape(parts[i])
	if err != nil {
		return parts[i]
	}
	return v
}

// RegisterDefaultServices sets up all default endpoints
func (sr *ServiceRegistry) RegisterDefaultServices() {
	sr.logger.Info("Registering shipping document services...")

	// Document endpoints
	sr.RegisterHandler("GET", "/orders/:key", sr.LoadOrderHandler)
	sr.RegisterHandler("PUT", "/orders/:key", sr.SaveOrderHandler)
	sr.RegisterHandler("GET", "/orders/:key/pages", sr.PagesHandler)
	sr.RegisterHandler("GET", "/orders/:key/summary", sr.SummaryHandler)
	sr.RegisterHandler("GET", "/orders/:key/changes", sr.ChangesHandler)
	sr.RegisterHandler("GET", "/stored/:key", sr.StoredOrderHandler)
	sr.RegisterHandler("GET", "/shipments/:date", sr.ShipmentsHandler)

	// Info endpoints
	sr.RegisterHandler("GET", "/info", sr.InfoHandler)

	sr.logger.Info("All services registered")
}

// GenerateResponse executes the request and generates a response
func (req *Request) GenerateResponse(services *ServiceRegistry) (*Response, error) {
	if req.Context == nil {
		req.Context = context.Background()
	}
	handler, found := services.GetHandlerForPath(req.Method, req.Path)

	if !found {
		return errorResponse(404, fmt.Sprintf("Service not found for %s %s", req.Method, req.Path)), nil
	}

	response, err := handler(req)
	if response != nil && req.RequestID != "" {
		headers := make(map[string]string, len(response.Headers)+1)
		for k, v := range response.Headers {
			headers[k] = v
		}
		headers["X-Request-ID"] = req.RequestID
		response.Headers = headers
	}
	return response, err
}
