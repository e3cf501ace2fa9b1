package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/google/uuid"

	"github.com/Versteel/Shipping-Form-Creator-sub000/srvreg"
)

// maxBodyBytes caps PUT bodies; a large order is well under a megabyte
const maxBodyBytes = 8 << 20

// WebServer serves the shipping document API
type WebServer struct {
	httpAddr        string
	server          *http.Server
	serviceRegistry *srvreg.ServiceRegistry
	startTime       time.Time
	logger          cmtlog.Logger
}

// NewWebServer creates a new web server
func NewWebServer(httpPort string, serviceRegistry *srvreg.ServiceRegistry, logger cmtlog.Logger) *WebServer {
	mux := http.NewServeMux()

	ws := &WebServer{
		httpAddr: ":" + httpPort,
		server: &http.Server{
			Addr:              ":" + httpPort,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		serviceRegistry: serviceRegistry,
		startTime:       time.Now(),
		logger:          logger,
	}

	mux.HandleFunc("/", ws.handleRoot)
	mux.HandleFunc("/info", ws.handleService)
	mux.HandleFunc("/orders/", ws.handleService)
	mux.HandleFunc("/stored/", ws.handleService)
	mux.HandleFunc("/shipments/", ws.handleService)

	return ws
}

// Handler exposes the routing for tests and embedding
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// Start starts the web server
func (ws *WebServer) Start() error {
	ws.logger.Info("Starting shipping document web server", "addr", ws.httpAddr)

	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.logger.Error("Web server error", "err", err)
		}
	}()

	ws.logger.Info("Web server started successfully")
	return nil
}

// Shutdown gracefully shuts down the web server
func (ws *WebServer) Shutdown(ctx context.Context) error {
	ws.logger.Info("Shutting down web server...")
	return ws.server.Shutdown(ctx)
}

// handleRoot shows a short plain-text index
func (ws *WebServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonError(w, "Not found", http.StatusNotFound)
		return
	}

	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(ws.startTime).Round(time.Second)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `Shipping document service (up %s)

GET  /info
GET  /orders/:key?special_pricing=true
PUT  /orders/:key
GET  /orders/:key/pages?view=ALL
GET  /orders/:key/summary?view=ALL
GET  /orders/:key/changes
GET  /stored/:key
GET  /shipments/:date
`, uptime)
}

// handleService forwards a request to the service registry
func (ws *WebServer) handleService(w http.ResponseWriter, r *http.Request) {
	bodyBytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		jsonError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	req := &srvreg.Request{
		Method:    r.Method,
		Path:      r.URL.Path,
		Body:      string(bodyBytes),
		Query:     r.URL.Query(),
		RequestID: requestID,
		Context:   r.Context(),
	}

	start := time.Now()
	response, err := req.GenerateResponse(ws.serviceRegistry)
	if err != nil {
		ws.logger.Error("Error generating response", "request_id", requestID, "err", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	ws.logger.Info("Handled request", "method", r.Method, "path", r.URL.Path,
		"status", response.StatusCode, "request_id", requestID, "took", time.Since(start).String())
	writeResponse(w, response)
}

// writeResponse writes a Response to http.ResponseWriter
func writeResponse(w http.ResponseWriter, resp *srvreg.Response) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	w.Write([]byte(resp.Body))
}

// jsonError writes a JSON error response
func jsonError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := map[string]string{
		"error": message,
	}
	json.NewEncoder(w).Encode(errorResp)
}
