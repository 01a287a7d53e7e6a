package chserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	cache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	apierrors "github.com/nodewatch/nodewatch/server/api/errors"
	"github.com/nodewatch/nodewatch/server/monitoring"
	"github.com/nodewatch/nodewatch/share/logger"
)

const (
	routeParamAgentID = "agent_id"

	latestCacheTTL     = 2 * time.Second
	latestCacheCleanup = time.Minute

	apiShutdownTimeout = 5 * time.Second
)

// APIListener serves the read-side HTTP API over the measurement store.
type APIListener struct {
	log               *logger.Logger
	monitoringService monitoring.Service
	addr              string
	latestCache       *cache.Cache

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

func NewAPIListener(log *logger.Logger, monitoringService monitoring.Service, addr string) *APIListener {
	al := &APIListener{
		log:               log,
		monitoringService: monitoringService,
		addr:              addr,
		latestCache:       cache.New(latestCacheTTL, latestCacheCleanup),
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/agents", al.handleListAgents).Methods(http.MethodGet)
	api.HandleFunc("/agents/{"+routeParamAgentID+"}/metrics", al.handleListAgentMetrics).Methods(http.MethodGet)
	api.HandleFunc("/agents/{"+routeParamAgentID+"}/metrics/latest", al.handleGetAgentLatest).Methods(http.MethodGet)

	al.server = &http.Server{Handler: r}
	return al
}

// Run serves the API until the context is canceled.
func (al *APIListener) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", al.addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", al.addr)
	}
	al.mu.Lock()
	al.listener = listener
	al.mu.Unlock()

	al.log.Infof("API listening on %s", listener.Addr())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), apiShutdownTimeout)
		defer cancel()
		_ = al.server.Shutdown(shutdownCtx)
	}()

	if err := al.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Addr returns the bound address, nil before Run.
func (al *APIListener) Addr() net.Addr {
	al.mu.Lock()
	defer al.mu.Unlock()
	if al.listener == nil {
		return nil
	}
	return al.listener.Addr()
}

type successPayload struct {
	Data interface{} `json:"data"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func (al *APIListener) writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(successPayload{Data: response}); err != nil {
		al.log.Errorf("error writing response: %v", err)
	}
}

func (al *APIListener) jsonErrorResponse(w http.ResponseWriter, statusCode int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if encErr := json.NewEncoder(w).Encode(errorPayload{Error: err.Error()}); encErr != nil {
		al.log.Errorf("error writing error response: %v", encErr)
	}
}

func (al *APIListener) jsonError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	var apiErr apierrors.APIError
	var apiErrs apierrors.APIErrors
	switch {
	case errors.As(err, &apiErr):
		statusCode = apiErr.HTTPStatus
	case errors.As(err, &apiErrs):
		if len(apiErrs) > 0 {
			statusCode = apiErrs[0].HTTPStatus
		}
	}
	al.jsonErrorResponse(w, statusCode, err)
}
