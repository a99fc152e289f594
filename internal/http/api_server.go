package http

import (
	"context"
	"errors"
	"net/http"

	"finboard/internal/amqp"
	"finboard/internal/backend"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/sources"
)

// ChangePublisher announces stored records to dashboard instances.
type ChangePublisher interface {
	PublishChange(ctx context.Context, resource, action string) error
}

// APIOptions configures an APIServer. Publisher and Ping are optional.
type APIOptions struct {
	Backend   backend.Backend
	Publisher ChangePublisher
	Ping      func(ctx context.Context) error
	RateLimit ratelimit.Config
	Logger    *applog.Logger
}

// APIServer serves transactions and categories from a backend.
type APIServer struct {
	*Server
	backend   backend.Backend
	publisher ChangePublisher
	parser    *requestParser
}

// NewAPIServer configures routes, returning a ready-to-run server.
func NewAPIServer(addr string, opts APIOptions) *APIServer {
	s := &APIServer{
		Server:    newServer(addr, opts.Logger),
		backend:   opts.Backend,
		publisher: opts.Publisher,
		parser:    newRequestParser(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/money", s.handleTransactions)
	mux.HandleFunc("/category", s.handleCategories)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", readyHandler(opts.Ping))

	s.wrap(mux, security.APIHeadersConfig(), ratelimit.NewLimiter(opts.RateLimit))
	return s
}

func (s *APIServer) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *APIServer) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.listCategories(w, r)
	case http.MethodPost:
		s.createCategory(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *APIServer) listTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txs, err := s.backend.ListTransactions(ctx)
	if err != nil {
		applog.LogError(ctx, applog.FromContext(ctx), "Failed to list transactions", err,
			applog.ErrorTypeDatabase, applog.OpList, nil)
		InternalServerError("failed to list transactions").Write(w)
		return
	}
	NewJSONResponse().Body(toTransactionDTOs(txs)).Write(w)
}

func (s *APIServer) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cats, err := s.backend.ListCategories(ctx)
	if err != nil {
		applog.LogError(ctx, applog.FromContext(ctx), "Failed to list categories", err,
			applog.ErrorTypeDatabase, applog.OpList, nil)
		InternalServerError("failed to list categories").Write(w)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	NewJSONResponse().Body(cats).Write(w)
}

func (s *APIServer) createTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	tx, fields, err := s.parser.parseTransactionRequest(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if fields != nil {
		logger.InfoContext(ctx, "Transaction rejected", "fields", fields)
		ValidationError(fields).Write(w)
		return
	}

	stored, err := s.backend.AddTransaction(ctx, tx)
	if err != nil {
		s.writeStoreError(w, r, "transaction", err)
		return
	}

	logger.InfoContext(ctx, "Transaction stored",
		"id", stored.ID,
		"date", stored.Date,
		"typeid", int(stored.TypeID),
		"amount", stored.Amount.String())
	s.publish(ctx, amqp.ResourceTransactions)
	NewJSONResponse().Status(http.StatusCreated).Body(toTransactionDTO(stored)).Write(w)
}

func (s *APIServer) createCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	cat, fields, err := s.parser.parseCategoryRequest(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if fields != nil {
		ValidationError(fields).Write(w)
		return
	}

	stored, err := s.backend.AddCategory(ctx, cat)
	if err != nil {
		s.writeStoreError(w, r, "category", err)
		return
	}

	logger.InfoContext(ctx, "Category stored", "id", stored.ID, "name", stored.Name)
	s.publish(ctx, amqp.ResourceCategories)
	NewJSONResponse().Status(http.StatusCreated).Body(stored).Write(w)
}

// writeStoreError maps backend write failures to responses.
func (s *APIServer) writeStoreError(w http.ResponseWriter, r *http.Request, what string, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, sources.ErrReadOnly):
		NotImplementedError("backend is read-only").Write(w)
	case errors.Is(err, core.ErrInvalidType), errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrMissingField):
		ValidationError(map[string]string{"_": err.Error()}).Write(w)
	default:
		applog.LogError(ctx, applog.FromContext(ctx), "Failed to store "+what, err,
			applog.ErrorTypeDatabase, applog.OpCreate, nil)
		InternalServerError("failed to store " + what).Write(w)
	}
}

// publish announces a created record. Failures are logged; the write already
// succeeded.
func (s *APIServer) publish(ctx context.Context, resource string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, resource, amqp.ActionCreated); err != nil {
		fields := applog.NewFields().WithChange(resource, amqp.ActionCreated)
		applog.FromContext(ctx).WarnContext(ctx, "Failed to publish change",
			fields.WithError(err, applog.ErrorTypeNetwork).ToSlice()...)
	}
}
