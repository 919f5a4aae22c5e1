package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/vigild/vigil/internal/auth"
	"github.com/vigild/vigil/internal/domain/message"
	"github.com/vigild/vigil/internal/domain/notification"
	"github.com/vigild/vigil/internal/domain/token"
	"github.com/vigild/vigil/internal/obs"
)

type Server struct {
	log *zap.Logger
	uc  *Usecase

	mIngested prometheus.Counter
	mRejected *prometheus.CounterVec
}

func NewServer(log *zap.Logger, uc *Usecase) *Server {
	return &Server{
		log: log,
		uc:  uc,
		mIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gateway_messages_ingested_total",
			Help: "Messages accepted by the broker",
		}),
		mRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_requests_rejected_total",
			Help: "Rejected requests by reason",
		}, []string{"reason"}),
	}
}

func (s *Server) Router(allowedOrigins []string, health func(r *http.Request) error) http.Handler {
	r := chi.NewRouter()
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	} else {
		r.Use(cors.AllowAll().Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if health != nil {
			if err := health(req); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", obs.MetricsHandler())

	r.Post("/api/accounts", s.handleCreateAccount)
	r.Post("/api/messages", s.handleIngest)

	// Session-authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)
		r.Get("/api/accounts/self", s.handleGetAccount)
		r.Delete("/api/accounts/self", s.handleDeleteAccount)
		r.Get("/api/notifications", s.handleNotifications)
		r.Post("/api/tokens", s.handleCreateToken)
		r.Get("/api/tokens", s.handleListTokens)
		r.Delete("/api/tokens/{token}", s.handleRevokeToken)
		r.Get("/api/hostnames", s.handleHostnames)
		r.Get("/api/messages/{hostname}", s.handleMessages)
		r.Get("/api/notification_settings", s.handleGetSettings)
		r.Post("/api/notification_settings", s.handleSetSettings)
	})

	return otelhttp.NewHandler(r, "gateway")
}

type identityKey struct{}

// sessionMiddleware resolves the bearer session JWT into an explicit
// identity and rejects anonymous callers up front.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ident := s.uc.ResolveSession(bearer(req))
		if !ident.Authenticated() {
			s.mRejected.WithLabelValues("unauthenticated").Inc()
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		ctx := context.WithValue(req.Context(), identityKey{}, ident)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func identityFrom(req *http.Request) auth.Identity {
	ident, _ := req.Context().Value(identityKey{}).(auth.Identity)
	return ident
}

func bearer(req *http.Request) string {
	h := req.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

type ingestPayload struct {
	Hostname string `json:"hostname"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

func (s *Server) handleIngest(w http.ResponseWriter, req *http.Request) {
	var p ingestPayload
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		s.mRejected.WithLabelValues("bad_payload").Inc()
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	err := s.uc.Ingest(req.Context(), bearer(req), message.Message{
		Hostname: p.Hostname,
		Title:    p.Title,
		Body:     p.Body,
	})
	if err != nil {
		s.rejectIngest(w, err)
		return
	}

	s.mIngested.Inc()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) rejectIngest(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		s.mRejected.WithLabelValues("unauthenticated").Inc()
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, ErrBadRequest):
		s.mRejected.WithLabelValues("bad_payload").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUnavailable):
		s.mRejected.WithLabelValues("unavailable").Inc()
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, retry")
	default:
		s.log.Error("ingest", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type createAccountPayload struct {
	Email string `json:"email"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, req *http.Request) {
	var p createAccountPayload
	if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	a, session, err := s.uc.CreateAccount(req.Context(), p.Email)
	if err != nil {
		if errors.Is(err, ErrBadRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("create account", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"account": a, "session": session})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, req *http.Request) {
	ident := identityFrom(req)
	a, err := s.uc.GetAccount(req.Context(), ident.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown account")
			return
		}
		s.log.Error("get account", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleNotifications(w http.ResponseWriter, req *http.Request) {
	ident := identityFrom(req)

	limit := 0
	if v := req.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	ns, err := s.uc.Notifications(req.Context(), ident.AccountID, limit)
	if err != nil {
		s.log.Error("list notifications", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": ns})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, req *http.Request) {
	ident := identityFrom(req)
	if err := s.uc.DeleteAccount(req.Context(), ident.AccountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown account")
			return
		}
		s.log.Error("delete account", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateToken(w http.ResponseWriter, req *http.Request) {
	ident := identityFrom(req)
	t, err := s.uc.CreateToken(req.Context(), ident.AccountID)
	if err != nil {
		s.log.Error("create token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.log.Info("token created", zap.String("account_id", ident.AccountID.String()))
	writeJSON(w, http.StatusCreated, map[string]string{"token": t.String()})
}

func (s *Server) handleListTokens(w http.ResponseWriter, req *http.Request) {
	ident := identityFrom(req)
	ts, err := s.uc.ListTokens(req.Context(), ident.AccountID)
	if err != nil {
		s.log.Error("list tokens", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (s *Server) handleRevokeToken(w http.ResponseWriter, req *http.Request) {
	ident := identityFrom(req)
	raw := chi.URLParam(req, "token")
	if err := s.uc.RevokeToken(req.Context(), ident.AccountID, token.Token(raw)); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown token")
			return
		}
		s.log.Error("revoke token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHostnames(w http.ResponseWriter, req *http.Request) {
	ident := identityFrom(req)
	hs, err := s.uc.Hostnames(req.Context(), ident.AccountID)
	if err != nil {
		s.log.Error("list hostnames", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

func (s *Server) handleMessages(w http.ResponseWriter, req *http.Request) {
	ident := identityFrom(req)
	hostname := chi.URLParam(req, "hostname")

	limit := 0
	if v := req.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	ms, err := s.uc.Messages(req.Context(), ident.AccountID, hostname, limit)
	if err != nil {
		s.log.Error("list messages", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": ms})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, req *http.Request) {
	ident := identityFrom(req)
	st, err := s.uc.GetSettings(req.Context(), ident.AccountID)
	if err != nil {
		s.log.Error("get settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSetSettings(w http.ResponseWriter, req *http.Request) {
	ident := identityFrom(req)
	var st notification.Settings
	if err := json.NewDecoder(req.Body).Decode(&st); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if err := s.uc.SetSettings(req.Context(), ident.AccountID, st); err != nil {
		s.log.Error("set settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
