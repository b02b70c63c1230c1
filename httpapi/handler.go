package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/gatekey"
	"github.com/MrEthical07/gatekey/internal/rate"
	"github.com/MrEthical07/gatekey/middleware"
	"github.com/MrEthical07/gatekey/session"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type outcomeResponse struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message,omitempty"`
}

type validateResponse struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	User            string `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type handler struct {
	engine    *gatekey.Engine
	transport *session.Transport
}

// NewLimiter builds the admission limiter from the engine configuration,
// mapping each configured policy onto its well-known name.
func NewLimiter(cfg gatekey.RateLimitConfig) (*rate.Limiter, error) {
	return rate.New(rate.Config{
		Policies: map[string]rate.Policy{
			rate.PolicyGlobal: {
				Burst:    cfg.Global.Burst,
				Refill:   cfg.Global.Refill,
				Interval: cfg.Global.Interval,
			},
			rate.PolicyLogin: {
				Burst:    cfg.Login.Burst,
				Refill:   cfg.Login.Refill,
				Interval: cfg.Login.Interval,
			},
			rate.PolicyRegister: {
				Burst:    cfg.Register.Burst,
				Refill:   cfg.Register.Refill,
				Interval: cfg.Register.Interval,
			},
		},
		IdleEviction: cfg.IdleEviction,
	})
}

// New describes the new operation and its observable behavior.
//
// New wires the access routes and their interceptor chains into a single
// http.Handler. Interceptor order: request context, global rate limit, then
// per-route authentication and rate limits.
func New(engine *gatekey.Engine, limiter *rate.Limiter, transport *session.Transport) http.Handler {
	h := &handler{
		engine:    engine,
		transport: transport,
	}

	authenticate := middleware.Authenticate(engine, transport)

	// Login attempts are partitioned by the authenticated name when a valid
	// session cookie accompanies the request, falling back to the client IP.
	loginKey := func(r *http.Request) string {
		if name, ok := gatekey.AuthenticatedNameFromContext(r.Context()); ok && name != "" {
			return name
		}
		return middleware.ClientIP(r)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /access/signup",
		middleware.RateLimit(engine, limiter, rate.PolicyRegister, middleware.ClientIP)(
			http.HandlerFunc(h.signUp)))
	mux.Handle("POST /access/login",
		authenticate(
			middleware.RateLimit(engine, limiter, rate.PolicyLogin, loginKey)(
				http.HandlerFunc(h.login))))
	mux.Handle("POST /access/logout", http.HandlerFunc(h.logout))
	mux.Handle("GET /access/validate",
		authenticate(
			middleware.RequireAuth()(
				http.HandlerFunc(h.validate))))

	return middleware.RequestContext()(
		middleware.RateLimit(engine, limiter, rate.PolicyGlobal, middleware.ClientIP)(mux))
}

func (h *handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, outcomeResponse{
			Message: "malformed request body",
		})
		return
	}

	ok, err := h.engine.SignUp(r.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, gatekey.ErrValidation):
		writeJSON(w, http.StatusBadRequest, outcomeResponse{
			Message: "name, email, and password are required",
		})
	case errors.Is(err, gatekey.ErrAccountExists):
		writeJSON(w, http.StatusBadRequest, outcomeResponse{
			Message: "email already registered",
		})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, messageResponse{
			Message: "internal server error",
		})
	default:
		writeJSON(w, http.StatusOK, outcomeResponse{IsSuccess: ok})
	}
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, outcomeResponse{
			Message: "malformed request body",
		})
		return
	}

	token, err := h.engine.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, gatekey.ErrInvalidCredentials):
		// Unknown email and wrong password answer identically, and no
		// cookie is touched.
		writeJSON(w, http.StatusOK, outcomeResponse{IsSuccess: false})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, messageResponse{
			Message: "internal server error",
		})
	default:
		h.transport.Write(w, token)
		writeJSON(w, http.StatusOK, outcomeResponse{IsSuccess: true})
	}
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	h.transport.Clear(w)
	_ = h.engine.Logout(r.Context())
	writeJSON(w, http.StatusOK, messageResponse{Message: "session closed"})
}

func (h *handler) validate(w http.ResponseWriter, r *http.Request) {
	res, _ := middleware.AuthResultFromContext(r.Context())
	writeJSON(w, http.StatusOK, validateResponse{
		IsAuthenticated: true,
		User:            res.Name,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
