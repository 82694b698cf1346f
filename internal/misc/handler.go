package misc

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/2beens/skischeduler/internal/auth"
	"github.com/2beens/skischeduler/internal/middleware"
	"github.com/2beens/skischeduler/internal/telemetry/metrics"
	"github.com/2beens/skischeduler/internal/telemetry/tracing"
	"github.com/2beens/skischeduler/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=misc_test

type authService interface {
	Login(ctx context.Context, password string, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token,omitempty"`
}

type Handler struct {
	versionInfo string
	authService authService
	metrics     *metrics.Manager
}

func NewHandler(
	versionInfo string,
	authService authService,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		versionInfo: versionInfo,
		authService: authService,
		metrics:     metricsManager,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	loginsPerMin int,
) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")

	// rate limit the login and logout endpoints to prevent password guessing
	rateLimit := middleware.RateLimit(rateLimiter, "login", loginsPerMin, handler.metrics)
	mainRouter.
		Handle("/api/login", rateLimit(http.HandlerFunc(handler.handleLogin))).
		Methods("POST", "OPTIONS").Name("login")
	mainRouter.
		Handle("/api/logout", rateLimit(http.HandlerFunc(handler.handleLogout))).
		Methods("POST", "OPTIONS").Name("logout")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) countLogin(result string) {
	if handler.metrics == nil {
		return
	}
	handler.metrics.CounterLogins.WithLabelValues(result).Inc()
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	type loginRequest struct {
		Password string `json:"password"`
	}

	var loginReq loginRequest
	if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login failed, parse form error: %s", err)
			pkg.WriteJSON(w, loginResponse{Message: "Invalid login request."}, http.StatusBadRequest)
			return
		}
		loginReq.Password = r.Form.Get("password")
	} else if err := pkg.ReadJSONBody(r, &loginReq); err != nil && !errors.Is(err, pkg.ErrEmptyBody) {
		log.Tracef("login, unmarshal json params: %s", err)
		pkg.WriteJSON(w, loginResponse{Message: "Invalid login request."}, http.StatusBadRequest)
		return
	}

	token, err := handler.authService.Login(ctx, loginReq.Password, time.Now())
	switch {
	case errors.Is(err, auth.ErrPasswordRequired):
		handler.countLogin("missing_password")
		span.SetStatus(codes.Error, "missing-password")
		pkg.WriteJSON(w, loginResponse{Message: "Password is required."}, http.StatusBadRequest)
		return
	case errors.Is(err, auth.ErrWrongPassword):
		handler.countLogin("wrong_password")
		span.SetStatus(codes.Error, "wrong-password")
		log.Tracef("[password] failed login attempt")
		pkg.WriteJSON(w, loginResponse{Message: "Invalid credentials"}, http.StatusUnauthorized)
		return
	case err != nil:
		handler.countLogin("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "login-error")
		log.Errorf("login failed, generate token error: %s", err)
		pkg.WriteJSON(w, loginResponse{Message: "Login failed"}, http.StatusInternalServerError)
		return
	}

	handler.countLogin("ok")
	log.Trace("new login success")
	pkg.WriteJSON(w, loginResponse{Success: true, Token: token}, http.StatusOK)
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	authToken := r.Header.Get(middleware.AuthTokenHeader)
	if authToken == "" {
		pkg.WriteJSONMessage(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.authService.Logout(ctx, authToken)
	if err != nil {
		log.Errorf("[failed logout] => %s: %s", r.URL.Path, err)
		pkg.WriteJSONMessage(w, "no can do", http.StatusInternalServerError)
		return
	}
	if !loggedOut {
		pkg.WriteJSONMessage(w, "no can do", http.StatusUnauthorized)
		return
	}

	log.Printf("logout success")
	pkg.WriteJSON(w, loginResponse{Success: true}, http.StatusOK)
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}
