package trigger

import (
	"context"
	"io"
	"net/http"
	"time"

	config "github.com/NordCoder/autocheckin/internal/config/checkin"
	"github.com/NordCoder/autocheckin/internal/domain/checkin"
	"github.com/NordCoder/autocheckin/internal/obs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const contentType = "text/plain; charset=UTF-8"

var mRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trigger_requests_total", Help: "HTTP trigger requests by route and status",
}, []string{"route", "code"})

// Checker runs one checkin invocation with the given settings.
type Checker interface {
	Run(ctx context.Context, s config.Settings, trig checkin.Trigger) (string, error)
}

type Handler struct {
	log     *zap.Logger
	source  config.Source
	checker Checker
}

func New(log *zap.Logger, src config.Source, c Checker) *Handler {
	return &Handler{log: obs.Component(log, "trigger"), source: src, checker: c}
}

// Respond maps a request path to a status and a plain-text body. The trigger
// path is read from freshly resolved settings, so it can change between calls.
func (h *Handler) Respond(ctx context.Context, path string) (int, string) {
	log := obs.WithTrace(ctx, h.log).With(zap.String("path", path))

	s, err := h.source.Settings()
	if err != nil {
		mRequests.WithLabelValues("error", "500").Inc()
		log.Error("resolve settings", zap.Error(err))
		return http.StatusInternalServerError, err.Error()
	}

	switch path {
	case s.TriggerPath:
		out, err := h.checker.Run(ctx, s, checkin.TriggerHTTP)
		if err != nil {
			mRequests.WithLabelValues("checkin", "500").Inc()
			return http.StatusInternalServerError, checkin.PublicMessage(err)
		}
		mRequests.WithLabelValues("checkin", "200").Inc()
		return http.StatusOK, out
	case "/", "":
		mRequests.WithLabelValues("index", "200").Inc()
		return http.StatusOK, "Visit " + s.TriggerPath + " to trigger checkin"
	default:
		mRequests.WithLabelValues("unknown", "404").Inc()
		return http.StatusNotFound, "Not Found"
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code, body := h.Respond(r.Context(), r.URL.Path)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

// Router serves every path and method through the Handler.
func Router(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Handle("/", h)
	r.Handle("/*", h)
	return obs.HTTPHandler(r, "trigger")
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			obs.WithTrace(r.Context(), log).Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
