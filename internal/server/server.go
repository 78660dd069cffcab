package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-levels/internal/ws"
)

// Streaming bundles the websocket pieces; nil disables /ws.
type Streaming struct {
	Hub       *ws.Hub
	Encoder   *ws.Encoder
	Negotiate *ws.NegotiateHandler
}

func NewRouter(server *Server, streaming *Streaming, corsOrigin string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(corsOrigin))
	r.Use(zapLoggerMiddleware(logger))

	r.Group(func(api chi.Router) {
		api.Use(gzipMiddleware)

		api.Get("/health", server.Health)
		api.Get("/options/{ticker:[A-Za-z.]+}", server.GetOptions)
		api.Get("/batch", server.GetBatch)
		if server.reload != nil {
			api.Post("/data/reload", server.ReloadData)
		}
	})

	// Upgrades must not go through the gzip writer.
	if streaming != nil {
		r.Get("/ws", streaming.Hub.HandleWS(streaming.Encoder))
		r.Get("/ws/negotiate", streaming.Negotiate.HandleNegotiate)
	}

	r.NotFound(server.NotFound)
	r.MethodNotAllowed(server.MethodNotAllowed)

	return r
}

func gzipMiddleware(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

func corsMiddleware(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "*")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func zapLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			)
		})
	}
}
