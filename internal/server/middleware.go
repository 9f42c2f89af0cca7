package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/clubledger/server/internal/auth"
)

// requestLogger logs one structured line per request after it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// authenticate validates the bearer token and stores the actor on the
// request context. Every route behind it sees a populated actor; the
// permission evaluator decides per operation what that actor may do.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: auth.ErrMissingToken.Error()})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "authorization header must use the Bearer scheme"})
			return
		}

		claims, err := s.tokens.Validate(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: auth.ErrInvalidToken.Error()})
			return
		}

		ctx := auth.WithActor(r.Context(), auth.Actor{
			MemberID: claims.MemberID,
			Email:    claims.Email,
			Role:     claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
