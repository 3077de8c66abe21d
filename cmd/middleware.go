package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"trusthire/internal/models"
)

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

type loggedResponse struct {
	http.ResponseWriter
	status int
}

func (lr *loggedResponse) WriteHeader(code int) {
	lr.status = code
	lr.ResponseWriter.WriteHeader(code)
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lr := &loggedResponse{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lr, r)
		app.logger.Info("request",
			zap.String("remote", r.RemoteAddr),
			zap.String("method", r.Method),
			zap.String("uri", r.URL.RequestURI()),
			zap.Int("status", lr.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, fmt.Errorf("%v", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (app *application) serverError(w http.ResponseWriter, err error) {
	app.logger.Error("panic recovered", zap.Error(err), zap.Stack("stack"))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// authenticate resolves the caller from the access token, falling back to
// the Refresh-Token header. A refreshed access token is returned in the
// Authorization response header.
func (app *application) authenticate(w http.ResponseWriter, r *http.Request) (int, string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		http.Error(w, "Authorization header missing or invalid", http.StatusUnauthorized)
		return 0, "", false
	}

	claims, err := app.tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
	if err == nil {
		return int(claims.UserID), claims.Role, true
	}

	refreshToken := r.Header.Get("Refresh-Token")
	if refreshToken == "" {
		http.Error(w, "Access token expired", http.StatusUnauthorized)
		return 0, "", false
	}
	session, accessToken, err := app.userService.Refresh(r.Context(), refreshToken)
	if err != nil {
		http.Error(w, "Invalid refresh token", http.StatusUnauthorized)
		return 0, "", false
	}
	w.Header().Set("Authorization", "Bearer "+accessToken)
	return session.UserID, session.Role, true
}

func (app *application) JWTMiddleware(next http.Handler, requiredRole string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, role, ok := app.authenticate(w, r)
		if !ok {
			return
		}

		switch requiredRole {
		case models.RoleAdmin:
			if role != models.RoleAdmin {
				http.Error(w, "Forbidden: only admins allowed", http.StatusForbidden)
				return
			}
		case models.RoleClient:
			if role != models.RoleClient && role != models.RoleAdmin {
				http.Error(w, "Forbidden: only clients or admins allowed", http.StatusForbidden)
				return
			}
		case models.RoleFreelancer:
			if role != models.RoleFreelancer && role != models.RoleWorker && role != models.RoleAdmin {
				http.Error(w, "Forbidden: only freelancers or workers allowed", http.StatusForbidden)
				return
			}
		}

		ctx := context.WithValue(r.Context(), "user_id", userID)
		ctx = context.WithValue(ctx, "role", role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
