package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/lostfound/internal/gateway"
	"github.com/erazemk/lostfound/internal/posting"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, gw gateway.Gateway, jwtSecret string, maxUpload int64) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{
		Gateway:   gw,
		Posting:   &posting.Workflow{Gateway: gw},
		MaxUpload: maxUpload,
	}

	authMW := AuthMiddleware(jwtSecret, db)

	// Public: sign-up and login.
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("PUT /api/items/{id}/resolve", authMW(http.HandlerFunc(itemsHandler.Resolve)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))

	return mux
}
