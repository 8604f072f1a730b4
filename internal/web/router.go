package web

import (
	"database/sql"
	"io/fs"
	"net/http"

	"github.com/erazemk/lostfound/internal/gateway"
	"github.com/erazemk/lostfound/internal/posting"
	webembed "github.com/erazemk/lostfound/web"
)

// NewRouter creates the web page router with all page routes registered.
// Uploaded images are served from media.
func NewRouter(db *sql.DB, gw gateway.Gateway, media fs.FS, jwtSecret string, maxUpload int64) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Gateway:   gw,
		Posting:   &posting.Workflow{Gateway: gw},
		Templates: templates,
		JWTSecret: jwtSecret,
		Media:     media,
		MaxUpload: maxUpload,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db)
	optionalAuth := OptionalAuthMiddleware(jwtSecret, db)

	// Static assets and uploaded images.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	mux.HandleFunc("GET /media/", s.MediaGet)

	// Public routes.
	mux.Handle("GET /{$}", optionalAuth(http.HandlerFunc(s.HomePage)))
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /signup", s.SignupPage)
	mux.HandleFunc("POST /signup", s.SignupSubmit)
	mux.Handle("POST /logout", optionalAuth(http.HandlerFunc(s.Logout)))

	// Authenticated routes.
	mux.Handle("GET /browse", cookieAuth(http.HandlerFunc(s.BrowsePage)))
	mux.Handle("GET /post", cookieAuth(http.HandlerFunc(s.PostPage)))
	mux.Handle("POST /post", cookieAuth(http.HandlerFunc(s.PostSubmit)))
	mux.Handle("GET /my", cookieAuth(http.HandlerFunc(s.MyPostsPage)))
	mux.Handle("POST /my/items/{id}/resolve", cookieAuth(http.HandlerFunc(s.ResolveSubmit)))
	mux.Handle("GET /my/items/{id}/delete", cookieAuth(http.HandlerFunc(s.DeleteConfirmPage)))
	mux.Handle("POST /my/items/{id}/delete", cookieAuth(http.HandlerFunc(s.DeleteSubmit)))

	mux.Handle("GET /settings", cookieAuth(http.HandlerFunc(s.SettingsPage)))
	mux.Handle("POST /settings", cookieAuth(http.HandlerFunc(s.SettingsSubmit)))

	return mux, nil
}
