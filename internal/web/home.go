package web

import "net/http"

// HomePage handles GET /.
func (s *Server) HomePage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "home.html", &PageData{
		Title: "Campus Lost & Found",
		User:  GetWebClaims(r.Context()),
	})
}
