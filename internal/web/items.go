package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/erazemk/lostfound/internal/gateway"
	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/lifecycle"
	"github.com/erazemk/lostfound/internal/listing"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/posting"
)

// itemsPage is the data for the browse and management views.
type itemsPage struct {
	PageData
	Action string
	Manage bool
	Query  string
	Tab    string
	Tabs   []string
	Counts map[string]int
	Items  []model.Item
}

func (s *Server) renderItems(w http.ResponseWriter, r *http.Request, scope listing.Scope, views listing.Views, page PageData) {
	p := itemsPage{
		PageData: page,
		Action:   "/browse",
		Manage:   scope == listing.ScopeOwned,
		Query:    r.FormValue("q"),
		Tab:      r.FormValue("tab"),
		Tabs:     listing.Tabs,
	}
	if p.Manage {
		p.Action = "/my"
	}
	if views.Tab(p.Tab) == nil {
		p.Tab = listing.TabOpen
	}
	p.Counts = views.Counts()
	p.Items = views.Tab(p.Tab)
	s.Templates.Render(w, "items.html", &p)
}

func (s *Server) itemsView(scope listing.Scope, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := PageData{Title: title, User: GetWebClaims(r.Context()), Success: takeFlash(w, r)}

		views, err := listing.Load(r.Context(), s.Gateway, webCaller(r.Context()), scope, r.FormValue("q"))
		if err != nil {
			slog.Error("failed to load items", "error", err)
			page.Error = err.Error()
		}
		s.renderItems(w, r, scope, views, page)
	}
}

// BrowsePage handles GET /browse.
func (s *Server) BrowsePage(w http.ResponseWriter, r *http.Request) {
	s.itemsView(listing.ScopeAll, "Browse items")(w, r)
}

// MyPostsPage handles GET /my.
func (s *Server) MyPostsPage(w http.ResponseWriter, r *http.Request) {
	s.itemsView(listing.ScopeOwned, "My posts")(w, r)
}

// ownedViews loads the caller's items and picks the one named in the path.
func (s *Server) ownedViews(r *http.Request) (listing.Views, model.Item, error) {
	caller := webCaller(r.Context())
	id := r.PathValue("id")

	views, err := listing.Load(r.Context(), s.Gateway, caller, listing.ScopeOwned, r.FormValue("q"))
	if err != nil {
		return views, model.Item{}, err
	}
	for _, item := range views.Items() {
		if item.ID == id {
			return views, item, nil
		}
	}

	// Not in the filtered list: find out why.
	item, err := lifecycle.Lookup(r.Context(), s.Gateway, caller, id)
	return views, item, err
}

// ResolveSubmit handles POST /my/items/{id}/resolve.
func (s *Server) ResolveSubmit(w http.ResponseWriter, r *http.Request) {
	page := PageData{Title: "My posts", User: GetWebClaims(r.Context())}

	views, item, err := s.ownedViews(r)
	if err == nil {
		item, err = lifecycle.MarkResolved(r.Context(), s.Gateway, webCaller(r.Context()), item)
	}
	if err != nil {
		page.Error = err.Error()
		s.renderItems(w, r, listing.ScopeOwned, views, page)
		return
	}

	slog.Info("item resolved", "user", item.PostedBy, "item", item.ID)
	page.Success = fmt.Sprintf("%q is marked as resolved.", item.Name)
	s.renderItems(w, r, listing.ScopeOwned, views.Patch(item), page)
}

// DeleteConfirmPage handles GET /my/items/{id}/delete.
func (s *Server) DeleteConfirmPage(w http.ResponseWriter, r *http.Request) {
	item, err := lifecycle.Lookup(r.Context(), s.Gateway, webCaller(r.Context()), r.PathValue("id"))
	if err != nil {
		setFlash(w, err.Error())
		http.Redirect(w, r, "/my", http.StatusSeeOther)
		return
	}

	s.Templates.Render(w, "confirm_delete.html", &struct {
		PageData
		Item model.Item
	}{
		PageData: PageData{Title: "Delete post", User: GetWebClaims(r.Context())},
		Item:     item,
	})
}

// DeleteSubmit handles POST /my/items/{id}/delete.
func (s *Server) DeleteSubmit(w http.ResponseWriter, r *http.Request) {
	page := PageData{Title: "My posts", User: GetWebClaims(r.Context())}
	confirmed := r.FormValue("confirm") == "yes"

	views, item, err := s.ownedViews(r)
	if err == nil {
		err = lifecycle.DeleteRecord(r.Context(), s.Gateway, webCaller(r.Context()), item, confirmed)
	}
	if err != nil {
		page.Error = err.Error()
		s.renderItems(w, r, listing.ScopeOwned, views, page)
		return
	}

	slog.Info("item deleted", "user", item.PostedBy, "item", item.ID)
	page.Success = fmt.Sprintf("%q was deleted.", item.Name)
	s.renderItems(w, r, listing.ScopeOwned, views.Remove(item.ID), page)
}

// postPage is the data for the posting form.
type postPage struct {
	PageData
	Form posting.Form
}

// PostPage handles GET /post.
func (s *Server) PostPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "post.html", &postPage{
		PageData: PageData{Title: "Post an item", User: GetWebClaims(r.Context())},
		Form:     posting.Form{Type: string(model.ItemTypeLost)},
	})
}

// PostSubmit handles POST /post.
func (s *Server) PostSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUpload+1<<20)

	page := &postPage{PageData: PageData{Title: "Post an item", User: claims}}
	if err := r.ParseMultipartForm(s.MaxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		page.Error = "The image is too large."
		s.Templates.RenderStatus(w, http.StatusBadRequest, "post.html", page)
		return
	}

	page.Form = posting.Form{
		Type:        r.FormValue("type"),
		Name:        r.FormValue("item_name"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		Date:        r.FormValue("date"),
	}

	image, err := posting.ImageFromRequest(r)
	if err != nil {
		page.Error = err.Error()
		s.Templates.RenderStatus(w, http.StatusBadRequest, "post.html", page)
		return
	}

	id, err := s.Posting.Submit(r.Context(), webCaller(r.Context()), page.Form, image)
	if err != nil {
		var orphan *posting.OrphanError
		if errors.As(err, &orphan) {
			slog.Warn("image left without item", "url", orphan.ImageURL, "error", orphan.Err)
		}
		status := http.StatusBadGateway
		if errors.Is(err, gateway.ErrValidation) {
			status = http.StatusBadRequest
		}
		page.Error = err.Error()
		s.Templates.RenderStatus(w, status, "post.html", page)
		return
	}

	slog.Info("item posted", "user", claims.UserID(), "item", id, "type", page.Form.Type)
	setFlash(w, fmt.Sprintf("Your %s item has been posted.", page.Form.Type))
	http.Redirect(w, r, "/my", http.StatusSeeOther)
}

// MediaGet handles GET /media/{path...}, serving uploaded images. Only the
// image extensions imaging stores are served, each with a fixed content type.
func (s *Server) MediaGet(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/") {
		http.NotFound(w, r)
		return
	}
	contentType, ok := imaging.TypeByExtension(path.Ext(r.URL.Path))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.StripPrefix("/media/", http.FileServer(http.FS(s.Media))).ServeHTTP(w, r)
}
