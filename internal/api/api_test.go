package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erazemk/lostfound/internal/gateway"
	"github.com/erazemk/lostfound/internal/model"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	p := gateway.NewTestPlatform(t)
	server := httptest.NewServer(NewRouter(p.DB, p, testJWTSecret, 5<<20))
	t.Cleanup(server.Close)
	return server
}

// signup creates an account and returns its token.
func signup(t *testing.T, server *httptest.Server, email, fullName string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "full_name": fullName, "password": "password123"})
	resp, err := http.Post(server.URL+"/api/auth/signup", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("signup request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup failed: %d", resp.StatusCode)
	}

	var out tokenResponse
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Token == "" {
		t.Fatal("empty token from signup")
	}
	return out.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// postItem submits a posting as a multipart form and returns the new ID.
func postItem(t *testing.T, server *httptest.Server, token string, fields map[string]string, img []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if img != nil {
		fw, _ := mw.CreateFormFile("image", "photo.PNG")
		fw.Write(img)
	}
	mw.Close()

	req, _ := http.NewRequest("POST", server.URL+"/api/items", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(t, req)
}

func backpackFields() map[string]string {
	return map[string]string{
		"type":        "lost",
		"item_name":   "Blue backpack",
		"description": "Navy JanSport, front pocket torn",
		"location":    "Library 3rd floor",
		"date":        "2024-03-01",
	}
}

func testPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func listItems(t *testing.T, server *httptest.Server, token, query string) listResponse {
	t.Helper()
	req, _ := authRequest("GET", server.URL+"/api/items"+query, token, nil)
	resp := do(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list items: expected 200, got %d", resp.StatusCode)
	}
	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	return out
}

func TestLoginEndpoint(t *testing.T) {
	server := setupTestServer(t)
	signup(t, server, "alice@campus.edu", "Alice")

	body, _ := json.Marshal(map[string]string{"email": "alice@campus.edu", "password": "wrong-password"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"email": "ALICE@campus.edu", "password": "password123"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for valid login, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSignupDuplicateEmail(t *testing.T) {
	server := setupTestServer(t)
	signup(t, server, "alice@campus.edu", "Alice")

	body, _ := json.Marshal(map[string]string{"email": "alice@campus.edu", "full_name": "Alice Again", "password": "password123"})
	resp, _ := http.Post(server.URL+"/api/auth/signup", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	server := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server := setupTestServer(t)
	token := signup(t, server, "alice@campus.edu", "Alice")

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	if resp := do(t, req); resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}

	req, _ = authRequest("GET", server.URL+"/api/auth/me", token, nil)
	if resp := do(t, req); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestChangePasswordEndpoint(t *testing.T) {
	server := setupTestServer(t)
	token := signup(t, server, "alice@campus.edu", "Alice")

	req, _ := authRequest("PUT", server.URL+"/api/auth/password", token, map[string]string{
		"current_password": "nope-nope-nope",
		"new_password":     "new-password",
	})
	if resp := do(t, req); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong current password, got %d", resp.StatusCode)
	}

	req, _ = authRequest("PUT", server.URL+"/api/auth/password", token, map[string]string{
		"current_password": "password123",
		"new_password":     "new-password",
	})
	if resp := do(t, req); resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	server := setupTestServer(t)
	token := signup(t, server, "u@campus.edu", "User U")

	resp := postItem(t, server, token, backpackFields(), testPNG())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created map[string]string
	json.NewDecoder(resp.Body).Decode(&created)

	umbrella := map[string]string{
		"type":        "found",
		"item_name":   "Umbrella",
		"description": "Found: red umbrella",
		"location":    "Cafeteria",
		"date":        "2024-03-02",
	}
	if resp := postItem(t, server, token, umbrella, nil); resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 without image, got %d", resp.StatusCode)
	}

	all := listItems(t, server, token, "")
	if all.Counts["open"] != 2 || all.Counts["lost"] != 1 || all.Counts["found"] != 1 || all.Counts["resolved"] != 0 {
		t.Errorf("unexpected counts %v", all.Counts)
	}
	if len(all.Lost) != 1 || all.Lost[0].ID != created["id"] {
		t.Fatalf("expected the backpack in the lost tab, got %+v", all.Lost)
	}
	backpack := all.Lost[0]
	if !strings.HasPrefix(backpack.ImageURL, "/media/") || !strings.HasSuffix(backpack.ImageURL, ".png") {
		t.Errorf("unexpected image url %q", backpack.ImageURL)
	}
	if backpack.Author.FullName != "User U" {
		t.Errorf("expected author profile, got %+v", backpack.Author)
	}

	found := listItems(t, server, token, "?q=BACKPACK")
	if len(found.Open) != 1 || found.Open[0].Name != "Blue backpack" {
		t.Errorf("expected only the backpack for the search, got %+v", found.Open)
	}

	req, _ := authRequest("PUT", server.URL+"/api/items/"+backpack.ID+"/resolve", token, nil)
	resp = do(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve: expected 200, got %d", resp.StatusCode)
	}
	var resolved model.Item
	json.NewDecoder(resp.Body).Decode(&resolved)
	if resolved.Status != model.ItemStatusResolved {
		t.Errorf("expected resolved status, got %q", resolved.Status)
	}

	req, _ = authRequest("PUT", server.URL+"/api/items/"+backpack.ID+"/resolve", token, nil)
	if resp := do(t, req); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("second resolve: expected 400, got %d", resp.StatusCode)
	}

	mine := listItems(t, server, token, "?scope=mine")
	if len(mine.Resolved) != 1 || len(mine.Open) != 1 {
		t.Errorf("expected one open and one resolved item, got %v", mine.Counts)
	}
}

func TestCreateItemValidation(t *testing.T) {
	server := setupTestServer(t)
	token := signup(t, server, "u@campus.edu", "User U")

	fields := backpackFields()
	fields["date"] = "yesterday"
	if resp := postItem(t, server, token, fields, nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad date: expected 400, got %d", resp.StatusCode)
	}

	if resp := postItem(t, server, token, backpackFields(), []byte("not an image")); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad image: expected 400, got %d", resp.StatusCode)
	}

	if got := listItems(t, server, token, ""); len(got.Open) != 0 {
		t.Errorf("expected no items after rejected posts, got %d", len(got.Open))
	}
}

func TestListRejectsUnknownScope(t *testing.T) {
	server := setupTestServer(t)
	token := signup(t, server, "u@campus.edu", "User U")

	req, _ := authRequest("GET", server.URL+"/api/items?scope=everyone", token, nil)
	if resp := do(t, req); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteItemFlow(t *testing.T) {
	server := setupTestServer(t)
	owner := signup(t, server, "u@campus.edu", "User U")
	other := signup(t, server, "v@campus.edu", "User V")

	resp := postItem(t, server, owner, backpackFields(), nil)
	var created map[string]string
	json.NewDecoder(resp.Body).Decode(&created)
	url := server.URL + "/api/items/" + created["id"]

	req, _ := authRequest("DELETE", url+"?confirm=true", other, nil)
	if resp := do(t, req); resp.StatusCode != http.StatusForbidden {
		t.Errorf("delete by other user: expected 403, got %d", resp.StatusCode)
	}

	req, _ = authRequest("DELETE", url, owner, nil)
	if resp := do(t, req); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unconfirmed delete: expected 400, got %d", resp.StatusCode)
	}

	if got := listItems(t, server, other, ""); len(got.Open) != 1 {
		t.Fatalf("expected item to survive rejected deletes, got %d open", len(got.Open))
	}

	req, _ = authRequest("DELETE", url+"?confirm=true", owner, nil)
	if resp := do(t, req); resp.StatusCode != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", resp.StatusCode)
	}

	req, _ = authRequest("DELETE", url+"?confirm=true", owner, nil)
	if resp := do(t, req); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{gateway.ErrUnauthenticated, http.StatusUnauthorized},
		{gateway.ErrValidation, http.StatusBadRequest},
		{gateway.ErrPermission, http.StatusForbidden},
		{gateway.ErrNotFound, http.StatusNotFound},
		{gateway.ErrTransport, http.StatusBadGateway},
		{gateway.ErrBucketDown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
