package services

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"launcher.GO/core/cache"
	"launcher.GO/core/logger"
	"launcher.GO/model/repository/asset"
	catalogRepo "launcher.GO/model/repository/catalog"
	catalogService "launcher.GO/service/catalog"
)

type testEnv struct {
	e         *echo.Echo
	assets    *asset.FileRepository
	publicDir string
	docPath   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{publicDir: filepath.Join(dir, "public"), docPath: filepath.Join(dir, "services.json")}
	docs := catalogRepo.NewFileRepository(catalogRepo.Options{
		Path:     env.docPath,
		CacheTTL: time.Minute,
		Cache:    cache.NewCache(),
		Logger:   logger.Discard(),
	})
	env.assets = asset.NewFileRepository(asset.Options{
		PublicDir:    env.publicDir,
		UploadDir:    "src",
		DefaultImage: "img/default.png",
		Logger:       logger.Discard(),
	})
	if _, err := docs.Init(context.Background()); err != nil {
		t.Fatalf("init catalog: %v", err)
	}
	svc := catalogService.NewService(docs, env.assets, catalogService.Options{Logger: logger.Discard()})

	env.e = echo.New()
	RegisterServiceRoutes(env.e.Group("/api"), svc)
	return env
}

type filePart struct {
	name        string
	contentType string
	body        []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+file.name+`"`)
		h.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(file.body)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func (env *testEnv) do(t *testing.T, method, path string, fields map[string]string, file *filePart) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if fields != nil || file != nil {
		body, ctype := multipartBody(t, fields, file)
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", ctype)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestServicesAPI_ListAll_Empty(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/services", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"users\":[],\"admin\":[]}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestServicesAPI_Create_DefaultImage(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/services/users", map[string]string{"title": "Docs", "url": "https://docs.example.com"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	svc := resp["service"].(map[string]interface{})
	if svc["title"] != "Docs" || svc["url"] != "https://docs.example.com" || svc["image"] != "img/default.png" {
		t.Errorf("service = %v", svc)
	}
	if resp["message"] == "" {
		t.Error("message missing")
	}
}

func TestServicesAPI_Create_WithImage(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/services/admin",
		map[string]string{"title": "Grafana", "url": "https://grafana.local"},
		&filePart{name: "grafana.png", contentType: "image/png", body: []byte("png")})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	image := decode(t, rec)["service"].(map[string]interface{})["image"].(string)
	if _, err := os.Stat(filepath.Join(env.publicDir, filepath.FromSlash(image))); err != nil {
		t.Errorf("uploaded image not on disk: %v", err)
	}
}

func TestServicesAPI_Create_Errors(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name   string
		path   string
		fields map[string]string
		file   *filePart
		status int
		code   string
	}{
		{"invalid category", "/api/services/superadmin", map[string]string{"title": "X", "url": "u"}, nil, 400, "INVALID_CATEGORY"},
		{"missing url", "/api/services/users", map[string]string{"title": "X"}, nil, 400, "MISSING_FIELD"},
		{"missing title", "/api/services/users", map[string]string{"url": "u"}, nil, 400, "MISSING_FIELD"},
		{"bad image type", "/api/services/users", map[string]string{"title": "X", "url": "u"}, &filePart{"x.gif", "image/gif", []byte("gif")}, 400, "INVALID_IMAGE"},
	}
	for _, c := range cases {
		rec := env.do(t, http.MethodPost, c.path, c.fields, c.file)
		if rec.Code != c.status {
			t.Errorf("%s: status = %d, want %d", c.name, rec.Code, c.status)
			continue
		}
		resp := decode(t, rec)
		if resp["code"] != c.code || resp["error"] == "" {
			t.Errorf("%s: body = %v", c.name, resp)
		}
	}
}

func TestServicesAPI_Create_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	fields := map[string]string{"title": "Docs", "url": "u"}
	env.do(t, http.MethodPost, "/api/services/users", fields, nil)
	rec := env.do(t, http.MethodPost, "/api/services/users", fields, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestServicesAPI_UpdateDeleteScenario(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/services/users", map[string]string{"title": "Docs", "url": "https://docs.example.com"}, nil)

	rec := env.do(t, http.MethodPut, "/api/services/users/Docs", map[string]string{"url": "https://docs.example.com/v2"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body: %s", rec.Code, rec.Body.String())
	}
	svc := decode(t, rec)["service"].(map[string]interface{})
	if svc["title"] != "Docs" || svc["url"] != "https://docs.example.com/v2" || svc["image"] != "img/default.png" {
		t.Errorf("updated = %v", svc)
	}

	rec = env.do(t, http.MethodDelete, "/api/services/users/Docs", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/services/users", nil, nil)
	var list []map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("users = %v, want empty", list)
	}
}

func TestServicesAPI_Update_EncodedTitleAndImageSwap(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/services/admin",
		map[string]string{"title": "Home Assistant", "url": "u"},
		&filePart{"ha.png", "image/png", []byte("one")})
	oldImage := decode(t, rec)["service"].(map[string]interface{})["image"].(string)

	rec = env.do(t, http.MethodPut, "/api/services/admin/Home%20Assistant",
		map[string]string{"title": "HA", "url": "u2"},
		&filePart{"ha.webp", "image/webp", []byte("two")})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	svc := decode(t, rec)["service"].(map[string]interface{})
	if svc["title"] != "HA" {
		t.Errorf("title = %v, want HA", svc["title"])
	}
	if env.assets.Exists(oldImage) {
		t.Error("old image still on disk")
	}
	if !env.assets.Exists(svc["image"].(string)) {
		t.Error("new image missing")
	}
}

func TestServicesAPI_Update_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/services/users", map[string]string{"title": "Docs", "url": "u"}, nil)

	if rec := env.do(t, http.MethodPut, "/api/services/users/Missing", map[string]string{"url": "u"}, nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing entry status = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodPut, "/api/services/users/Docs", map[string]string{"title": "Docs"}, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing url status = %d, want 400", rec.Code)
	}
	if rec := env.do(t, http.MethodPut, "/api/services/nope/Docs", map[string]string{"url": "u"}, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid category status = %d, want 400", rec.Code)
	}
}

func TestServicesAPI_Delete_Errors(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodDelete, "/api/services/users/Nothing", nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/services/root/Nothing", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServicesAPI_List_InvalidCategory(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/api/services/superadmin", nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServicesAPI_CorruptCatalogIs500(t *testing.T) {
	env := newTestEnv(t)
	if err := os.WriteFile(env.docPath, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	// a fresh env over the same file so no cached copy is served
	docs := catalogRepo.NewFileRepository(catalogRepo.Options{Path: env.docPath, Cache: cache.NewCache(), Logger: logger.Discard()})
	svc := catalogService.NewService(docs, env.assets, catalogService.Options{Logger: logger.Discard()})
	e := echo.New()
	RegisterServiceRoutes(e.Group("/api"), svc)

	req := httptest.NewRequest(http.MethodGet, "/api/services", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp := decode(t, rec); resp["code"] != "CORRUPT_STATE" || resp["error"] != "error while reading services" {
		t.Errorf("body = %v", resp)
	}
}

func TestServicesAPI_Health(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp["status"] != "ok" || resp["reclaim_failures"] != float64(0) {
		t.Errorf("health = %v", resp)
	}
}

func TestServicesAPI_TitlesAreDecodedOnce(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"50%41", "100%", "A/B", "A/50%41", "C D", "x+y", "Ré"} {
		if rec := env.do(t, http.MethodPost, "/api/services/users", map[string]string{"title": title, "url": "u"}, nil); rec.Code != http.StatusCreated {
			t.Fatalf("create %q: status = %d", title, rec.Code)
		}
		path := "/api/services/users/" + url.PathEscape(title)
		if rec := env.do(t, http.MethodPut, path, map[string]string{"url": "u2"}, nil); rec.Code != http.StatusOK {
			t.Errorf("PUT %s: status = %d, body: %s", path, rec.Code, rec.Body.String())
		}
		if rec := env.do(t, http.MethodDelete, path, nil, nil); rec.Code != http.StatusOK {
			t.Errorf("DELETE %s: status = %d", path, rec.Code)
		}
	}
}

func TestServicesAPI_MalformedBody(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/services/users", strings.NewReader("garbage"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp := decode(t, rec); resp["code"] != "MALFORMED_BODY" {
		t.Errorf("body = %v", resp)
	}
}
