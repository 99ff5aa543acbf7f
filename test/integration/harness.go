// Package integration provides a reusable harness for end-to-end testing of
// the workflow server: a full HTTP server wired with the shipped definitions,
// the static actor directory, an in-memory store, and a real JWT issuer.
package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/udnboss/workflow/internal/config"
	"github.com/udnboss/workflow/internal/definition"
	"github.com/udnboss/workflow/internal/directory"
	"github.com/udnboss/workflow/internal/observability"
	"github.com/udnboss/workflow/internal/store"
	"github.com/udnboss/workflow/internal/transport"
	"github.com/udnboss/workflow/internal/workflow"
)

const (
	testIssuer   = "https://auth.test"
	testAudience = "workflow-test"
)

var testSecret = []byte("integration-test-secret")

// Harness encapsulates a fully wired server instance for integration tests.
type Harness struct {
	t      *testing.T
	server *httptest.Server

	Registry  *definition.Registry
	Store     *store.MemoryStore
	Directory *directory.StaticDirectory
	Service   *workflow.Service
}

// repoRoot resolves the repository root from this file's location, so tests
// can load the shipped definitions and actors regardless of working directory.
func repoRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// NewHarness starts a server backed by the shipped SOW approval definition
// and actor directory.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	root := repoRoot()

	loader := definition.NewLoader()
	defs, err := loader.LoadAll([]string{filepath.Join(root, "definitions")})
	if err != nil {
		t.Fatalf("loading definitions: %v", err)
	}
	if verrs := definition.NewValidator().Validate(defs); len(verrs) > 0 {
		t.Fatalf("definition validation: %v", verrs)
	}
	registry := definition.NewRegistry(defs)

	dir, err := directory.NewStaticDirectory(filepath.Join(root, "config", "actors.yaml"))
	if err != nil {
		t.Fatalf("loading actors: %v", err)
	}

	memStore := store.NewMemoryStore()
	svc := workflow.NewService(registry, memStore)

	cfg := config.Defaults()
	cfg.Identity.Issuer = testIssuer
	cfg.Identity.Audience = testAudience
	cfg.Observability.Metrics.Enabled = false

	router := transport.NewRouter(transport.Dependencies{
		Config:       cfg,
		Service:      svc,
		Authenticate: transport.JWTAuthenticator(cfg.Identity, testSecret, dir),
		Readiness: observability.ReadinessChecks{
			DefinitionsLoaded: func() bool { return registry.Len() > 0 },
			Directory:         dir,
		},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &Harness{
		t:         t,
		server:    srv,
		Registry:  registry,
		Store:     memStore,
		Directory: dir,
		Service:   svc,
	}
}

// Token signs a JWT for the given subject, valid for one hour.
func (h *Harness) Token(subjectID string) string {
	h.t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": testIssuer,
		"aud": testAudience,
		"sub": subjectID,
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(now.Add(time.Hour)),
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		h.t.Fatalf("signing token: %v", err)
	}
	return signed
}

// Do performs an HTTP request against the harness server as the given
// subject. An empty subjectID sends no Authorization header.
func (h *Harness) Do(method, path, subjectID, body string) (*http.Response, map[string]any) {
	h.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		h.t.Fatalf("building request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if subjectID != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token(subjectID))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("reading response body: %v", err)
	}

	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			h.t.Fatalf("%s %s: invalid JSON: %s", method, path, raw)
		}
	}
	return resp, decoded
}

// CreateDocument creates a document as subjectID and returns its id.
func (h *Harness) CreateDocument(subjectID, definitionID, title string) string {
	h.t.Helper()

	resp, body := h.Do(http.MethodPost, "/api/documents", subjectID,
		`{"definition_id":"`+definitionID+`","title":"`+title+`"}`)
	if resp.StatusCode != http.StatusCreated {
		h.t.Fatalf("create document: status = %d, body = %v", resp.StatusCode, body)
	}
	return body["id"].(string)
}
