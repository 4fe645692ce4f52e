package rest

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/civikit/catalog/internal/auth/token"
	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/projection"
	"github.com/civikit/catalog/internal/catalog/service"
	"github.com/civikit/catalog/internal/catalog/storage/sqlite"
	apperrors "github.com/civikit/catalog/internal/errors"
	"github.com/civikit/catalog/internal/platform/requestctx"
)

type testAPI struct {
	server *httptest.Server
	bearer string
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	org, err := store.CreateOrganization(t.Context(), domain.Organization{
		Code: "MIN",
		Name: "Ministry of services",
	})
	if err != nil {
		t.Fatalf("create organization: %v", err)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tokens := token.Config{
		Issuer:   "https://auth.test",
		Audience: "catalog",
		Key:      pub,
	}
	signed, err := token.Mint(requestctx.Caller{
		UserID:           "user-1",
		OrganizationID:   org.ID,
		OrganizationCode: org.Code,
	}, tokens, priv, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	catalog := service.New(store, projection.DefaultRegistry())
	mux := http.NewServeMux()
	New(catalog, tokens).Routes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return testAPI{server: server, bearer: "Bearer " + signed}
}

func (api testAPI) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, api.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", api.bearer)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestRoutesRequireBearerToken(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	resp, err := http.Get(api.server.URL + "/v1/life_situations")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestCreateRetrieveRoundTrip(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/v1/life_situations", map[string]any{"name": "birth"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	created := decodeMap(t, resp)
	if created["identifier"] != "MIN.1" {
		t.Fatalf("identifier = %v, want MIN.1", created["identifier"])
	}

	resp = api.do(t, http.MethodGet, "/v1/life_situations", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	listed := decodeMap(t, resp)
	items, ok := listed["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v, want one record", listed["items"])
	}
	item := items[0].(map[string]any)
	if item["name"] != "Birth of a child" {
		t.Fatalf("listed name = %v, want display label", item["name"])
	}

	id := int64(item["id"].(float64))
	resp = api.do(t, http.MethodGet, "/v1/life_situations/"+itoa(id), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	got := decodeMap(t, resp)
	if got["name"] != "birth" {
		t.Fatalf("retrieved name = %v, want stored value", got["name"])
	}
}

func TestValidationErrorsLocalize(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	req, err := http.NewRequest(http.MethodPost, api.server.URL+"/v1/life_situations",
		bytes.NewReader([]byte(`{"name":"weather"}`)))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", api.bearer)
	req.Header.Set("Accept-Language", "ru-RU")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	body := decodeMap(t, resp)
	if body["code"] != string(apperrors.CodeChoiceInvalid) {
		t.Fatalf("code = %v, want %s", body["code"], apperrors.CodeChoiceInvalid)
	}
}

func TestUnknownCollectionRejected(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/v1/weather_reports", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestPreviewIdentifierEndpoint(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/v1/life_situations/identifier", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeMap(t, resp)
	if body["identifier"] != "MIN.1" {
		t.Fatalf("identifier = %v, want MIN.1", body["identifier"])
	}

	resp = api.do(t, http.MethodGet, "/v1/services/identifier", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status without parent = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestDescribeEndpoint(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	resp := api.do(t, http.MethodOptions, "/v1/processes", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeMap(t, resp)
	actions, ok := body["actions"].(map[string]any)
	if !ok {
		t.Fatalf("actions = %v", body["actions"])
	}
	update, ok := actions["update"].(map[string]any)
	if !ok {
		t.Fatal("update action missing")
	}
	data, ok := update["process_data"].(map[string]any)
	if !ok {
		t.Fatal("process_data descriptor missing")
	}
	if _, ok := data["children"].(map[string]any); !ok {
		t.Fatal("process_data children missing")
	}
}

func TestUpdateAndDelete(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/v1/life_situations", map[string]any{"name": "birth"})
	decodeMap(t, resp)

	resp = api.do(t, http.MethodGet, "/v1/life_situations", nil)
	listed := decodeMap(t, resp)
	item := listed["items"].([]any)[0].(map[string]any)
	id := itoa(int64(item["id"].(float64)))

	resp = api.do(t, http.MethodPatch, "/v1/life_situations/"+id, map[string]any{"name": "health"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	updated := decodeMap(t, resp)
	if updated["name"] != "health" {
		t.Fatalf("name = %v, want health", updated["name"])
	}

	resp = api.do(t, http.MethodDelete, "/v1/life_situations/"+id, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp = api.do(t, http.MethodGet, "/v1/life_situations/"+id, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
