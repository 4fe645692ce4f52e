package mcp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/projection"
	"github.com/civikit/catalog/internal/catalog/service"
	"github.com/civikit/catalog/internal/catalog/storage/sqlite"
	apperrors "github.com/civikit/catalog/internal/errors"
	"github.com/civikit/catalog/internal/platform/requestctx"
)

func newTestTools(t *testing.T) (*service.Catalog, Authenticator) {
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

	auth := StaticCaller(requestctx.Caller{
		UserID:           "user-1",
		OrganizationID:   org.ID,
		OrganizationCode: org.Code,
	})
	return service.New(store, projection.DefaultRegistry()), auth
}

func TestCreateAndGetTools(t *testing.T) {
	t.Parallel()

	catalog, auth := newTestTools(t)
	ctx := context.Background()

	_, created, err := CreateHandler(catalog, auth)(ctx, nil, CreateInput{
		Kind:   "life_situation",
		Record: map[string]any{"name": "birth"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Record["identifier"] != "MIN.1" {
		t.Fatalf("identifier = %v, want MIN.1", created.Record["identifier"])
	}

	_, page, err := ListHandler(catalog, auth)(ctx, nil, ListInput{Kind: "life_situation"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(page.Items))
	}

	id, ok := page.Items[0]["id"].(int64)
	if !ok {
		t.Fatalf("id = %v, want int64", page.Items[0]["id"])
	}
	_, got, err := GetHandler(catalog, auth)(ctx, nil, GetInput{Kind: "life_situation", ID: id})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Record["name"] != "birth" {
		t.Fatalf("name = %v, want birth", got.Record["name"])
	}
}

func TestUpdateAndDeleteTools(t *testing.T) {
	t.Parallel()

	catalog, auth := newTestTools(t)
	ctx := context.Background()

	if _, _, err := CreateHandler(catalog, auth)(ctx, nil, CreateInput{
		Kind:   "life_situation",
		Record: map[string]any{"name": "birth"},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, page, err := ListHandler(catalog, auth)(ctx, nil, ListInput{Kind: "life_situation"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	id := page.Items[0]["id"].(int64)

	_, updated, err := UpdateHandler(catalog, auth)(ctx, nil, UpdateInput{
		Kind:   "life_situation",
		ID:     id,
		Record: map[string]any{"name": "health"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Record["name"] != "health" {
		t.Fatalf("name = %v, want health", updated.Record["name"])
	}

	_, deleted, err := DeleteHandler(catalog, auth)(ctx, nil, DeleteInput{Kind: "life_situation", ID: id})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted.Deleted {
		t.Fatal("deleted = false, want true")
	}
	if _, _, err := GetHandler(catalog, auth)(ctx, nil, GetInput{Kind: "life_situation", ID: id}); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeNotFound)
	}
}

func TestPreviewIdentifierTool(t *testing.T) {
	t.Parallel()

	catalog, auth := newTestTools(t)
	ctx := context.Background()

	_, preview, err := PreviewIdentifierHandler(catalog, auth)(ctx, nil, PreviewIdentifierInput{Kind: "life_situation"})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.Identifier != "MIN.1" {
		t.Fatalf("identifier = %v, want MIN.1", preview.Identifier)
	}
}

func TestDescribeTool(t *testing.T) {
	t.Parallel()

	catalog, auth := newTestTools(t)
	ctx := context.Background()

	_, described, err := DescribeHandler(catalog, auth)(ctx, nil, DescribeInput{Kind: "service"})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	create, ok := described.Actions[projection.OperationCreate]
	if !ok {
		t.Fatal("create action missing")
	}
	if _, ok := create["lifesituation"]; !ok {
		t.Fatal("lifesituation descriptor missing")
	}
}

func TestToolsRejectUnknownKind(t *testing.T) {
	t.Parallel()

	catalog, auth := newTestTools(t)
	_, _, err := ListHandler(catalog, auth)(context.Background(), nil, ListInput{Kind: "weather"})
	if !apperrors.IsCode(err, apperrors.CodeUnknownEntityKind) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeUnknownEntityKind)
	}
}

func TestStaticCallerRequiresIdentity(t *testing.T) {
	t.Parallel()

	catalog, _ := newTestTools(t)
	auth := StaticCaller(requestctx.Caller{})
	_, _, err := GetHandler(catalog, auth)(context.Background(), nil, GetInput{Kind: "process", ID: 1})
	if !apperrors.IsCode(err, apperrors.CodeUnauthenticated) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeUnauthenticated)
	}
}
