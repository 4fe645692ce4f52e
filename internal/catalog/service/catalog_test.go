package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/projection"
	"github.com/civikit/catalog/internal/catalog/storage/sqlite"
	apperrors "github.com/civikit/catalog/internal/errors"
	"github.com/civikit/catalog/internal/platform/requestctx"
)

func newTestCatalog(t *testing.T) (*Catalog, domain.Organization) {
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

	org, err := store.CreateOrganization(context.Background(), domain.Organization{
		Code: "MIN",
		Name: "Ministry of services",
	})
	if err != nil {
		t.Fatalf("create organization: %v", err)
	}

	clock := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return New(store, projection.DefaultRegistry(), WithClock(clock)), org
}

func callerContext(org domain.Organization) context.Context {
	return requestctx.WithCaller(context.Background(), requestctx.Caller{
		UserID:           "user-1",
		OrganizationID:   org.ID,
		OrganizationCode: org.Code,
	})
}

func createLifeSituation(t *testing.T, c *Catalog, ctx context.Context) map[string]any {
	t.Helper()
	out, err := c.Create(ctx, domain.KindLifeSituation, map[string]any{"name": "birth"})
	if err != nil {
		t.Fatalf("create life situation: %v", err)
	}
	return out
}

func createService(t *testing.T, c *Catalog, ctx context.Context, parentID int64) map[string]any {
	t.Helper()
	out, err := c.Create(ctx, domain.KindService, map[string]any{
		"name":          "Birth registration",
		"service_type":  "public_service",
		"lifesituation": float64(parentID),
	})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return out
}

func createProcess(t *testing.T, c *Catalog, ctx context.Context, serviceID int64) map[string]any {
	t.Helper()
	out, err := c.Create(ctx, domain.KindProcess, map[string]any{
		"name":    "Issue certificate",
		"service": float64(serviceID),
	})
	if err != nil {
		t.Fatalf("create process: %v", err)
	}
	return out
}

func recordID(t *testing.T, c *Catalog, ctx context.Context, kind domain.Kind) int64 {
	t.Helper()
	page, err := c.List(ctx, ListRequest{Kind: kind, PageSize: 100})
	if err != nil {
		t.Fatalf("list %s: %v", kind, err)
	}
	if len(page.Items) == 0 {
		t.Fatalf("no %s records", kind)
	}
	last := page.Items[len(page.Items)-1]
	id, ok := last["id"].(int64)
	if !ok {
		t.Fatalf("id = %v (%T), want int64", last["id"], last["id"])
	}
	return id
}

func TestCreateDiscardsClientIdentifier(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)

	out, err := catalog.Create(ctx, domain.KindLifeSituation, map[string]any{
		"name":       "birth",
		"identifier": "MIN.99",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out["identifier"] != "MIN.1" {
		t.Fatalf("identifier = %v, want the allocated MIN.1", out["identifier"])
	}
}

func TestCreateRendersThroughCreateProjection(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)

	out := createLifeSituation(t, catalog, ctx)
	if _, ok := out["id"]; ok {
		t.Fatalf("create response leaked id: %v", out)
	}
	if out["name"] != "birth" || out["identifier"] != "MIN.1" {
		t.Fatalf("response = %v", out)
	}
}

func TestCreateRejectsUnknownChoice(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)

	_, err := catalog.Create(ctx, domain.KindLifeSituation, map[string]any{"name": "weather"})
	if !apperrors.IsCode(err, apperrors.CodeChoiceInvalid) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeChoiceInvalid)
	}
}

func TestCreateServiceUnderMissingParent(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)

	_, err := catalog.Create(ctx, domain.KindService, map[string]any{
		"name":          "Orphan service",
		"service_type":  "public_service",
		"lifesituation": float64(404),
	})
	if !apperrors.IsCode(err, apperrors.CodeParentNotFound) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeParentNotFound)
	}
}

func TestOperationsRequireCaller(t *testing.T) {
	t.Parallel()

	catalog, _ := newTestCatalog(t)

	_, err := catalog.List(context.Background(), ListRequest{Kind: domain.KindLifeSituation})
	if !apperrors.IsCode(err, apperrors.CodeUnauthenticated) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeUnauthenticated)
	}
}

func TestGetHidesForeignOrganizationRecords(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)
	createLifeSituation(t, catalog, ctx)
	id := recordID(t, catalog, ctx, domain.KindLifeSituation)

	foreign := requestctx.WithCaller(context.Background(), requestctx.Caller{
		UserID:         "user-2",
		OrganizationID: org.ID + 1,
	})
	if _, err := catalog.Get(foreign, domain.KindLifeSituation, id); !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeUnauthorized)
	}
}

func TestGetProcessIncludesDataSubRecord(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)
	createLifeSituation(t, catalog, ctx)
	lsID := recordID(t, catalog, ctx, domain.KindLifeSituation)
	createService(t, catalog, ctx, lsID)
	svcID := recordID(t, catalog, ctx, domain.KindService)
	createProcess(t, catalog, ctx, svcID)
	procID := recordID(t, catalog, ctx, domain.KindProcess)

	out, err := catalog.Get(ctx, domain.KindProcess, procID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, ok := out["process_data"].(map[string]any)
	if !ok {
		t.Fatalf("process_data = %v (%T), want map", out["process_data"], out["process_data"])
	}
	if data["client_value"] != "" {
		t.Fatalf("client_value = %v, want empty sub-record", data["client_value"])
	}
	if out["identifier"] != "MIN.1.1.1" {
		t.Fatalf("identifier = %v, want MIN.1.1.1", out["identifier"])
	}
}

func TestListLifeSituationsRendersLabelsAndChildren(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)
	createLifeSituation(t, catalog, ctx)
	lsID := recordID(t, catalog, ctx, domain.KindLifeSituation)
	createService(t, catalog, ctx, lsID)

	page, err := catalog.List(ctx, ListRequest{Kind: domain.KindLifeSituation})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(page.Items))
	}
	item := page.Items[0]
	if item["name"] != "Birth of a child" {
		t.Fatalf("name = %v, want display label", item["name"])
	}
	services, ok := item["services"].([]map[string]any)
	if !ok || len(services) != 1 {
		t.Fatalf("services = %v, want one child", item["services"])
	}
	if services[0]["service_type"] != "Public service" {
		t.Fatalf("child service_type = %v, want display label", services[0]["service_type"])
	}
}

func TestListPaginatesWithTokens(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)
	for range 5 {
		createLifeSituation(t, catalog, ctx)
	}

	var total int
	token := ""
	for {
		page, err := catalog.List(ctx, ListRequest{
			Kind:      domain.KindLifeSituation,
			PageSize:  2,
			PageToken: token,
		})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		total += len(page.Items)
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	if total != 5 {
		t.Fatalf("walked %d items, want 5", total)
	}

	_, err := catalog.List(ctx, ListRequest{Kind: domain.KindLifeSituation, PageToken: "bogus"})
	if !apperrors.IsCode(err, apperrors.CodeFieldInvalid) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeFieldInvalid)
	}
}

func TestListRejectsMalformedFilter(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)

	_, err := catalog.List(ctx, ListRequest{
		Kind:   domain.KindProcess,
		Filter: `nonsense = "x"`,
	})
	if !apperrors.IsCode(err, apperrors.CodeSearchFilterInvalid) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeSearchFilterInvalid)
	}
}

func TestPreviewIdentifierDoesNotConsume(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)

	preview, err := catalog.PreviewIdentifier(ctx, domain.KindLifeSituation, 0)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview != "MIN.1" {
		t.Fatalf("preview = %q, want MIN.1", preview)
	}

	out := createLifeSituation(t, catalog, ctx)
	if out["identifier"] != "MIN.1" {
		t.Fatalf("identifier = %v, want the previewed MIN.1", out["identifier"])
	}

	if _, err := catalog.PreviewIdentifier(ctx, domain.KindService, 0); !apperrors.IsCode(err, apperrors.CodeFieldRequired) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeFieldRequired)
	}
	if _, err := catalog.PreviewIdentifier(ctx, domain.KindService, 404); !apperrors.IsCode(err, apperrors.CodeParentNotFound) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeParentNotFound)
	}
}

func TestUpdateProcessWritesNestedDataThrough(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)
	createLifeSituation(t, catalog, ctx)
	lsID := recordID(t, catalog, ctx, domain.KindLifeSituation)
	createService(t, catalog, ctx, lsID)
	svcID := recordID(t, catalog, ctx, domain.KindService)
	createProcess(t, catalog, ctx, svcID)
	procID := recordID(t, catalog, ctx, domain.KindProcess)

	out, err := catalog.Update(ctx, domain.KindProcess, procID, map[string]any{
		"status": "IN_PROGRESS",
		"process_data": map[string]any{
			"client_value": "citizen",
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out["status"] != "IN_PROGRESS" {
		t.Fatalf("status = %v", out["status"])
	}
	data := out["process_data"].(map[string]any)
	if data["client_value"] != "citizen" {
		t.Fatalf("client_value = %v", data["client_value"])
	}

	// A later update without process_data leaves the sub-record alone.
	out, err = catalog.Update(ctx, domain.KindProcess, procID, map[string]any{
		"department": "Registry office",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	data = out["process_data"].(map[string]any)
	if data["client_value"] != "citizen" {
		t.Fatalf("client_value = %v, want preserved value", data["client_value"])
	}
}

func TestUpdateProcessRejectsUnknownRelatedProcess(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)
	createLifeSituation(t, catalog, ctx)
	lsID := recordID(t, catalog, ctx, domain.KindLifeSituation)
	createService(t, catalog, ctx, lsID)
	svcID := recordID(t, catalog, ctx, domain.KindService)
	createProcess(t, catalog, ctx, svcID)
	procID := recordID(t, catalog, ctx, domain.KindProcess)

	_, err := catalog.Update(ctx, domain.KindProcess, procID, map[string]any{
		"process_data": map[string]any{
			"related_processes": []any{float64(404)},
		},
	})
	if !apperrors.IsCode(err, apperrors.CodeRelatedProcessNotFound) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeRelatedProcessNotFound)
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("err = %T, want *apperrors.Error", err)
	}
	if appErr.Metadata["ID"] != "404" {
		t.Fatalf("metadata ID = %q, want 404", appErr.Metadata["ID"])
	}
}

func TestDeleteRetiresIdentifierOrdinals(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)
	createLifeSituation(t, catalog, ctx)
	id := recordID(t, catalog, ctx, domain.KindLifeSituation)

	if err := catalog.Delete(ctx, domain.KindLifeSituation, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := catalog.Delete(ctx, domain.KindLifeSituation, id); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("second delete = %v, want %s", err, apperrors.CodeNotFound)
	}

	out := createLifeSituation(t, catalog, ctx)
	if out["identifier"] != "MIN.2" {
		t.Fatalf("identifier = %v, want MIN.2 after deletion", out["identifier"])
	}
}

func TestDescribeReportsRegisteredOperations(t *testing.T) {
	t.Parallel()

	catalog, org := newTestCatalog(t)
	ctx := callerContext(org)

	described, err := catalog.Describe(ctx, domain.KindProcess)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	update, ok := described[projection.OperationUpdate]
	if !ok {
		t.Fatal("update operation missing from description")
	}
	if _, ok := update["process_data"]; !ok {
		t.Fatal("update description missing process_data")
	}

	if _, err := catalog.Describe(ctx, domain.Kind("weather")); !apperrors.IsCode(err, apperrors.CodeUnknownEntityKind) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeUnknownEntityKind)
	}
}
