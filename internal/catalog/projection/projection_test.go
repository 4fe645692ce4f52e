package projection

import (
	"reflect"
	"testing"
	"time"

	"github.com/civikit/catalog/internal/catalog/domain"
	apperrors "github.com/civikit/catalog/internal/errors"
)

func TestProjectionForFallsBackToDefault(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.RegisterDefault(processDefaultSpec(processDataSpec()))

	spec := registry.ProjectionFor(domain.KindProcess, OperationList)
	if spec.Operation != "" {
		t.Fatalf("process list resolved %q, want the default projection", spec.Operation)
	}
	if _, ok := spec.Field("service"); !ok {
		t.Fatal("default process projection is missing the service field")
	}
	if _, ok := spec.Field("process_data"); !ok {
		t.Fatal("default process projection is missing the process_data field")
	}
}

func TestProcessListSharesRetrieveProjection(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()

	list := registry.ProjectionFor(domain.KindProcess, OperationList)
	if list.Operation != OperationList {
		t.Fatalf("process list resolved %q, want a registered projection", list.Operation)
	}
	retrieve := registry.ProjectionFor(domain.KindProcess, OperationRetrieve)
	if !reflect.DeepEqual(list.FieldNames(), retrieve.FieldNames()) {
		t.Fatalf("list fields = %v, want retrieve fields %v",
			list.FieldNames(), retrieve.FieldNames())
	}
	for _, name := range []string{"user", "service"} {
		if _, ok := list.Field(name); ok {
			t.Fatalf("process list projection exposes %s", name)
		}
	}
}

func TestRegisteredOperationsOrder(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()

	got := registry.RegisteredOperations(domain.KindLifeSituation)
	want := []Operation{OperationList, OperationRetrieve, OperationCreate, OperationUpdate}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("operations = %v, want %v", got, want)
	}

	got = registry.RegisteredOperations(domain.KindProcess)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("process operations = %v, want %v", got, want)
	}
}

func TestRenderLifeSituationListSubstitutesLabelsAndChildren(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()
	spec := registry.ProjectionFor(domain.KindLifeSituation, OperationList)

	out := Render(spec, map[string]any{
		"id":         int64(4),
		"name":       "birth",
		"identifier": "MIN.4",
		"services": []map[string]any{{
			"id":             int64(9),
			"service_type":   "public_service",
			"name":           "Birth registration",
			"regulating_act": "Act 12",
			"identifier":     "MIN.4.1",
		}},
	})

	if out["name"] != "Birth of a child" {
		t.Fatalf("name = %v, want display label", out["name"])
	}
	services, ok := out["services"].([]map[string]any)
	if !ok || len(services) != 1 {
		t.Fatalf("services = %v, want one rendered child", out["services"])
	}
	if services[0]["service_type"] != "Public service" {
		t.Fatalf("child service_type = %v, want display label", services[0]["service_type"])
	}
	if _, ok := services[0]["user"]; ok {
		t.Fatal("child projection leaked the user field")
	}
}

func TestRenderDropsUnprojectedFields(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()
	spec := registry.ProjectionFor(domain.KindLifeSituation, OperationRetrieve)

	out := Render(spec, map[string]any{
		"id":         int64(4),
		"name":       "health",
		"identifier": "MIN.4",
		"user":       "user-1",
	})

	if _, ok := out["user"]; ok {
		t.Fatal("retrieve projection leaked the user field")
	}
	if out["name"] != "health" {
		t.Fatalf("name = %v, want stored value on retrieve", out["name"])
	}
}

func TestDecodePayloadRequiresFieldsOnCreate(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()
	spec := registry.ProjectionFor(domain.KindService, OperationCreate)

	_, err := DecodePayload(spec, map[string]any{"name": "Birth registration"}, false)
	if !apperrors.IsCode(err, apperrors.CodeFieldRequired) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeFieldRequired)
	}
}

func TestDecodePayloadPartialSkipsAbsentRequiredFields(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()
	spec := registry.ProjectionFor(domain.KindProcess, OperationUpdate)

	decoded, err := DecodePayload(spec, map[string]any{"department": "Registry office"}, true)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := decoded["department"]; got != "Registry office" {
		t.Fatalf("department = %v, want supplied value", got)
	}
	if _, ok := decoded["name"]; ok {
		t.Fatal("absent name appeared in decoded payload")
	}
}

func TestDecodePayloadRejectsUnknownChoice(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()
	spec := registry.ProjectionFor(domain.KindLifeSituation, OperationCreate)

	_, err := DecodePayload(spec, map[string]any{"name": "weather"}, false)
	if !apperrors.IsCode(err, apperrors.CodeChoiceInvalid) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeChoiceInvalid)
	}
}

func TestDecodePayloadDropsUnknownKeys(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()
	spec := registry.ProjectionFor(domain.KindLifeSituation, OperationCreate)

	decoded, err := DecodePayload(spec, map[string]any{
		"name":       "birth",
		"identifier": "MIN.99",
		"surprise":   true,
	}, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := decoded["surprise"]; ok {
		t.Fatal("unknown key survived decoding")
	}
	if decoded["identifier"] != "MIN.99" {
		t.Fatalf("identifier = %v, want the supplied value passed through", decoded["identifier"])
	}
}

func TestDecodePayloadNormalizesReferences(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()
	spec := registry.ProjectionFor(domain.KindProcess, OperationCreate)

	decoded, err := DecodePayload(spec, map[string]any{
		"name":    "Issue certificate",
		"service": float64(7),
	}, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got, ok := decoded["service"].(int64); !ok || got != 7 {
		t.Fatalf("service = %v, want int64(7)", decoded["service"])
	}

	if _, err := DecodePayload(spec, map[string]any{
		"name":    "Issue certificate",
		"service": float64(0),
	}, false); !apperrors.IsCode(err, apperrors.CodeFieldInvalid) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeFieldInvalid)
	}
}

func TestDecodePayloadNestedProcessData(t *testing.T) {
	t.Parallel()

	registry := DefaultRegistry()
	spec := registry.ProjectionFor(domain.KindProcess, OperationUpdate)

	decoded, err := DecodePayload(spec, map[string]any{
		"process_data": map[string]any{
			"client_value":      "citizen",
			"related_processes": []any{float64(3), float64(5)},
			"bogus":             "dropped",
		},
	}, true)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	nested, ok := decoded["process_data"].(map[string]any)
	if !ok {
		t.Fatalf("process_data = %T, want map", decoded["process_data"])
	}
	if nested["client_value"] != "citizen" {
		t.Fatalf("client_value = %v", nested["client_value"])
	}
	if got, ok := nested["related_processes"].([]int64); !ok || !reflect.DeepEqual(got, []int64{3, 5}) {
		t.Fatalf("related_processes = %v, want [3 5]", nested["related_processes"])
	}
	if _, ok := nested["bogus"]; ok {
		t.Fatal("unknown nested key survived decoding")
	}
}

func TestApplyProcessPayloadMergesOnlyPresentKeys(t *testing.T) {
	t.Parallel()

	now := func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	proc := domain.Process{
		Name:       "Issue certificate",
		Status:     "NOT_STARTED",
		Department: "Registry office",
	}
	data := domain.ProcessData{
		ClientValue: "citizen",
		InputData:   "application form",
		Group:       "civil",
	}

	ApplyProcessPayload(&proc, &data, map[string]any{
		"status": "IN_PROGRESS",
		"process_data": map[string]any{
			"output_data":       "certificate",
			"related_processes": []int64{8},
		},
	}, now)

	if proc.Status != "IN_PROGRESS" {
		t.Fatalf("status = %q, want IN_PROGRESS", proc.Status)
	}
	if proc.Name != "Issue certificate" || proc.Department != "Registry office" {
		t.Fatal("absent process fields changed")
	}
	if data.OutputData != "certificate" {
		t.Fatalf("output_data = %q, want certificate", data.OutputData)
	}
	if data.ClientValue != "citizen" || data.InputData != "application form" || data.Group != "civil" {
		t.Fatal("absent process_data fields changed")
	}
	if !reflect.DeepEqual(data.RelatedProcessIDs, []int64{8}) {
		t.Fatalf("related_processes = %v, want [8]", data.RelatedProcessIDs)
	}
	if !proc.UpdatedAt.Equal(now()) {
		t.Fatalf("updated_at = %v, want %v", proc.UpdatedAt, now())
	}
}
