package projection

import (
	"time"

	"github.com/civikit/catalog/internal/catalog/domain"
)

// ApplyProcessPayload writes a decoded update payload through onto a process
// and its data sub-record in place. Only keys present in the payload change;
// everything else keeps its stored value. The caller persists both records in
// a single transaction.
func ApplyProcessPayload(proc *domain.Process, data *domain.ProcessData, payload map[string]any, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	if v, ok := payload["name"].(string); ok {
		proc.Name = v
	}
	if v, ok := payload["status"].(string); ok && v != "" {
		proc.Status = v
	}
	if v, ok := payload["is_internal_client"].(bool); ok {
		proc.IsInternalClient = v
	}
	if v, ok := payload["is_external_client"].(bool); ok {
		proc.IsExternalClient = v
	}
	if v, ok := payload["is_digital_format"].(bool); ok {
		proc.IsDigitalFormat = v
	}
	if v, ok := payload["is_non_digital_format"].(bool); ok {
		proc.IsNonDigitalFormat = v
	}
	if v, ok := payload["responsible_authority"].(string); ok {
		proc.ResponsibleAuthority = v
	}
	if v, ok := payload["department"].(string); ok {
		proc.Department = v
	}
	if v, ok := payload["digital_format_link"].(string); ok {
		proc.DigitalFormatLink = v
	}
	if nested, ok := payload["process_data"].(map[string]any); ok {
		applyProcessDataPayload(data, nested)
	}
	proc.UpdatedAt = now().UTC()
}

func applyProcessDataPayload(data *domain.ProcessData, payload map[string]any) {
	if v, ok := payload["client_value"].(string); ok {
		data.ClientValue = v
	}
	if v, ok := payload["input_data"].(string); ok {
		data.InputData = v
	}
	if v, ok := payload["output_data"].(string); ok {
		data.OutputData = v
	}
	if v, ok := payload["related_processes"].([]int64); ok {
		data.RelatedProcessIDs = v
	}
	if v, ok := payload["group"].(string); ok {
		data.Group = v
	}
}
