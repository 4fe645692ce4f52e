package service

import "github.com/civikit/catalog/internal/catalog/domain"

// The value maps below feed projection rendering. Keys use wire field names;
// projections decide which of them reach the response.

func lifeSituationValues(record domain.LifeSituation) map[string]any {
	return map[string]any{
		"id":         record.ID,
		"name":       record.Name,
		"identifier": record.Identifier,
		"user":       record.UserID,
	}
}

func serviceValues(record domain.Service) map[string]any {
	return map[string]any{
		"id":             record.ID,
		"service_type":   record.ServiceType,
		"name":           record.Name,
		"regulating_act": record.RegulatingAct,
		"identifier":     record.Identifier,
		"lifesituation":  record.LifeSituationID,
		"user":           record.UserID,
	}
}

func processValues(record domain.Process) map[string]any {
	return map[string]any{
		"id":                    record.ID,
		"name":                  record.Name,
		"status":                record.Status,
		"is_internal_client":    record.IsInternalClient,
		"is_external_client":    record.IsExternalClient,
		"is_digital_format":     record.IsDigitalFormat,
		"is_non_digital_format": record.IsNonDigitalFormat,
		"responsible_authority": record.ResponsibleAuthority,
		"department":            record.Department,
		"digital_format_link":   record.DigitalFormatLink,
		"identifier":            record.Identifier,
		"service":               record.ServiceID,
		"user":                  record.UserID,
	}
}

func processDataValues(data domain.ProcessData) map[string]any {
	related := data.RelatedProcessIDs
	if related == nil {
		related = []int64{}
	}
	return map[string]any{
		"client_value":      data.ClientValue,
		"input_data":        data.InputData,
		"output_data":       data.OutputData,
		"related_processes": related,
		"group":             data.Group,
	}
}
