package domain

// Choice pairs a stored value with its display label.
type Choice struct {
	Value string
	Label string
}

// The choice sets below are closed: configured once here and validated on
// every write. Order is presentation order.

var lifeSituationNames = []Choice{
	{Value: "birth", Label: "Birth of a child"},
	{Value: "family", Label: "Family"},
	{Value: "education", Label: "Education"},
	{Value: "employment", Label: "Employment"},
	{Value: "housing", Label: "Housing"},
	{Value: "health", Label: "Healthcare"},
	{Value: "business", Label: "Starting a business"},
	{Value: "retirement", Label: "Retirement"},
}

var serviceTypes = []Choice{
	{Value: "public_service", Label: "Public service"},
	{Value: "function", Label: "Government function"},
	{Value: "support_measure", Label: "Support measure"},
	{Value: "other", Label: "Other"},
}

var processStatuses = []Choice{
	{Value: "NOT_STARTED", Label: "Not started"},
	{Value: "IN_PROGRESS", Label: "In progress"},
	{Value: "UNDER_REVIEW", Label: "Under review"},
	{Value: "COMPLETED", Label: "Completed"},
	{Value: "SUSPENDED", Label: "Suspended"},
}

// LifeSituationNames returns the closed set of life situation names.
func LifeSituationNames() []Choice { return cloneChoices(lifeSituationNames) }

// ServiceTypes returns the closed set of service types.
func ServiceTypes() []Choice { return cloneChoices(serviceTypes) }

// ProcessStatuses returns the closed set of process statuses.
func ProcessStatuses() []Choice { return cloneChoices(processStatuses) }

// IsLifeSituationName reports membership in the life situation name set.
func IsLifeSituationName(value string) bool { return hasChoice(lifeSituationNames, value) }

// IsServiceType reports membership in the service type set.
func IsServiceType(value string) bool { return hasChoice(serviceTypes, value) }

// IsProcessStatus reports membership in the process status set.
func IsProcessStatus(value string) bool { return hasChoice(processStatuses, value) }

// LifeSituationNameLabel returns the display label for a stored name value.
// Unknown values fall back to the stored value itself.
func LifeSituationNameLabel(value string) string { return choiceLabel(lifeSituationNames, value) }

// ServiceTypeLabel returns the display label for a stored service type.
func ServiceTypeLabel(value string) string { return choiceLabel(serviceTypes, value) }

// ProcessStatusLabel returns the display label for a stored process status.
func ProcessStatusLabel(value string) string { return choiceLabel(processStatuses, value) }

func cloneChoices(source []Choice) []Choice {
	out := make([]Choice, len(source))
	copy(out, source)
	return out
}

func hasChoice(set []Choice, value string) bool {
	for _, choice := range set {
		if choice.Value == value {
			return true
		}
	}
	return false
}

func choiceLabel(set []Choice, value string) string {
	for _, choice := range set {
		if choice.Value == value {
			return choice.Label
		}
	}
	return value
}
