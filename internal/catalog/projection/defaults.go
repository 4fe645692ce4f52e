package projection

import "github.com/civikit/catalog/internal/catalog/domain"

// DefaultRegistry builds the static projection table for the catalog kinds.
//
// Every kind registers all four operations; services and processes share one
// read spec between list and retrieve. An operation missing from the table
// falls back to the kind's full-field default projection.
func DefaultRegistry() *Registry {
	registry := NewRegistry()

	serviceRetrieve := serviceRetrieveSpec()
	processData := processDataSpec()

	registry.RegisterDefault(lifeSituationDefaultSpec())
	registry.Register(Spec{
		Kind:      domain.KindLifeSituation,
		Operation: OperationList,
		Fields: []Field{
			idField(),
			{Name: "name", Type: TypeChoice, ReadOnly: true, Label: "Name",
				Choices: domain.LifeSituationNames, Display: domain.LifeSituationNameLabel},
			identifierField(),
			{Name: "services", Type: TypeNested, ReadOnly: true, Label: "Services",
				Children: &serviceRetrieve},
		},
	})
	registry.Register(Spec{
		Kind:      domain.KindLifeSituation,
		Operation: OperationRetrieve,
		Fields: []Field{
			idField(),
			identifierField(),
			{Name: "name", Type: TypeChoice, ReadOnly: true, Label: "Name",
				Choices: domain.LifeSituationNames},
		},
	})
	registry.Register(Spec{
		Kind:      domain.KindLifeSituation,
		Operation: OperationCreate,
		Fields: []Field{
			{Name: "name", Type: TypeChoice, Required: true, Label: "Name",
				Choices: domain.LifeSituationNames},
			ignoredIdentifierField(),
		},
	})
	registry.Register(Spec{
		Kind:      domain.KindLifeSituation,
		Operation: OperationUpdate,
		Fields: []Field{
			{Name: "name", Type: TypeChoice, Required: true, Label: "Name",
				Choices: domain.LifeSituationNames},
		},
	})

	registry.RegisterDefault(serviceDefaultSpec())
	registry.Register(withOperation(serviceRetrieve, OperationList))
	registry.Register(withOperation(serviceRetrieve, OperationRetrieve))
	registry.Register(Spec{
		Kind:      domain.KindService,
		Operation: OperationCreate,
		Fields: []Field{
			{Name: "service_type", Type: TypeChoice, Required: true, Label: "Type",
				Choices: domain.ServiceTypes},
			{Name: "name", Type: TypeString, Required: true, Label: "Name", MaxLength: 255},
			{Name: "regulating_act", Type: TypeString, Label: "Regulating act", MaxLength: 255},
			{Name: "lifesituation", Type: TypeRelated, Required: true, Relational: true,
				Label: "Life situation"},
			ignoredIdentifierField(),
		},
	})
	registry.Register(Spec{
		Kind:      domain.KindService,
		Operation: OperationUpdate,
		Fields: []Field{
			{Name: "service_type", Type: TypeChoice, Required: true, Label: "Type",
				Choices: domain.ServiceTypes},
			{Name: "name", Type: TypeString, Required: true, Label: "Name", MaxLength: 255},
			{Name: "regulating_act", Type: TypeString, Label: "Regulating act", MaxLength: 255},
		},
	})

	processRetrieve := Spec{
		Kind:      domain.KindProcess,
		Operation: OperationRetrieve,
		Fields: append(processFlatFields(true),
			Field{Name: "process_data", Type: TypeNested, ReadOnly: true,
				Label: "Process data", Child: &processData},
		),
	}

	registry.RegisterDefault(processDefaultSpec(processData))
	registry.Register(withOperation(processRetrieve, OperationList))
	registry.Register(processRetrieve)
	registry.Register(Spec{
		Kind:      domain.KindProcess,
		Operation: OperationCreate,
		Fields: append(processWritableFields(),
			Field{Name: "service", Type: TypeRelated, Required: true, Relational: true,
				Label: "Service"},
			ignoredIdentifierField(),
		),
	})
	registry.Register(Spec{
		Kind:      domain.KindProcess,
		Operation: OperationUpdate,
		Fields: append(processWritableFields(),
			idField(),
			Field{Name: "process_data", Type: TypeNested, Label: "Process data",
				Child: &processData},
		),
	})

	return registry
}

func lifeSituationDefaultSpec() Spec {
	return Spec{
		Kind: domain.KindLifeSituation,
		Fields: []Field{
			idField(),
			{Name: "name", Type: TypeChoice, Required: true, Label: "Name",
				Choices: domain.LifeSituationNames},
			identifierField(),
			userField(),
		},
	}
}

func serviceDefaultSpec() Spec {
	return Spec{
		Kind: domain.KindService,
		Fields: []Field{
			idField(),
			{Name: "service_type", Type: TypeChoice, Required: true, Label: "Type",
				Choices: domain.ServiceTypes},
			{Name: "name", Type: TypeString, Required: true, Label: "Name", MaxLength: 255},
			{Name: "regulating_act", Type: TypeString, Label: "Regulating act", MaxLength: 255},
			{Name: "lifesituation", Type: TypeRelated, Required: true, Relational: true,
				Label: "Life situation"},
			identifierField(),
			userField(),
		},
	}
}

func serviceRetrieveSpec() Spec {
	return Spec{
		Kind:      domain.KindService,
		Operation: OperationRetrieve,
		Fields: []Field{
			idField(),
			{Name: "service_type", Type: TypeChoice, ReadOnly: true, Label: "Type",
				Choices: domain.ServiceTypes, Display: domain.ServiceTypeLabel},
			{Name: "name", Type: TypeString, ReadOnly: true, Label: "Name", MaxLength: 255},
			{Name: "regulating_act", Type: TypeString, ReadOnly: true, Label: "Regulating act",
				MaxLength: 255},
			identifierField(),
		},
	}
}

func processDefaultSpec(processData Spec) Spec {
	return Spec{
		Kind: domain.KindProcess,
		Fields: append(processFlatFields(false),
			Field{Name: "service", Type: TypeRelated, Required: true, Relational: true,
				Label: "Service"},
			Field{Name: "process_data", Type: TypeNested, ReadOnly: true,
				Label: "Process data", Child: &processData},
			userField(),
		),
	}
}

func processDataSpec() Spec {
	return Spec{
		Kind: domain.KindProcess,
		Fields: []Field{
			{Name: "client_value", Type: TypeString, Label: "Client value", MaxLength: 255},
			{Name: "input_data", Type: TypeString, Label: "Input data", MaxLength: 255},
			{Name: "output_data", Type: TypeString, Label: "Output data", MaxLength: 255},
			{Name: "related_processes", Type: TypeRelated, Relational: true, Many: true,
				Label: "Related processes"},
			{Name: "group", Type: TypeString, Label: "Group", MaxLength: 255},
		},
	}
}

// processFlatFields returns the scalar process fields shared by the read and
// default projections.
func processFlatFields(readOnly bool) []Field {
	fields := append([]Field{idField()}, processScalarFields()...)
	fields = append(fields, identifierField())
	if readOnly {
		for i := range fields {
			fields[i].ReadOnly = true
		}
	}
	return fields
}

// processWritableFields returns the scalar process fields accepted by create
// and update payloads.
func processWritableFields() []Field {
	return processScalarFields()
}

func processScalarFields() []Field {
	return []Field{
		{Name: "name", Type: TypeString, Required: true, Label: "Name", MaxLength: 255},
		{Name: "status", Type: TypeChoice, Label: "Status", Choices: domain.ProcessStatuses},
		{Name: "is_internal_client", Type: TypeBoolean, Label: "Internal client"},
		{Name: "is_external_client", Type: TypeBoolean, Label: "External client"},
		{Name: "responsible_authority", Type: TypeString, Label: "Responsible authority",
			MaxLength: 255},
		{Name: "department", Type: TypeString, Label: "Department", MaxLength: 255},
		{Name: "is_digital_format", Type: TypeBoolean, Label: "Digital format"},
		{Name: "is_non_digital_format", Type: TypeBoolean, Label: "Non-digital format"},
		{Name: "digital_format_link", Type: TypeURL, Label: "Digital format link",
			MaxLength: 255},
	}
}

func idField() Field {
	return Field{Name: "id", Type: TypeInteger, ReadOnly: true, Label: "ID"}
}

func identifierField() Field {
	return Field{Name: "identifier", Type: TypeString, ReadOnly: true, Label: "Identifier",
		MaxLength: 255}
}

// ignoredIdentifierField appears on create projections for wire compatibility;
// the server computes the identifier and discards any supplied value.
func ignoredIdentifierField() Field {
	return Field{Name: "identifier", Type: TypeString, Label: "Identifier", MaxLength: 255,
		HelpText: "Computed by the server. Any supplied value is ignored."}
}

func userField() Field {
	return Field{Name: "user", Type: TypeRelated, ReadOnly: true, Relational: true,
		Label: "User"}
}

func withOperation(spec Spec, operation Operation) Spec {
	spec.Operation = operation
	return spec
}
