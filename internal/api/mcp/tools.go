package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/projection"
	"github.com/civikit/catalog/internal/catalog/schema"
	"github.com/civikit/catalog/internal/catalog/service"
	apperrors "github.com/civikit/catalog/internal/errors"
)

// ListInput represents the MCP tool input for listing catalog records.
type ListInput struct {
	Kind      string `json:"kind" jsonschema:"entity kind (life_situation, service, process)"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum records per page"`
	PageToken string `json:"page_token,omitempty" jsonschema:"continuation token from a previous page"`
	Filter    string `json:"filter,omitempty" jsonschema:"AIP-160 filter expression"`
	Search    string `json:"search,omitempty" jsonschema:"case-insensitive search across the record and its descendants"`
}

// ListResult represents the MCP tool output for a record page.
type ListResult struct {
	Items         []map[string]any `json:"items" jsonschema:"projected records"`
	NextPageToken string           `json:"next_page_token,omitempty" jsonschema:"token for the next page, empty on the last page"`
}

// GetInput represents the MCP tool input for retrieving one record.
type GetInput struct {
	Kind string `json:"kind" jsonschema:"entity kind (life_situation, service, process)"`
	ID   int64  `json:"id" jsonschema:"record id"`
}

// RecordResult represents the MCP tool output carrying a single record.
type RecordResult struct {
	Record map[string]any `json:"record" jsonschema:"projected record"`
}

// CreateInput represents the MCP tool input for creating a record.
type CreateInput struct {
	Kind   string         `json:"kind" jsonschema:"entity kind (life_situation, service, process)"`
	Record map[string]any `json:"record" jsonschema:"writable fields for the new record"`
}

// UpdateInput represents the MCP tool input for a partial update.
type UpdateInput struct {
	Kind   string         `json:"kind" jsonschema:"entity kind (life_situation, service, process)"`
	ID     int64          `json:"id" jsonschema:"record id"`
	Record map[string]any `json:"record" jsonschema:"fields to change; omitted fields keep their values"`
}

// DeleteInput represents the MCP tool input for deleting a record.
type DeleteInput struct {
	Kind string `json:"kind" jsonschema:"entity kind (life_situation, service, process)"`
	ID   int64  `json:"id" jsonschema:"record id"`
}

// DeleteResult represents the MCP tool output for a delete.
type DeleteResult struct {
	Deleted bool `json:"deleted" jsonschema:"whether the record was removed"`
}

// PreviewIdentifierInput represents the MCP tool input for identifier previews.
type PreviewIdentifierInput struct {
	Kind     string `json:"kind" jsonschema:"entity kind (life_situation, service, process)"`
	ParentID int64  `json:"parent_id,omitempty" jsonschema:"parent record id; unused for life situations"`
}

// PreviewIdentifierResult represents the MCP tool output for identifier previews.
type PreviewIdentifierResult struct {
	Identifier string `json:"identifier" jsonschema:"identifier the next created record would receive"`
}

// DescribeInput represents the MCP tool input for schema introspection.
type DescribeInput struct {
	Kind string `json:"kind" jsonschema:"entity kind (life_situation, service, process)"`
}

// DescribeResult represents the MCP tool output for schema introspection.
type DescribeResult struct {
	Kind    string                                                     `json:"kind" jsonschema:"entity kind described"`
	Actions map[projection.Operation]map[string]schema.FieldDescriptor `json:"actions" jsonschema:"field descriptors per operation"`
}

// ListTool defines the MCP tool schema for listing records.
func ListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_list",
		Description: "Lists catalog records of one kind with pagination, filtering and search",
	}
}

// GetTool defines the MCP tool schema for retrieving one record.
func GetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_get",
		Description: "Retrieves one catalog record by id",
	}
}

// CreateTool defines the MCP tool schema for creating records.
func CreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_create",
		Description: "Creates a catalog record and allocates its identifier",
	}
}

// UpdateTool defines the MCP tool schema for partial updates.
func UpdateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_update",
		Description: "Applies a partial update to a catalog record",
	}
}

// DeleteTool defines the MCP tool schema for deleting records.
func DeleteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_delete",
		Description: "Deletes a catalog record; its identifier is never reissued",
	}
}

// PreviewIdentifierTool defines the MCP tool schema for identifier previews.
func PreviewIdentifierTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_preview_identifier",
		Description: "Previews the identifier the next created record would receive",
	}
}

// DescribeTool defines the MCP tool schema for schema introspection.
func DescribeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_describe",
		Description: "Describes the fields each catalog operation accepts and returns",
	}
}

// ListHandler executes a catalog list.
func ListHandler(catalog *service.Catalog, auth Authenticator) mcp.ToolHandlerFor[ListInput, ListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListResult, error) {
		ctx, err := auth(ctx)
		if err != nil {
			return nil, ListResult{}, err
		}
		kind, err := parseKind(input.Kind)
		if err != nil {
			return nil, ListResult{}, err
		}
		page, err := catalog.List(ctx, service.ListRequest{
			Kind:      kind,
			PageSize:  input.PageSize,
			PageToken: input.PageToken,
			Filter:    input.Filter,
			Search:    input.Search,
		})
		if err != nil {
			return nil, ListResult{}, err
		}
		return nil, ListResult{Items: page.Items, NextPageToken: page.NextPageToken}, nil
	}
}

// GetHandler executes a catalog retrieve.
func GetHandler(catalog *service.Catalog, auth Authenticator) mcp.ToolHandlerFor[GetInput, RecordResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, RecordResult, error) {
		ctx, err := auth(ctx)
		if err != nil {
			return nil, RecordResult{}, err
		}
		kind, err := parseKind(input.Kind)
		if err != nil {
			return nil, RecordResult{}, err
		}
		record, err := catalog.Get(ctx, kind, input.ID)
		if err != nil {
			return nil, RecordResult{}, err
		}
		return nil, RecordResult{Record: record}, nil
	}
}

// CreateHandler executes a catalog create.
func CreateHandler(catalog *service.Catalog, auth Authenticator) mcp.ToolHandlerFor[CreateInput, RecordResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CreateInput) (*mcp.CallToolResult, RecordResult, error) {
		ctx, err := auth(ctx)
		if err != nil {
			return nil, RecordResult{}, err
		}
		kind, err := parseKind(input.Kind)
		if err != nil {
			return nil, RecordResult{}, err
		}
		record, err := catalog.Create(ctx, kind, input.Record)
		if err != nil {
			return nil, RecordResult{}, err
		}
		return nil, RecordResult{Record: record}, nil
	}
}

// UpdateHandler executes a catalog partial update.
func UpdateHandler(catalog *service.Catalog, auth Authenticator) mcp.ToolHandlerFor[UpdateInput, RecordResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input UpdateInput) (*mcp.CallToolResult, RecordResult, error) {
		ctx, err := auth(ctx)
		if err != nil {
			return nil, RecordResult{}, err
		}
		kind, err := parseKind(input.Kind)
		if err != nil {
			return nil, RecordResult{}, err
		}
		record, err := catalog.Update(ctx, kind, input.ID, input.Record)
		if err != nil {
			return nil, RecordResult{}, err
		}
		return nil, RecordResult{Record: record}, nil
	}
}

// DeleteHandler executes a catalog delete.
func DeleteHandler(catalog *service.Catalog, auth Authenticator) mcp.ToolHandlerFor[DeleteInput, DeleteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteResult, error) {
		ctx, err := auth(ctx)
		if err != nil {
			return nil, DeleteResult{}, err
		}
		kind, err := parseKind(input.Kind)
		if err != nil {
			return nil, DeleteResult{}, err
		}
		if err := catalog.Delete(ctx, kind, input.ID); err != nil {
			return nil, DeleteResult{}, err
		}
		return nil, DeleteResult{Deleted: true}, nil
	}
}

// PreviewIdentifierHandler executes an identifier preview.
func PreviewIdentifierHandler(catalog *service.Catalog, auth Authenticator) mcp.ToolHandlerFor[PreviewIdentifierInput, PreviewIdentifierResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PreviewIdentifierInput) (*mcp.CallToolResult, PreviewIdentifierResult, error) {
		ctx, err := auth(ctx)
		if err != nil {
			return nil, PreviewIdentifierResult{}, err
		}
		kind, err := parseKind(input.Kind)
		if err != nil {
			return nil, PreviewIdentifierResult{}, err
		}
		preview, err := catalog.PreviewIdentifier(ctx, kind, input.ParentID)
		if err != nil {
			return nil, PreviewIdentifierResult{}, err
		}
		return nil, PreviewIdentifierResult{Identifier: preview}, nil
	}
}

// DescribeHandler executes a schema introspection.
func DescribeHandler(catalog *service.Catalog, auth Authenticator) mcp.ToolHandlerFor[DescribeInput, DescribeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DescribeInput) (*mcp.CallToolResult, DescribeResult, error) {
		ctx, err := auth(ctx)
		if err != nil {
			return nil, DescribeResult{}, err
		}
		kind, err := parseKind(input.Kind)
		if err != nil {
			return nil, DescribeResult{}, err
		}
		actions, err := catalog.Describe(ctx, kind)
		if err != nil {
			return nil, DescribeResult{}, err
		}
		return nil, DescribeResult{Kind: string(kind), Actions: actions}, nil
	}
}

func parseKind(value string) (domain.Kind, error) {
	kind, ok := domain.ParseKind(value)
	if !ok {
		return "", apperrors.WithMetadata(apperrors.CodeUnknownEntityKind,
			fmt.Sprintf("unknown entity kind %q", value),
			map[string]string{"Kind": value})
	}
	return kind, nil
}
