// Package mcp exposes the catalog operations as Model Context Protocol tools
// over stdio. The server runs next to the operator's MCP client and acts on
// behalf of one configured caller.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/civikit/catalog/internal/catalog/projection"
	"github.com/civikit/catalog/internal/catalog/service"
	"github.com/civikit/catalog/internal/catalog/storage/sqlite"
	apperrors "github.com/civikit/catalog/internal/errors"
	"github.com/civikit/catalog/internal/platform/config"
	"github.com/civikit/catalog/internal/platform/requestctx"
)

// serverName identifies the MCP server implementation.
const serverName = "civikit-catalog"

// serverVersion identifies the MCP server version.
const serverVersion = "0.1.0"

// Authenticator resolves the caller for a tool invocation and stores it in
// context. Stdio servers have no per-request credentials, so the caller is
// fixed at startup.
type Authenticator func(ctx context.Context) (context.Context, error)

// Config holds the MCP server configuration.
type Config struct {
	DBPath         string `env:"CIVIKIT_CATALOG_DB_PATH" envDefault:"catalog.db"`
	UserID         string `env:"CIVIKIT_CATALOG_MCP_USER_ID"`
	OrganizationID int64  `env:"CIVIKIT_CATALOG_MCP_ORGANIZATION_ID"`
}

// ParseConfig loads the MCP server configuration from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.UserID) == "" {
		return Config{}, fmt.Errorf("CIVIKIT_CATALOG_MCP_USER_ID is required")
	}
	if cfg.OrganizationID <= 0 {
		return Config{}, fmt.Errorf("CIVIKIT_CATALOG_MCP_ORGANIZATION_ID is required")
	}
	return cfg, nil
}

// StaticCaller returns an authenticator that acts as one fixed caller.
func StaticCaller(caller requestctx.Caller) Authenticator {
	return func(ctx context.Context) (context.Context, error) {
		if caller.UserID == "" || caller.OrganizationID <= 0 {
			return ctx, apperrors.New(apperrors.CodeUnauthenticated,
				"mcp server has no configured caller")
		}
		return requestctx.WithCaller(ctx, caller), nil
	}
}

// NewServer assembles the MCP server with every catalog tool registered.
func NewServer(catalog *service.Catalog, auth Authenticator) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)

	mcp.AddTool(server, ListTool(), ListHandler(catalog, auth))
	mcp.AddTool(server, GetTool(), GetHandler(catalog, auth))
	mcp.AddTool(server, CreateTool(), CreateHandler(catalog, auth))
	mcp.AddTool(server, UpdateTool(), UpdateHandler(catalog, auth))
	mcp.AddTool(server, DeleteTool(), DeleteHandler(catalog, auth))
	mcp.AddTool(server, PreviewIdentifierTool(), PreviewIdentifierHandler(catalog, auth))
	mcp.AddTool(server, DescribeTool(), DescribeHandler(catalog, auth))

	return server
}

// Run opens the store and serves catalog tools on stdio until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	org, err := store.GetOrganization(ctx, cfg.OrganizationID)
	if err != nil {
		return fmt.Errorf("resolve organization %d: %w", cfg.OrganizationID, err)
	}
	auth := StaticCaller(requestctx.Caller{
		UserID:           cfg.UserID,
		OrganizationID:   org.ID,
		OrganizationCode: org.Code,
	})

	catalog := service.New(store, projection.DefaultRegistry())
	server := NewServer(catalog, auth)
	return server.Run(ctx, &mcp.StdioTransport{})
}
