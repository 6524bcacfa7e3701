package server

import (
	mcpHandlers "DoaLink/internal/modules/doa/infrastructure/mcp/server/handlers"
	"DoaLink/internal/modules/doa/infrastructure/tools"

	"github.com/mark3labs/mcp-go/server"
)

// BuiltinServerConfig 内置服务器配置
type BuiltinServerConfig struct {
	Name                string
	Version             string
	EnableDoaSearchTool bool
}

// BuiltinServerDependencies 内置服务器依赖
type BuiltinServerDependencies struct {
	DualSearch *tools.DualSearch
}

// NewBuiltinMCPServer 创建并配置内置 MCP Server
func NewBuiltinMCPServer(conf BuiltinServerConfig, deps BuiltinServerDependencies) *server.MCPServer {
	s := server.NewMCPServer(
		conf.Name,
		conf.Version,
		server.WithToolCapabilities(true),
	)

	if conf.EnableDoaSearchTool && deps.DualSearch != nil {
		searchHandler := mcpHandlers.NewDoaSearchToolHandler(deps.DualSearch)
		searchHandler.RegisterTools(s)
	}

	return s
}
