package server

import (
	"context"
	"fmt"

	einomcp "github.com/cloudwego/eino-ext/components/tool/mcp"
	"github.com/cloudwego/eino/components/tool"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// EinoToolsFromServer 把内置 MCP Server 的工具桥接成 Eino 工具，
// 走进程内 client，不经过网络传输。
func EinoToolsFromServer(ctx context.Context, s *server.MCPServer, clientName, clientVersion string) ([]tool.BaseTool, error) {
	if s == nil {
		return nil, fmt.Errorf("mcp server is nil")
	}

	cli, err := client.NewInProcessClient(s)
	if err != nil {
		return nil, fmt.Errorf("create in-process mcp client: %w", err)
	}
	if err := cli.Start(ctx); err != nil {
		return nil, fmt.Errorf("start in-process mcp client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}
	if _, err := cli.Initialize(ctx, initReq); err != nil {
		return nil, fmt.Errorf("initialize in-process mcp client: %w", err)
	}

	einoTools, err := einomcp.GetTools(ctx, &einomcp.Config{Cli: cli})
	if err != nil {
		return nil, fmt.Errorf("bridge mcp tools: %w", err)
	}
	return einoTools, nil
}
