package handlers

import (
	"context"
	"strings"

	"DoaLink/internal/modules/doa/infrastructure/tools"
	"DoaLink/pkg/zlog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// DoaSearchToolHandler DOA 政策检索工具处理器
type DoaSearchToolHandler struct {
	search *tools.DualSearch
}

// NewDoaSearchToolHandler 创建 DoaSearchToolHandler
func NewDoaSearchToolHandler(search *tools.DualSearch) *DoaSearchToolHandler {
	return &DoaSearchToolHandler{
		search: search,
	}
}

// RegisterTools 注册 DOA 检索工具到 Server
func (h *DoaSearchToolHandler) RegisterTools(s *server.MCPServer) {
	tool := mcp.NewTool("doa_dual_search",
		mcp.WithDescription("ค้นหานโยบาย Delegation of Authority (DOA): ค้นภาพรวมหมวดหมู่และรายละเอียดสิทธิการอนุมัติค่าใช้จ่ายพร้อมกันสองคอลเลกชัน"),
		mcp.WithString("query", mcp.Required(), mcp.Description("คำค้นหา เช่น ชื่อกิจกรรม หมวดหมู่ หรือคำถามเรื่องสิทธิการอนุมัติ")),
		mcp.WithString("searchType", mcp.Description("ขอบเขตการค้นหา: overview / detail / both (ไม่ระบุ = เลือกอัตโนมัติ)")),
		mcp.WithString("category", mcp.Description("กรองตามหมวดหมู่ เช่น การเงิน การตลาด")),
		mcp.WithString("businessActivityNo", mcp.Description("กรองตามหมายเลขกิจกรรมทางธุรกิจ (No.)")),
	)

	s.AddTool(tool, h.handleDualSearch)
}

// handleDualSearch 处理双路检索
func (h *DoaSearchToolHandler) handleDualSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args map[string]interface{}
	var ok bool

	// mcp-go server 接收到的 Arguments 通常是 map[string]interface{}
	if args, ok = request.Params.Arguments.(map[string]interface{}); !ok {
		zlog.Error("doa_dual_search invalid arguments type")
		return mcp.NewToolResultError("invalid arguments format, expected map"), nil
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		zlog.Error("doa_dual_search missing query")
		return mcp.NewToolResultError("query is required"), nil
	}

	searchArgs := tools.DualSearchArgs{Query: query}
	if v, ok := args["searchType"].(string); ok {
		searchArgs.SearchType = v
	}
	if v, ok := args["category"].(string); ok {
		searchArgs.Category = v
	}
	if v, ok := args["businessActivityNo"].(string); ok {
		searchArgs.BusinessActivityNo = v
	}

	zlog.Info("doa_dual_search start",
		zap.Int("query_len", len(query)),
		zap.String("search_type", searchArgs.SearchType))

	result, err := h.search.Run(ctx, searchArgs)
	if err != nil {
		zlog.Error("doa_dual_search failed", zap.Error(err))
		return mcp.NewToolResultError("search failed: " + err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}
