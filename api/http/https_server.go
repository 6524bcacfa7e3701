package http

import (
	"context"
	"fmt"
	"time"

	"DoaLink/internal/config"
	"DoaLink/internal/initial"
	jwtMiddleware "DoaLink/internal/middleware/jwt"
	doaService "DoaLink/internal/modules/doa/application/service"
	"DoaLink/internal/modules/doa/domain/session"
	"DoaLink/internal/modules/doa/infrastructure/assemble"
	doaCache "DoaLink/internal/modules/doa/infrastructure/cache"
	"DoaLink/internal/modules/doa/infrastructure/embedding"
	"DoaLink/internal/modules/doa/infrastructure/expansion"
	"DoaLink/internal/modules/doa/infrastructure/llm"
	mcpServer "DoaLink/internal/modules/doa/infrastructure/mcp/server"
	"DoaLink/internal/modules/doa/infrastructure/persistence"
	"DoaLink/internal/modules/doa/infrastructure/pipeline"
	"DoaLink/internal/modules/doa/infrastructure/tools"
	"DoaLink/internal/modules/doa/infrastructure/vectordb"
	doaHandler "DoaLink/internal/modules/doa/interface/http"
	doaWebsocket "DoaLink/internal/modules/doa/interface/websocket"
	"DoaLink/pkg/ssl"
	"DoaLink/pkg/ws"
	"DoaLink/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var GE *gin.Engine

func init() {
	conf := config.GetConfig()

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))
	GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))

	ctx := context.Background()

	// 向量化与双集合检索
	embedder, embedMeta, err := embedding.NewEmbedderFromConfig(ctx, conf)
	if err != nil {
		zlog.Fatal("embedder init failed: " + err.Error())
	}
	zlog.Info(fmt.Sprintf("embedder ready: %s/%s", embedMeta.Provider, embedMeta.Model))

	milvusConf := vectordb.MilvusConfig{
		Address:  conf.MilvusConfig.Address,
		Username: conf.MilvusConfig.Username,
		Password: conf.MilvusConfig.Password,
		DBName:   conf.MilvusConfig.DBName,
	}
	overviewRetriever, err := vectordb.NewMilvusRetriever(ctx, milvusConf, embedder, conf.MilvusConfig.OverviewCollection, conf.ChatConfig.TopK)
	if err != nil {
		zlog.Fatal("overview retriever init failed: " + err.Error())
	}
	detailRetriever, err := vectordb.NewMilvusRetriever(ctx, milvusConf, embedder, conf.MilvusConfig.DetailCollection, conf.ChatConfig.TopK)
	if err != nil {
		zlog.Fatal("detail retriever init failed: " + err.Error())
	}

	// 上下文拼装器（可选Redis缓存）
	assembler := assemble.NewAssembler(
		overviewRetriever,
		detailRetriever,
		conf.ChatConfig.OverviewBudget,
		conf.ChatConfig.DetailBudget,
		conf.ChatConfig.DetailTopN,
	)
	if conf.ChatConfig.ContextCacheTTLSec > 0 {
		assembler.SetCache(doaCache.NewRedisContextCache(time.Duration(conf.ChatConfig.ContextCacheTTLSec) * time.Second))
	}

	expander := expansion.NewExpanderFromConfig(conf)

	chatModel, chatMeta, err := llm.NewChatModelFromConfig(ctx, conf)
	if err != nil {
		zlog.Fatal("chat model init failed: " + err.Error())
	}
	zlog.Info(fmt.Sprintf("chat model ready: %s/%s", chatMeta.Provider, chatMeta.Model))

	historyRepo := persistence.NewHistoryRepository(initial.GormDB)
	eventRepo := persistence.NewChatEventRepository(initial.GormDB)

	chatPipe, err := pipeline.NewChatPipeline(historyRepo, expander, assembler, chatModel, chatMeta, nil, conf.ChatConfig.HistoryLimit)
	if err != nil {
		zlog.Fatal("chat pipeline init failed: " + err.Error())
	}

	// 带工具的Pipeline：内置MCP Server桥接成Eino工具
	var toolPipe *pipeline.ChatPipeline
	if conf.MCPConfig.Enabled && conf.MCPConfig.BuiltinServer.Enabled {
		dualSearch := tools.NewDualSearch(overviewRetriever, detailRetriever)
		builtin := mcpServer.NewBuiltinMCPServer(
			mcpServer.BuiltinServerConfig{
				Name:                conf.MCPConfig.BuiltinServer.Name,
				Version:             conf.MCPConfig.BuiltinServer.Version,
				EnableDoaSearchTool: conf.MCPConfig.BuiltinServer.EnableDoaSearchTool,
			},
			mcpServer.BuiltinServerDependencies{DualSearch: dualSearch},
		)
		einoTools, err := mcpServer.EinoToolsFromServer(ctx, builtin, conf.MCPConfig.BuiltinServer.Name, conf.MCPConfig.BuiltinServer.Version)
		if err != nil {
			zlog.Fatal("mcp tool bridge failed: " + err.Error())
		}
		toolPipe, err = pipeline.NewChatPipeline(historyRepo, expander, assembler, chatModel, chatMeta, einoTools, conf.ChatConfig.HistoryLimit)
		if err != nil {
			zlog.Fatal("tool pipeline init failed: " + err.Error())
		}
	}

	resolver := session.NewResolver(time.Duration(conf.ChatConfig.SessionTTLHours) * time.Hour)

	chatSvc := doaService.NewChatService(resolver, historyRepo, eventRepo, chatPipe, toolPipe, conf.KafkaConfig.ChatEventTopic)
	sessionSvc := doaService.NewSessionService(resolver, historyRepo)

	chatH := doaHandler.NewChatHandler(chatSvc)
	sessionH := doaHandler.NewSessionHandler(sessionSvc)
	wsHub := ws.NewHub()
	wsH := doaWebsocket.NewChatWSHandler(wsHub, chatSvc)

	doa := GE.Group("/api/doa")
	doa.Use(jwtMiddleware.OptionalAuth())
	doa.POST("/chat", chatH.Chat)
	doa.POST("/chat/tools", chatH.ChatWithTools)
	doa.POST("/sessions/resolve", sessionH.ResolveSession)
	doa.GET("/sessions/:id/messages", sessionH.ListMessages)

	wsGroup := GE.Group("/ws/doa")
	wsGroup.Use(jwtMiddleware.OptionalAuth())
	wsGroup.GET("/chat", wsH.Chat)
}
