package config

import (
	"log"

	"github.com/BurntSushi/toml"
)

type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type LogConfig struct {
	LogPath string `toml:"logPath"`
}

type JwtConfig struct {
	Key         string `toml:"key"`
	ExpireHours int    `toml:"expireHours"`
	Issuer      string `toml:"issuer"`
}

type MilvusConfig struct {
	Address            string `toml:"address"`
	Username           string `toml:"username"`
	Password           string `toml:"password"`
	DBName             string `toml:"dbName"`
	OverviewCollection string `toml:"overviewCollection"`
	DetailCollection   string `toml:"detailCollection"`
	VectorDim          int    `toml:"vectorDim"`
	MetricType         string `toml:"metricType"`
}

type KafkaConfig struct {
	Brokers        []string `toml:"brokers"`
	ClientID       string   `toml:"clientID"`
	ChatEventTopic string   `toml:"chatEventTopic"`
	Partitions     int32    `toml:"partitions"`
	Replication    int16    `toml:"replication"`
}

type AIEmbeddingConfig struct {
	Provider        string `toml:"provider"`
	APIKey          string `toml:"apiKey"`
	AccessKey       string `toml:"accessKey"`
	SecretKey       string `toml:"secretKey"`
	BaseURL         string `toml:"baseURL"`
	Region          string `toml:"region"`
	Model           string `toml:"model"`
	Dimensions      int    `toml:"dimensions"`
	TimeoutSeconds  int    `toml:"timeoutSeconds"`
	RetryTimes      int    `toml:"retryTimes"`
	User            string `toml:"user"`
	ByAzure         bool   `toml:"byAzure"`
	AzureAPIVersion string `toml:"azureApiVersion"`
}

type AIChatModelConfig struct {
	Provider        string `toml:"provider"`
	APIKey          string `toml:"apiKey"`
	AccessKey       string `toml:"accessKey"`
	SecretKey       string `toml:"secretKey"`
	BaseURL         string `toml:"baseURL"`
	Region          string `toml:"region"`
	Model           string `toml:"model"`
	TimeoutSeconds  int    `toml:"timeoutSeconds"`
	RetryTimes      int    `toml:"retryTimes"`
	ByAzure         bool   `toml:"byAzure"`
	AzureAPIVersion string `toml:"azureApiVersion"`
}

type AIConfig struct {
	Embedding AIEmbeddingConfig `toml:"embedding"`
	ChatModel AIChatModelConfig `toml:"chatModel"`
}

// MCPBuiltinServerConfig 内置 MCP Server 配置
type MCPBuiltinServerConfig struct {
	Enabled             bool   `toml:"enabled"`
	Name                string `toml:"name"`
	Version             string `toml:"version"`
	Description         string `toml:"description"`
	EnableDoaSearchTool bool   `toml:"enableDoaSearchTool"`
}

// MCPConfig MCP 配置
type MCPConfig struct {
	Enabled                  bool                   `toml:"enabled"`
	ToolCallTimeoutSeconds   int                    `toml:"toolCallTimeoutSeconds"`
	ServerInitTimeoutSeconds int                    `toml:"serverInitTimeoutSeconds"`
	BuiltinServer            MCPBuiltinServerConfig `toml:"builtinServer"`
}

type RedisConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"poolSize"`
	MinIdleConns int    `toml:"minIdleConns"`
}

// SynonymRuleConfig 同义词扩展规则（覆盖内置默认规则）
type SynonymRuleConfig struct {
	Triggers []string `toml:"triggers"`
	Expands  []string `toml:"expands"`
}

// ChatConfig DOA 聊天策略参数
type ChatConfig struct {
	OverviewBudget     int                 `toml:"overviewBudget"`     // overview 上下文字符预算（默认 8000）
	DetailBudget       int                 `toml:"detailBudget"`       // detail 上下文字符预算（默认 12000）
	DetailTopN         int                 `toml:"detailTopN"`         // detail 取前 N 条（默认 5）
	TopK               int                 `toml:"topK"`               // 向量检索 Top-K（默认 5）
	HistoryLimit       int                 `toml:"historyLimit"`       // 历史回放条数上限（默认 12）
	SessionTTLHours    int                 `toml:"sessionTTLHours"`    // 匿名会话有效期（默认 24）
	ContextCacheTTLSec int                 `toml:"contextCacheTTLSec"` // 上下文缓存 TTL 秒（默认 300，0 关闭）
	Synonyms           []SynonymRuleConfig `toml:"synonyms"`
}

type Config struct {
	MainConfig   `toml:"mainConfig"`
	MysqlConfig  `toml:"mysqlConfig"`
	JwtConfig    `toml:"jwtConfig"`
	MilvusConfig `toml:"milvusConfig"`
	KafkaConfig  `toml:"kafkaConfig"`
	AIConfig     `toml:"aiConfig"`
	LogConfig    `toml:"logConfig"`
	MCPConfig    `toml:"mcpConfig"`
	RedisConfig  `toml:"redisConfig"`
	ChatConfig   `toml:"chatConfig"`
}

var config *Config

func LoadConfig() error {

	configPath := "configs/config_local.toml"
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Printf("加载配置文件失败: %v, 尝试使用默认设置", err)
		return err
	}
	return nil
}

func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig()
	}
	return config
}
