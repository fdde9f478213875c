package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// WalletConfig 钱包配置
type WalletConfig struct {
	PrivateKey    string // EOA 私钥（十六进制）
	Mnemonic      string // 助记词（与私钥二选一）
	FunderAddress string // 资金地址（智能钱包地址，为空则视为 EOA 模式）
	SignatureType int    // 签名类型：0=EOA, 1=Proxy, 2=Gnosis Safe
}

// ChainConfig 链配置
type ChainConfig struct {
	ChainID int    // 链 ID（137=Polygon 主网，80002=Amoy 测试网）
	RPCURL  string // RPC 节点地址
}

// StoreConfig 凭证存储配置
type StoreConfig struct {
	Path          string // Badger 数据库路径（为空则不持久化凭证）
	EncryptionKey string // 32 字节加密密钥（base64 或 hex）
}

// Config 应用配置
type Config struct {
	Wallet       WalletConfig
	Chain        ChainConfig
	ClobHost     string      // CLOB API 地址
	DataAPIHost  string      // Data API 地址
	Store        StoreConfig // 凭证存储
	LogLevel     string      // 日志级别
	LogFile      string      // 日志文件路径（可选）
	AutoApprove  bool        // 链接时自动设置授权
	DryRun       bool        // 纸交易模式：不提交真实订单/交易
}

// ConfigFile 配置文件结构（用于 YAML 解析）
type ConfigFile struct {
	Wallet struct {
		PrivateKey    string `yaml:"private_key"`
		Mnemonic      string `yaml:"mnemonic"`
		FunderAddress string `yaml:"funder_address"`
		SignatureType int    `yaml:"signature_type"`
	} `yaml:"wallet"`
	Chain struct {
		ChainID int    `yaml:"chain_id"`
		RPCURL  string `yaml:"rpc_url"`
	} `yaml:"chain"`
	ClobHost    string `yaml:"clob_host"`
	DataAPIHost string `yaml:"data_api_host"`
	Store       struct {
		Path          string `yaml:"path"`
		EncryptionKey string `yaml:"encryption_key"`
	} `yaml:"store"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	AutoApprove *bool  `yaml:"auto_approve"`
	DryRun      bool   `yaml:"dry_run"`
}

const (
	// DefaultClobHost 默认 CLOB API 地址
	DefaultClobHost = "https://clob.polymarket.com"
	// DefaultDataAPIHost 默认 Data API 地址
	DefaultDataAPIHost = "https://data-api.polymarket.com"
	// DefaultRPCURL 默认 Polygon RPC 地址
	DefaultRPCURL = "https://polygon-rpc.com"
)

// LoadFromFile 从指定文件加载配置（优先级：环境变量 > 配置文件 > 默认值）。
// filePath 为空时只使用环境变量和默认值。
func LoadFromFile(filePath string) (*Config, error) {
	var cf *ConfigFile
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", filePath, err)
		}
		cf = &ConfigFile{}
		if err := yaml.Unmarshal(data, cf); err != nil {
			return nil, fmt.Errorf("解析配置文件失败 %s: %w", filePath, err)
		}
	}

	config := &Config{
		Wallet: WalletConfig{
			PrivateKey:    getEnvOrFile("WALLET_PRIVATE_KEY", fileStr(cf, func(cf *ConfigFile) string { return cf.Wallet.PrivateKey }), ""),
			Mnemonic:      getEnvOrFile("WALLET_MNEMONIC", fileStr(cf, func(cf *ConfigFile) string { return cf.Wallet.Mnemonic }), ""),
			FunderAddress: getEnvOrFile("WALLET_FUNDER_ADDRESS", fileStr(cf, func(cf *ConfigFile) string { return cf.Wallet.FunderAddress }), ""),
			SignatureType: parseIntEnv("WALLET_SIGNATURE_TYPE", fileInt(cf, func(cf *ConfigFile) int { return cf.Wallet.SignatureType })),
		},
		Chain: ChainConfig{
			ChainID: parseIntEnvDefault("CHAIN_ID", fileInt(cf, func(cf *ConfigFile) int { return cf.Chain.ChainID }), 137),
			RPCURL:  getEnvOrFile("RPC_URL", fileStr(cf, func(cf *ConfigFile) string { return cf.Chain.RPCURL }), DefaultRPCURL),
		},
		ClobHost:    getEnvOrFile("CLOB_HOST", fileStr(cf, func(cf *ConfigFile) string { return cf.ClobHost }), DefaultClobHost),
		DataAPIHost: getEnvOrFile("DATA_API_HOST", fileStr(cf, func(cf *ConfigFile) string { return cf.DataAPIHost }), DefaultDataAPIHost),
		Store: StoreConfig{
			Path:          getEnvOrFile("CRED_STORE_PATH", fileStr(cf, func(cf *ConfigFile) string { return cf.Store.Path }), ""),
			EncryptionKey: getEnvOrFile("CRED_STORE_KEY", fileStr(cf, func(cf *ConfigFile) string { return cf.Store.EncryptionKey }), ""),
		},
		LogLevel:    getEnvOrFile("LOG_LEVEL", fileStr(cf, func(cf *ConfigFile) string { return cf.LogLevel }), "info"),
		LogFile:     getEnvOrFile("LOG_FILE", fileStr(cf, func(cf *ConfigFile) string { return cf.LogFile }), ""),
		AutoApprove: parseBoolEnv("AUTO_APPROVE", fileBoolPtr(cf, true)),
		DryRun:      parseBoolEnv("DRY_RUN", cf != nil && cf.DryRun),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Wallet.PrivateKey == "" && c.Wallet.Mnemonic == "" {
		return fmt.Errorf("必须配置钱包私钥或助记词（WALLET_PRIVATE_KEY / WALLET_MNEMONIC）")
	}
	if c.Wallet.SignatureType < 0 || c.Wallet.SignatureType > 2 {
		return fmt.Errorf("无效的签名类型: %d（合法值 0/1/2）", c.Wallet.SignatureType)
	}
	if c.Wallet.SignatureType != 0 && c.Wallet.FunderAddress == "" {
		return fmt.Errorf("智能钱包模式（signature_type=%d）必须配置 funder_address", c.Wallet.SignatureType)
	}
	if c.Chain.ChainID != 137 && c.Chain.ChainID != 80002 {
		return fmt.Errorf("不支持的链 ID: %d", c.Chain.ChainID)
	}
	return nil
}

func fileStr(cf *ConfigFile, get func(*ConfigFile) string) string {
	if cf == nil {
		return ""
	}
	return get(cf)
}

func fileInt(cf *ConfigFile, get func(*ConfigFile) int) int {
	if cf == nil {
		return 0
	}
	return get(cf)
}

func fileBoolPtr(cf *ConfigFile, def bool) bool {
	if cf == nil || cf.AutoApprove == nil {
		return def
	}
	return *cf.AutoApprove
}

// getEnvOrFile 按优先级取值：环境变量 > 配置文件 > 默认值
func getEnvOrFile(envKey, fileVal, def string) string {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	if fileVal != "" {
		return fileVal
	}
	return def
}

func parseIntEnv(envKey string, fileVal int) int {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fileVal
}

func parseIntEnvDefault(envKey string, fileVal, def int) int {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	if fileVal != 0 {
		return fileVal
	}
	return def
}

func parseBoolEnv(envKey string, fileVal bool) bool {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fileVal
}
