package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"WALLET_PRIVATE_KEY", "WALLET_MNEMONIC", "WALLET_FUNDER_ADDRESS", "WALLET_SIGNATURE_TYPE",
		"CHAIN_ID", "RPC_URL", "CLOB_HOST", "DATA_API_HOST",
		"CRED_STORE_PATH", "CRED_STORE_KEY", "LOG_LEVEL", "LOG_FILE",
		"AUTO_APPROVE", "DRY_RUN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFromFile_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("WALLET_PRIVATE_KEY", "abc123")

	cfg, err := LoadFromFile("")
	if err != nil {
		t.Fatalf("LoadFromFile error: %v", err)
	}
	if cfg.Wallet.PrivateKey != "abc123" {
		t.Fatalf("private key got=%s", cfg.Wallet.PrivateKey)
	}
	if cfg.Chain.ChainID != 137 {
		t.Fatalf("chain id got=%d want=137", cfg.Chain.ChainID)
	}
	if cfg.ClobHost != DefaultClobHost {
		t.Fatalf("clob host got=%s want default", cfg.ClobHost)
	}
	if cfg.DataAPIHost != DefaultDataAPIHost {
		t.Fatalf("data api host got=%s want default", cfg.DataAPIHost)
	}
	if cfg.Chain.RPCURL != DefaultRPCURL {
		t.Fatalf("rpc url got=%s want default", cfg.Chain.RPCURL)
	}
	if !cfg.AutoApprove {
		t.Fatalf("auto approve should default to true")
	}
	if cfg.DryRun {
		t.Fatalf("dry run should default to false")
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
wallet:
  private_key: deadbeef
  funder_address: "0x1111111111111111111111111111111111111111"
  signature_type: 2
chain:
  chain_id: 80002
  rpc_url: https://rpc.example
clob_host: https://clob.example
log_level: debug
auto_approve: false
dry_run: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile error: %v", err)
	}
	if cfg.Wallet.PrivateKey != "deadbeef" {
		t.Fatalf("private key got=%s", cfg.Wallet.PrivateKey)
	}
	if cfg.Wallet.SignatureType != 2 {
		t.Fatalf("signature type got=%d want=2", cfg.Wallet.SignatureType)
	}
	if cfg.Chain.ChainID != 80002 {
		t.Fatalf("chain id got=%d want=80002", cfg.Chain.ChainID)
	}
	if cfg.Chain.RPCURL != "https://rpc.example" {
		t.Fatalf("rpc url got=%s", cfg.Chain.RPCURL)
	}
	if cfg.ClobHost != "https://clob.example" {
		t.Fatalf("clob host got=%s", cfg.ClobHost)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level got=%s", cfg.LogLevel)
	}
	if cfg.AutoApprove {
		t.Fatalf("auto approve should be false from file")
	}
	if !cfg.DryRun {
		t.Fatalf("dry run should be true from file")
	}
}

func TestLoadFromFile_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
wallet:
  private_key: from_file
chain:
  chain_id: 137
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("WALLET_PRIVATE_KEY", "from_env")
	t.Setenv("CHAIN_ID", "80002")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile error: %v", err)
	}
	if cfg.Wallet.PrivateKey != "from_env" {
		t.Fatalf("private key got=%s want=from_env", cfg.Wallet.PrivateKey)
	}
	if cfg.Chain.ChainID != 80002 {
		t.Fatalf("chain id got=%d want=80002", cfg.Chain.ChainID)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Wallet: WalletConfig{PrivateKey: "abc"},
			Chain:  ChainConfig{ChainID: 137},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid eoa", mutate: func(c *Config) {}},
		{name: "mnemonic instead of key", mutate: func(c *Config) {
			c.Wallet.PrivateKey = ""
			c.Wallet.Mnemonic = "test test test"
		}},
		{name: "no key material", mutate: func(c *Config) { c.Wallet.PrivateKey = "" }, wantErr: true},
		{name: "bad signature type", mutate: func(c *Config) { c.Wallet.SignatureType = 3 }, wantErr: true},
		{name: "smart wallet without funder", mutate: func(c *Config) { c.Wallet.SignatureType = 2 }, wantErr: true},
		{name: "smart wallet with funder", mutate: func(c *Config) {
			c.Wallet.SignatureType = 2
			c.Wallet.FunderAddress = "0x1111111111111111111111111111111111111111"
		}},
		{name: "unsupported chain", mutate: func(c *Config) { c.Chain.ChainID = 1 }, wantErr: true},
		{name: "amoy testnet", mutate: func(c *Config) { c.Chain.ChainID = 80002 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
