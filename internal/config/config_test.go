package config

import (
	"strings"
	"testing"
	"time"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestLoad_EnvKeys(t *testing.T) {
	t.Setenv("MAIN_PRIVATE_KEY", testKey)
	t.Setenv("RPC_URL", "https://a.example, https://b.example ,")
	t.Setenv("CHAIN_ID", "17000")
	t.Setenv("EXPLORER_URL", "https://holesky.etherscan.io")
	t.Setenv("CONTRACT_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	t.Setenv("TOKEN_SYMBOL", "DPL")

	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Wallet.PrivateKey != testKey {
		t.Errorf("private key not bound")
	}
	eps := cfg.Network.Endpoints()
	if len(eps) != 2 || eps[0] != "https://a.example" || eps[1] != "https://b.example" {
		t.Errorf("Endpoints() = %v", eps)
	}
	if cfg.Network.ChainID != 17000 {
		t.Errorf("ChainID = %d", cfg.Network.ChainID)
	}
	if cfg.Network.ExplorerURL != "https://holesky.etherscan.io" {
		t.Errorf("ExplorerURL = %s", cfg.Network.ExplorerURL)
	}
	if addr, ok := cfg.Token.ContractAddressHex(); !ok || !strings.EqualFold(addr.Hex(), "0x5FbDB2315678afecb367f032d93F642f64180aa3") {
		t.Errorf("ContractAddressHex() = %s, %v", addr.Hex(), ok)
	}
	if cfg.Token.Symbol != "DPL" {
		t.Errorf("Symbol = %s", cfg.Token.Symbol)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MAIN_PRIVATE_KEY", testKey)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := cfg.Network.Endpoints(); len(got) != len(DefaultRPCURLs) {
		t.Errorf("expected default endpoints, got %v", got)
	}
	if cfg.Network.ChainID != 50312 || cfg.Network.ExplorerURL != "https://shannon-explorer.somnia.network" {
		t.Errorf("default network = %d %s", cfg.Network.ChainID, cfg.Network.ExplorerURL)
	}
	if cfg.Network.SelectionTTL != 60*time.Second {
		t.Errorf("SelectionTTL = %v", cfg.Network.SelectionTTL)
	}
	if cfg.Network.MaxBlockAge != 30*time.Second {
		t.Errorf("MaxBlockAge = %v", cfg.Network.MaxBlockAge)
	}
	if cfg.Tx.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d", cfg.Tx.MaxRetries)
	}
	if cfg.Wallet.PollInterval != 10*time.Second || cfg.Wallet.MaxWait != 0 {
		t.Errorf("wallet timings = %v / %v", cfg.Wallet.PollInterval, cfg.Wallet.MaxWait)
	}
	if cfg.Wallet.MinBalanceDecimal().String() != "0.01" {
		t.Errorf("MinBalance = %s", cfg.Wallet.MinBalanceDecimal())
	}
	if cfg.Verifier.RequestTimeout != 30*time.Second {
		t.Errorf("Verifier.RequestTimeout = %v", cfg.Verifier.RequestTimeout)
	}
	if cfg.App.EnvFile != ".env" {
		t.Errorf("EnvFile = %s", cfg.App.EnvFile)
	}
	if _, ok := cfg.Token.ContractAddressHex(); ok {
		t.Error("expected no contract address by default")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Network: NetworkConfig{RPCURL: "https://a.example"},
			Wallet:  WalletConfig{PrivateKey: testKey, MinBalance: "0.01"},
			Tx:      TxConfig{MaxRetries: 3},
			Token:   TokenConfig{Supply: "1000"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing key", func(c *Config) { c.Wallet.PrivateKey = "" }, "private_key"},
		{"no endpoints", func(c *Config) { c.Network.RPCURL = " , " }, "rpc_url"},
		{"bad contract", func(c *Config) { c.Token.ContractAddress = "0x123" }, "contract_address"},
		{"zero retries", func(c *Config) { c.Tx.MaxRetries = 0 }, "max_retries"},
		{"bad supply", func(c *Config) { c.Token.Supply = "lots" }, "supply"},
		{"decimals too high", func(c *Config) { c.Token.Decimals = 40 }, "decimals"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
