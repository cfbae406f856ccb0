package solc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/logger"
)

const combinedInline = `{
  "contracts": {
    "contracts/Token.sol:IERC20": {"abi": [], "bin": ""},
    "contracts/Token.sol:Token": {
      "abi": [{"type":"constructor","inputs":[{"name":"name_","type":"string"}]}],
      "bin": "6080604052"
    }
  },
  "version": "0.8.24+commit.e11b9ed9.Linux.g++"
}`

const combinedStringABI = `{
  "contracts": {
    "Token.sol:Token": {
      "abi": "[{\"type\":\"constructor\",\"inputs\":[]}]",
      "bin": "0x6080"
    }
  },
  "version": "0.7.6+commit.7338295f"
}`

func TestParseCombinedJSON(t *testing.T) {
	a, err := ParseCombinedJSON([]byte(combinedInline), "Token")
	if err != nil {
		t.Fatalf("ParseCombinedJSON() error = %v", err)
	}
	if a.ContractName != "Token" || a.CompilerVersion != "v0.8.24+commit.e11b9ed9" {
		t.Errorf("artifact = %+v", a)
	}
	if !reflect.DeepEqual(a.Bytecode, []byte{0x60, 0x80, 0x60, 0x40, 0x52}) {
		t.Errorf("Bytecode = %x", a.Bytecode)
	}
	if a.ABI[0] != '[' {
		t.Errorf("ABI = %s", a.ABI)
	}

	b, err := ParseCombinedJSON([]byte(combinedStringABI), "Token")
	if err != nil {
		t.Fatalf("ParseCombinedJSON() string abi error = %v", err)
	}
	if b.ABI != `[{"type":"constructor","inputs":[]}]` {
		t.Errorf("ABI = %s", b.ABI)
	}
	if b.CompilerVersion != "v0.7.6+commit.7338295f" {
		t.Errorf("CompilerVersion = %s", b.CompilerVersion)
	}
}

func TestParseCombinedJSON_Errors(t *testing.T) {
	tests := []struct {
		name, out, contract string
	}{
		{"not json", "Error: ParserError", "Token"},
		{"missing contract", combinedInline, "Other"},
		{"no bytecode", combinedInline, "IERC20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCombinedJSON([]byte(tt.out), tt.contract)
			if !errors.Is(err, apperror.New(apperror.CodeCompilationFailed)) {
				t.Errorf("error = %v, want COMPILATION_FAILED", err)
			}
		})
	}
}

func TestCompiler_Compile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Token.sol")
	if err := os.WriteFile(src, []byte("contract Token {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotName string
	var gotArgs []string
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte(combinedInline), nil
	}

	c := NewCompiler(Config{SolcPath: "/usr/bin/solc", ContractName: "Token", Optimize: true, OptimizeRuns: 200}, run, logger.Discard())
	a, err := c.Compile(context.Background(), src)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	wantArgs := []string{"--combined-json", "abi,bin", "--optimize", "--optimize-runs", "200", src}
	if gotName != "/usr/bin/solc" || !reflect.DeepEqual(gotArgs, wantArgs) {
		t.Errorf("ran %s %v", gotName, gotArgs)
	}
	if a.Source != "contract Token {}" {
		t.Errorf("Source = %q", a.Source)
	}
}

func TestCompiler_Failures(t *testing.T) {
	c := NewCompiler(Config{SolcPath: "solc", ContractName: "Token"}, func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: ParserError")
	}, logger.Discard())

	if _, err := c.Compile(context.Background(), filepath.Join(t.TempDir(), "missing.sol")); !errors.Is(err, apperror.New(apperror.CodeCompilationFailed)) {
		t.Errorf("missing source error = %v", err)
	}

	src := filepath.Join(t.TempDir(), "Token.sol")
	_ = os.WriteFile(src, []byte("contract"), 0o644)
	if _, err := c.Compile(context.Background(), src); !errors.Is(err, apperror.New(apperror.CodeCompilationFailed)) {
		t.Errorf("solc failure error = %v", err)
	}
}

func TestExplorerVersion(t *testing.T) {
	tests := map[string]string{
		"0.8.24+commit.e11b9ed9.Linux.g++": "v0.8.24+commit.e11b9ed9",
		"v0.8.20+commit.a1b79de6":          "v0.8.20+commit.a1b79de6",
		"0.8.24":                           "v0.8.24",
		"":                                 "",
	}
	for in, want := range tests {
		if got := ExplorerVersion(in); got != want {
			t.Errorf("ExplorerVersion(%q) = %q, want %q", in, got, want)
		}
	}
}
