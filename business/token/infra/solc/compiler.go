// Package solc compiles a single Solidity source with the solc binary.
package solc

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fd1az/token-deployer/business/token/domain"
	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/logger"
)

// Config holds compiler settings.
type Config struct {
	SolcPath     string
	ContractName string
	Optimize     bool
	OptimizeRuns int
}

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Compiler runs solc with --combined-json and extracts one contract.
type Compiler struct {
	cfg    Config
	run    Runner
	logger logger.LoggerInterface
}

// NewCompiler creates a Compiler. A nil run executes the binary.
func NewCompiler(cfg Config, run Runner, log logger.LoggerInterface) *Compiler {
	if run == nil {
		run = execRunner
	}
	return &Compiler{cfg: cfg, run: run, logger: log}
}

// Compile reads and compiles sourcePath.
func (c *Compiler) Compile(ctx context.Context, sourcePath string) (domain.Artifact, error) {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return domain.Artifact{}, apperror.Internal(apperror.CodeCompilationFailed, "read "+sourcePath, err)
	}

	args := []string{"--combined-json", "abi,bin"}
	if c.cfg.Optimize {
		args = append(args, "--optimize", "--optimize-runs", strconv.Itoa(c.cfg.OptimizeRuns))
	}
	args = append(args, sourcePath)

	c.logger.Info(ctx, "compiling contract", "source", sourcePath, "contract", c.cfg.ContractName)

	out, err := c.run(ctx, c.cfg.SolcPath, args...)
	if err != nil {
		return domain.Artifact{}, apperror.Internal(apperror.CodeCompilationFailed, c.cfg.SolcPath, err)
	}

	artifact, err := ParseCombinedJSON(out, c.cfg.ContractName)
	if err != nil {
		return domain.Artifact{}, err
	}
	artifact.Source = string(source)

	c.logger.Debug(ctx, "contract compiled",
		"contract", artifact.ContractName,
		"bytecode_bytes", len(artifact.Bytecode),
		"compiler", artifact.CompilerVersion)

	return artifact, nil
}

// ParseCombinedJSON extracts contractName from solc --combined-json output.
// Keys look like "path/File.sol:Name"; abi is a JSON string on older solc
// and an inline array on newer ones.
func ParseCombinedJSON(out []byte, contractName string) (domain.Artifact, error) {
	if !gjson.ValidBytes(out) {
		return domain.Artifact{}, apperror.New(apperror.CodeCompilationFailed,
			apperror.WithContext("solc output is not JSON"))
	}

	root := gjson.ParseBytes(out)

	var contract gjson.Result
	root.Get("contracts").ForEach(func(key, value gjson.Result) bool {
		if strings.HasSuffix(key.String(), ":"+contractName) {
			contract = value
			return false
		}
		return true
	})
	if !contract.Exists() {
		return domain.Artifact{}, apperror.New(apperror.CodeCompilationFailed,
			apperror.WithContext(fmt.Sprintf("contract %s not in solc output", contractName)))
	}

	abiField := contract.Get("abi")
	abiJSON := abiField.Raw
	if abiField.Type == gjson.String {
		abiJSON = abiField.String()
	}
	if abiJSON == "" {
		return domain.Artifact{}, apperror.New(apperror.CodeCompilationFailed,
			apperror.WithContext("missing abi"))
	}

	bin := strings.TrimPrefix(contract.Get("bin").String(), "0x")
	if bin == "" {
		return domain.Artifact{}, apperror.New(apperror.CodeCompilationFailed,
			apperror.WithContext(contractName+" has no bytecode (abstract contract or interface?)"))
	}
	bytecode, err := hex.DecodeString(bin)
	if err != nil {
		return domain.Artifact{}, apperror.Internal(apperror.CodeCompilationFailed, "decode bytecode", err)
	}

	return domain.Artifact{
		ContractName:    contractName,
		ABI:             abiJSON,
		Bytecode:        bytecode,
		CompilerVersion: ExplorerVersion(root.Get("version").String()),
	}, nil
}

// ExplorerVersion converts "0.8.24+commit.e11b9ed9.Linux.g++" to the
// "v0.8.24+commit.e11b9ed9" form block explorers expect.
func ExplorerVersion(v string) string {
	if v == "" {
		return ""
	}
	const marker = "+commit."
	if i := strings.Index(v, marker); i >= 0 {
		end := i + len(marker) + 8
		if end <= len(v) {
			v = v[:end]
		}
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
