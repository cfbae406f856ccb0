package app

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	networkapp "github.com/fd1az/token-deployer/business/network/app"
	"github.com/fd1az/token-deployer/business/token/domain"
	txdomain "github.com/fd1az/token-deployer/business/transaction/domain"
	walletapp "github.com/fd1az/token-deployer/business/wallet/app"
	"github.com/fd1az/token-deployer/internal/apm"
	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/asset"
	"github.com/fd1az/token-deployer/internal/logger"
	"github.com/fd1az/token-deployer/internal/pause"
)

const tracerName = "github.com/fd1az/token-deployer/business/token/app"

// Config holds token service settings.
type Config struct {
	ChainID         uint64
	ExplorerURL     string
	Contract        *common.Address // already deployed token, optional
	ContractSource  string
	ContractName    string
	Optimize        bool
	OptimizeRuns    int
	CompilerVersion string // overrides the compiler's own version for verification
	VerifyEnabled   bool
	VerifyAttempts  int
	VerifyDelay     time.Duration
}

// Deps are the collaborators of a Service.
type Deps struct {
	Compiler  Compiler
	Verifier  Verifier // nil disables verification
	Store     ConfigStore
	Submitter Submitter
	Readiness Readiness
	Connector walletapp.Connector
	Registry  *asset.Registry
	Pause     pause.Func
	Logger    logger.LoggerInterface
}

// Service runs the user-facing token operations.
type Service struct {
	cfg  Config
	deps Deps

	erc20  abi.ABI
	tracer apm.Tracer

	contract   *common.Address
	contractMu sync.RWMutex
}

// NewService creates a Service.
func NewService(cfg Config, deps Deps) *Service {
	if cfg.VerifyAttempts < 1 {
		cfg.VerifyAttempts = 1
	}
	if deps.Pause == nil {
		deps.Pause = pause.Real()
	}

	s := &Service{
		cfg:    cfg,
		deps:   deps,
		erc20:  domain.ERC20(),
		tracer: apm.NewTracer(tracerName),
	}
	if cfg.Contract != nil {
		addr := *cfg.Contract
		s.contract = &addr
	}
	return s
}

// Contract returns the token contract operations target, if any.
func (s *Service) Contract() (common.Address, bool) {
	s.contractMu.RLock()
	defer s.contractMu.RUnlock()
	if s.contract == nil {
		return common.Address{}, false
	}
	return *s.contract, true
}

func (s *Service) setContract(addr common.Address) {
	s.contractMu.Lock()
	s.contract = &addr
	s.contractMu.Unlock()
}

// Deploy compiles, deploys and verifies the token contract, then records
// its address in the config store. Only compile and submission failures
// fail the deploy.
func (s *Service) Deploy(ctx context.Context, params domain.DeployParams) (*domain.DeployResult, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "token.Deploy")
	defer span.End()
	span.SetAttributes(attribute.String("token.symbol", params.Symbol))

	res, err := s.deploy(ctx, params)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("token.address", res.Address.Hex()),
		attribute.Bool("token.verified", res.Verified),
	)
	return res, nil
}

// SendNative transfers amount (in whole native units) to the address.
func (s *Service) SendNative(ctx context.Context, to, amount string) (*domain.TransferResult, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "token.SendNative")
	defer span.End()

	res, err := s.sendNative(ctx, to, amount)
	span.NoticeError(err)
	return res, err
}

// SendToken transfers amount (in whole tokens) of the configured token.
func (s *Service) SendToken(ctx context.Context, to, amount string) (*domain.TransferResult, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "token.SendToken")
	defer span.End()

	res, err := s.sendToken(ctx, to, amount)
	span.NoticeError(err)
	return res, err
}

// Status reports the selected endpoint, balances and readiness.
func (s *Service) Status(ctx context.Context) (*domain.Status, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "token.Status")
	defer span.End()

	st, err := s.status(ctx)
	span.NoticeError(err)
	return st, err
}

func (s *Service) deploy(ctx context.Context, params domain.DeployParams) (*domain.DeployResult, error) {
	log := s.deps.Logger

	rawSupply, err := params.RawSupply()
	if err != nil {
		return nil, err
	}

	artifact, err := s.deps.Compiler.Compile(ctx, s.cfg.ContractSource)
	if err != nil {
		return nil, err
	}

	contractABI, err := abi.JSON(strings.NewReader(artifact.ABI))
	if err != nil {
		return nil, apperror.Internal(apperror.CodeCompilationFailed, "parse abi", err)
	}
	ctorArgs, err := contractABI.Pack("", params.Name, params.Symbol, rawSupply)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeCompilationFailed, "pack constructor arguments", err)
	}

	if err := s.deps.Readiness.WaitUntilReady(ctx); err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(artifact.Bytecode)+len(ctorArgs))
	data = append(data, artifact.Bytecode...)
	data = append(data, ctorArgs...)

	log.Info(ctx, "deploying token",
		"name", params.Name,
		"symbol", params.Symbol,
		"supply", params.Supply,
		"decimals", params.Decimals)

	out, err := s.deps.Submitter.Submit(ctx, txdomain.Request{Data: data, Label: "deploy"})
	if err != nil {
		return nil, err
	}
	if out.ContractAddress == nil {
		return nil, apperror.New(apperror.CodeInvalidState, apperror.WithContext("receipt has no contract address"))
	}

	res := &domain.DeployResult{Outcome: out, Address: *out.ContractAddress}

	log.Success(ctx, "token deployed",
		"address", res.Address.Hex(),
		"tx", s.txLink(out.Hash),
		"contract", s.addressLink(res.Address))

	s.setContract(res.Address)
	if token, err := asset.NewToken(s.cfg.ChainID, res.Address, params.Symbol, params.Name, params.Decimals); err == nil {
		s.deps.Registry.GetOrRegister(token)
	}

	if err := s.deps.Store.Set(domain.ConfigKeyContractAddress, res.Address.Hex()); err != nil {
		res.StoreErr = err
		log.Error(ctx, "could not save contract address; set it manually",
			"key", domain.ConfigKeyContractAddress,
			"address", res.Address.Hex(),
			"error", err)
	} else {
		log.Info(ctx, "contract address saved", "key", domain.ConfigKeyContractAddress)
	}

	if s.cfg.VerifyEnabled && s.deps.Verifier != nil {
		version := s.cfg.CompilerVersion
		if version == "" {
			version = artifact.CompilerVersion
		}
		res.Verified, res.VerifyErr = s.verify(ctx, domain.VerifyRequest{
			Address:         res.Address,
			ContractName:    artifact.ContractName,
			SourceCode:      artifact.Source,
			CompilerVersion: version,
			Optimize:        s.cfg.Optimize,
			OptimizeRuns:    s.cfg.OptimizeRuns,
			ConstructorArgs: ctorArgs,
		})
	}

	return res, nil
}

// verify tries VerifyAttempts times with VerifyDelay between tries. Explorers
// often reject a submission until they have indexed the new contract.
func (s *Service) verify(ctx context.Context, req domain.VerifyRequest) (bool, error) {
	log := s.deps.Logger

	var lastErr error
	for attempt := 1; attempt <= s.cfg.VerifyAttempts; attempt++ {
		ok, err := s.deps.Verifier.Verify(ctx, req)
		if err == nil && ok {
			log.Success(ctx, "contract verified", "contract", s.addressLink(req.Address))
			return true, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if err == nil {
			err = apperror.New(apperror.CodeVerificationFailed)
		}
		lastErr = err

		log.Warn(ctx, "verification attempt failed",
			"attempt", attempt,
			"max_attempts", s.cfg.VerifyAttempts,
			"error", err)

		if attempt < s.cfg.VerifyAttempts {
			if err := s.deps.Pause(ctx, s.cfg.VerifyDelay); err != nil {
				return false, err
			}
		}
	}

	log.Warn(ctx, "contract not verified; deployment is still valid", "address", req.Address.Hex())
	return false, lastErr
}

func (s *Service) sendNative(ctx context.Context, to, amount string) (*domain.TransferResult, error) {
	recipient, err := domain.ParseAddress(to)
	if err != nil {
		return nil, err
	}

	native := asset.NativeFor(s.deps.Registry, s.cfg.ChainID)
	amt, err := asset.ParsePositive(native, strings.TrimSpace(amount))
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext(fmt.Sprintf("%q", amount)),
			apperror.WithCause(err))
	}

	if err := s.deps.Readiness.WaitUntilReady(ctx); err != nil {
		return nil, err
	}

	s.deps.Logger.Info(ctx, "sending native transfer", "to", recipient.Hex(), "amount", amt.String())

	out, err := s.deps.Submitter.Submit(ctx, txdomain.Request{
		To:    &recipient,
		Value: amt.Raw(),
		Label: "send-native",
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.Success(ctx, "native transfer confirmed", "amount", amt.String(), "tx", s.txLink(out.Hash))
	return &domain.TransferResult{Outcome: out, To: recipient, Amount: amt}, nil
}

func (s *Service) sendToken(ctx context.Context, to, amount string) (*domain.TransferResult, error) {
	contract, ok := s.Contract()
	if !ok {
		return nil, apperror.New(apperror.CodeContractNotConfigured)
	}

	recipient, err := domain.ParseAddress(to)
	if err != nil {
		return nil, err
	}

	conn, err := s.deps.Connector.GetConnection(ctx)
	if err != nil {
		return nil, err
	}

	token, err := s.tokenAsset(ctx, conn.Client, contract)
	if err != nil {
		return nil, err
	}

	amt, err := asset.ParsePositive(token, strings.TrimSpace(amount))
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext(fmt.Sprintf("%q", amount)),
			apperror.WithCause(err))
	}

	balance, err := s.tokenBalance(ctx, conn.Client, token, conn.Identity.Address())
	if err != nil {
		return nil, err
	}
	if enough, _ := balance.GreaterThanOrEqual(amt); !enough {
		return nil, apperror.New(apperror.CodeInsufficientBalance,
			apperror.WithContext(fmt.Sprintf("have %s, need %s", balance, amt)))
	}

	data, err := s.erc20.Pack("transfer", recipient, amt.Raw())
	if err != nil {
		return nil, apperror.Internal(apperror.CodeInternalError, "pack transfer", err)
	}

	if err := s.deps.Readiness.WaitUntilReady(ctx); err != nil {
		return nil, err
	}

	s.deps.Logger.Info(ctx, "sending token transfer", "to", recipient.Hex(), "amount", amt.String())

	out, err := s.deps.Submitter.Submit(ctx, txdomain.Request{
		To:    &contract,
		Data:  data,
		Label: "send-token",
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.Success(ctx, "token transfer confirmed", "amount", amt.String(), "tx", s.txLink(out.Hash))
	return &domain.TransferResult{Outcome: out, To: recipient, Amount: amt}, nil
}

func (s *Service) status(ctx context.Context) (*domain.Status, error) {
	r, err := s.deps.Readiness.Check(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := s.deps.Connector.GetConnection(ctx)
	if err != nil {
		return nil, err
	}

	st := &domain.Status{
		Endpoint:      r.Endpoint,
		Address:       conn.Identity.Address(),
		BlockNumber:   r.BlockNumber,
		NativeBalance: r.Balance,
		Ready:         r.Ready,
		Reason:        r.Reason,
	}

	if contract, ok := s.Contract(); ok {
		st.Contract = &contract
		token, err := s.tokenAsset(ctx, conn.Client, contract)
		if err == nil {
			var bal asset.Amount
			bal, err = s.tokenBalance(ctx, conn.Client, token, st.Address)
			if err == nil {
				st.TokenBalance = &bal
			}
		}
		if err != nil {
			s.deps.Logger.Warn(ctx, "could not read token balance", "contract", contract.Hex(), "error", err)
		}
	}

	return st, nil
}

// tokenAsset returns the registered token at contract, reading its
// metadata from the chain on first use.
func (s *Service) tokenAsset(ctx context.Context, client networkapp.Client, contract common.Address) (*asset.Asset, error) {
	if a, ok := s.deps.Registry.GetToken(s.cfg.ChainID, contract); ok {
		return a, nil
	}

	decimals, err := s.call(ctx, client, contract, "decimals")
	if err != nil {
		return nil, err
	}
	symbol, err := s.call(ctx, client, contract, "symbol")
	if err != nil {
		return nil, err
	}
	name, err := s.call(ctx, client, contract, "name")
	if err != nil {
		return nil, err
	}

	d, ok1 := decimals[0].(uint8)
	sym, ok2 := symbol[0].(string)
	nm, ok3 := name[0].(string)
	if !ok1 || !ok2 || !ok3 {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(contract.Hex()+" is not an ERC20 token"))
	}

	// symbol() is optional in ERC20
	sym = strings.TrimSpace(sym)
	if sym == "" {
		sym = shortAddress(contract)
	}

	token, err := asset.NewToken(s.cfg.ChainID, contract, sym, nm, d)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("%s reports %d decimals", contract.Hex(), d)),
			apperror.WithCause(err))
	}
	return s.deps.Registry.GetOrRegister(token), nil
}

// shortAddress renders 0x1234…abcd.
func shortAddress(a common.Address) string {
	h := a.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}

func (s *Service) tokenBalance(ctx context.Context, client networkapp.Client, token *asset.Asset, owner common.Address) (asset.Amount, error) {
	out, err := s.call(ctx, client, token.Address(), "balanceOf", owner)
	if err != nil {
		return asset.Amount{}, err
	}
	raw, ok := out[0].(*big.Int)
	if !ok {
		return asset.Amount{}, apperror.New(apperror.CodeContractCallFailed, apperror.WithContext("balanceOf"))
	}
	return asset.NewAmount(token, raw), nil
}

func (s *Service) call(ctx context.Context, client networkapp.Client, contract common.Address, method string, args ...any) ([]any, error) {
	data, err := s.erc20.Pack(method, args...)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeInternalError, "pack "+method, err)
	}

	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, apperror.External(apperror.CodeContractCallFailed, method, err)
	}

	values, err := s.erc20.Unpack(method, out)
	if err != nil || len(values) == 0 {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("%s on %s returned no data", method, contract.Hex())),
			apperror.WithCause(err))
	}
	return values, nil
}

func (s *Service) txLink(hash common.Hash) string {
	return strings.TrimSuffix(s.cfg.ExplorerURL, "/") + "/tx/" + hash.Hex()
}

func (s *Service) addressLink(addr common.Address) string {
	return strings.TrimSuffix(s.cfg.ExplorerURL, "/") + "/address/" + addr.Hex()
}
