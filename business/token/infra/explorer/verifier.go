// Package explorer verifies contract source with an Etherscan-compatible API.
package explorer

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fd1az/token-deployer/business/token/domain"
	"github.com/fd1az/token-deployer/internal/apperror"
	"github.com/fd1az/token-deployer/internal/httpclient"
	"github.com/fd1az/token-deployer/internal/logger"
	"github.com/fd1az/token-deployer/internal/pause"
)

// Config holds explorer API settings.
type Config struct {
	APIURL       string
	APIKey       string
	ChainID      uint64
	PollInterval time.Duration
	MaxPolls     int
}

// DefaultConfig returns sensible defaults for apiURL.
func DefaultConfig(apiURL, apiKey string, chainID uint64) Config {
	return Config{
		APIURL:       apiURL,
		APIKey:       apiKey,
		ChainID:      chainID,
		PollInterval: 5 * time.Second,
		MaxPolls:     12,
	}
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Verifier submits source for verification and polls the result.
type Verifier struct {
	cfg    Config
	client httpclient.Client
	pause  pause.Func
	logger logger.LoggerInterface
}

// NewVerifier creates a Verifier. A nil pauseFn waits on the wall clock.
func NewVerifier(cfg Config, client httpclient.Client, pauseFn pause.Func, log logger.LoggerInterface) *Verifier {
	if pauseFn == nil {
		pauseFn = pause.Real()
	}
	return &Verifier{cfg: cfg, client: client, pause: pauseFn, logger: log}
}

// Verify submits req and waits for the explorer's verdict. It returns true
// when the contract is verified, false with a VERIFICATION_FAILED error when
// the explorer rejects it.
func (v *Verifier) Verify(ctx context.Context, req domain.VerifyRequest) (bool, error) {
	if v.cfg.APIKey == "" {
		return false, apperror.New(apperror.CodeVerificationFailed, apperror.WithContext("no explorer API key configured"))
	}

	guid, already, err := v.submit(ctx, req)
	if err != nil {
		return false, err
	}
	if already {
		return true, nil
	}

	v.logger.Info(ctx, "verification submitted", "address", req.Address.Hex(), "guid", guid)

	for poll := 0; poll < v.cfg.MaxPolls; poll++ {
		if err := v.pause(ctx, v.cfg.PollInterval); err != nil {
			return false, err
		}

		done, ok, err := v.status(ctx, guid)
		if err != nil {
			return false, err
		}
		if done {
			if !ok {
				return false, apperror.New(apperror.CodeVerificationFailed, apperror.WithContext("explorer rejected source"))
			}
			return true, nil
		}
	}

	return false, apperror.New(apperror.CodeVerificationFailed,
		apperror.WithContext(fmt.Sprintf("still pending after %d polls", v.cfg.MaxPolls)))
}

func (v *Verifier) submit(ctx context.Context, req domain.VerifyRequest) (guid string, already bool, err error) {
	optimize := "0"
	if req.Optimize {
		optimize = "1"
	}

	form := url.Values{}
	form.Set("apikey", v.cfg.APIKey)
	form.Set("module", "contract")
	form.Set("action", "verifysourcecode")
	form.Set("contractaddress", req.Address.Hex())
	form.Set("sourceCode", req.SourceCode)
	form.Set("codeformat", "solidity-single-file")
	form.Set("contractname", req.ContractName)
	form.Set("compilerversion", req.CompilerVersion)
	form.Set("optimizationUsed", optimize)
	form.Set("runs", strconv.Itoa(req.OptimizeRuns))
	// The misspelling is the API's parameter name.
	form.Set("constructorArguements", hex.EncodeToString(req.ConstructorArgs))

	var res apiResponse
	_, err = v.client.NewRequest(
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler),
		httpclient.WithLabels(httpclient.Label{Key: "action", Value: "verifysourcecode"}),
	).
		SetQueryParam("chainid", strconv.FormatUint(v.cfg.ChainID, 10)).
		SetFormData(form).
		SetResult(&res).
		Post(ctx, v.cfg.APIURL)
	if err != nil {
		return "", false, apperror.External(apperror.CodeExternalServiceError, "verifysourcecode", err)
	}

	if res.Status != "1" {
		if isAlreadyVerified(res.Result) {
			return "", true, nil
		}
		return "", false, apperror.New(apperror.CodeVerificationFailed, apperror.WithContext(res.Result))
	}
	return res.Result, false, nil
}

// status reports whether verification finished and, if so, whether it passed.
func (v *Verifier) status(ctx context.Context, guid string) (done, ok bool, err error) {
	var res apiResponse
	_, err = v.client.NewRequest(
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler),
		httpclient.WithLabels(httpclient.Label{Key: "action", Value: "checkverifystatus"}),
	).
		SetQueryParam("chainid", strconv.FormatUint(v.cfg.ChainID, 10)).
		SetQueryParam("apikey", v.cfg.APIKey).
		SetQueryParam("module", "contract").
		SetQueryParam("action", "checkverifystatus").
		SetQueryParam("guid", guid).
		SetResult(&res).
		Get(ctx, v.cfg.APIURL)
	if err != nil {
		return false, false, apperror.External(apperror.CodeExternalServiceError, "checkverifystatus", err)
	}

	result := strings.ToLower(res.Result)
	switch {
	case strings.Contains(result, "pending"):
		v.logger.Debug(ctx, "verification pending", "guid", guid)
		return false, false, nil
	case strings.Contains(result, "pass") || isAlreadyVerified(res.Result):
		return true, true, nil
	default:
		v.logger.Warn(ctx, "verification failed", "guid", guid, "result", res.Result)
		return true, false, nil
	}
}

func isAlreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), "already verified")
}
