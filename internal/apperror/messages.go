package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Network / endpoint selection
	CodeNoEndpoints:         "No RPC endpoints configured",
	CodeEndpointUnreachable: "RPC endpoint unreachable",
	CodeEthereumRPCError:    "Ethereum RPC call failed",
	CodeGasEstimationFailed: "Gas estimation failed",
	CodeContractCallFailed:  "Smart contract call failed",
	CodeChainIDMismatch:     "Node chain ID does not match configuration",
	CodeReadinessTimeout:    "Network did not become ready in time",
	CodeInsufficientBalance: "Wallet balance below required minimum",

	// Wallet
	CodeInvalidPrivateKey: "Invalid private key",
	CodeSigningFailed:     "Failed to sign transaction",

	// Transactions
	CodeTransactionFailed:   "Transaction failed",
	CodeTransactionRejected: "Transaction rejected by node",
	CodeTransactionReverted: "Transaction reverted",
	CodeReceiptTimeout:      "Timed out waiting for transaction receipt",

	// Token operations
	CodeInvalidAmount:         "Invalid amount",
	CodeInvalidAddress:        "Invalid address",
	CodeContractNotConfigured: "Token contract address not configured",
	CodeAssetNotFound:         "Asset not found",

	// Collaborators
	CodeCompilationFailed:  "Contract compilation failed",
	CodeVerificationFailed: "Contract verification failed",
	CodeConfigStoreFailed:  "Failed to persist configuration",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
