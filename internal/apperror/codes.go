package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Deployer error codes
const (
	// Network / endpoint selection
	CodeNoEndpoints         Code = "NO_ENDPOINTS"
	CodeEndpointUnreachable Code = "ENDPOINT_UNREACHABLE"
	CodeEthereumRPCError    Code = "ETHEREUM_RPC_ERROR"
	CodeGasEstimationFailed Code = "GAS_ESTIMATION_FAILED"
	CodeContractCallFailed  Code = "CONTRACT_CALL_FAILED"
	CodeChainIDMismatch     Code = "CHAIN_ID_MISMATCH"
	CodeReadinessTimeout    Code = "READINESS_TIMEOUT"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"

	// Wallet
	CodeInvalidPrivateKey Code = "INVALID_PRIVATE_KEY"
	CodeSigningFailed     Code = "SIGNING_FAILED"

	// Transactions
	CodeTransactionFailed   Code = "TRANSACTION_FAILED"
	CodeTransactionRejected Code = "TRANSACTION_REJECTED"
	CodeTransactionReverted Code = "TRANSACTION_REVERTED"
	CodeReceiptTimeout      Code = "RECEIPT_TIMEOUT"

	// Token operations
	CodeInvalidAmount         Code = "INVALID_AMOUNT"
	CodeInvalidAddress        Code = "INVALID_ADDRESS"
	CodeContractNotConfigured Code = "CONTRACT_NOT_CONFIGURED"
	CodeAssetNotFound         Code = "ASSET_NOT_FOUND"

	// Collaborators
	CodeCompilationFailed  Code = "COMPILATION_FAILED"
	CodeVerificationFailed Code = "VERIFICATION_FAILED"
	CodeConfigStoreFailed  Code = "CONFIG_STORE_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
