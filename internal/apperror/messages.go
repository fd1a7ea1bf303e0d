package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeServiceTimeout:     "Service request timeout",
	CodeServiceUnavailable: "Service temporarily unavailable",
	CodeRateLimitExceeded:  "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Token and pair resolution
	CodeUnknownToken:     "Unknown token",
	CodePairNotFound:     "Pair not found",
	CodeUnsupportedChain: "Chain is not supported",

	// Quoting
	CodeNoRouteFound:          "No route found between the requested currencies",
	CodeInsufficientLiquidity: "Insufficient liquidity for trade size",
	CodeInvalidTradeSize:      "Invalid trade size",
	CodeInvalidSlippage:       "Invalid slippage tolerance",
	CodeContractViolation:     "Request violates an engine precondition",

	// On-chain data
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeContractCallFailed:       "Smart contract call failed",
	CodeSnapshotLoadFailed:       "Failed to load reserve snapshot",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
