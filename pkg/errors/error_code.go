package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeInsufficientData     ErrorCode = 103
	ErrCodeUnknownDuration      ErrorCode = 104
	ErrCodeDegenerateParameter  ErrorCode = 105

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound  ErrorCode = 200
	ErrCodeQueryFailed   ErrorCode = 201
	ErrCodeStoreClosed   ErrorCode = 202
	ErrCodeNoDataFetched ErrorCode = 203

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301

	// Backtest/optimizer errors (400-499)
	ErrCodeBacktestFailed   ErrorCode = 400
	ErrCodeUnsupportedRule  ErrorCode = 401
	ErrCodeEmptyGrid        ErrorCode = 402
	ErrCodeNoResult         ErrorCode = 403
	ErrCodeInvalidStopLimit ErrorCode = 404

	// Market data errors (500-599)
	ErrCodeMarketDataFetchFailed ErrorCode = 500
	ErrCodeMarketDataParseFailed ErrorCode = 501
	ErrCodeStreamClosed          ErrorCode = 502
)
