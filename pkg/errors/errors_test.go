package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/kabuquant/kabuquant/pkg/errors"
)

type ErrorsTestSuite struct {
	suite.Suite
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

func (suite *ErrorsTestSuite) TestNewCarriesCodeAndMessage() {
	err := errors.New(errors.ErrCodeInvalidParameter, "bad input")

	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
	suite.Contains(err.Error(), "bad input")
}

func (suite *ErrorsTestSuite) TestWrapPreservesCause() {
	cause := stderrors.New("disk full")
	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to upsert candle", cause)

	suite.True(errors.Is(err, cause))
	suite.True(errors.HasCode(err, errors.ErrCodeQueryFailed))
	suite.Contains(err.Error(), "disk full")
}

func (suite *ErrorsTestSuite) TestGetCodeOnForeignError() {
	suite.Equal(errors.ErrCodeUnknown, errors.GetCode(stderrors.New("plain")))
}

func (suite *ErrorsTestSuite) TestInsufficientDataError() {
	err := errors.NewInsufficientDataErrorf(26, 10, "1459", "need %d candles, have %d", 26, 10)

	suite.True(errors.IsInsufficientDataError(err))
	suite.Equal(26, err.Required)
	suite.Equal(10, err.Actual)
	suite.Contains(err.Error(), "need 26 candles")

	wrapped := errors.Wrap(errors.ErrCodeBacktestFailed, "run failed", err)
	suite.True(errors.IsInsufficientDataError(wrapped))
}

func (suite *ErrorsTestSuite) TestUnknownDurationError() {
	err := errors.NewUnknownDurationError("42s")

	suite.True(errors.IsUnknownDurationError(err))
	suite.False(errors.IsUnknownDurationError(stderrors.New("other")))
	suite.Contains(err.Error(), "42s")
}

func (suite *ErrorsTestSuite) TestDegenerateParameterError() {
	err := errors.NewDegenerateParameterError("short must be below long")

	suite.True(errors.IsDegenerateParameterError(err))
	suite.Contains(err.Error(), "short must be below long")
}
