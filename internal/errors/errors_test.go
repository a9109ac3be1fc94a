package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/KirkDiggler/rpg-battle/internal/errors"
)

type ErrorsTestSuite struct {
	suite.Suite
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

func (s *ErrorsTestSuite) TestNewError() {
	testCases := []struct {
		name     string
		code     errors.Code
		message  string
		expected string
	}{
		{
			name:     "not found error",
			code:     errors.CodeNotFound,
			message:  "battle not found",
			expected: "NOT_FOUND: battle not found",
		},
		{
			name:     "invalid argument error",
			code:     errors.CodeInvalidArgument,
			message:  "cannot challenge yourself",
			expected: "INVALID_ARGUMENT: cannot challenge yourself",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := errors.New(tc.code, tc.message)
			s.Assert().Equal(tc.expected, err.Error())
			s.Assert().Equal(tc.code, err.Code)
			s.Assert().Equal(tc.message, err.Message)
		})
	}
}

func (s *ErrorsTestSuite) TestIllegalStateCarriesReason() {
	err := errors.IllegalState("not_your_turn", "it is not your turn")

	s.Assert().True(errors.IsIllegalState(err))
	s.Assert().True(errors.IsFailedPrecondition(err))
	s.Assert().Equal("not_your_turn", errors.GetReason(err))
	s.Assert().Equal("it is not your turn", errors.GetMessage(err))

	wrapped := errors.Wrap(err, "failed to attack")
	s.Assert().True(errors.IsIllegalState(wrapped))
	s.Assert().Equal("not_your_turn", errors.GetReason(wrapped))
}

func (s *ErrorsTestSuite) TestWrap() {
	baseErr := fmt.Errorf("connection refused")
	wrapped := errors.Wrap(baseErr, "failed to get battle")

	s.Assert().Equal(errors.CodeInternal, wrapped.Code)
	s.Assert().Equal("failed to get battle", wrapped.Message)
	s.Assert().Equal(baseErr, wrapped.Unwrap())
	s.Assert().Nil(errors.Wrap(nil, "ignored"))
}

func (s *ErrorsTestSuite) TestWrapKeepsCodeAndMeta() {
	base := errors.NotFound("character missing").WithMeta("user_id", "u1")
	wrapped := errors.Wrapf(base, "failed to load %s", "u1")

	s.Assert().True(errors.IsNotFound(wrapped))
	s.Assert().Equal("u1", wrapped.Meta["user_id"])
	s.Assert().True(errors.Is(wrapped, errors.NotFound("")))
	s.Assert().False(errors.Is(wrapped, errors.Aborted("")))
}

func (s *ErrorsTestSuite) TestGetCodeOfPlainError() {
	s.Assert().Equal(errors.CodeOK, errors.GetCode(nil))
	s.Assert().Equal(errors.CodeInternal, errors.GetCode(fmt.Errorf("boom")))
	s.Assert().Equal("", errors.GetReason(fmt.Errorf("boom")))
}

func (s *ErrorsTestSuite) TestToGRPCError() {
	testCases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"illegal state", errors.IllegalState("expired", "challenge expired"), codes.FailedPrecondition},
		{"not found", errors.NotFound("battle not found"), codes.NotFound},
		{"permission", errors.PermissionDeniedf("user %s is not an admin", "u1"), codes.PermissionDenied},
		{"plain", fmt.Errorf("boom"), codes.Internal},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			st, ok := status.FromError(errors.ToGRPCError(tc.err))
			s.Require().True(ok)
			s.Assert().Equal(tc.code, st.Code())
		})
	}

	s.Assert().Nil(errors.ToGRPCError(nil))
}
