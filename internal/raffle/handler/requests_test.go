package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tombola/pkg/platform/validation"
)

// EnterRequestSuite tests EnterRequest validation and normalization.
type EnterRequestSuite struct {
	suite.Suite
}

func TestEnterRequestSuite(t *testing.T) {
	suite.Run(t, new(EnterRequestSuite))
}

func (s *EnterRequestSuite) validRequest() *EnterRequest {
	return &EnterRequest{
		Caller:   "addr-alice",
		Entrants: []string{"addr-alice", "addr-bob"},
		Payment:  200,
	}
}

// TestValidation verifies parsing and batch size enforcement.
func (s *EnterRequestSuite) TestValidation() {
	s.Run("valid request passes", func() {
		req := s.validRequest()
		err := req.Validate()
		s.Require().NoError(err)
		s.Equal("addr-alice", req.ParsedCaller().String())
		s.Require().Len(req.ParsedEntrants(), 2)
		s.Equal("addr-bob", req.ParsedEntrants()[1].String())
	})

	s.Run("empty entrants defaults to caller", func() {
		req := &EnterRequest{Caller: "addr-alice", Payment: 100}
		err := req.Validate()
		s.Require().NoError(err)
		s.Require().Len(req.ParsedEntrants(), 1)
		s.Equal(req.ParsedCaller(), req.ParsedEntrants()[0])
	})

	s.Run("too many entrants rejected", func() {
		req := s.validRequest()
		req.Entrants = make([]string, validation.MaxBatchEntrants+1)
		for i := range req.Entrants {
			req.Entrants[i] = "addr-alice"
		}

		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "too many entrants in one batch")
	})

	s.Run("max entrants allowed", func() {
		req := s.validRequest()
		req.Entrants = make([]string, validation.MaxBatchEntrants)
		for i := range req.Entrants {
			req.Entrants[i] = "addr-alice"
		}

		err := req.Validate()
		s.NoError(err)
	})

	s.Run("invalid entrant identity rejected", func() {
		req := s.validRequest()
		req.Entrants = []string{"addr-alice", "has spaces"}

		err := req.Validate()
		s.Error(err)
	})

	s.Run("surrounding whitespace trimmed", func() {
		req := &EnterRequest{Caller: "  addr-alice  ", Payment: 100}
		err := req.Validate()
		s.Require().NoError(err)
		s.Equal("addr-alice", req.ParsedCaller().String())
	})
}

// TestRequiredFields verifies required field enforcement.
func (s *EnterRequestSuite) TestRequiredFields() {
	s.Run("missing caller rejected", func() {
		req := &EnterRequest{Payment: 100}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "caller is required")
	})

	s.Run("invalid caller charset rejected", func() {
		req := &EnterRequest{Caller: "no/slashes", Payment: 100}
		err := req.Validate()
		s.Error(err)
	})
}

// RefundRequestSuite tests RefundRequest validation.
type RefundRequestSuite struct {
	suite.Suite
}

func TestRefundRequestSuite(t *testing.T) {
	suite.Run(t, new(RefundRequestSuite))
}

func (s *RefundRequestSuite) TestValidation() {
	slot := 3

	s.Run("valid request passes", func() {
		req := &RefundRequest{Caller: "addr-alice", Slot: &slot}
		err := req.Validate()
		s.Require().NoError(err)
		s.Equal("addr-alice", req.ParsedCaller().String())
	})

	s.Run("missing caller rejected", func() {
		req := &RefundRequest{Slot: &slot}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "caller is required")
	})

	s.Run("missing slot rejected", func() {
		req := &RefundRequest{Caller: "addr-alice"}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "slot is required")
	})

	s.Run("out of range slot passes shape check", func() {
		// Range verdicts belong to the session, which distinguishes an
		// invalid index from a malformed request.
		negative := -1
		req := &RefundRequest{Caller: "addr-alice", Slot: &negative}
		err := req.Validate()
		s.NoError(err)
	})
}

// ConfigUpdateRequestSuite tests ConfigUpdateRequest validation and the
// mapping into the session's partial update.
type ConfigUpdateRequestSuite struct {
	suite.Suite
}

func TestConfigUpdateRequestSuite(t *testing.T) {
	suite.Run(t, new(ConfigUpdateRequestSuite))
}

func (s *ConfigUpdateRequestSuite) TestValidation() {
	s.Run("single field update passes", func() {
		fee := uint64(250)
		req := &ConfigUpdateRequest{EntranceFee: &fee}

		err := req.Validate()
		s.Require().NoError(err)

		update := req.ParsedUpdate()
		s.Require().NotNil(update.EntranceFee)
		s.Equal(uint64(250), *update.EntranceFee)
		s.Nil(update.RoundDuration)
		s.Nil(update.FeeRecipient)
	})

	s.Run("duration seconds become a duration", func() {
		seconds := int64(900)
		req := &ConfigUpdateRequest{RoundDurationSeconds: &seconds}

		err := req.Validate()
		s.Require().NoError(err)
		s.Require().NotNil(req.ParsedUpdate().RoundDuration)
		s.Equal(15*time.Minute, *req.ParsedUpdate().RoundDuration)
	})

	s.Run("fee recipient parsed", func() {
		recipient := "addr-treasury"
		req := &ConfigUpdateRequest{FeeRecipient: &recipient}

		err := req.Validate()
		s.Require().NoError(err)
		s.Require().NotNil(req.ParsedUpdate().FeeRecipient)
		s.Equal("addr-treasury", req.ParsedUpdate().FeeRecipient.String())
	})

	s.Run("invalid fee recipient rejected", func() {
		recipient := "not valid"
		req := &ConfigUpdateRequest{FeeRecipient: &recipient}

		err := req.Validate()
		s.Error(err)
	})

	s.Run("empty update rejected", func() {
		req := &ConfigUpdateRequest{}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "update changes nothing")
	})

	s.Run("all fields map through", func() {
		fee := uint64(500)
		seconds := int64(600)
		percent := uint64(80)
		minEntrants := 2
		recipient := "addr-treasury"
		req := &ConfigUpdateRequest{
			EntranceFee:          &fee,
			RoundDurationSeconds: &seconds,
			WinnerPercent:        &percent,
			MinEntrants:          &minEntrants,
			FeeRecipient:         &recipient,
		}

		err := req.Validate()
		s.Require().NoError(err)

		update := req.ParsedUpdate()
		s.Equal(uint64(500), *update.EntranceFee)
		s.Equal(10*time.Minute, *update.RoundDuration)
		s.Equal(uint64(80), *update.WinnerPercent)
		s.Equal(2, *update.MinEntrants)
		s.Equal("addr-treasury", update.FeeRecipient.String())
	})
}
