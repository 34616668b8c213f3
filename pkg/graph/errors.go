package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConnection is the cause of every structural rejection.
	ErrInvalidConnection = errors.New("invalid connection")

	// ErrConnectionRejected is the cause of every business-rule rejection.
	ErrConnectionRejected = errors.New("connection rejected")
)

// Rule names the check that rejected a connection.
type Rule string

const (
	RuleStructural    Rule = "structural"
	RuleSingleFanOut  Rule = "single_fan_out"
	RuleTargetKind    Rule = "target_kind"
	RuleFormRequired  Rule = "form_required"
	RuleTerminalChain Rule = "terminal_chain"
)

// RejectionError reports why a proposed connection was refused.
type RejectionError struct {
	Rule         Rule
	ConnectionID string
	Reason       string // Human-readable, safe to show to the user
	Detail       string // Diagnostic detail for structural rejections, not shown to users
}

func (e *RejectionError) Error() string {
	return e.Reason
}

func (e *RejectionError) Unwrap() error {
	if e.Rule == RuleStructural {
		return ErrInvalidConnection
	}

	return ErrConnectionRejected
}

// IsRejection reports whether err is a connection rejection and returns it.
func IsRejection(err error) (*RejectionError, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection, true
	}

	return nil, false
}

func structural(connectionID, format string, args ...any) *RejectionError {
	return &RejectionError{
		Rule:         RuleStructural,
		ConnectionID: connectionID,
		Reason:       ErrInvalidConnection.Error(),
		Detail:       fmt.Sprintf(format, args...),
	}
}

func rejected(rule Rule, connectionID, reason string) *RejectionError {
	return &RejectionError{
		Rule:         rule,
		ConnectionID: connectionID,
		Reason:       reason,
	}
}
