package failures

import (
	"errors"
	"fmt"
)

const (
	invalidInputMessageConstant        = "invalid input"
	authFailureMessageConstant         = "authorization failure"
	notFoundMessageConstant            = "not found"
	conflictMessageConstant            = "conflict"
	upstreamFailureMessageConstant     = "upstream failure"
	onChainCallRejectedMessageConstant = "on-chain call rejected"
	signingFailureMessageConstant      = "signing failure"
	ioFailureMessageConstant           = "i/o failure"
	errorWithCauseTemplateConstant     = "%s: %s: %s"
	errorWithoutCauseTemplateConstant  = "%s: %s"
	unknownKindMessageConstant         = "failure"
)

// Error kinds recognised across the pipeline.
var (
	ErrInvalidInput        = errors.New(invalidInputMessageConstant)
	ErrAuthFailure         = errors.New(authFailureMessageConstant)
	ErrNotFound            = errors.New(notFoundMessageConstant)
	ErrConflict            = errors.New(conflictMessageConstant)
	ErrUpstreamFailure     = errors.New(upstreamFailureMessageConstant)
	ErrOnChainCallRejected = errors.New(onChainCallRejectedMessageConstant)
	ErrSigningFailure      = errors.New(signingFailureMessageConstant)
	ErrIO                  = errors.New(ioFailureMessageConstant)
)

// Error couples a failure kind with the operation that produced it.
type Error struct {
	Kind      error
	Operation string
	Cause     error
}

// New constructs an Error for the operation.
func New(kind error, operation string, cause error) Error {
	return Error{Kind: kind, Operation: operation, Cause: cause}
}

// Newf constructs an Error whose cause is a formatted message.
func Newf(kind error, operation string, template string, arguments ...any) Error {
	return Error{Kind: kind, Operation: operation, Cause: fmt.Errorf(template, arguments...)}
}

// Error describes the failure.
func (failure Error) Error() string {
	kindMessage := unknownKindMessageConstant
	if failure.Kind != nil {
		kindMessage = failure.Kind.Error()
	}
	if failure.Cause == nil {
		return fmt.Sprintf(errorWithoutCauseTemplateConstant, failure.Operation, kindMessage)
	}
	return fmt.Sprintf(errorWithCauseTemplateConstant, failure.Operation, kindMessage, failure.Cause.Error())
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (failure Error) Unwrap() []error {
	unwrapped := make([]error, 0, 2)
	if failure.Kind != nil {
		unwrapped = append(unwrapped, failure.Kind)
	}
	if failure.Cause != nil {
		unwrapped = append(unwrapped, failure.Cause)
	}
	return unwrapped
}

// KindOf reports the first known kind carried by err, or nil.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrInvalidInput,
		ErrAuthFailure,
		ErrNotFound,
		ErrConflict,
		ErrUpstreamFailure,
		ErrOnChainCallRejected,
		ErrSigningFailure,
		ErrIO,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
