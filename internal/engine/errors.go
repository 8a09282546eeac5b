package engine

import (
	"errors"
	"strings"
)

// ErrorPrefix starts every failure result returned by Generate.
const ErrorPrefix = "[error] "

// notReadyError signals Generate before a successful Init (or after Release).
type notReadyError struct{}

func (notReadyError) Error() string { return "Model is not initialized." }

// IsNotReady reports whether err indicates no model is loaded.
func IsNotReady(err error) bool {
	var e notReadyError
	return errors.As(err, &e)
}

// inputError signals a prompt that cannot be evaluated.
type inputError struct{ msg string }

func (e inputError) Error() string { return e.msg }

// IsInput reports whether err was caused by the prompt itself.
func IsInput(err error) bool {
	var e inputError
	return errors.As(err, &e)
}

// decodeError signals a runtime failure while evaluating tokens.
type decodeError struct {
	msg   string
	cause error
}

func (e decodeError) Error() string { return e.msg }
func (e decodeError) Unwrap() error { return e.cause }

// IsDecode reports whether err came from prefill, sampling or decoding.
func IsDecode(err error) bool {
	var e decodeError
	return errors.As(err, &e)
}

// internalError wraps a recovered panic.
type internalError struct{ value any }

func (internalError) Error() string { return "Internal engine failure." }

// dependencyUnavailableError signals a missing native runtime (e.g. a binary
// built without the llama tag).
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

var (
	ErrNotInitialized   error = notReadyError{}
	ErrPromptNull       error = inputError{msg: "Prompt is null."}
	ErrPromptUnreadable error = inputError{msg: "Unable to read prompt."}
	ErrVocabMissing     error = inputError{msg: "Vocabulary missing."}
	ErrTokenize         error = inputError{msg: "Failed to tokenize prompt."}
	ErrPromptTooLong    error = inputError{msg: "Prompt is longer than the context window."}
)

// EmptyResponse replaces a generation that produced no visible text.
const EmptyResponse = ErrorPrefix + "Model returned empty response."

func errPrefill(cause error) error { return decodeError{msg: "Failed to prefill prompt.", cause: cause} }
func errSample() error { return decodeError{msg: "Failed to sample token."} }
func errDecode(cause error) error { return decodeError{msg: "Failed to decode token.", cause: cause} }

// Result renders err the way Generate returns failures.
func Result(err error) string { return ErrorPrefix + err.Error() }

// IsError reports whether a Generate result is a failure.
func IsError(result string) bool { return strings.HasPrefix(result, strings.TrimSpace(ErrorPrefix)) }
