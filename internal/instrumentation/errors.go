package instrumentation

import (
	"errors"
	"fmt"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
)

var ErrInvalidArguments = errors.New("invalid call arguments")

// ArgumentError reports an intercepted call whose positional arguments do
// not have the shape its hooks expect.
type ArgumentError struct {
	Target hook.Key
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Target, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArguments
}

func argumentError(call *hook.Call, format string, args ...any) error {
	return &ArgumentError{
		Target: hook.Key{Class: call.Class, Method: call.Function},
		Reason: fmt.Sprintf(format, args...),
	}
}

// arity checks the argument count. A negative most allows any number of
// trailing arguments.
func arity(call *hook.Call, least, most int) error {
	n := len(call.Args)
	switch {
	case n < least:
		return argumentError(call, "expected at least %d arguments, got %d", least, n)
	case most >= 0 && n > most:
		return argumentError(call, "expected at most %d arguments, got %d", most, n)
	}
	return nil
}

func stringArg(call *hook.Call, i int, name string) (string, error) {
	s, ok := call.Args[i].(string)
	if !ok {
		return "", argumentError(call, "argument %d (%s) must be a string, got %T", i, name, call.Args[i])
	}
	return s, nil
}
