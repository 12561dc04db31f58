package hook

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

var (
	ErrUnavailable    = errors.New("interception capability unavailable")
	ErrInvalidBinding = errors.New("invalid hook binding")
	ErrAlreadyHooked  = errors.New("method already hooked")
	ErrAborted        = errors.New("call aborted by runtime.Goexit")
)

// Call describes one intercepted invocation.
type Call struct {
	Receiver any
	Args     []any
	Class    string
	Function string
	File     string
	Line     int
}

// PreHook runs before the intercepted call. The returned context is the one
// the call and the matching PostHook observe.
type PreHook func(ctx context.Context, call *Call) (context.Context, error)

// PostHook runs after the intercepted call with its outcome.
type PostHook func(ctx context.Context, call *Call, ret any, err error)

// Key identifies an interception target.
type Key struct {
	Class  string
	Method string
}

func (k Key) String() string {
	return k.Class + "::" + k.Method
}

// Binding pairs a target with its hooks.
type Binding struct {
	Key
	Pre  PreHook
	Post PostHook
}

// Stage names the hook phase an error was raised in.
type Stage string

const (
	StagePre  Stage = "pre"
	StagePost Stage = "post"
)

// ErrorHandler receives failures raised by hooks.
type ErrorHandler func(key Key, stage Stage, err error)

// Capability is implemented by anything hooks can be attached to.
type Capability interface {
	Hook(class, method string, pre PreHook, post PostHook) error
}

// PanicError carries a panic raised by an intercepted call to its post-hook.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Registry is an in-process interception capability.
type Registry struct {
	mu       sync.RWMutex
	bindings map[Key]Binding
	onError  ErrorHandler
}

// Option configures a Registry.
type Option func(*Registry)

// WithErrorHandler sets the handler for hook failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Registry) {
		r.onError = h
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{bindings: make(map[Key]Binding)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available reports whether hooks can be attached.
func (r *Registry) Available() bool {
	return r != nil
}

// Hook attaches pre and post to class::method.
func (r *Registry) Hook(class, method string, pre PreHook, post PostHook) error {
	if r == nil {
		return ErrUnavailable
	}
	key := Key{Class: class, Method: method}
	if class == "" || method == "" || pre == nil || post == nil {
		return fmt.Errorf("%w: %s", ErrInvalidBinding, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[key]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyHooked, key)
	}
	r.bindings[key] = Binding{Key: key, Pre: pre, Post: post}
	return nil
}

// Unhook detaches class::method. It reports whether a binding existed.
func (r *Registry) Unhook(class, method string) bool {
	if r == nil {
		return false
	}
	key := Key{Class: class, Method: method}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.bindings[key]
	delete(r.bindings, key)
	return ok
}

// Hooked reports whether class::method has a binding.
func (r *Registry) Hooked(class, method string) bool {
	_, ok := r.lookup(Key{Class: class, Method: method})
	return ok
}

// Keys returns the hooked targets.
func (r *Registry) Keys() []Key {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, 0, len(r.bindings))
	for k := range r.bindings {
		keys = append(keys, k)
	}
	return keys
}

func (r *Registry) lookup(key Key) (Binding, bool) {
	if r == nil {
		return Binding{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[key]
	return b, ok
}

// Invoke runs fn as the body of class::method, surrounded by its hooks.
func (r *Registry) Invoke(ctx context.Context, class, method string, receiver any, args []any, fn func(context.Context) (any, error)) (any, error) {
	return r.invoke(ctx, 2, class, method, receiver, args, fn)
}

// Do is Invoke with a typed result.
func Do[T any](ctx context.Context, r *Registry, class, method string, receiver any, args []any, fn func(context.Context) (T, error)) (T, error) {
	var out T
	_, err := r.invoke(ctx, 2, class, method, receiver, args, func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		out = v
		return v, err
	})
	return out, err
}

func (r *Registry) invoke(ctx context.Context, skip int, class, method string, receiver any, args []any, fn func(context.Context) (any, error)) (ret any, err error) {
	b, ok := r.lookup(Key{Class: class, Method: method})
	if !ok {
		return fn(ctx)
	}

	call := &Call{
		Receiver: receiver,
		Args:     args,
		Class:    class,
		Function: method,
	}
	if _, file, line, ok := runtime.Caller(skip); ok {
		call.File = file
		call.Line = line
	}

	hctx, ok := r.runPre(ctx, b, call)
	if !ok {
		return fn(ctx)
	}

	finished := false
	defer func() {
		if finished {
			return
		}
		p := recover()
		if p == nil {
			r.runPost(hctx, b, call, nil, ErrAborted)
			return
		}
		r.runPost(hctx, b, call, nil, &PanicError{Value: p})
		panic(p)
	}()

	ret, err = fn(hctx)
	finished = true
	r.runPost(hctx, b, call, ret, err)
	return ret, err
}

func (r *Registry) runPre(ctx context.Context, b Binding, call *Call) (hctx context.Context, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.report(b.Key, StagePre, &PanicError{Value: p})
			hctx, ok = ctx, false
		}
	}()

	hctx, err := b.Pre(ctx, call)
	if err != nil {
		r.report(b.Key, StagePre, err)
		return ctx, false
	}
	if hctx == nil {
		hctx = ctx
	}
	return hctx, true
}

func (r *Registry) runPost(ctx context.Context, b Binding, call *Call, ret any, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.report(b.Key, StagePost, &PanicError{Value: p})
		}
	}()

	b.Post(ctx, call, ret, err)
}

func (r *Registry) report(key Key, stage Stage, err error) {
	if r.onError != nil {
		r.onError(key, stage, err)
	}
}
