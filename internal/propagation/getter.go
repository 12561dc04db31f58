package propagation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/kernel"
)

var ErrUnsupportedCarrierType = errors.New("unsupported carrier type")

// UnsupportedCarrierTypeError reports a carrier of an unrecognized shape.
// Lookup is set when a key lookup was attempted on a generic key/value
// container.
type UnsupportedCarrierTypeError struct {
	Type   string
	Key    string
	Lookup bool
}

func (e *UnsupportedCarrierTypeError) Error() string {
	msg := "unsupported carrier type: " + e.Type
	if e.Lookup {
		msg += ": unable to get value associated with key: " + e.Key
	}
	return msg
}

func (e *UnsupportedCarrierTypeError) Is(target error) bool {
	return target == ErrUnsupportedCarrierType
}

var requestKeys = []string{"content-length", "host", "method", "path", "scheme"}

// RequestGetter reads propagation fields from a *kernel.Request.
type RequestGetter struct{}

// Keys returns the fixed key set for a request carrier.
func (RequestGetter) Keys(carrier any) ([]string, error) {
	if _, err := asRequest(carrier); err != nil {
		return nil, err
	}
	keys := make([]string, len(requestKeys))
	copy(keys, requestKeys)
	return keys, nil
}

// Get resolves key against the request's server bag. A missing field
// reports ok == false.
func (RequestGetter) Get(carrier any, key string) (string, bool, error) {
	req, err := asRequest(carrier)
	if err != nil {
		if carrier != nil && reflect.TypeOf(carrier).Kind() == reflect.Map {
			err.Key = key
			err.Lookup = true
		}
		return "", false, err
	}

	switch strings.ToLower(key) {
	case "content-length":
		return field(req.Server, "HTTP_CONTENT_LENGTH")
	case "host":
		return field(req.Server, "HTTP_HOST")
	case "method":
		return field(req.Server, "HTTP_METHOD", "REQUEST_METHOD")
	case "path":
		return field(req.Server, "HTTP_PATH", "REQUEST_URI")
	case "scheme":
		scheme, ok := req.Scheme()
		return scheme, ok, nil
	default:
		return field(req.Server, kernel.HeaderField(key))
	}
}

func asRequest(carrier any) (*kernel.Request, *UnsupportedCarrierTypeError) {
	req, ok := carrier.(*kernel.Request)
	if !ok || req == nil {
		return nil, &UnsupportedCarrierTypeError{Type: fmt.Sprintf("%T", carrier)}
	}
	return req, nil
}

func field(bag kernel.ServerBag, names ...string) (string, bool, error) {
	for _, name := range names {
		if v, ok := bag.Get(name); ok {
			if s, ok := text(v); ok {
				return s, true, nil
			}
		}
	}
	return "", false, nil
}

func text(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}
