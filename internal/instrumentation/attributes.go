package instrumentation

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
)

// Span attribute keys.
const (
	CodeFunction  = attribute.Key("code.function")
	CodeNamespace = attribute.Key("code.namespace")
	CodeFilepath  = attribute.Key("code.filepath")
	CodeLineno    = attribute.Key("code.lineno")

	DBSystem    = attribute.Key("db.system")
	DBStatement = attribute.Key("db.statement")
	DBVariables = attribute.Key("db.variables")

	HTTPRequestMethod         = attribute.Key("http.request.method")
	HTTPResponseStatusCode    = attribute.Key("http.response.status_code")
	HTTPResponseContentLength = attribute.Key("http.response_content_length")
	HTTPRequestContentLength  = attribute.Key("http.request_content_length")
	HTTPURL                   = attribute.Key("http.url")
	HTTPScheme                = attribute.Key("http.scheme")
	HTTPRoute                 = attribute.Key("http.route")
	URLFull                   = attribute.Key("url.full")

	RPCSystem         = attribute.Key("rpc.system")
	RPCService        = attribute.Key("rpc.service")
	RPCMethod         = attribute.Key("rpc.method")
	RPCGRPCStatusCode = attribute.Key("rpc.grpc.status_code")
)

func codeAttributes(call *hook.Call) []attribute.KeyValue {
	return []attribute.KeyValue{
		CodeFunction.String(call.Function),
		CodeNamespace.String(call.Class),
		CodeFilepath.String(call.File),
		CodeLineno.Int(call.Line),
	}
}

func stringSlice(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case nil:
			out[i] = "NULL"
		case []byte:
			out[i] = string(x)
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}
