package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultRequestTimeout = 10 * time.Second

type ServerConfig struct {
	RequestTimeout time.Duration
}

// NewServer builds the tool gateway: four market-data tools plus receiving
// middleware for timeouts, tracing, and the uniform text error envelope.
func NewServer(tracer trace.Tracer, market MarketReader, cfg ServerConfig) *sdkmcp.Server {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "binance-market-mcp",
		Version: "1.0.0",
	}, &sdkmcp.ServerOptions{
		Instructions: "Use these tools to query Binance spot market data: current prices, 24hr ticker statistics, candlestick series, and historical price trends.",
		Logger:       slog.Default(),
	})

	srv.AddReceivingMiddleware(timeoutMiddleware(requestTimeout))
	if tracer != nil {
		srv.AddReceivingMiddleware(tracingMiddleware(tracer))
	}
	srv.AddReceivingMiddleware(errorEnvelopeMiddleware(toolNames()))

	registerTools(srv, market)
	return srv
}

func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})
	return hardenHTTPHandler(base, cfg)
}

// errorEnvelopeMiddleware implements the gateway failure contract: unknown
// tool names, absent arguments, and any error escaping a handler all become
// successful replies whose text begins with "Error:". No invocation can fail
// at the transport level and none can crash the server.
func errorEnvelopeMiddleware(tools []string) sdkmcp.Middleware {
	known := make(map[string]struct{}, len(tools))
	for _, name := range tools {
		known[name] = struct{}{}
	}

	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}
			callReq, ok := req.(*sdkmcp.CallToolRequest)
			if !ok {
				return next(ctx, method, req)
			}

			name := strings.TrimSpace(callReq.Params.Name)
			if _, registered := known[name]; !registered {
				return errorTextResult("Unknown tool: " + name), nil
			}
			if argumentsMissing(callReq.Params.Arguments) {
				return errorTextResult("Missing arguments"), nil
			}

			result, err := safeDispatch(ctx, next, method, req)
			if err != nil {
				return errorTextResult(err.Error()), nil
			}
			if callRes, ok := result.(*sdkmcp.CallToolResult); ok && callRes.IsError {
				return errorTextResult(resultText(callRes)), nil
			}
			return result, nil
		}
	}
}

// safeDispatch shields the transport from handler panics: a panicking
// invocation surfaces as an error result like any other failure instead of
// killing the process.
func safeDispatch(ctx context.Context, next sdkmcp.MethodHandler, method string, req sdkmcp.Request) (result sdkmcp.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return next(ctx, method, req)
}

func errorTextResult(message string) *sdkmcp.CallToolResult {
	return textResult("Error: " + message)
}

func resultText(result *sdkmcp.CallToolResult) string {
	parts := make([]string, 0, len(result.Content))
	for _, content := range result.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func timeoutMiddleware(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if timeout <= 0 {
				return next(ctx, method, req)
			}
			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(timeoutCtx, method, req)
		}
	}
}

func tracingMiddleware(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, span := tracer.Start(ctx, mcpSpanName(method, req))
			span.SetAttributes(attribute.String("mcp.method", method))
			defer span.End()

			if callReq, ok := req.(*sdkmcp.CallToolRequest); ok {
				span.SetAttributes(attribute.String("mcp.tool", strings.TrimSpace(callReq.Params.Name)))
			}

			result, err := next(ctx, method, req)
			if err != nil {
				span.RecordError(err)
			}
			return result, err
		}
	}
}

func mcpSpanName(method string, req sdkmcp.Request) string {
	if method == "tools/call" {
		if callReq, ok := req.(*sdkmcp.CallToolRequest); ok {
			name := strings.TrimSpace(callReq.Params.Name)
			if name != "" {
				return "mcp.tool." + name
			}
		}
		return "mcp.tool.call"
	}
	return "mcp." + strings.ReplaceAll(method, "/", ".")
}
