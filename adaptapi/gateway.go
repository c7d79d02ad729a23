package adaptapi

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// VersionMetadataKey is the gRPC metadata key carrying the caller's API
// version when requests reach a gRPC backend through grpc-gateway.
const VersionMetadataKey = "api-version"

type versionContextKey struct{}

// ContextWithVersion returns a copy of ctx carrying version.
func ContextWithVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, versionContextKey{}, version)
}

// VersionFromContext returns the caller's API version stored by the gRPC
// interceptors. The boolean is false for requests that were not adapted.
func VersionFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(versionContextKey{}).(string)
	return v, ok && v != ""
}

// HeaderMatcher creates a header matcher for grpc-gateway that forwards the
// version header as VersionMetadataKey and defers to the gateway default for
// everything else.
func (p *Pipeline) HeaderMatcher() func(string) (string, bool) {
	header := strings.ToLower(p.versionHeader)

	return func(key string) (string, bool) {
		if header != "" && strings.ToLower(key) == header {
			return VersionMetadataKey, true
		}
		return runtime.DefaultHeaderMatcher(key)
	}
}

// CreateGatewayMux creates a grpc-gateway ServeMux whose gRPC handlers see the
// caller version in metadata. Wrap the result with p.Handler so versioned
// paths are adapted before the gateway routes them.
func CreateGatewayMux(p *Pipeline, opts ...runtime.ServeMuxOption) *runtime.ServeMux {
	// Prepend our options
	allOpts := []runtime.ServeMuxOption{
		runtime.WithIncomingHeaderMatcher(p.HeaderMatcher()),
	}
	allOpts = append(allOpts, opts...)

	return runtime.NewServeMux(allOpts...)
}

// UnaryServerInterceptor creates a gRPC unary server interceptor exposing the
// caller version through VersionFromContext.
func (p *Pipeline) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		return handler(versionContext(ctx), req)
	}
}

// StreamServerInterceptor creates a gRPC stream server interceptor exposing
// the caller version through VersionFromContext.
func (p *Pipeline) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		wrappedStream := &wrappedServerStream{
			ServerStream: ss,
			ctx:          versionContext(ss.Context()),
		}
		return handler(srv, wrappedStream)
	}
}

func versionContext(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	values := md.Get(VersionMetadataKey)
	if len(values) == 0 || values[0] == "" {
		return ctx
	}
	return ContextWithVersion(ctx, values[0])
}

// wrappedServerStream wraps a grpc.ServerStream to provide custom context
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
