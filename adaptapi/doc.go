// Package adaptapi provides HTTP middleware that serves frozen API versions
// from a single "latest" handler.
//
// Each versioned path is bound to an ordered chain of adapters. A request to a
// versioned path has its JSON body upgraded step by step to the latest shape
// and is forwarded to the canonical path; the response is downgraded through
// the same steps in reverse before it reaches the caller. Paths that are not
// versioned pass through untouched.
//
// # Basic Usage
//
//	pipeline := adaptapi.NewBuilder().
//		RegisterFuncs("add_user_field",
//			adaptapi.SetField("source", "v1"),
//			adaptapi.KeepFields("message")).
//		AddVersion("/api/latest/greet", "v1", "add_user_field").
//		MustBuild()
//
//	http.ListenAndServe(":8080", pipeline.Handler(mux))
//
// # Configuration
//
// The version table can be declared in YAML, JSON or TOML and resolved against
// a Registry of adapters at startup:
//
//	apis:
//	  /api/latest/greet:
//	    v1: [add_user_field]
//
// The "latest" path segment of every template is replaced by each version id.
// Resolution failures are reported as *ConfigError and should stop the
// process before it serves traffic. LoadPyProjectConfig reads the same table
// from the [tool.adaptapi] section of a pyproject.toml.
//
// # Ordering
//
// For a chain [S1, S2, S3] upgrades run S1, S2, S3 and downgrades run S3, S2,
// S1. Whether a round trip is lossless depends only on each adapter's pair
// being mutually inverse.
//
// # Failures
//
// A request body that is not JSON, an empty one included, yields 400, a
// failing or panicking upgrade 422 and an oversized body 413; the latest
// handler is not invoked. A failing downgrade yields 500. Nothing is retried.
//
// # gRPC Integration
//
// When the latest handler is a grpc-gateway mux, CreateGatewayMux forwards the
// caller version as gRPC metadata and the interceptors expose it through
// VersionFromContext:
//
//	grpcServer := grpc.NewServer(
//		grpc.UnaryInterceptor(pipeline.UnaryServerInterceptor()),
//		grpc.StreamInterceptor(pipeline.StreamServerInterceptor()),
//	)
package adaptapi
