// Package request provides the execution pipeline for resilient inter-service
// HTTP calls: deadline propagation, retry/hedge strategies, response
// classification, and a circuit breaker, composed around a pluggable
// transport.
//
// # Quick Start
//
//	client := request.NewClient(
//	    request.WithBaseURL("https://payments.internal"),
//	    request.WithServiceName("checkout"),
//	    request.WithTransport(request.NewNetTransport(nil)),
//	)
//
//	deadline := request.FromTimeout(2 * time.Second)
//	resp, err := client.Send(ctx, request.NewRequest(http.MethodGet, "/orders/{id}").
//	    WithPathParam("id", orderID), deadline, request.Priority(0))
//
// # Deadlines and priorities
//
// A Deadline is an absolute monotonic point in time, not a duration. It is
// split across attempts (sequential strategy) or handed unchanged to
// concurrent attempts (parallel strategy), and it is serialized onto the wire
// as the *remaining* seconds via the X-Request-Deadline-At header, never as
// wall-clock time:
//
//	deadline := request.FromTimeout(5 * time.Second)
//	child := deadline.Split(3, 1.2) // one of three remaining attempts, 20% headroom
//
// Priority is a small opaque integer where lower means higher priority; the
// core never interprets the value beyond propagating it.
//
// # Strategies
//
// Three built-in strategies implement Strategy:
//
//	request.NewSingleAttemptStrategy()
//	request.NewSequentialStrategy(request.SequentialConfig{...})
//	request.NewParallelStrategy(request.ParallelConfig{...})
//
// MethodBasedStrategy dispatches by HTTP method, e.g. parallel hedging for
// GET and single-attempt for POST:
//
//	strategy := request.NewMethodBasedStrategy(
//	    request.NewSingleAttemptStrategy(),
//	).
//	    ForMethod(http.MethodGet, request.NewParallelStrategy(cfg))
//
// # Circuit breaker
//
// CircuitBreaker gates the pipeline per (endpoint, method) using a rolling
// window of fixed-width buckets, matching the Closed/Open/HalfOpen state
// machine from Hystrix-style breakers:
//
//	breaker := request.NewCircuitBreaker(request.DefaultBreakerConfig())
//	client := request.NewClient(request.WithBreaker(breaker))
//
// For multi-instance deployments that need a shared view of breaker state,
// NewDistributedCircuitBreaker backs the same interface with
// sony/gobreaker/v2 and a Redis store.
//
// # Observability
//
// The client emits OpenTelemetry spans by default (safely a no-op without a
// configured provider). Metrics go to the MetricsSink installed with
// WithMetrics or WithOtelMeter; the default sink discards them. Every
// attempt can be logged via zerolog when WithDebug(true) is set.
package request
