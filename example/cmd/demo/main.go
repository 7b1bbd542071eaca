// Command demo wires request.Client against a flaky in-process upstream,
// fronted by an httpserver.Deadline-protected handler, to exercise the
// resilience pipeline end to end: deadline propagation in, sequential
// retry out, circuit breaking, and zerolog debug output.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/kroma-labs/resilientreq/httpserver"
	"github.com/kroma-labs/resilientreq/request"
	"github.com/rs/zerolog"
)

func main() {
	upstream := startFlakyUpstream()
	defer upstream.Close()

	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	// Transitions reach logger automatically via WithDebugLogger below --
	// Client wires BreakerConfig's own OnStateChange (left nil here)
	// alongside its DebugLogger and MetricsSink.
	breaker := request.NewCircuitBreaker(request.BreakerConfig{
		BreakDuration:     5 * time.Second,
		SamplingDuration:  2 * time.Second,
		BucketCount:       4,
		MinimumThroughput: 5,
		FailureThreshold:  0.5,
	})

	strategy := request.NewSequentialStrategy(request.SequentialConfig{
		AttemptsCount: 3,
		Delays:        request.LinearDelay(10*time.Millisecond, 10*time.Millisecond),
	})

	client := request.NewClient(
		request.WithBaseURL(upstream.URL),
		request.WithServiceName("orders-upstream"),
		request.WithStrategy(strategy),
		request.WithBreaker(breaker),
		request.WithDebugLogger(logger),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		deadline, ok := request.DeadlineFromContext(r.Context())
		if !ok {
			deadline = request.FromTimeout(2 * time.Second)
		}
		priority := request.PriorityFromContext(r.Context())

		req := request.NewRequest(http.MethodGet, "/orders/{id}").WithPathParam("id", r.PathValue("id"))

		resp, err := client.Send(r.Context(), req, deadline, priority)
		if err != nil {
			httpserver.WriteError(w, http.StatusBadGateway, "upstream call failed",
				httpserver.Error{Field: "upstream", Message: err.Error()})
			return
		}
		defer resp.Release()

		httpserver.WriteSuccess(w, resp.StatusCode, struct {
			UpstreamStatus int `json:"upstream_status"`
		}{UpstreamStatus: resp.StatusCode}, "upstream call completed")
	})

	handler := httpserver.Chain(
		httpserver.Recovery(logger),
		httpserver.RequestID(),
		httpserver.Deadline(),
	)(mux)

	server := &http.Server{Addr: ":8080", Handler: handler}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Println("listening on :8080, try: curl -H 'X-Request-Deadline-At: 2' http://localhost:8080/orders/42")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-sigChan
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}

// startFlakyUpstream returns a test server that fails roughly a third of the
// time, so the demo's retry/breaker configuration has something to react to.
func startFlakyUpstream() *httptest.Server {
	var calls atomic.Int64
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n%3 == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
	}))
}
