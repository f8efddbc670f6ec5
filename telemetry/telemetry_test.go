package telemetry

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMetricsEndpointServesExpectedSeries(t *testing.T) {
	tel := New("127.0.0.1:0")
	tel.Listen = "127.0.0.1:19234"
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := tel.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer tel.Stop()

	tel.ObserveFrameTime(16 * time.Millisecond)
	tel.IncErrors()
	tel.IncSeedsDropped(3)
	tel.SetObjectCount("world", 5)

	time.Sleep(50 * time.Millisecond)
	resp, err := http.Get("http://127.0.0.1:19234/metrics")
	if err != nil {
		t.Fatalf("get /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	for _, want := range []string{"splash_frame_time_ms", "splash_root_errors_total", "splash_seeds_dropped_total", "splash_registered_objects"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected metrics output to mention %q", want)
		}
	}
}
