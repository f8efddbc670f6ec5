// Splash
// Copyright (C) 2013-2024+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package telemetry exposes a World or Scene's per-frame timing,
// buffer-staging latency, and Root error counts as Prometheus metrics.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultListen is the default bind address for the telemetry HTTP
// endpoint, mirroring the teacher's convention of a fixed loopback
// default a deployment can override.
const DefaultListen = "127.0.0.1:9234"

// Telemetry owns the registered Prometheus collectors for one Root
// (World or Scene) and the HTTP server exposing them at /metrics.
type Telemetry struct {
	Listen string

	registry *prometheus.Registry

	frameTime        prometheus.Histogram
	stageLatency     prometheus.Histogram
	errorCount       prometheus.Counter
	objectGauge      *prometheus.GaugeVec
	seedsDropped     prometheus.Counter

	server *http.Server
}

// New builds and registers a Telemetry's collectors. Call Start to begin
// serving /metrics.
func New(listen string) *Telemetry {
	if listen == "" {
		listen = DefaultListen
	}
	t := &Telemetry{
		Listen:   listen,
		registry: prometheus.NewRegistry(),
		frameTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "splash_frame_time_ms",
			Help: "Render loop frame duration in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		stageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "splash_buffer_stage_latency_ms",
			Help: "Time from StageSerialized call to deserialize completion, in milliseconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		errorCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "splash_root_errors_total",
			Help: "Count of errors latched onto a Root via LatchError.",
		}),
		objectGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "splash_registered_objects",
			Help: "Number of Objects currently registered with a Root.",
		}, []string{"root"}),
		seedsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "splash_seeds_dropped_total",
			Help: "Count of Tree seeds dropped for carrying a stale timestamp.",
		}),
	}
	t.registry.MustRegister(t.frameTime, t.stageLatency, t.errorCount, t.objectGauge, t.seedsDropped)
	return t
}

// ObserveFrameTime records one render loop frame's duration.
func (t *Telemetry) ObserveFrameTime(d time.Duration) {
	t.frameTime.Observe(float64(d.Milliseconds()))
}

// ObserveStageLatency records one BufferObject deserialize's latency.
func (t *Telemetry) ObserveStageLatency(d time.Duration) {
	t.stageLatency.Observe(float64(d.Milliseconds()))
}

// IncErrors increments the latched-error counter.
func (t *Telemetry) IncErrors() { t.errorCount.Inc() }

// IncSeedsDropped increments the stale-seed-drop counter by n.
func (t *Telemetry) IncSeedsDropped(n int) {
	if n > 0 {
		t.seedsDropped.Add(float64(n))
	}
}

// SetObjectCount records how many Objects are currently registered with
// the Root labeled rootName.
func (t *Telemetry) SetObjectCount(rootName string, n int) {
	t.objectGauge.WithLabelValues(rootName).Set(float64(n))
}

// Start begins serving /metrics in the background. It returns immediately;
// call Stop (or cancel ctx) to shut the server down.
func (t *Telemetry) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{}))
	t.server = &http.Server{Addr: t.Listen, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- t.server.ListenAndServe() }()

	go func() {
		<-ctx.Done()
		_ = t.Stop()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-time.After(50 * time.Millisecond):
		return nil // server is up and serving; ListenAndServe blocks until Stop
	}
}

// Stop shuts down the telemetry HTTP server.
func (t *Telemetry) Stop() error {
	if t.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.server.Shutdown(ctx)
}
