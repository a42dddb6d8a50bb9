// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package chartbackend provides chartcontroller.Backend implementations: a
// MockBackend for development and tests (grounded on
// original_source/backend.py's MockBackend), and a NATSBackend for
// production deployments over github.com/nats-io/nats.go request/reply.
package chartbackend

import (
	"context"
	"sync"
	"time"

	"github.com/ClusterCockpit/cc-chartcore/pkg/chartschema"
	"github.com/ClusterCockpit/cc-chartcore/pkg/chartutil"
	"github.com/ClusterCockpit/cc-chartcore/pkg/log"
)

// Receiver is satisfied by *chartcontroller.Controller. It is declared here
// rather than imported to avoid a dependency cycle: chartcontroller depends
// on nothing in this package, backends depend on chartcontroller only
// through this narrow interface.
type Receiver interface {
	Receive(start, end int64, resolution chartschema.Resolution, data []chartschema.Float) error
}

// Generator produces synthetic temperature samples for a request. The
// default generator returns all-zero series.
type Generator func(start, end int64, resolution chartschema.Resolution) []chartschema.Float

// MockBackend issues every request against an in-process Generator instead
// of a remote service. Service calls are guaranteed to succeed; replies are
// delivered to Receiver.Receive from a background goroutine after an
// optional simulated Delay, mirroring how a real network round-trip would
// complete after Request has already returned.
type MockBackend struct {
	mu       sync.Mutex
	receiver Receiver
	Generate Generator
	Delay    time.Duration

	lastStart, lastEnd int64
	lastResolution     chartschema.Resolution
	hasLast            bool
}

// NewMockBackend returns a MockBackend that delivers replies to receiver.
func NewMockBackend(receiver Receiver) *MockBackend {
	return &MockBackend{receiver: receiver, Generate: zeroes}
}

// Request records the request and schedules a reply. It never blocks.
func (b *MockBackend) Request(ctx context.Context, start, end int64, resolution chartschema.Resolution) error {
	b.mu.Lock()
	b.lastStart, b.lastEnd, b.lastResolution, b.hasLast = start, end, resolution, true
	generate := b.Generate
	delay := b.Delay
	b.mu.Unlock()

	go func() {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
		data := generate(start, end, resolution)
		if err := b.receiver.Receive(start, end, resolution, data); err != nil {
			log.Errorf("chartbackend: mock reply for [%d,%d)@%d was rejected: %s", start, end, resolution, err.Error())
		}
	}()
	return nil
}

// LastRequest returns the most recently requested range, for tests that
// need to inspect what a controller asked for.
func (b *MockBackend) LastRequest() (start, end int64, resolution chartschema.Resolution, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastStart, b.lastEnd, b.lastResolution, b.hasLast
}

func zeroes(start, end int64, resolution chartschema.Resolution) []chartschema.Float {
	n, err := chartutil.NumDatapoints(end-start, resolution)
	if err != nil {
		return nil
	}
	return make([]chartschema.Float, n)
}
