// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package chartapi exposes a chartcontroller.Controller over HTTP: a
// small gorilla/mux router for adjusting the visible window, and a
// server-sent-events stream (SSEHub) that implements
// chartcontroller.UI and pushes every render to whichever browser tabs
// are currently subscribed.
package chartapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/ClusterCockpit/cc-chartcore/pkg/chartschema"
	"github.com/ClusterCockpit/cc-chartcore/pkg/log"
)

// SSEHub implements chartcontroller.UI by fanning every render out to all
// currently connected server-sent-events clients. The zero value is ready
// to use.
type SSEHub struct {
	mu      sync.Mutex
	clients map[chan []chartschema.Float]struct{}
}

// NewSSEHub returns an empty SSEHub.
func NewSSEHub() *SSEHub {
	return &SSEHub{clients: map[chan []chartschema.Float]struct{}{}}
}

// SetChartData implements chartcontroller.UI: it fans data out to every
// connected client, dropping it for any client whose buffer is still full
// (a slow reader should not stall the renders for everyone else).
func (h *SSEHub) SetChartData(data []chartschema.Float) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- data:
		default:
			log.Warn("chartapi: SSE client too slow, dropping a render")
		}
	}
}

// subscribe registers a new client channel and returns an unsubscribe func.
func (h *SSEHub) subscribe() (chan []chartschema.Float, func()) {
	ch := make(chan []chartschema.Float, 4)
	h.mu.Lock()
	if h.clients == nil {
		h.clients = map[chan []chartschema.Float]struct{}{}
	}
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
		close(ch)
	}
}

// ServeHTTP streams every subsequent render to the client as a
// server-sent "data" event carrying a JSON array, until the client
// disconnects or the request context is cancelled.
func (h *SSEHub) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	flusher, ok := rw.(http.Flusher)
	if !ok {
		http.Error(rw, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")

	ch, unsubscribe := h.subscribe()
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(data)
			if err != nil {
				log.Errorf("chartapi: encoding SSE payload failed: %s", err.Error())
				continue
			}
			if _, err := rw.Write([]byte("data: ")); err != nil {
				return
			}
			if _, err := rw.Write(payload); err != nil {
				return
			}
			if _, err := rw.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
