// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package chartcontroller wires a UI and a Backend together through a
// pkg/chartcache.ChartCache: it renders the chart from whatever is already
// cached, requests whatever is missing, and re-renders as replies arrive -
// without ever letting a stale reply clobber a newer window.
package chartcontroller

import (
	"context"
	"errors"
	"sync"

	"github.com/ClusterCockpit/cc-chartcore/internal/chartmetrics"
	"github.com/ClusterCockpit/cc-chartcore/pkg/chartcache"
	"github.com/ClusterCockpit/cc-chartcore/pkg/chartschema"
	"github.com/ClusterCockpit/cc-chartcore/pkg/chartutil"
	"github.com/ClusterCockpit/cc-chartcore/pkg/log"
)

// UI receives chart redraws. SetChartData is called every time the
// controller has something new to show, including the very first,
// all-filler render performed during Create.
type UI interface {
	SetChartData(data []chartschema.Float)
}

// Backend dispatches temperature data requests asynchronously: Request
// should return as soon as the request has been sent, without blocking
// until data arrives. The reply arrives later via Controller.Receive,
// called from whatever goroutine the Backend implementation uses (e.g. a
// subscription callback).
type Backend interface {
	Request(ctx context.Context, start, end int64, resolution chartschema.Resolution) error
}

// tid is a task id: a monotonically increasing counter identifying one
// "the UI asked for a new window" event, used to detect and drop stale
// backend replies (see Receive).
type tid uint64

// backendReqKey identifies one in-flight backend request.
type backendReqKey struct {
	start, end int64
	resolution chartschema.Resolution
}

// uiReq records the window a given tid asked the UI to display.
type uiReq struct {
	start, end int64
	resolution chartschema.Resolution
}

// Controller keeps a chart's visible window in sync with a ChartCache,
// requesting from a Backend whatever the cache can't already answer.
//
// All time values are epoch seconds. A Controller has a single owner and
// is safe for concurrent use only through its own mutex: methods that
// mutate state (SetStart, SetEnd, Receive) take it for their full
// duration, matching how the original single-threaded implementation
// serialized these operations.
type Controller struct {
	mu sync.Mutex

	ui      UI
	backend Backend
	cache   *chartcache.ChartCache

	start, end int64

	curTid      tid
	backendReqs map[backendReqKey]tid
	uiReqs      map[tid]uiReq
}

// Create builds a Controller for the window [start, end), performs the
// initial all-filler render, and dispatches the backend request(s) needed
// to fill it in. start and end are assumed aligned to
// chartutil.ResolutionFor(end-start), as guaranteed by the caller (see
// SPEC_FULL.md §3). A nil cache starts the controller with an empty one.
func Create(ctx context.Context, ui UI, backend Backend, start, end int64, cache *chartcache.ChartCache) (*Controller, error) {
	if cache == nil {
		cache = chartcache.New()
	}
	c := &Controller{
		ui:          ui,
		backend:     backend,
		cache:       cache,
		start:       start,
		end:         end,
		backendReqs: map[backendReqKey]tid{},
		uiReqs:      map[tid]uiReq{},
	}

	resolution, err := chartutil.ResolutionFor(end - start)
	if err != nil {
		return nil, err
	}

	n, err := chartutil.NumDatapoints(end-start, resolution)
	if err != nil {
		return nil, err
	}
	c.respondUI(filler(n), start, end, resolution)

	if err := c.requestData(ctx, start, end, resolution); err != nil {
		return nil, err
	}
	c.curTid++
	return c, nil
}

// Start returns the controller's current window start.
func (c *Controller) Start() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start
}

// End returns the controller's current window end.
func (c *Controller) End() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.end
}

// CacheStats samples the cache for observability, also updating the
// chartmetrics gauges. Intended to be called periodically, e.g. from a
// scheduled job in cmd/cc-chartd.
func (c *Controller) CacheStats() chartcache.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.cache.Stats()
	chartmetrics.CacheIntervals.Set(float64(s.Intervals))
	if s.Intervals > 0 {
		chartmetrics.CacheFinestResolutionSeconds.Set(float64(s.FinestRes))
	}
	return s
}

// SetStart moves the window's start boundary, rendering immediately from
// the cache and the backend only for whatever portion is missing.
func (c *Controller) SetStart(ctx context.Context, newStart int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if newStart == c.start {
		return nil
	}

	resolution, err := chartutil.ResolutionFor(absI64(newStart - c.end))
	if err != nil {
		return err
	}

	missing, err := c.cache.MissingRanges(newStart, c.end, resolution)
	if err != nil {
		return err
	}

	if len(missing) == 0 {
		data, err := c.cache.Query(newStart, c.end, resolution)
		if err != nil {
			return err
		}
		c.respondUI(data, newStart, c.end, resolution)
	} else {
		fillerLen, err := chartutil.NumDatapoints(maxI64(c.start-newStart, 0), resolution)
		if err != nil {
			return err
		}
		fromCache, err := c.cache.Query(maxI64(c.start, newStart), c.end, resolution)
		if err != nil && !errors.Is(err, chartcache.ErrQueryNotCovered) {
			return err
		}
		// A multi-gap cache can leave this sub-range only partially
		// covered; render plain filler rather than a partial, misleading
		// series, and let the backend replies fill it in via Receive.
		if err != nil {
			n, err := chartutil.NumDatapoints(c.end-maxI64(c.start, newStart), resolution)
			if err != nil {
				return err
			}
			fromCache = filler(n)
		}
		rendered := append(filler(fillerLen), fromCache...)
		c.respondUI(rendered, newStart, c.end, resolution)

		for _, m := range missing {
			if err := c.requestData(ctx, m.Start, m.End, resolution); err != nil {
				return err
			}
		}
	}

	c.start = newStart
	c.curTid++
	return nil
}

// SetEnd moves the window's end boundary, rendering immediately from the
// cache and the backend only for whatever portion is missing.
func (c *Controller) SetEnd(ctx context.Context, newEnd int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if newEnd == c.end {
		return nil
	}

	resolution, err := chartutil.ResolutionFor(absI64(newEnd - c.start))
	if err != nil {
		return err
	}

	missing, err := c.cache.MissingRanges(c.start, newEnd, resolution)
	if err != nil {
		return err
	}

	if len(missing) == 0 {
		data, err := c.cache.Query(c.start, newEnd, resolution)
		if err != nil {
			return err
		}
		c.respondUI(data, c.start, newEnd, resolution)
	} else {
		fillerLen, err := chartutil.NumDatapoints(maxI64(newEnd-c.end, 0), resolution)
		if err != nil {
			return err
		}
		fromCache, err := c.cache.Query(c.start, minI64(c.end, newEnd), resolution)
		if err != nil && !errors.Is(err, chartcache.ErrQueryNotCovered) {
			return err
		}
		if err != nil {
			n, err := chartutil.NumDatapoints(minI64(c.end, newEnd)-c.start, resolution)
			if err != nil {
				return err
			}
			fromCache = filler(n)
		}
		rendered := append(append([]chartschema.Float{}, fromCache...), filler(fillerLen)...)
		c.respondUI(rendered, c.start, newEnd, resolution)

		for _, m := range missing {
			if err := c.requestData(ctx, m.Start, m.End, resolution); err != nil {
				return err
			}
		}
	}

	c.end = newEnd
	c.curTid++
	return nil
}

// Receive merges a backend reply into the cache and, if it isn't stale,
// re-renders the UI. A reply is stale when the controller has already
// moved on to a newer window request (curTid > dataTid+1): the data is
// still merged into the cache for future use, but the render is skipped so
// a slow reply can't flash outdated content over a window the user has
// already scrolled past.
//
// A reply for a request the controller has no record of is silently
// dropped (logged, not returned as an error): it cannot be attributed to
// any tid, so there is nothing correct to render or merge against.
func (c *Controller) Receive(start, end int64, resolution chartschema.Resolution, data []chartschema.Float) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dataTid, ok := c.backendReqs[backendReqKey{start, end, resolution}]
	if !ok {
		log.Warnf("chartcontroller: dropping reply for an untracked request [%d,%d)@%d", start, end, resolution)
		return nil
	}

	if err := c.cache.Merge(start, end, resolution, data); err != nil {
		return err
	}

	if c.curTid <= dataTid+1 {
		req, ok := c.uiReqs[dataTid]
		if !ok {
			log.Warnf("chartcontroller: dropping reply for tid %d, no recorded ui request", dataTid)
			return nil
		}
		rendered, err := c.cache.Query(req.start, req.end, req.resolution)
		switch {
		case err == nil:
			c.respondUI(rendered, req.start, req.end, req.resolution)
		case errors.Is(err, chartcache.ErrQueryNotCovered):
			// One of several outstanding requests for this tid; the
			// window isn't fully renderable yet, a later reply will be.
			log.Debugf("chartcontroller: tid %d not fully covered yet, deferring render", dataTid)
		default:
			return err
		}
	} else {
		chartmetrics.StaleRepliesDroppedTotal.Inc()
		log.Debugf("chartcontroller: absorbing reply for tid %d (cur %d), not rendering", dataTid, c.curTid)
	}
	return nil
}

// respondUI records what window curTid renders and pushes data to the UI.
// Callers must hold c.mu.
func (c *Controller) respondUI(data []chartschema.Float, start, end int64, resolution chartschema.Resolution) {
	c.uiReqs[c.curTid] = uiReq{start: start, end: end, resolution: resolution}
	c.ui.SetChartData(data)
	chartmetrics.RendersTotal.Inc()
}

// requestData records the in-flight request under curTid and dispatches
// it to the backend. Callers must hold c.mu.
func (c *Controller) requestData(ctx context.Context, start, end int64, resolution chartschema.Resolution) error {
	c.backendReqs[backendReqKey{start, end, resolution}] = c.curTid
	chartmetrics.BackendRequestsTotal.Inc()
	return c.backend.Request(ctx, start, end, resolution)
}

// filler returns n NaN samples, rendered while real data is in flight.
func filler(n int) []chartschema.Float {
	out := make([]chartschema.Float, n)
	for i := range out {
		out[i] = chartschema.NaN
	}
	return out
}

func absI64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
