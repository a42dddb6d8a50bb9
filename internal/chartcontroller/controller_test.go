// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package chartcontroller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/cc-chartcore/pkg/chartschema"
)

// recordingUI collects every render the controller pushes to it.
type recordingUI struct {
	renders [][]chartschema.Float
}

func (u *recordingUI) SetChartData(data []chartschema.Float) {
	u.renders = append(u.renders, data)
}

func (u *recordingUI) last() []chartschema.Float {
	if len(u.renders) == 0 {
		return nil
	}
	return u.renders[len(u.renders)-1]
}

// request is one call recorded by a recordingBackend.
type request struct {
	start, end int64
	resolution chartschema.Resolution
}

// recordingBackend never replies on its own; tests call Receive directly to
// simulate a reply arriving, matching how a real Backend would invoke
// Controller.Receive from its own goroutine.
type recordingBackend struct {
	reqs []request
}

func (b *recordingBackend) Request(ctx context.Context, start, end int64, resolution chartschema.Resolution) error {
	b.reqs = append(b.reqs, request{start, end, resolution})
	return nil
}

func setup(t *testing.T, start, end int64) (*Controller, *recordingUI, *recordingBackend) {
	ui := &recordingUI{}
	backend := &recordingBackend{}
	c, err := Create(context.Background(), ui, backend, start, end, nil)
	require.NoError(t, err)
	return c, ui, backend
}

// S1: initial creation renders all-filler immediately and requests the
// full window from the backend.
func TestCreateRendersFillerAndRequestsData(t *testing.T) {
	start, end := int64(0), int64(3600)
	_, ui, backend := setup(t, start, end)

	require.Len(t, ui.renders, 1)
	assert.Len(t, ui.last(), 60)
	for _, v := range ui.last() {
		assert.True(t, v.IsNaN())
	}

	require.Len(t, backend.reqs, 1)
	assert.Equal(t, request{start, end, chartschema.ResOneMinute}, backend.reqs[0])
}

// S2/S5: a reply for the outstanding tid merges into the cache and
// re-renders with real data.
func TestReceiveRendersFreshData(t *testing.T) {
	start, end := int64(0), int64(3600)
	c, ui, _ := setup(t, start, end)

	data := make([]chartschema.Float, 60)
	for i := range data {
		data[i] = chartschema.Float(i)
	}
	err := c.Receive(start, end, chartschema.ResOneMinute, data)
	require.NoError(t, err)

	require.Len(t, ui.renders, 2)
	assert.Equal(t, data, ui.last())
}

// S7: a stale reply (superseded by a newer SetStart/SetEnd call) is merged
// into the cache but does not trigger a render.
func TestReceiveStaleReplyIsAbsorbedNotRendered(t *testing.T) {
	start, end := int64(0), int64(3600)
	c, ui, backend := setup(t, start, end)
	initialRenders := len(ui.renders)

	// Move the window twice before the first reply arrives; this advances
	// curTid past dataTid+1 for the original request.
	require.NoError(t, c.SetEnd(context.Background(), 7200))
	require.NoError(t, c.SetEnd(context.Background(), 10800))
	rendersAfterMoves := len(ui.renders)

	firstReq := backend.reqs[0]
	err := c.Receive(firstReq.start, firstReq.end, firstReq.resolution, make([]chartschema.Float, 60))
	require.NoError(t, err)

	assert.Equal(t, rendersAfterMoves, len(ui.renders), "a stale reply must not trigger a render")
	assert.Greater(t, rendersAfterMoves, initialRenders)
}

// S3: a cache fully covering the new window renders directly without any
// new backend request.
func TestSetEndWithinCacheSkipsBackendRequest(t *testing.T) {
	start, end := int64(0), int64(3600)
	c, ui, backend := setup(t, start, end)

	data := make([]chartschema.Float, 60)
	require.NoError(t, c.Receive(start, end, chartschema.ResOneMinute, data))
	reqsBefore := len(backend.reqs)
	rendersBefore := len(ui.renders)

	require.NoError(t, c.SetEnd(context.Background(), 1800))

	assert.Equal(t, reqsBefore, len(backend.reqs), "shrinking the window needs no new data")
	assert.Greater(t, len(ui.renders), rendersBefore)
	assert.Len(t, ui.last(), 30)
}

// Growing the window past the cached range (while staying under the
// two-hour threshold, so the resolution doesn't also change) renders
// cached-data-plus-filler and requests only the missing extension.
func TestSetEndBeyondCacheRendersFillerAndRequestsExtension(t *testing.T) {
	start, end := int64(0), int64(3600)
	c, ui, backend := setup(t, start, end)
	require.NoError(t, c.Receive(start, end, chartschema.ResOneMinute, make([]chartschema.Float, 60)))

	require.NoError(t, c.SetEnd(context.Background(), 5400))

	last := ui.last()
	require.Len(t, last, 90)
	for _, v := range last[60:] {
		assert.True(t, v.IsNaN(), "the extended portion should render as filler until data arrives")
	}

	found := false
	for _, r := range backend.reqs {
		if r.start == 3600 && r.end == 5400 {
			found = true
		}
	}
	assert.True(t, found, "expected a backend request for the newly exposed range")
}

func TestSetStartNoOpWhenUnchanged(t *testing.T) {
	c, ui, backend := setup(t, 0, 3600)
	rendersBefore, reqsBefore := len(ui.renders), len(backend.reqs)

	require.NoError(t, c.SetStart(context.Background(), 0))

	assert.Equal(t, rendersBefore, len(ui.renders))
	assert.Equal(t, reqsBefore, len(backend.reqs))
}

func TestReceiveUntrackedRequestIsSilentlyDropped(t *testing.T) {
	c, ui, _ := setup(t, 0, 3600)
	before := len(ui.renders)
	err := c.Receive(100, 200, chartschema.ResOneMinute, make([]chartschema.Float, 100))
	assert.NoError(t, err)
	assert.Equal(t, before, len(ui.renders), "an untracked reply must not trigger a render")
}

func TestStartEndAccessors(t *testing.T) {
	c, _, _ := setup(t, 10, 20)
	assert.Equal(t, int64(10), c.Start())
	assert.Equal(t, int64(20), c.End())
}
