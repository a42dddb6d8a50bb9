// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package chartbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ClusterCockpit/cc-chartcore/pkg/chartschema"
	"github.com/ClusterCockpit/cc-chartcore/pkg/log"
)

// wireRequest is the payload published on the request subject.
type wireRequest struct {
	Start      int64 `json:"start"`
	End        int64 `json:"end"`
	Resolution int64 `json:"resolution"`
}

// wireReply is the payload expected on the reply.
type wireReply struct {
	Start      int64              `json:"start"`
	End        int64              `json:"end"`
	Resolution int64              `json:"resolution"`
	Data       []chartschema.Float `json:"data"`
}

// Connect dials a NATS server at address, installing disconnect/reconnect/
// error handlers in the same terse style as pkg/nats/client.go.
func Connect(address string) (*nats.Conn, error) {
	conn, err := nats.Connect(address,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("chartbackend: NATS disconnected: %s", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("chartbackend: NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Errorf("chartbackend: NATS error: %s", err.Error())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chartbackend: NATS connect to %s failed: %w", address, err)
	}
	return conn, nil
}

// NATSBackend requests temperature data over NATS request/reply. It
// implements chartcontroller.Backend: Request dispatches the round-trip on
// its own goroutine and returns immediately, delivering the decoded reply
// to Receiver.Receive once it arrives.
type NATSBackend struct {
	conn     *nats.Conn
	subject  string
	timeout  time.Duration
	receiver Receiver
}

// NewNATSBackend returns a NATSBackend that publishes requests to subject
// on conn, waiting up to timeout for each reply.
func NewNATSBackend(conn *nats.Conn, subject string, timeout time.Duration, receiver Receiver) *NATSBackend {
	return &NATSBackend{conn: conn, subject: subject, timeout: timeout, receiver: receiver}
}

// Request publishes a temperature data request and, on a background
// goroutine, waits for and processes the reply.
func (b *NATSBackend) Request(ctx context.Context, start, end int64, resolution chartschema.Resolution) error {
	payload, err := json.Marshal(wireRequest{Start: start, End: end, Resolution: int64(resolution)})
	if err != nil {
		return fmt.Errorf("chartbackend: encoding request failed: %w", err)
	}

	go func() {
		reqCtx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		msg, err := b.conn.RequestWithContext(reqCtx, b.subject, payload)
		if err != nil {
			log.Errorf("chartbackend: NATS request [%d,%d)@%d failed: %s", start, end, resolution, err.Error())
			return
		}

		var reply wireReply
		if err := json.Unmarshal(msg.Data, &reply); err != nil {
			log.Errorf("chartbackend: decoding reply for [%d,%d)@%d failed: %s", start, end, resolution, err.Error())
			return
		}

		if err := b.receiver.Receive(reply.Start, reply.End, chartschema.Resolution(reply.Resolution), reply.Data); err != nil {
			log.Errorf("chartbackend: reply for [%d,%d)@%d was rejected: %s", reply.Start, reply.End, reply.Resolution, err.Error())
		}
	}()
	return nil
}
