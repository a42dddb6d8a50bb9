// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ClusterCockpit/cc-chartcore/internal/chartapi"
	"github.com/ClusterCockpit/cc-chartcore/internal/chartbackend"
	"github.com/ClusterCockpit/cc-chartcore/internal/chartcontroller"
	"github.com/ClusterCockpit/cc-chartcore/pkg/chartschema"
	"github.com/ClusterCockpit/cc-chartcore/pkg/log"
)

// deferredReceiver forwards backend replies to a Controller that doesn't
// exist yet at the time the backend is constructed: the backend needs a
// Receiver, and Controller.Create needs a constructed Backend, so this
// breaks the cycle. Receive blocks until ready is closed, which happens
// once Create has returned and controller is set.
type deferredReceiver struct {
	controller *chartcontroller.Controller
	ready      chan struct{}
}

func (d *deferredReceiver) Receive(start, end int64, resolution chartschema.Resolution, data []chartschema.Float) error {
	<-d.ready
	return d.controller.Receive(start, end, resolution, data)
}

func main() {
	var (
		flagAddr       string
		flagNatsAddr   string
		flagSubject    string
		flagLogLevel   string
		flagGops       bool
		flagWindowSecs int64
	)
	flag.StringVar(&flagAddr, "addr", ":8090", "Address the HTTP server listens on")
	flag.StringVar(&flagNatsAddr, "nats", "", "NATS server address (e.g. nats://localhost:4222); if empty, an in-process MockBackend is used instead")
	flag.StringVar(&flagSubject, "subject", "chart.temperature.request", "NATS subject to publish temperature data requests on")
	flag.StringVar(&flagLogLevel, "loglevel", "info", "One of debug, info, warn, err")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.Int64Var(&flagWindowSecs, "window", 3600, "Initial chart window length, in seconds")
	flag.Parse()

	log.SetLogLevel(flagLogLevel)

	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	hub := chartapi.NewSSEHub()
	receiver := &deferredReceiver{ready: make(chan struct{})}

	var backend chartcontroller.Backend
	if flagNatsAddr != "" {
		conn, err := chartbackend.Connect(flagNatsAddr)
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()
		backend = chartbackend.NewNATSBackend(conn, flagSubject, 10*time.Second, receiver)
	} else {
		backend = chartbackend.NewMockBackend(receiver)
	}

	controller, err := chartcontroller.Create(context.Background(), hub, backend, 0, flagWindowSecs, nil)
	if err != nil {
		log.Fatal(err)
	}
	receiver.controller = controller
	close(receiver.ready)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("cc-chartd: could not create gocron scheduler: %s", err.Error())
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			stats := controller.CacheStats()
			log.Infof("cc-chartd: cache holds %d interval(s), finest %ds, coarsest %ds",
				stats.Intervals, stats.FinestRes, stats.CoarsestRes)
		}),
	); err != nil {
		log.Fatalf("cc-chartd: could not register cache-stats job: %s", err.Error())
	}
	scheduler.Start()

	router := chartapi.NewRouter(controller, hub)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	server := http.Server{
		Addr:         flagAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", flagAddr)
	if err != nil {
		log.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("cc-chartd: HTTP server listening at %s", flagAddr)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	log.Print("cc-chartd: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	scheduler.Shutdown()
	wg.Wait()
	log.Print("cc-chartd: graceful shutdown completed")
}
