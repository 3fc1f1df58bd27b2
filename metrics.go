package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// This file defines the Prometheus metrics that are exposed by the application.

// httpRequestsTotal tracks the total number of HTTP requests, partitioned
// by the request's URL path, HTTP method, and the resulting status code.
var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "prayertimes_http_requests_total",
	Help: "Total number of HTTP requests by path, method and code.",
}, []string{"path", "method", "code"})

// fetchesTotal counts fetch cycles by outcome: "fetched", "cached"
// (remote failed, snapshot served from cache) or "nodata".
var fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "prayertimes_fetches_total",
	Help: "Total number of timings fetch cycles by result.",
}, []string{"result"})

// notificationsTotal counts fired notifications by kind ("ontime", "reminder").
var notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "prayertimes_notifications_total",
	Help: "Total number of notifications fired by kind.",
}, []string{"kind"})
