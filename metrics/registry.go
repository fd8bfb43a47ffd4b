// Copyright 2018 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package metrics

import "github.com/prometheus/client_golang/prometheus"

// GlobalRegistry is a process-wide Prometheus registry for hosts that don't
// want to manage their own. The pluginscan CLI harness uses it.
var GlobalRegistry *prometheus.Registry

func init() {
	ResetGlobalRegistry()
}

// ResetGlobalRegistry resets GlobalRegistry to a fresh, empty registry.
// Exists mainly so tests that construct multiple ScanMetrics don't collide
// on duplicate collector registration.
func ResetGlobalRegistry() {
	GlobalRegistry = prometheus.NewRegistry()
}
