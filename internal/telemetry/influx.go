// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package telemetry

import (
	"context"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxExporter writes per-parse field-hit samples as InfluxDB line
// protocol points, for deployments running a fleet-wide UA analytics
// pipeline alongside (or instead of) Prometheus scraping. It is optional:
// a nil *InfluxExporter is safe to call Record on and simply does nothing.
type InfluxExporter struct {
	client influxdb2.Client
	write  api.WriteAPI
	org    string
	bucket string
	logger *slog.Logger
}

// NewInfluxExporter opens a non-blocking write client against an InfluxDB
// server. The returned exporter owns the client and must be closed with
// Close.
func NewInfluxExporter(serverURL, token, org, bucket string, logger *slog.Logger) *InfluxExporter {
	if logger == nil {
		logger = slog.Default()
	}
	client := influxdb2.NewClient(serverURL, token)
	return &InfluxExporter{
		client: client,
		write:  client.WriteAPI(org, bucket),
		org:    org,
		bucket: bucket,
		logger: logger,
	}
}

// Record writes one sample: which rule won a field and how long the parse
// that produced it took. Fire-and-forget — InfluxDB write errors surface
// asynchronously on the client's error channel; Close logs at most one
// error still pending there, matching the exporter's role as an optional side channel rather
// than a correctness dependency.
func (e *InfluxExporter) Record(ctx context.Context, agentName, fieldName, ruleID string, duration time.Duration) {
	if e == nil {
		return
	}
	p := influxdb2.NewPoint(
		"uaparse_field",
		map[string]string{
			"field":   fieldName,
			"rule_id": ruleID,
		},
		map[string]interface{}{
			"agent_name":  agentName,
			"duration_ns": duration.Nanoseconds(),
		},
		time.Now(),
	)
	e.write.WritePoint(p)
}

// Close flushes any buffered points and releases the client.
func (e *InfluxExporter) Close() {
	if e == nil {
		return
	}
	errCh := e.write.Errors()
	e.write.Flush()
	e.client.Close()
	select {
	case err := <-errCh:
		if err != nil {
			e.logger.Warn("telemetry: influx write error during close", "error", err)
		}
	default:
	}
}
