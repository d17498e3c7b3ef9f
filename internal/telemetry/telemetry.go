// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

// Package telemetry holds the process-wide OpenTelemetry tracer, plus an
// optional InfluxDB line-protocol exporter for deployments that aggregate
// parse statistics outside of Prometheus. The Prometheus metric vars live
// in internal/cache and internal/match, not here.
package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/openfields/uaparse"

var tracer = otel.Tracer(instrumentationName)

// Tracer returns the package-level tracer used by internal/analyzer when
// no WithTelemetry override is supplied.
func Tracer() trace.Tracer { return tracer }
