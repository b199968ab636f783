// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import "go.opentelemetry.io/otel/metric"

// Metrics holds the decision-path instruments HTTPAPI records against, built
// once from the process-wide OTel MeterProvider. A nil *Metrics (the
// OTel-disabled case) means every call site simply skips recording.
type Metrics struct {
	ActiveEvaluations metric.Int64UpDownCounter
	DecisionDuration   metric.Float64Histogram
	DecisionCount      metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	active, err := meter.Int64UpDownCounter("corint.decisions.active",
		metric.WithDescription("Decisions currently in flight"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("corint.decisions.duration_ms",
		metric.WithDescription("Decision latency in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	count, err := meter.Int64Counter("corint.decisions.count",
		metric.WithDescription("Decisions completed, labeled by action"))
	if err != nil {
		return nil, err
	}
	return &Metrics{ActiveEvaluations: active, DecisionDuration: duration, DecisionCount: count}, nil
}
