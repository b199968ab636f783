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

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/corintai/corint-core/bytecode"
	"github.com/corintai/corint-core/engine"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DecisionRequest is the wire shape of a POST /decision body.
type DecisionRequest struct {
	Event      map[string]bytecode.Value `json:"event"`
	Metadata   map[string]any            `json:"metadata,omitempty"`
	DeadlineMS uint32                    `json:"deadline_ms,omitempty"`
	RequestID  string                    `json:"request_id,omitempty"`
}

// DecisionResponse is the wire shape of a POST /decision response.
type DecisionResponse struct {
	Result *engine.DecisionResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// handleDecision handles POST /decision requests by decoding the body into
// an engine.DecisionRequest and calling through to the Engine Facade.
func (api *HTTPAPI) handleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ctx, span := api.tracer.Start(ctx, "decision.request")
	defer span.End()

	start := time.Now()

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		api.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", "Only POST requests are supported for this endpoint")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		span.RecordError(err)
		api.writeErrorResponse(w, r, http.StatusBadRequest, "Invalid Body", "The request body could not be read")
		return
	}

	var req DecisionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		span.RecordError(err)
		api.writeErrorResponse(w, r, http.StatusBadRequest, "Invalid JSON", "The request body could not be parsed as valid JSON")
		return
	}

	if api.metrics != nil {
		api.metrics.ActiveEvaluations.Add(ctx, 1)
		defer api.metrics.ActiveEvaluations.Add(ctx, -1)
	}

	result, runErr := api.engine.Decide(ctx, engine.DecisionRequest{
		Event:      req.Event,
		Metadata:   req.Metadata,
		DeadlineMS: req.DeadlineMS,
		RequestID:  req.RequestID,
	})

	if api.metrics != nil {
		api.metrics.DecisionDuration.Record(ctx, float64(time.Since(start).Nanoseconds())/1e6)
	}

	if runErr != nil {
		span.RecordError(runErr)
		if api.metrics != nil {
			api.metrics.DecisionCount.Add(ctx, 1, metric.WithAttributes(attribute.String("corint.outcome", "error")))
		}
		api.writeErrorResponse(w, r, http.StatusUnprocessableEntity, "Decision Failed", runErr.Error())
		return
	}

	if api.metrics != nil {
		api.metrics.DecisionCount.Add(ctx, 1, metric.WithAttributes(attribute.String("corint.outcome", result.Action)))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := writeJSON(w, DecisionResponse{Result: result}); err != nil {
		api.logger.ErrorContext(ctx, "Error encoding response", "error", err)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}
