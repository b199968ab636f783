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
	"fmt"
	"net/http"
	"time"
)

func NewProblemDetails(type_, title, detail, instance string, status int, ext map[string]any) *ProblemDetails {
	return &ProblemDetails{
		Type:     type_,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
		Ext:      ext,
	}
}

// ProblemDetails represents an RFC 9457 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string         `json:"type,omitempty"`
	Title    string         `json:"title"`
	Status   int            `json:"status,omitempty"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Ext      map[string]any `json:"-"`
}

// MarshalJSON implements custom JSON marshaling for ProblemDetails
func (p *ProblemDetails) MarshalJSON() ([]byte, error) {
	// Create a map to hold all fields including extensions
	result := make(map[string]any)

	// Add standard fields
	if p.Type != "" {
		result["type"] = p.Type
	}
	if p.Title != "" {
		result["title"] = p.Title
	}
	if p.Status != 0 {
		result["status"] = p.Status
	}
	if p.Detail != "" {
		result["detail"] = p.Detail
	}
	if p.Instance != "" {
		result["instance"] = p.Instance
	}

	// Add extension fields
	for k, v := range p.Ext {
		result[k] = v
	}

	return json.Marshal(result)
}

// writeErrorResponse writes a Problem Details error response in JSON format.
func (api *HTTPAPI) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(statusCode)

	response := ProblemDetails{
		Type:     fmt.Sprintf("https://corint.dev/problems/%d", statusCode),
		Title:    title,
		Status:   statusCode,
		Detail:   detail,
		Instance: r.URL.Path,
		Ext: map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := writeJSON(w, response); err != nil {
		api.logger.DebugContext(r.Context(), "Error encoding problem details response", "error", err)
	}
}
