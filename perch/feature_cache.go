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

package perch

import (
	"context"
	"fmt"
	"time"

	"github.com/corintai/corint-core/bytecode"
	"github.com/mitchellh/hashstructure/v2"
)

// FeatureCache caches one feature's computed Value keyed on
// hash(feature_id, canonical inputs), so two events that resolve to
// identical feature inputs within the feature's configured TTL skip
// recomputation — the common case for a feature backed by an external
// datasource call (spec.md §4.5).
type FeatureCache struct {
	p *Perch[bytecode.Value]
}

func NewFeatureCache(capacity int) *FeatureCache {
	return &FeatureCache{p: New[bytecode.Value](capacity)}
}

// FeatureKey hashes the feature's canonicalized input set. Callers are
// responsible for canonicalizing inputs (stable key ordering, resolved
// field values rather than unresolved expressions) before calling this —
// hashstructure hashes Go values structurally, not their source syntax.
func FeatureKey(featureID string, inputs map[string]bytecode.Value) (string, error) {
	h, err := hashstructure.Hash(inputs, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%x", featureID, h), nil
}

// Get returns the cached feature value, invoking compute on a miss or on
// expiry. ttl <= 0 disables caching for this call, matching a feature
// declared with no cache_ttl in its RDL definition.
func (c *FeatureCache) Get(ctx context.Context, featureID string, inputs map[string]bytecode.Value, ttl time.Duration, compute Loader[bytecode.Value]) (bytecode.Value, error) {
	key, err := FeatureKey(featureID, inputs)
	if err != nil {
		return nil, err
	}
	return c.p.Get(ctx, key, ttl, compute)
}
