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

package script

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndTransformJS(t *testing.T) {
	reg := NewRegistry(2)
	err := reg.Register(Source{
		Name: "double_amount",
		Lang: LanguageJS,
		Text: `return { amount: input.amount * 2 };`,
	})
	require.NoError(t, err)

	out, err := reg.Transform(context.Background(), "double_amount", map[string]any{"amount": int64(21)})
	require.NoError(t, err)

	m, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 42, m["amount"])
}

func TestRegisterAndTransformTypeScript(t *testing.T) {
	reg := NewRegistry(2)
	err := reg.Register(Source{
		Name: "label_risk",
		Lang: LanguageTS,
		Text: `const score = input.score as number; return { label: score > 50 ? "high" : "low" };`,
	})
	require.NoError(t, err)

	out, err := reg.Transform(context.Background(), "label_risk", map[string]any{"score": int64(80)})
	require.NoError(t, err)

	m, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "high", m["label"])
}

func TestTransformUnknownScriptErrors(t *testing.T) {
	reg := NewRegistry(2)
	_, err := reg.Transform(context.Background(), "does_not_exist", nil)
	assert.Error(t, err)
}

func TestRegisterInvalidSyntaxErrors(t *testing.T) {
	reg := NewRegistry(2)
	err := reg.Register(Source{
		Name: "broken",
		Lang: LanguageJS,
		Text: `return {{{ `,
	})
	assert.Error(t, err)
}

func TestTransformHonorsContextCancellation(t *testing.T) {
	reg := NewRegistry(1)
	err := reg.Register(Source{
		Name: "spin",
		Lang: LanguageJS,
		Text: `while (true) {}`,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = reg.Transform(ctx, "spin", nil)
	assert.Error(t, err)
}

func TestConcurrentTransformsAcquireDistinctRuntimes(t *testing.T) {
	reg := NewRegistry(4)
	err := reg.Register(Source{
		Name: "identity",
		Lang: LanguageJS,
		Text: `return input;`,
	})
	require.NoError(t, err)

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(n int) {
			_, err := reg.Transform(context.Background(), "identity", int64(n))
			errs <- err
		}(i)
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-errs)
	}
}
