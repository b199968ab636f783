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

package repository

import (
	"context"
	"testing"

	"github.com/corintai/corint-core/perch"
	"github.com/corintai/corint-core/rdl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ruleYAML = `
rule:
  id: consecutive_failures
  name: Consecutive login failures
  when: features.failed_login_count_1h >= 5
  score: 80
`

const rulesetYAML = `
ruleset:
  id: login_risk
  rules: [consecutive_failures]
  decision_logic:
    - when: total_score >= 80
      action: deny
      reason: "brute-force"
      terminate: true
    - default: true
      action: approve
`

const pipelineYAML = `
pipeline:
  id: login_pipeline
  entry: risk_check
  steps:
    - ruleset:
        id: risk_check
        next: finish
        ruleset_id: login_risk
    - action:
        id: finish
        action: approve
`

const registryYAML = `
registry:
  - pipeline_id: login_pipeline
    when: event.type == "login"
`

const featureYAML = `
feature:
  id: failed_login_count_1h
  kind: aggregation
  datasource: auth_events
  aggregation:
    op: count
    entity: user_id
    window_seconds: 3600
`

const datasourceYAML = `
datasource:
  id: auth_events
  driver: postgres
  dsn: "postgres://localhost/auth"
`

func populateLoginRiskRepo(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	_, err := repo.Put(ctx, rdl.KindRule, "consecutive_failures", ruleYAML)
	require.NoError(t, err)
	_, err = repo.Put(ctx, rdl.KindRuleset, "login_risk", rulesetYAML)
	require.NoError(t, err)
	_, err = repo.Put(ctx, rdl.KindPipeline, "login_pipeline", pipelineYAML)
	require.NoError(t, err)
	_, err = repo.Put(ctx, rdl.KindRegistry, "", registryYAML)
	require.NoError(t, err)
	_, err = repo.Put(ctx, rdl.KindFeature, "failed_login_count_1h", featureYAML)
	require.NoError(t, err)
	_, err = repo.Put(ctx, rdl.KindDatasource, "auth_events", datasourceYAML)
	require.NoError(t, err)
}

func TestLoadWorkingSetCompilesEveryArtifact(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemory()
	populateLoginRiskRepo(t, repo)

	ws, err := LoadWorkingSet(ctx, repo)
	require.NoError(t, err)

	assert.Contains(t, ws.Set.Rules, "consecutive_failures")
	assert.Contains(t, ws.Set.Rulesets, "login_risk")
	assert.Contains(t, ws.Set.Pipelines, "login_pipeline")
	assert.Equal(t, int64(1), ws.Versions["rule:consecutive_failures"])
}

func TestCompileProgramCompilesNamedPipeline(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemory()
	populateLoginRiskRepo(t, repo)
	cache := perch.NewProgramCache(16)

	prog, err := CompileProgram(ctx, repo, cache, rdl.KindPipeline, "login_pipeline")
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.NotEmpty(t, prog.Instructions)
	assert.Contains(t, prog.Metadata.VersionBundle, "pipeline:login_pipeline")
}

func TestCompileProgramServesCachedResultUntilRepositoryChanges(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemory()
	populateLoginRiskRepo(t, repo)
	cache := perch.NewProgramCache(16)

	first, err := CompileProgram(ctx, repo, cache, rdl.KindRule, "consecutive_failures")
	require.NoError(t, err)

	second, err := CompileProgram(ctx, repo, cache, rdl.KindRule, "consecutive_failures")
	require.NoError(t, err)
	assert.Equal(t, first.Metadata.Version, second.Metadata.Version)

	_, err = repo.Put(ctx, rdl.KindRule, "consecutive_failures", ruleYAML+"\n")
	require.NoError(t, err)

	third, err := CompileProgram(ctx, repo, cache, rdl.KindRule, "consecutive_failures")
	require.NoError(t, err)
	assert.NotEqual(t, first.Metadata.Version, third.Metadata.Version)
}

func TestCompileProgramUnknownArtifactErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemory()
	populateLoginRiskRepo(t, repo)
	cache := perch.NewProgramCache(16)

	_, err := CompileProgram(ctx, repo, cache, rdl.KindRule, "does_not_exist")
	assert.Error(t, err)
}

func TestLoadWorkingSetSkippedOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := NewInMemory()
	populateLoginRiskRepo(t, repo)

	_, err := LoadWorkingSet(ctx, repo)
	assert.Error(t, err)
}
