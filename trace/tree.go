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

// Package trace is the decision-time evaluation tree the Pipeline
// Orchestrator builds alongside a request (spec.md §6.3): a tree of
// Pipeline -> Step -> Ruleset -> Rule nodes. Only Step nodes carry a
// timestamp. Condition is a standalone type that no other node holds.
package trace

import "time"

// Condition is one evaluated boolean expression: its source text, the two
// operand values the comparison saw, the operator, and the boolean result.
type Condition struct {
	ExpressionSource string `json:"expression_source"`
	LeftValue        any    `json:"left_value,omitempty"`
	Operator         string `json:"operator,omitempty"`
	RightValue       any    `json:"right_value,omitempty"`
	Result           bool   `json:"result"`
}

// Rule records one rule's evaluation within an enclosing ruleset.
type Rule struct {
	RuleID     string `json:"rule_id"`
	Triggered  bool   `json:"triggered"`
	ScoreDelta int32  `json:"score_delta"`
}

// DecisionLogicEval records one decision-rule evaluation within a Ruleset
// or Pipeline's decision block: its condition text (empty for a `default`
// entry), whether it matched, and the action it set when it did.
type DecisionLogicEval struct {
	Condition string `json:"condition,omitempty"`
	Matched   bool   `json:"matched"`
	Action    string `json:"action,omitempty"`
}

// Ruleset records one ruleset step's full evaluation: its member rules and
// its own decision-logic pass.
type Ruleset struct {
	RulesetID             string              `json:"ruleset_id"`
	TotalScore             int32               `json:"total_score"`
	Rules                  []Rule              `json:"rules,omitempty"`
	DecisionLogicEvaluations []DecisionLogicEval `json:"decision_logic_evaluations,omitempty"`
	TriggeredRules         []string            `json:"triggered_rules,omitempty"`
}

// Step records one pipeline step's execution: its id, kind
// ("ruleset"|"router"|"extract"|"api"|"service"|"action"), the step it
// transitioned to, and — for a ruleset step — the nested Ruleset node.
type Step struct {
	StepID    string     `json:"step_id"`
	Kind      string     `json:"kind"`
	Timestamp time.Time  `json:"timestamp"`
	NextStep  string     `json:"next_step,omitempty"`
	Ruleset   *Ruleset   `json:"ruleset,omitempty"`
	Detail    string     `json:"detail,omitempty"`
	Err       string     `json:"err,omitempty"`
}

// Pipeline is the root of one decide() call's trace.
type Pipeline struct {
	PipelineID             string              `json:"pipeline_id"`
	Steps                  []Step              `json:"steps"`
	DecisionLogicEvaluations []DecisionLogicEval `json:"decision_logic_evaluations,omitempty"`
	FinalAction            string              `json:"final_action"`
}
