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

package compiler

import (
	"strings"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/bytecode"
	"github.com/corintai/corint-core/execctx"
	"github.com/corintai/corint-core/tokens"
)

// builder accumulates one bytecode.Program's instruction stream and
// constant/string/field-path/action pools, deduplicating pool entries by
// value the way the teacher's own bytecode emitter interns string and
// constant tables (spec.md §4.3 Pass 7).
type builder struct {
	instrs       []bytecode.Instr
	consts       []bytecode.Value
	strings      []string
	stringIdx    map[string]int32
	fieldPaths   [][]string
	fieldPathIdx map[string]int32
	listRefs     [][]ast.Action
}

func newBuilder() *builder {
	return &builder{stringIdx: map[string]int32{}, fieldPathIdx: map[string]int32{}}
}

func (b *builder) emit(op bytecode.OpCode, a, c int32, span tokens.Range) int32 {
	idx := int32(len(b.instrs))
	b.instrs = append(b.instrs, bytecode.Instr{Op: op, A: a, B: c, Span: span})
	return idx
}

func (b *builder) patchA(at int32, a int32) { b.instrs[at].A = a }

func (b *builder) here() int32 { return int32(len(b.instrs)) }

func (b *builder) constant(v bytecode.Value) int32 {
	idx := int32(len(b.consts))
	b.consts = append(b.consts, v)
	return idx
}

func (b *builder) str(s string) int32 {
	if i, ok := b.stringIdx[s]; ok {
		return i
	}
	idx := int32(len(b.strings))
	b.strings = append(b.strings, s)
	b.stringIdx[s] = idx
	return idx
}

func (b *builder) fieldPath(segments []string) int32 {
	key := strings.Join(segments, ".")
	if i, ok := b.fieldPathIdx[key]; ok {
		return i
	}
	idx := int32(len(b.fieldPaths))
	b.fieldPaths = append(b.fieldPaths, segments)
	b.fieldPathIdx[key] = idx
	return idx
}

func (b *builder) actionList(actions []ast.Action) int32 {
	idx := int32(len(b.listRefs))
	b.listRefs = append(b.listRefs, actions)
	return idx
}

func (b *builder) program(kind, sourceID string) *bytecode.Program {
	prog := &bytecode.Program{
		Instructions: b.instrs,
		Constants:    b.consts,
		Strings:      b.strings,
		FieldPaths:   b.fieldPaths,
		ListRefs:     b.listRefs,
		Metadata: bytecode.Metadata{
			Kind:     kind,
			SourceID: sourceID,
			// Version/VersionBundle are filled in by the caller (the
			// repository-aware compile wrapper) once it knows the
			// artifact versions folded into this program; codegen itself
			// works from an ast.Rule/ast.Ruleset/ast.Pipeline, which
			// carries no version number.
			InitialDepth: estimateDepth(len(b.instrs)),
		},
	}
	// Pass 8 (spec.md §4.3): constant folding and jump threading, run once
	// per emitted Program right before it leaves codegen.
	return optimizeProgram(prog)
}

// estimateDepth is the "safety margin" spec.md §4.4 calls for: a flat
// multiple of the instruction count comfortably covers every expression
// this codegen emits, none of which nests deeper than a handful of stack
// slots, without the cost of a real symbolic stack-depth walk.
func estimateDepth(n int) int {
	d := n/4 + 8
	return d
}

var binOpcodes = map[string]bytecode.OpCode{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul, "/": bytecode.OpDiv, "%": bytecode.OpMod,
	"==": bytecode.OpEq, "!=": bytecode.OpNe, "<": bytecode.OpLt, "<=": bytecode.OpLe, ">": bytecode.OpGt, ">=": bytecode.OpGe,
}

// emitExpr lowers e into instructions that leave exactly one Value on the
// operand stack. inDecision gates whether a bare `total_score`/
// `triggered_rules` FieldPath resolves to the enclosing ruleset/pipeline's
// live accumulator rather than being treated as a namespace reference
// (mirrors the same flag Pass 5's checkFieldPath uses, so anything Pass 5
// accepted, codegen knows how to emit).
func emitExpr(b *builder, e ast.Expression, inDecision bool) {
	switch ex := e.(type) {
	case *ast.NullLiteral:
		b.emit(bytecode.OpPushConst, b.constant(nil), 0, ex.Position())
	case *ast.BoolLiteral:
		b.emit(bytecode.OpPushConst, b.constant(ex.Value), 0, ex.Position())
	case *ast.IntegerLiteral:
		b.emit(bytecode.OpPushConst, b.constant(ex.Value), 0, ex.Position())
	case *ast.FloatLiteral:
		b.emit(bytecode.OpPushConst, b.constant(ex.Value), 0, ex.Position())
	case *ast.StringLiteral:
		b.emit(bytecode.OpPushConst, b.constant(ex.Value), 0, ex.Position())
	case *ast.ListLiteral:
		for _, v := range ex.Values {
			emitExpr(b, v, inDecision)
		}
		b.emit(bytecode.OpCallBuiltin, b.str("__array"), int32(len(ex.Values)), ex.Position())
	case *ast.MapLiteral:
		for _, entry := range ex.Entries {
			b.emit(bytecode.OpPushConst, b.constant(entry.Key), 0, ex.Position())
			emitExpr(b, entry.Value, inDecision)
		}
		b.emit(bytecode.OpCallBuiltin, b.str("__object"), int32(len(ex.Entries)*2), ex.Position())
	case *ast.FieldPath:
		emitFieldPath(b, ex, inDecision)
	case *ast.StringTemplate:
		emitStringTemplate(b, ex, inDecision)
	case *ast.UnaryExpression:
		emitExpr(b, ex.Operand, inDecision)
		if ex.Op == "!" {
			b.emit(bytecode.OpNot, 0, 0, ex.Position())
		} else {
			b.emit(bytecode.OpNeg, 0, 0, ex.Position())
		}
	case *ast.BinaryExpression:
		emitExpr(b, ex.Left, inDecision)
		emitExpr(b, ex.Right, inDecision)
		op, ok := binOpcodes[ex.Op]
		if !ok {
			op = bytecode.OpEq
		}
		if ex.Op == "+" {
			lt, _ := inferExpr(ex.Left, "")
			rt, _ := inferExpr(ex.Right, "")
			if lt == typeString && rt == typeString {
				op = bytecode.OpConcat
			}
		}
		b.emit(op, 0, 0, ex.Position())
	case *ast.LogicalExpression:
		emitLogical(b, ex, inDecision)
	case *ast.TernaryExpression:
		emitExpr(b, ex.Cond, inDecision)
		jf := b.emit(bytecode.OpJumpIfFalse, 0, 0, ex.Position())
		emitExpr(b, ex.Then, inDecision)
		j := b.emit(bytecode.OpJump, 0, 0, ex.Position())
		b.patchA(jf, b.here())
		emitExpr(b, ex.Else, inDecision)
		b.patchA(j, b.here())
	case *ast.CallExpression:
		for _, a := range ex.Args {
			emitExpr(b, a, inDecision)
		}
		b.emit(bytecode.OpCallBuiltin, b.str(ex.Callee), int32(len(ex.Args)), ex.Position())
	case *ast.InExpression:
		emitExpr(b, ex.Value, inDecision)
		emitExpr(b, ex.Collection, inDecision)
		b.emit(bytecode.OpIn, 0, 0, ex.Position())
		if ex.Negate {
			b.emit(bytecode.OpNot, 0, 0, ex.Position())
		}
	case *ast.InListExpression:
		emitExpr(b, ex.Value, inDecision)
		b.emit(bytecode.OpInList, b.str(ex.ListID), 0, ex.Position())
		if ex.Negate {
			b.emit(bytecode.OpNot, 0, 0, ex.Position())
		}
	default:
		b.emit(bytecode.OpPushConst, b.constant(nil), 0, tokens.Range{})
	}
}

func emitFieldPath(b *builder, fp *ast.FieldPath, inDecision bool) {
	if inDecision && isScoreAccumulatorIdent(fp) {
		if fp.Segments[0] == "total_score" {
			b.emit(bytecode.OpLoadTotalScore, 0, 0, fp.Position())
		} else {
			b.emit(bytecode.OpLoadTriggeredRules, 0, 0, fp.Position())
		}
		return
	}
	ns, _ := execctx.NamespaceFromString(fp.Namespace())
	fpIdx := b.fieldPath(fp.Segments[1:])
	b.emit(bytecode.OpLoadField, int32(ns), fpIdx, fp.Position())
}

// emitLogical short-circuits: Dup the left value, jump past the right
// operand if it already decides the result (false for &&, true for ||),
// otherwise Pop the duplicate and evaluate the right side (spec.md §8.1
// law 7).
func emitLogical(b *builder, ex *ast.LogicalExpression, inDecision bool) {
	emitExpr(b, ex.Left, inDecision)
	b.emit(bytecode.OpDup, 0, 0, ex.Position())
	var shortCircuit int32
	if ex.Op == "&&" {
		shortCircuit = b.emit(bytecode.OpJumpIfFalse, 0, 0, ex.Position())
	} else {
		shortCircuit = b.emit(bytecode.OpJumpIfTrue, 0, 0, ex.Position())
	}
	b.emit(bytecode.OpPop, 0, 0, ex.Position())
	emitExpr(b, ex.Right, inDecision)
	b.patchA(shortCircuit, b.here())
}

func emitStringTemplate(b *builder, t *ast.StringTemplate, inDecision bool) {
	if len(t.Segments) == 0 {
		b.emit(bytecode.OpPushConst, b.constant(""), 0, t.Position())
		return
	}
	for i, seg := range t.Segments {
		if seg.Path != nil {
			emitFieldPath(b, seg.Path, inDecision)
		} else {
			b.emit(bytecode.OpPushConst, b.constant(seg.Literal), 0, t.Position())
		}
		if i > 0 {
			b.emit(bytecode.OpConcat, 0, 0, t.Position())
		}
	}
}

// emitCondition lowers a ConditionTree into instructions that leave one
// bool on the stack. all/any fold pairwise with OpAnd/OpOr rather than
// short-circuit jumps: a condition leaf only ever reads already-resolved
// namespaces (event/features/api/service/vars/sys/env/results), never
// triggers a side effect, so evaluating every child costs nothing
// observable and keeps the fold a straight line instead of an n-ary jump
// tree.
func emitCondition(b *builder, c *ast.ConditionTree, inDecision bool) {
	if c == nil {
		b.emit(bytecode.OpPushConst, b.constant(true), 0, tokens.Range{})
		return
	}
	switch c.Kind {
	case "leaf":
		emitExpr(b, c.Leaf, inDecision)
	case "not":
		emitCondition(b, c.Child, inDecision)
		b.emit(bytecode.OpNot, 0, 0, c.Position())
	case "all", "any":
		if len(c.Children) == 0 {
			b.emit(bytecode.OpPushConst, b.constant(c.Kind == "all"), 0, c.Position())
			return
		}
		for i, ch := range c.Children {
			emitCondition(b, ch, inDecision)
			if i > 0 {
				op := bytecode.OpAnd
				if c.Kind == "any" {
					op = bytecode.OpOr
				}
				b.emit(op, 0, 0, c.Position())
			}
		}
	}
}

// CompileRule lowers a single Rule to a standalone Program: evaluate When,
// and if true, add Score to the enclosing ruleset's accumulator, mark the
// rule triggered, and (if the rule names one) set its own Action (spec.md
// §3.1, §4.3 Pass 7). CompileRuleset does not call this Program as a
// subroutine: it re-emits the same sequence inline through inlineRule, so
// OpAddScore/OpMarkTriggered always target the ruleset's own accumulator.
func CompileRule(r *ast.Rule) *bytecode.Program {
	b := newBuilder()
	emitCondition(b, r.When, false)
	jf := b.emit(bytecode.OpJumpIfFalse, 0, 0, r.Position())
	b.emit(bytecode.OpPushConst, b.constant(int64(r.Score)), 0, r.Position())
	b.emit(bytecode.OpAddScore, 0, 0, r.Position())
	b.emit(bytecode.OpMarkTriggered, b.str(r.ID), 0, r.Position())
	if r.Action != nil {
		b.emit(bytecode.OpSetAction, b.str(string(*r.Action)), 0, r.Position())
	}
	b.patchA(jf, b.here())
	b.emit(bytecode.OpReturn, 0, 0, r.Position())
	return b.program("rule", r.ID)
}

// emitDecisionBlock lowers a decision_logic/decision sequence shared by
// Ruleset and Pipeline: evaluate each non-default rule's Condition in
// order, and on the first match (or the Default entry, which Pass 5
// guarantees is unique and last) emit its Reason/Action/Actions/Terminate
// effects, then jump to the block's end (spec.md §3.1 "evaluated in
// source order until a match").
func emitDecisionBlock(b *builder, rules []*ast.DecisionRule) {
	var toEnd []int32
	for _, dr := range rules {
		var skip int32 = -1
		if !dr.Default {
			emitExpr(b, dr.Condition, true)
			skip = b.emit(bytecode.OpJumpIfFalse, 0, 0, dr.Position())
		}
		if dr.Reason != nil {
			emitStringTemplate(b, dr.Reason, true)
			b.emit(bytecode.OpSetReason, 0, 0, dr.Position())
		}
		b.emit(bytecode.OpSetAction, b.str(string(dr.Action)), 0, dr.Position())
		if len(dr.Actions) > 0 {
			b.emit(bytecode.OpSetActions, b.actionList(dr.Actions), 0, dr.Position())
		}
		if dr.Terminate {
			b.emit(bytecode.OpTerminate, 0, 0, dr.Position())
		}
		toEnd = append(toEnd, b.emit(bytecode.OpJump, 0, 0, dr.Position()))
		if skip >= 0 {
			b.patchA(skip, b.here())
		}
	}
	end := b.here()
	for _, j := range toEnd {
		b.patchA(j, end)
	}
}

// CompileRuleset lowers a Ruleset to a Program: every member rule's
// condition/score/trigger sequence inlined in order (each rule shares
// this program's own accumulator), followed by the ruleset's own
// decision_logic block (spec.md §3.1, §4.3 Pass 7).
func CompileRuleset(set *Set, rs *ast.Ruleset) *bytecode.Program {
	b := newBuilder()
	for _, ruleID := range rs.Rules {
		r, ok := set.Rules[ruleID]
		if !ok {
			continue
		}
		inlineRule(b, r)
	}
	emitDecisionBlock(b, rs.DecisionLogic)
	b.emit(bytecode.OpReturn, 0, 0, rs.Position())
	return b.program("ruleset", rs.ID)
}

// inlineRule emits one rule's condition/score/trigger sequence directly
// into an in-progress ruleset Program, rather than calling CompileRule and
// splicing its instructions, since the latter would require relocating
// every constant/string/field-path index the sub-program used.
func inlineRule(b *builder, r *ast.Rule) {
	emitCondition(b, r.When, false)
	jf := b.emit(bytecode.OpJumpIfFalse, 0, 0, r.Position())
	b.emit(bytecode.OpPushConst, b.constant(int64(r.Score)), 0, r.Position())
	b.emit(bytecode.OpAddScore, 0, 0, r.Position())
	b.emit(bytecode.OpMarkTriggered, b.str(r.ID), 0, r.Position())
	if r.Action != nil {
		b.emit(bytecode.OpSetAction, b.str(string(*r.Action)), 0, r.Position())
	}
	b.patchA(jf, b.here())
}

// CompilePipeline lowers only a Pipeline's own top-level gate (When) and
// decision block to a Program. Step execution (Ruleset/Router/Extract/
// Api/Service/Action) is not folded into one linear instruction stream:
// those steps call out to the Ruleset program cache, the Feature
// Executor, or the External Caller between one step and the next, which
// the Orchestrator drives directly rather than the VM (spec.md §4.8). Per-
// step condition/param expressions (RouterStep.Routes[i].When,
// ApiStep/ServiceStep.Params) are compiled on demand by CompileExpr/
// CompileCondition below, each its own tiny Program, as the Orchestrator
// reaches that step.
func CompilePipeline(p *ast.Pipeline) *bytecode.Program {
	b := newBuilder()
	emitCondition(b, p.When, false)
	gateJump := b.emit(bytecode.OpJumpIfFalse, 0, 0, p.Position())
	emitDecisionBlock(b, p.Decision)
	b.emit(bytecode.OpReturn, 0, 0, p.Position())
	skipTo := b.here()
	b.emit(bytecode.OpReturn, 0, 0, p.Position())
	b.patchA(gateJump, skipTo)
	return b.program("pipeline", p.ID)
}

// CompileExpr compiles a single Expression into its own tiny Program, for
// step parameters (ApiStep/ServiceStep.Params) the Orchestrator evaluates
// one at a time against the live execution context.
func CompileExpr(owner string, e ast.Expression) *bytecode.Program {
	b := newBuilder()
	emitExpr(b, e, false)
	b.emit(bytecode.OpReturn, 0, 0, e.Position())
	return b.program("expr", owner)
}

// CompileCondition compiles a single ConditionTree into its own Program,
// for a RouterStep's per-route When and a pipeline-level gate evaluated
// independently of any enclosing decision block.
func CompileCondition(owner string, c *ast.ConditionTree) *bytecode.Program {
	b := newBuilder()
	emitCondition(b, c, false)
	b.emit(bytecode.OpReturn, 0, 0, c.Position())
	return b.program("condition", owner)
}
