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

import "github.com/corintai/corint-core/bytecode"

// optimizeProgram runs Pass 8 (spec.md §4.3): constant folding and
// jump-to-jump threading over an already-codegen'd Program. Neither pass is
// allowed to change a Program's observable behavior — only its instruction
// count and jump wiring — so each is conservative about exactly when it
// applies, skipping any rewrite it cannot prove safe rather than taking the
// risk.
func optimizeProgram(prog *bytecode.Program) *bytecode.Program {
	for {
		instrs, consts, changed := foldConstantsPass(prog.Instructions, prog.Constants)
		prog.Instructions = instrs
		prog.Constants = consts
		if !changed {
			break
		}
	}
	threadJumps(prog.Instructions)
	return prog
}

func isJumpOp(op bytecode.OpCode) bool {
	return op == bytecode.OpJump || op == bytecode.OpJumpIfTrue || op == bytecode.OpJumpIfFalse
}

func jumpTargets(instrs []bytecode.Instr) map[int32]bool {
	targets := make(map[int32]bool)
	for _, instr := range instrs {
		if isJumpOp(instr.Op) {
			targets[instr.A] = true
		}
	}
	return targets
}

// foldConstantsPass collapses a PushConst, PushConst, BinOp triple (or a
// PushConst, UnaryOp pair) into a single PushConst wherever the computation
// cannot fail and no jump targets land strictly inside the folded window —
// a jump into the middle of such a sequence never occurs in code this
// compiler emits, but the check costs nothing and keeps the pass correct by
// construction rather than by the absence of a counterexample. Folding
// shrinks the instruction stream, so every jump operand is remapped through
// the same old-index -> new-index table built during the single left-to-right
// scan.
func foldConstantsPass(instrs []bytecode.Instr, consts []bytecode.Value) ([]bytecode.Instr, []bytecode.Value, bool) {
	if len(instrs) == 0 {
		return instrs, consts, false
	}
	targets := jumpTargets(instrs)
	remap := make([]int32, len(instrs))
	out := make([]bytecode.Instr, 0, len(instrs))
	changed := false

	i := 0
	for i < len(instrs) {
		if i+2 < len(instrs) &&
			instrs[i].Op == bytecode.OpPushConst &&
			instrs[i+1].Op == bytecode.OpPushConst &&
			!targets[int32(i+1)] && !targets[int32(i+2)] {
			if v, ok := foldBinOp(instrs[i+2].Op, consts[instrs[i].A], consts[instrs[i+1].A]); ok {
				newIdx := int32(len(consts))
				consts = append(consts, v)
				pos := int32(len(out))
				out = append(out, bytecode.Instr{Op: bytecode.OpPushConst, A: newIdx, Span: instrs[i].Span})
				remap[i], remap[i+1], remap[i+2] = pos, pos, pos
				i += 3
				changed = true
				continue
			}
		}
		if i+1 < len(instrs) &&
			instrs[i].Op == bytecode.OpPushConst &&
			(instrs[i+1].Op == bytecode.OpNeg || instrs[i+1].Op == bytecode.OpNot) &&
			!targets[int32(i+1)] {
			if v, ok := foldUnaryOp(instrs[i+1].Op, consts[instrs[i].A]); ok {
				newIdx := int32(len(consts))
				consts = append(consts, v)
				pos := int32(len(out))
				out = append(out, bytecode.Instr{Op: bytecode.OpPushConst, A: newIdx, Span: instrs[i].Span})
				remap[i], remap[i+1] = pos, pos
				i += 2
				changed = true
				continue
			}
		}
		remap[i] = int32(len(out))
		out = append(out, instrs[i])
		i++
	}

	if changed {
		for k := range out {
			if isJumpOp(out[k].Op) {
				out[k].A = remap[out[k].A]
			}
		}
	}
	return out, consts, changed
}

func foldBinOp(op bytecode.OpCode, a, b bytecode.Value) (bytecode.Value, bool) {
	switch op {
	case bytecode.OpAdd:
		v, err := bytecode.Add(a, b)
		return v, err == nil
	case bytecode.OpSub:
		v, err := bytecode.Sub(a, b)
		return v, err == nil
	case bytecode.OpMul:
		v, err := bytecode.Mul(a, b)
		return v, err == nil
	case bytecode.OpDiv:
		v, err := bytecode.Div(a, b)
		return v, err == nil
	case bytecode.OpMod:
		v, err := bytecode.Mod(a, b)
		return v, err == nil
	case bytecode.OpConcat:
		v, err := bytecode.Concat(a, b)
		return v, err == nil
	case bytecode.OpEq:
		v, err := bytecode.Eq(a, b)
		return v, err == nil
	case bytecode.OpNe:
		v, err := bytecode.Eq(a, b)
		if err != nil {
			return nil, false
		}
		return !v, true
	case bytecode.OpLt:
		v, err := bytecode.Compare("<", a, b)
		return v, err == nil
	case bytecode.OpLe:
		v, err := bytecode.Compare("<=", a, b)
		return v, err == nil
	case bytecode.OpGt:
		v, err := bytecode.Compare(">", a, b)
		return v, err == nil
	case bytecode.OpGe:
		v, err := bytecode.Compare(">=", a, b)
		return v, err == nil
	case bytecode.OpAnd:
		ab, aok := a.(bool)
		bb, bok := b.(bool)
		if !aok || !bok {
			return nil, false
		}
		return ab && bb, true
	case bytecode.OpOr:
		ab, aok := a.(bool)
		bb, bok := b.(bool)
		if !aok || !bok {
			return nil, false
		}
		return ab || bb, true
	default:
		return nil, false
	}
}

func foldUnaryOp(op bytecode.OpCode, a bytecode.Value) (bytecode.Value, bool) {
	switch op {
	case bytecode.OpNeg:
		v, err := bytecode.Neg(a)
		return v, err == nil
	case bytecode.OpNot:
		ab, ok := a.(bool)
		if !ok {
			return nil, false
		}
		return !ab, true
	default:
		return nil, false
	}
}

// threadJumps rewrites any jump whose target is itself an unconditional Jump
// to point straight at that jump's own target, following the chain to its
// end (bounded by len(instrs) hops, so a malformed cyclic chain degrades to
// a no-op rewrite rather than an infinite loop). This never changes which
// instruction ultimately runs next — it only skips the intermediate
// unconditional Jump the original target would have immediately taken.
func threadJumps(instrs []bytecode.Instr) {
	resolve := func(target int32) int32 {
		seen := 0
		for target >= 0 && int(target) < len(instrs) && instrs[target].Op == bytecode.OpJump && seen < len(instrs) {
			next := instrs[target].A
			if next == target {
				break
			}
			target = next
			seen++
		}
		return target
	}
	for i := range instrs {
		if isJumpOp(instrs[i].Op) {
			instrs[i].A = resolve(instrs[i].A)
		}
	}
}
