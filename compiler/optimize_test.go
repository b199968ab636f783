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
	"testing"

	"github.com/corintai/corint-core/bytecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldConstantsPassCollapsesBinaryArithmetic(t *testing.T) {
	instrs := []bytecode.Instr{
		{Op: bytecode.OpPushConst, A: 0}, // 2
		{Op: bytecode.OpPushConst, A: 1}, // 3
		{Op: bytecode.OpAdd},
		{Op: bytecode.OpReturn},
	}
	consts := []bytecode.Value{int64(2), int64(3)}

	out, newConsts, changed := foldConstantsPass(instrs, consts)
	require.True(t, changed)
	require.Len(t, out, 2)
	assert.Equal(t, bytecode.OpPushConst, out[0].Op)
	assert.Equal(t, int64(5), newConsts[out[0].A])
	assert.Equal(t, bytecode.OpReturn, out[1].Op)
}

func TestFoldConstantsPassCollapsesComparison(t *testing.T) {
	instrs := []bytecode.Instr{
		{Op: bytecode.OpPushConst, A: 0}, // 10
		{Op: bytecode.OpPushConst, A: 1}, // 5
		{Op: bytecode.OpGt},
		{Op: bytecode.OpReturn},
	}
	consts := []bytecode.Value{int64(10), int64(5)}

	out, newConsts, changed := foldConstantsPass(instrs, consts)
	require.True(t, changed)
	require.Len(t, out, 2)
	assert.Equal(t, true, newConsts[out[0].A])
}

func TestFoldConstantsPassCollapsesUnaryNot(t *testing.T) {
	instrs := []bytecode.Instr{
		{Op: bytecode.OpPushConst, A: 0}, // true
		{Op: bytecode.OpNot},
		{Op: bytecode.OpReturn},
	}
	consts := []bytecode.Value{true}

	out, newConsts, changed := foldConstantsPass(instrs, consts)
	require.True(t, changed)
	require.Len(t, out, 2)
	assert.Equal(t, false, newConsts[out[0].A])
}

func TestFoldConstantsPassLeavesDivisionByZeroUnfolded(t *testing.T) {
	instrs := []bytecode.Instr{
		{Op: bytecode.OpPushConst, A: 0}, // 1
		{Op: bytecode.OpPushConst, A: 1}, // 0
		{Op: bytecode.OpDiv},
		{Op: bytecode.OpReturn},
	}
	consts := []bytecode.Value{int64(1), int64(0)}

	out, _, changed := foldConstantsPass(instrs, consts)
	assert.False(t, changed)
	assert.Len(t, out, 4)
}

func TestFoldConstantsPassSkipsWindowWithInteriorJumpTarget(t *testing.T) {
	// Something jumps directly at the second PushConst (index 2) -- an
	// unusual shape no codegen path produces, but the pass must still
	// refuse to fold across it rather than silently drop the jump's
	// destination.
	instrs := []bytecode.Instr{
		{Op: bytecode.OpJump, A: 2}, // targets the second PushConst, interior to the window
		{Op: bytecode.OpPushConst, A: 0},
		{Op: bytecode.OpPushConst, A: 1},
		{Op: bytecode.OpAdd},
		{Op: bytecode.OpReturn},
	}
	consts := []bytecode.Value{int64(2), int64(3)}

	out, _, changed := foldConstantsPass(instrs, consts)
	assert.False(t, changed)
	assert.Len(t, out, 5)
}

func TestFoldConstantsPassRemapsJumpsAcrossAFold(t *testing.T) {
	// Jump targets the Return that follows the foldable window; after
	// folding, that Return moves two slots earlier and the Jump operand
	// must move with it.
	instrs := []bytecode.Instr{
		{Op: bytecode.OpJump, A: 4},
		{Op: bytecode.OpPushConst, A: 0}, // 2
		{Op: bytecode.OpPushConst, A: 1}, // 3
		{Op: bytecode.OpAdd},
		{Op: bytecode.OpReturn},
	}
	consts := []bytecode.Value{int64(2), int64(3)}

	out, _, changed := foldConstantsPass(instrs, consts)
	require.True(t, changed)
	require.Len(t, out, 3)
	assert.Equal(t, bytecode.OpReturn, out[2].Op)
	assert.EqualValues(t, 2, out[0].A, "jump must now point at the Return's new index")
}

func TestThreadJumpsCollapsesChain(t *testing.T) {
	instrs := []bytecode.Instr{
		{Op: bytecode.OpJump, A: 1},
		{Op: bytecode.OpJump, A: 2},
		{Op: bytecode.OpReturn},
	}
	threadJumps(instrs)
	assert.EqualValues(t, 2, instrs[0].A, "should thread through the intermediate jump straight to Return")
}

func TestThreadJumpsLeavesConditionalJumpsTargetingNonJumpAlone(t *testing.T) {
	instrs := []bytecode.Instr{
		{Op: bytecode.OpJumpIfFalse, A: 1},
		{Op: bytecode.OpPushConst, A: 0},
		{Op: bytecode.OpReturn},
	}
	threadJumps(instrs)
	assert.EqualValues(t, 1, instrs[0].A)
}
