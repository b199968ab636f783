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

package bytecode

// OpCode is one instruction of the stack machine the VM executes
// (spec.md §4.3's representative instruction set, transcribed 1:1).
type OpCode uint8

const (
	OpPushConst OpCode = iota
	OpLoadField
	OpLoadResult
	OpPop
	OpDup
	OpSwap
	OpStoreVar
	OpLoadList

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpAnd
	OpOr
	OpNot

	OpConcat
	OpIn
	OpInList
	OpContains
	OpStartsWith
	OpEndsWith
	OpRegex

	OpJump
	OpJumpIfTrue
	OpJumpIfFalse

	OpCallBuiltin
	OpCallFeature
	OpCallExternalApi

	OpAddScore
	OpMarkTriggered
	OpLoadTotalScore
	OpLoadTriggeredRules

	OpSetAction
	OpSetReason
	OpSetActions

	OpTerminate
	OpReturn
)

var opcodeNames = map[OpCode]string{
	OpPushConst:        "PushConst",
	OpLoadField:        "LoadField",
	OpLoadResult:       "LoadResult",
	OpPop:              "Pop",
	OpDup:              "Dup",
	OpSwap:             "Swap",
	OpStoreVar:         "StoreVar",
	OpLoadList:         "LoadList",
	OpAdd:              "Add",
	OpSub:              "Sub",
	OpMul:              "Mul",
	OpDiv:              "Div",
	OpMod:              "Mod",
	OpNeg:              "Neg",
	OpEq:               "Eq",
	OpNe:               "Ne",
	OpLt:               "Lt",
	OpLe:               "Le",
	OpGt:               "Gt",
	OpGe:               "Ge",
	OpAnd:              "And",
	OpOr:               "Or",
	OpNot:              "Not",
	OpConcat:           "Concat",
	OpIn:               "In",
	OpInList:           "InList",
	OpContains:         "Contains",
	OpStartsWith:       "StartsWith",
	OpEndsWith:         "EndsWith",
	OpRegex:            "Regex",
	OpJump:             "Jump",
	OpJumpIfTrue:       "JumpIfTrue",
	OpJumpIfFalse:      "JumpIfFalse",
	OpCallBuiltin:      "CallBuiltin",
	OpCallFeature:      "CallFeature",
	OpCallExternalApi:  "CallExternalApi",
	OpAddScore:         "AddScore",
	OpMarkTriggered:    "MarkTriggered",
	OpLoadTotalScore:    "LoadTotalScore",
	OpLoadTriggeredRules: "LoadTriggeredRules",
	OpSetAction:        "SetAction",
	OpSetReason:        "SetReason",
	OpSetActions:       "SetActions",
	OpTerminate:        "Terminate",
	OpReturn:           "Return",
}

func (op OpCode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UnknownOp"
}
