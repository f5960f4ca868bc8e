package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo(LoadFast)
	require.Equal(t, LoadFast, info.Code)
	require.Equal(t, "LOAD_FAST", info.Name)
	require.True(t, info.HasArg)
	require.False(t, info.IsJump)

	info = GetInfo(ForIter)
	require.Equal(t, "FOR_ITER", info.Name)
	require.True(t, info.IsJump)

	info = GetInfo(PopTop)
	require.Equal(t, "POP_TOP", info.Name)
	require.False(t, info.HasArg)
}

func TestEveryOpcodeHasName(t *testing.T) {
	codes := []Code{
		Nop, ExtendedArg, Call, CallKw, CallEx, ReturnValue,
		Jump, PopJumpIfFalse, PopJumpIfTrue, PopJumpIfNone, PopJumpIfNotNone,
		JumpIfFalseOrPop, JumpIfTrueOrPop,
		LoadConst, LoadFast, LoadGlobal, LoadName, LoadDeref, LoadAttr, LoadMethod,
		StoreFast, StoreGlobal, StoreName, StoreDeref, StoreAttr,
		DeleteFast, DeleteGlobal, DeleteName, DeleteDeref, DeleteAttr,
		BinaryOp, CompareOp, UnaryNegative, UnaryPositive, UnaryNot, UnaryInvert,
		ContainsOp, IsOp,
		BuildTuple, BuildList, BuildSet, BuildMap, BuildString, BuildSlice,
		ListAppend, SetAdd, MapAdd, ListExtend, DictMerge, SetUpdate, ListToTuple,
		BinarySubscr, StoreSubscr, DeleteSubscr, UnpackSequence, UnpackEx,
		PopTop, Copy, Swap, PushNil, LoadNone,
		GetIter, ForIter,
		MakeFunction, LoadClosure, LoadBuildClass,
		SetupExcept, PopBlock, Raise, Reraise, PushExcInfo, PopExcInfo,
		CheckExcMatch, BeforeWith, WithExceptStart,
		Yield, Send, GetAwaitable, CleanupThrow,
		MatchClass, MatchMapping, MatchSequence, MatchKeys,
		ImportName, ImportFrom, ImportStar, SetupAnnotations,
	}
	for _, c := range codes {
		require.NotEmpty(t, GetInfo(c).Name, "opcode %d has no name", c)
	}
}

func TestOperatorStrings(t *testing.T) {
	require.Equal(t, "+", Add.String())
	require.Equal(t, "//", FloorDiv.String())
	require.Equal(t, "**", Power.String())
	require.Equal(t, "", BinaryOpType(200).String())
	require.Equal(t, "<=", LessThanOrEqual.String())
	require.Equal(t, "!=", NotEqual.String())
	require.Equal(t, "", CompareOpType(100).String())
}
