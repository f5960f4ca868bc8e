package compiler

import (
	"fmt"

	"github.com/cloudcmds/serpent/op"
)

// stackEffect returns the net change in value-stack depth for one
// instruction. For conditional jumps the effect differs between the branch
// taken (jump=true) and fall-through paths.
func stackEffect(code op.Code, arg int, jump bool) int {
	switch code {
	case op.Nop, op.ExtendedArg, op.SetupExcept, op.PopBlock:
		return 0

	case op.LoadConst, op.LoadFast, op.LoadGlobal, op.LoadName, op.LoadDeref,
		op.LoadClosure, op.LoadNone, op.PushNil, op.LoadBuildClass:
		return 1
	case op.LoadAttr:
		return 0
	case op.LoadMethod:
		// Pops the object, pushes callable and receiver-or-nil.
		return 1

	case op.StoreFast, op.StoreGlobal, op.StoreName, op.StoreDeref:
		return -1
	case op.StoreAttr:
		return -2
	case op.StoreSubscr:
		return -3
	case op.DeleteFast, op.DeleteGlobal, op.DeleteName, op.DeleteDeref:
		return 0
	case op.DeleteAttr:
		return -1
	case op.DeleteSubscr:
		return -2

	case op.BinaryOp, op.CompareOp, op.ContainsOp, op.IsOp:
		return -1
	case op.UnaryNegative, op.UnaryPositive, op.UnaryNot, op.UnaryInvert:
		return 0

	case op.BuildTuple, op.BuildList, op.BuildSet, op.BuildString, op.BuildSlice:
		return 1 - arg
	case op.BuildMap:
		return 1 - 2*arg
	case op.ListAppend, op.SetAdd, op.ListExtend, op.SetUpdate:
		return -1
	case op.MapAdd:
		return -2
	case op.DictMerge:
		return -1
	case op.ListToTuple:
		return 0

	case op.BinarySubscr:
		return -1
	case op.UnpackSequence:
		return arg - 1
	case op.UnpackEx:
		return (arg & 0xFF) + (arg >> 8)

	case op.PopTop:
		return -1
	case op.Copy:
		return 1
	case op.Swap:
		return 0

	case op.GetIter:
		return 0
	case op.ForIter:
		if jump {
			return -1
		}
		return 1

	case op.Call:
		return -arg - 1
	case op.CallKw:
		return -arg - 2
	case op.CallEx:
		if arg&1 != 0 {
			return -3
		}
		return -2
	case op.ReturnValue:
		return -1

	case op.Jump:
		return 0
	case op.PopJumpIfFalse, op.PopJumpIfTrue, op.PopJumpIfNone, op.PopJumpIfNotNone:
		return -1
	case op.JumpIfFalseOrPop, op.JumpIfTrueOrPop:
		if jump {
			return 0
		}
		return -1

	case op.MakeFunction:
		n := 0
		for _, bit := range []int{makeFuncDefaults, makeFuncKwDefaults, makeFuncClosure} {
			if arg&bit != 0 {
				n++
			}
		}
		return -n

	case op.Raise:
		return -arg
	case op.Reraise:
		if arg >= 1 {
			return -2
		}
		return -1
	case op.PushExcInfo:
		return 1
	case op.PopExcInfo:
		return -1
	case op.CheckExcMatch:
		return 0
	case op.BeforeWith:
		return 1
	case op.WithExceptStart:
		return 1

	case op.Yield:
		return 0
	case op.Send:
		if jump {
			return -1
		}
		return 0
	case op.GetAwaitable:
		return 0
	case op.CleanupThrow:
		return -2

	case op.MatchClass:
		// Pops subject, class, and keyword names; pushes the extracted
		// attributes or the failure sentinel.
		return -2
	case op.MatchMapping, op.MatchSequence:
		return 1
	case op.MatchKeys:
		return 1

	case op.ImportName:
		return -1
	case op.ImportFrom:
		return 1
	case op.ImportStar:
		return -1

	case op.SetupAnnotations:
		return 0
	}
	panic(fmt.Sprintf("compiler: no stack effect for %s", op.GetInfo(code).Name))
}
