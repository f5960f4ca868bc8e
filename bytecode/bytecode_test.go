package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/serpent/op"
)

func TestDecodeFoldsExtendedArgs(t *testing.T) {
	units := []Unit{
		{Op: op.LoadConst, Arg: 3},
		{Op: op.ExtendedArg, Arg: 1},
		{Op: op.LoadConst, Arg: 4},
		{Op: op.ExtendedArg, Arg: 2},
		{Op: op.ExtendedArg, Arg: 1},
		{Op: op.Jump, Arg: 0},
	}
	decoded := Decode(units)
	require.Len(t, decoded, 3)

	require.Equal(t, Decoded{Offset: 0, Op: op.LoadConst, Arg: 3}, decoded[0])
	require.Equal(t, Decoded{Offset: 2, Op: op.LoadConst, Arg: 1<<8 | 4}, decoded[1])
	require.Equal(t, Decoded{Offset: 5, Op: op.Jump, Arg: 2<<16 | 1<<8}, decoded[2])
}

func TestFindExceptionHandler(t *testing.T) {
	code := &Code{
		ExceptionTable: []ExceptionTableEntry{
			{Start: 2, End: 6, Target: 10, Depth: 0},
			{Start: 6, End: 8, Target: 14, Depth: 1, PushOffset: true},
		},
	}

	_, ok := code.FindExceptionHandler(0)
	require.False(t, ok)

	entry, ok := code.FindExceptionHandler(2)
	require.True(t, ok)
	require.Equal(t, uint32(10), entry.Target)

	entry, ok = code.FindExceptionHandler(5)
	require.True(t, ok)
	require.Equal(t, uint32(10), entry.Target)

	entry, ok = code.FindExceptionHandler(6)
	require.True(t, ok)
	require.Equal(t, uint32(14), entry.Target)
	require.True(t, entry.PushOffset)

	_, ok = code.FindExceptionHandler(8)
	require.False(t, ok)
}

func TestMarshalRoundTrip(t *testing.T) {
	inner := &Code{
		ID:        "inner-id",
		Name:      "helper",
		Filename:  "main.py",
		FirstLine: 3,
		Flags:     FlagOptimized | FlagNewLocals | FlagGenerator,
		ArgCount:  1,
		Units: []Unit{
			{Op: op.LoadFast, Arg: 0},
			{Op: op.Yield, Arg: 0},
			{Op: op.ReturnValue},
		},
		Constants:     []any{nil},
		VarNames:      []string{"x"},
		Lines:         []int32{4, 4, 4},
		MaxStackDepth: 2,
	}
	outer := &Code{
		ID:        "outer-id",
		Name:      "<module>",
		Filename:  "main.py",
		FirstLine: 1,
		Units: []Unit{
			{Op: op.LoadConst, Arg: 0},
			{Op: op.ReturnValue},
		},
		Constants: []any{
			int64(42),
			float64(2.5),
			complex(1, -2),
			"hello",
			[]byte{0x01, 0x02},
			true,
			nil,
			Ellipsis{},
			Tuple{int64(1), "two", Tuple{nil}},
			inner,
		},
		Names:         []string{"print"},
		Lines:         []int32{1, 1},
		MaxStackDepth: 1,
		ExceptionTable: []ExceptionTableEntry{
			{Start: 0, End: 1, Target: 1, Depth: 0, PushOffset: true},
		},
	}

	data, err := Marshal(outer)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, outer.Name, got.Name)
	require.Equal(t, outer.Units, got.Units)
	require.Equal(t, outer.ExceptionTable, got.ExceptionTable)
	require.Equal(t, outer.Names, got.Names)
	require.Equal(t, int64(42), got.Constants[0])
	require.Equal(t, complex(1, -2), got.Constants[2])
	require.Equal(t, Tuple{int64(1), "two", Tuple{nil}}, got.Constants[8])

	gotInner, ok := got.Constants[9].(*Code)
	require.True(t, ok)
	require.Equal(t, "helper", gotInner.Name)
	require.True(t, gotInner.IsGenerator())
	require.Equal(t, inner.Units, gotInner.Units)
}

func TestMarshalRejectsForeignConstant(t *testing.T) {
	code := &Code{Constants: []any{struct{}{}}}
	_, err := Marshal(code)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot marshal constant")
}

func TestCodeFlags(t *testing.T) {
	c := &Code{Flags: FlagGenerator}
	require.True(t, c.IsGenerator())
	require.False(t, c.IsCoroutine())

	c = &Code{Flags: FlagCoroutine | FlagOptimized}
	require.True(t, c.IsCoroutine())

	c = &Code{CellVars: []string{"a"}, FreeVars: []string{"b", "c"}}
	require.Equal(t, 3, c.NumCells())
}
