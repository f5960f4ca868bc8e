package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudcmds/serpent/op"
)

// Wire format version. Bump on any incompatible change to the coded shapes.
const wireVersion = 1

type codedUnit struct {
	Op  uint8 `cbor:"o"`
	Arg uint8 `cbor:"a"`
}

type codedEntry struct {
	Start      uint32 `cbor:"s"`
	End        uint32 `cbor:"e"`
	Target     uint32 `cbor:"t"`
	Depth      uint32 `cbor:"d"`
	PushOffset bool   `cbor:"p,omitempty"`
}

type codedConst struct {
	Kind    string       `cbor:"k"`
	Bool    bool         `cbor:"b,omitempty"`
	Int     int64        `cbor:"i,omitempty"`
	Float   float64      `cbor:"f,omitempty"`
	Imag    float64      `cbor:"j,omitempty"`
	Str     string       `cbor:"s,omitempty"`
	Bytes   []byte       `cbor:"y,omitempty"`
	Tuple   []codedConst `cbor:"t,omitempty"`
	SubCode *codedCode   `cbor:"c,omitempty"`
}

type codedCode struct {
	Version   int          `cbor:"v"`
	ID        string       `cbor:"id"`
	Name      string       `cbor:"name"`
	QualName  string       `cbor:"qual,omitempty"`
	Filename  string       `cbor:"file"`
	FirstLine int          `cbor:"line"`
	Flags     uint16       `cbor:"flags"`
	ArgCount  int          `cbor:"argc"`
	PosOnly   int          `cbor:"posonly"`
	KwOnly    int          `cbor:"kwonly"`
	Units     []codedUnit  `cbor:"units"`
	Constants []codedConst `cbor:"consts"`
	Names     []string     `cbor:"names"`
	VarNames  []string     `cbor:"varnames"`
	CellVars  []string     `cbor:"cellvars"`
	FreeVars  []string     `cbor:"freevars"`
	Lines     []int32      `cbor:"lines"`
	MaxStack  int          `cbor:"stack"`
	Table     []codedEntry `cbor:"exc"`
}

// Marshal serializes a code object, including nested code constants, to a
// CBOR byte sequence.
func Marshal(c *Code) ([]byte, error) {
	coded, err := encodeCode(c)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(coded)
}

// Unmarshal reverses Marshal.
func Unmarshal(data []byte) (*Code, error) {
	var coded codedCode
	if err := cbor.Unmarshal(data, &coded); err != nil {
		return nil, err
	}
	return decodeCode(&coded)
}

func encodeCode(c *Code) (*codedCode, error) {
	coded := &codedCode{
		Version:   wireVersion,
		ID:        c.ID,
		Name:      c.Name,
		QualName:  c.QualName,
		Filename:  c.Filename,
		FirstLine: c.FirstLine,
		Flags:     uint16(c.Flags),
		ArgCount:  c.ArgCount,
		PosOnly:   c.PosOnlyArgCount,
		KwOnly:    c.KwOnlyArgCount,
		Names:     c.Names,
		VarNames:  c.VarNames,
		CellVars:  c.CellVars,
		FreeVars:  c.FreeVars,
		Lines:     c.Lines,
		MaxStack:  c.MaxStackDepth,
	}
	coded.Units = make([]codedUnit, len(c.Units))
	for i, u := range c.Units {
		coded.Units[i] = codedUnit{Op: uint8(u.Op), Arg: u.Arg}
	}
	coded.Constants = make([]codedConst, len(c.Constants))
	for i, v := range c.Constants {
		cc, err := encodeConst(v)
		if err != nil {
			return nil, err
		}
		coded.Constants[i] = cc
	}
	coded.Table = make([]codedEntry, len(c.ExceptionTable))
	for i, e := range c.ExceptionTable {
		coded.Table[i] = codedEntry{
			Start:      e.Start,
			End:        e.End,
			Target:     e.Target,
			Depth:      e.Depth,
			PushOffset: e.PushOffset,
		}
	}
	return coded, nil
}

func decodeCode(coded *codedCode) (*Code, error) {
	if coded.Version != wireVersion {
		return nil, fmt.Errorf("bytecode: unsupported wire version %d", coded.Version)
	}
	c := &Code{
		ID:              coded.ID,
		Name:            coded.Name,
		QualName:        coded.QualName,
		Filename:        coded.Filename,
		FirstLine:       coded.FirstLine,
		Flags:           Flags(coded.Flags),
		ArgCount:        coded.ArgCount,
		PosOnlyArgCount: coded.PosOnly,
		KwOnlyArgCount:  coded.KwOnly,
		Names:           coded.Names,
		VarNames:        coded.VarNames,
		CellVars:        coded.CellVars,
		FreeVars:        coded.FreeVars,
		Lines:           coded.Lines,
		MaxStackDepth:   coded.MaxStack,
	}
	c.Units = make([]Unit, len(coded.Units))
	for i, u := range coded.Units {
		c.Units[i] = Unit{Op: op.Code(u.Op), Arg: u.Arg}
	}
	c.Constants = make([]any, len(coded.Constants))
	for i := range coded.Constants {
		v, err := decodeConst(&coded.Constants[i])
		if err != nil {
			return nil, err
		}
		c.Constants[i] = v
	}
	c.ExceptionTable = make([]ExceptionTableEntry, len(coded.Table))
	for i, e := range coded.Table {
		c.ExceptionTable[i] = ExceptionTableEntry{
			Start:      e.Start,
			End:        e.End,
			Target:     e.Target,
			Depth:      e.Depth,
			PushOffset: e.PushOffset,
		}
	}
	return c, nil
}

func encodeConst(v any) (codedConst, error) {
	switch c := v.(type) {
	case nil:
		return codedConst{Kind: "none"}, nil
	case bool:
		return codedConst{Kind: "bool", Bool: c}, nil
	case int64:
		return codedConst{Kind: "int", Int: c}, nil
	case float64:
		return codedConst{Kind: "float", Float: c}, nil
	case complex128:
		return codedConst{Kind: "complex", Float: real(c), Imag: imag(c)}, nil
	case string:
		return codedConst{Kind: "str", Str: c}, nil
	case []byte:
		return codedConst{Kind: "bytes", Bytes: c}, nil
	case Ellipsis:
		return codedConst{Kind: "ellipsis"}, nil
	case Tuple:
		elts := make([]codedConst, len(c))
		for i, elt := range c {
			cc, err := encodeConst(elt)
			if err != nil {
				return codedConst{}, err
			}
			elts[i] = cc
		}
		return codedConst{Kind: "tuple", Tuple: elts}, nil
	case *Code:
		sub, err := encodeCode(c)
		if err != nil {
			return codedConst{}, err
		}
		return codedConst{Kind: "code", SubCode: sub}, nil
	default:
		return codedConst{}, fmt.Errorf("bytecode: cannot marshal constant of type %T", v)
	}
}

func decodeConst(c *codedConst) (any, error) {
	switch c.Kind {
	case "none":
		return nil, nil
	case "bool":
		return c.Bool, nil
	case "int":
		return c.Int, nil
	case "float":
		return c.Float, nil
	case "complex":
		return complex(c.Float, c.Imag), nil
	case "str":
		return c.Str, nil
	case "bytes":
		return c.Bytes, nil
	case "ellipsis":
		return Ellipsis{}, nil
	case "tuple":
		elts := make(Tuple, len(c.Tuple))
		for i := range c.Tuple {
			v, err := decodeConst(&c.Tuple[i])
			if err != nil {
				return nil, err
			}
			elts[i] = v
		}
		return elts, nil
	case "code":
		if c.SubCode == nil {
			return nil, fmt.Errorf("bytecode: code constant with no body")
		}
		return decodeCode(c.SubCode)
	default:
		return nil, fmt.Errorf("bytecode: unknown constant kind %q", c.Kind)
	}
}
