package object

var (
	True  = &Bool{value: true}
	False = &Bool{value: false}
)

// NewBool returns the shared Bool for the given value.
func NewBool(value bool) *Bool {
	if value {
		return True
	}
	return False
}

type Bool struct {
	base
	value bool
}

func (b *Bool) Value() bool { return b.value }

func (b *Bool) Type() Type { return BOOL }

func (b *Bool) Inspect() string {
	if b.value {
		return "True"
	}
	return "False"
}

func (b *Bool) Interface() any { return b.value }

func (b *Bool) IsTruthy() bool { return b.value }

func (b *Bool) Equals(other Object) bool {
	if n, ok := asNumber(other); ok {
		return numbersEqual(intNumber(b.asInt()), n)
	}
	return false
}

// HashKey folds booleans into the integer keyspace, matching 1 == True.
func (b *Bool) HashKey() HashKey {
	return HashKey{Type: INT, Int: b.asInt()}
}

func (b *Bool) asInt() int64 {
	if b.value {
		return 1
	}
	return 0
}
