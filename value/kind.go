package value

// Kind is the variant tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindComplex
	KindString
	KindRange
	KindList
	KindSet
	KindMap
	KindTable
	KindMatrix
	KindOpaque // Go value with no Ruby representation
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBool:    "bool",
	KindInt:     "int",
	KindFloat:   "float",
	KindComplex: "complex",
	KindString:  "string",
	KindRange:   "range",
	KindList:    "list",
	KindSet:     "set",
	KindMap:     "map",
	KindTable:   "table",
	KindMatrix:  "matrix",
	KindOpaque:  "opaque",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether values of this kind have no children.
func (k Kind) IsScalar() bool {
	return k <= KindRange || k == KindOpaque
}

// IsNumeric reports whether the kind is an integer, float or complex.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat || k == KindComplex
}
