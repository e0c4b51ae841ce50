package path

// FillRule selects how a path's interior is computed.
type FillRule uint8

const (
	// NonZero fills points with a non-zero winding number.
	NonZero FillRule = iota
	// EvenOdd fills points with an odd crossing count.
	EvenOdd
	// InverseNonZero fills everything NonZero would not.
	InverseNonZero
	// InverseEvenOdd fills everything EvenOdd would not.
	InverseEvenOdd
	// Hairline strokes the path with a one pixel wide line.
	Hairline
)

var fillRuleNames = [...]string{
	NonZero:        "NonZero",
	EvenOdd:        "EvenOdd",
	InverseNonZero: "InverseNonZero",
	InverseEvenOdd: "InverseEvenOdd",
	Hairline:       "Hairline",
}

// String returns the rule name.
func (f FillRule) String() string {
	if int(f) < len(fillRuleNames) {
		return fillRuleNames[f]
	}
	return "Unknown"
}

// IsInverse reports whether the rule fills the outside of the path.
func (f FillRule) IsInverse() bool {
	return f == InverseNonZero || f == InverseEvenOdd
}

// NonInverse maps an inverse rule to its plain counterpart.
func (f FillRule) NonInverse() FillRule {
	switch f {
	case InverseNonZero:
		return NonZero
	case InverseEvenOdd:
		return EvenOdd
	}
	return f
}

// IsEvenOdd reports whether the rule uses even-odd crossing counts.
func (f FillRule) IsEvenOdd() bool {
	return f == EvenOdd || f == InverseEvenOdd
}
