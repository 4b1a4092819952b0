package plate

import "fmt"

// Segments is the letters/digits/letters split of a normalized token.
type Segments struct {
	Prefix string
	Number string
	Suffix string
}

// Len is the total length of the three runs.
func (s Segments) Len() int {
	return len(s.Prefix) + len(s.Number) + len(s.Suffix)
}

// Segment splits token into a leading letter run, a digit run and a trailing
// letter run. The number and suffix may be empty; the prefix may not, and
// nothing may follow the suffix.
func Segment(token string) (Segments, error) {
	end := scan(token, 0, isUpper)
	if end == 0 {
		return Segments{}, newError(KindMalformedTokenSequence, StageSegment, token, "plate must start with letters")
	}
	prefix := token[:end]

	start := end
	end = scan(token, start, isDigit)
	number := token[start:end]

	start = end
	end = scan(token, start, isUpper)
	suffix := token[start:end]

	if end != len(token) {
		return Segments{}, newError(KindMalformedTokenSequence, StageSegment, token,
			fmt.Sprintf("unexpected %q at position %d", token[end:], end))
	}
	return Segments{Prefix: prefix, Number: number, Suffix: suffix}, nil
}

// scan returns the first index at or after from where accept fails.
func scan(s string, from int, accept func(byte) bool) int {
	i := from
	for i < len(s) && accept(s[i]) {
		i++
	}
	return i
}
