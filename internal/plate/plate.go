// Package plate validates and classifies Romanian vehicle registration plates.
//
// Validate runs four stages in order: Normalize, Segment, Resolve and Apply.
// The first failing stage ends the call with a *ValidationError; there is no
// backtracking between stages. All functions are pure and safe for
// concurrent use; the prefix tables are built once and never mutated.
package plate

// Plate is a validated registration. The zero value is not a valid plate.
type Plate struct {
	category Category
	prefix   string
	number   string
	suffix   string
}

func newPlate(category Category, seg Segments) Plate {
	return Plate{category: category, prefix: seg.Prefix, number: seg.Number, suffix: seg.Suffix}
}

func (p Plate) Category() Category { return p.category }
func (p Plate) Prefix() string     { return p.prefix }
func (p Plate) Number() string     { return p.number }
func (p Plate) Suffix() string     { return p.suffix }

// String returns the normalized registration, prefix+number+suffix.
func (p Plate) String() string {
	return p.prefix + p.number + p.suffix
}

// Validate checks raw and returns either the classified plate or a *ValidationError.
func Validate(raw string) (Plate, error) {
	token, err := Normalize(raw)
	if err != nil {
		return Plate{}, err
	}
	seg, err := Segment(token)
	if err != nil {
		return Plate{}, err
	}
	category, err := Resolve(seg.Prefix)
	if err != nil {
		return Plate{}, err
	}
	return Apply(category, seg)
}
