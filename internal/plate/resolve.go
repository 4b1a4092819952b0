package plate

import "sort"

// Category is the plate family selected by the prefix and refined by the rules.
type Category string

const (
	CategoryRegular             Category = "regular"
	CategoryRegularTemporary    Category = "regular_temporary"
	CategorySpecialOrganization Category = "special_organization"
	CategoryDiplomatic          Category = "diplomatic"
)

// Read-only after init.
var (
	countyCodes = setOf(
		"B",
		"AB", "AR", "AG", "BC", "BH", "BN", "BT", "BV", "BR", "BZ", "CS", "CL", "CJ", "CT",
		"CV", "DB", "DJ", "GL", "GR", "GJ", "HR", "HD", "IL", "IS", "IF", "MM", "MH", "MS",
		"NT", "OT", "PH", "SM", "SJ", "SB", "SV", "TR", "TM", "TL", "VS", "VL", "VN",
	)
	specialCodes    = setOf("A", "FA", "ALA", "MAI")
	diplomaticCodes = setOf("CD", "TC", "CO")
)

func setOf(codes ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}
	return m
}

func IsCountyCode(prefix string) bool {
	_, ok := countyCodes[prefix]
	return ok
}

func IsSpecialCode(prefix string) bool {
	_, ok := specialCodes[prefix]
	return ok
}

func IsDiplomaticCode(prefix string) bool {
	_, ok := diplomaticCodes[prefix]
	return ok
}

// CountyCodes returns a sorted copy of the county prefixes.
func CountyCodes() []string {
	out := make([]string, 0, len(countyCodes))
	for c := range countyCodes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Resolve maps a prefix to its category. The sets are disjoint; they are
// checked county, special, diplomatic so the result never depends on map order.
// A county prefix always resolves to CategoryRegular here; Apply decides
// whether it is a temporary plate.
func Resolve(prefix string) (Category, error) {
	switch {
	case IsCountyCode(prefix):
		return CategoryRegular, nil
	case IsSpecialCode(prefix):
		return CategorySpecialOrganization, nil
	case IsDiplomaticCode(prefix):
		return CategoryDiplomatic, nil
	}
	return "", newError(KindUnknownPrefix, StageResolve, prefix, "not a county, special or diplomatic code")
}
