package plate

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	capitalPrefix = "B"

	regularNumberLen = 2
	capitalNumberLen = 3
	regularSuffixLen = 3

	temporaryMinLen = 3
	temporaryMaxLen = 6

	specialMinDigits = 3
	specialMaxDigits = 7

	diplomaticDigits   = 6
	diplomaticGroupMin = 101
)

// Apply runs the category-specific rules over seg and builds the final Plate.
func Apply(category Category, seg Segments) (Plate, error) {
	switch category {
	case CategoryRegular, CategoryRegularTemporary:
		return applyRegular(seg)
	case CategorySpecialOrganization:
		return applySpecial(seg)
	case CategoryDiplomatic:
		return applyDiplomatic(seg)
	}
	// Resolve only yields the categories above; this guards direct callers
	// passing a Category value that does not exist.
	return Plate{}, newError(KindUnknownPrefix, StageRules, seg.Prefix, fmt.Sprintf("no rules for category %q", category))
}

func applyRegular(seg Segments) (Plate, error) {
	token := seg.Prefix + seg.Number + seg.Suffix
	permanent := isPermanentNumber(seg.Prefix, seg.Number)
	temporary := isTemporaryNumber(seg.Number)

	switch {
	case permanent && len(seg.Suffix) == regularSuffixLen:
		if err := checkSuffix(token, seg.Suffix); err != nil {
			return Plate{}, err
		}
		return newPlate(CategoryRegular, seg), nil
	case temporary && seg.Suffix == "":
		return newPlate(CategoryRegularTemporary, seg), nil
	case permanent || temporary:
		return Plate{}, newError(KindSuffixInvalid, StageRules, token,
			fmt.Sprintf("suffix %q must be exactly %d letters (or absent on a temporary plate)", seg.Suffix, regularSuffixLen))
	}

	want := "2 digits"
	if seg.Prefix == capitalPrefix {
		want = "2 or 3 digits"
	}
	return Plate{}, newError(KindNumberLengthInvalid, StageRules, token,
		fmt.Sprintf("number %q: want %s, or 3-6 digits starting with 0 and not ending in 0", seg.Number, want))
}

func isPermanentNumber(prefix, number string) bool {
	return len(number) == regularNumberLen || (prefix == capitalPrefix && len(number) == capitalNumberLen)
}

// Temporary (red) plates: leading zero, no trailing zero.
func isTemporaryNumber(number string) bool {
	n := len(number)
	return n >= temporaryMinLen && n <= temporaryMaxLen && number[0] == '0' && number[n-1] != '0'
}

// checkSuffix enforces the three-letter rule of permanent plates.
func checkSuffix(token, suffix string) error {
	switch {
	case suffix[0] == 'I' || suffix[0] == 'O':
		return newError(KindSuffixForbiddenPattern, StageRules, token, "suffix cannot begin with I or O")
	case strings.ContainsRune(suffix, 'Q'):
		return newError(KindSuffixForbiddenPattern, StageRules, token, "suffix cannot contain Q")
	case suffix == "III" || suffix == "OOO":
		return newError(KindSuffixForbiddenPattern, StageRules, token, "suffix cannot be III or OOO")
	}
	return nil
}

func applySpecial(seg Segments) (Plate, error) {
	token := seg.Prefix + seg.Number + seg.Suffix
	if seg.Suffix != "" {
		return Plate{}, newError(KindTrailingCharactersUnconsumed, StageRules, token,
			fmt.Sprintf("letters %q after the number", seg.Suffix))
	}
	if n := len(seg.Number); n < specialMinDigits || n > specialMaxDigits {
		return Plate{}, newError(KindSpecialDigitCountInvalid, StageRules, token,
			fmt.Sprintf("got %d digits, want %d-%d", n, specialMinDigits, specialMaxDigits))
	}
	return newPlate(CategorySpecialOrganization, seg), nil
}

func applyDiplomatic(seg Segments) (Plate, error) {
	token := seg.Prefix + seg.Number + seg.Suffix
	if seg.Suffix != "" {
		return Plate{}, newError(KindTrailingCharactersUnconsumed, StageRules, token,
			fmt.Sprintf("letters %q after the number", seg.Suffix))
	}
	if len(seg.Number) != diplomaticDigits {
		return Plate{}, newError(KindDiplomaticNumericRangeInvalid, StageRules, token,
			fmt.Sprintf("got %d digits, want %d", len(seg.Number), diplomaticDigits))
	}
	half := diplomaticDigits / 2
	for _, group := range []string{seg.Number[:half], seg.Number[half:]} {
		v, err := strconv.Atoi(group)
		if err != nil || v < diplomaticGroupMin {
			return Plate{}, newError(KindDiplomaticNumericRangeInvalid, StageRules, token,
				fmt.Sprintf("group %q is below %d", group, diplomaticGroupMin))
		}
	}
	return newPlate(CategoryDiplomatic, seg), nil
}
