package plate

import "strings"

// Normalize removes spaces from raw and checks that what remains is a
// non-empty run of uppercase ASCII letters and digits.
//
// Lowercase letters are reported before any other bad character, so
// "Bm-1" fails with KindLowercasePresent rather than KindSpecialCharacterPresent.
func Normalize(raw string) (string, error) {
	token := strings.ReplaceAll(raw, " ", "")
	if token == "" {
		return "", newError(KindEmptyInput, StageNormalize, raw, "nothing left after removing spaces")
	}

	for i := 0; i < len(token); i++ {
		if isLower(token[i]) {
			return "", newError(KindLowercasePresent, StageNormalize, token, "plates are written in uppercase")
		}
	}
	for i := 0; i < len(token); i++ {
		if !isUpper(token[i]) && !isDigit(token[i]) {
			return "", newError(KindSpecialCharacterPresent, StageNormalize, token, "only A-Z and 0-9 are allowed")
		}
	}
	return token, nil
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
