package plate

import (
	"errors"
	"fmt"
)

// ErrorKind is the flat rejection taxonomy of the validator.
type ErrorKind string

const (
	KindEmptyInput                    ErrorKind = "empty_input"
	KindLowercasePresent              ErrorKind = "lowercase_present"
	KindSpecialCharacterPresent       ErrorKind = "special_character_present"
	KindMalformedTokenSequence        ErrorKind = "malformed_token_sequence"
	KindUnknownPrefix                 ErrorKind = "unknown_prefix"
	KindNumberLengthInvalid           ErrorKind = "number_length_invalid"
	KindSuffixInvalid                 ErrorKind = "suffix_invalid"
	KindSuffixForbiddenPattern        ErrorKind = "suffix_forbidden_pattern"
	KindSpecialDigitCountInvalid      ErrorKind = "special_digit_count_invalid"
	KindDiplomaticNumericRangeInvalid ErrorKind = "diplomatic_numeric_range_invalid"
	KindTrailingCharactersUnconsumed  ErrorKind = "trailing_characters_unconsumed"
)

// Stage names the pipeline step that rejected the input.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageSegment   Stage = "segment"
	StageResolve   Stage = "resolve"
	StageRules     Stage = "rules"
)

// Sentinels for errors.Is matching against a *ValidationError.
var (
	ErrEmptyInput                    = errors.New("empty input")
	ErrLowercasePresent              = errors.New("lowercase letters present")
	ErrSpecialCharacterPresent       = errors.New("special characters present")
	ErrMalformedTokenSequence        = errors.New("malformed token sequence")
	ErrUnknownPrefix                 = errors.New("unknown prefix")
	ErrNumberLengthInvalid           = errors.New("number length invalid")
	ErrSuffixInvalid                 = errors.New("suffix invalid")
	ErrSuffixForbiddenPattern        = errors.New("suffix uses a forbidden pattern")
	ErrSpecialDigitCountInvalid      = errors.New("special plate digit count invalid")
	ErrDiplomaticNumericRangeInvalid = errors.New("diplomatic numeric range invalid")
	ErrTrailingCharactersUnconsumed  = errors.New("trailing characters after number")
)

var sentinels = map[ErrorKind]error{
	KindEmptyInput:                    ErrEmptyInput,
	KindLowercasePresent:              ErrLowercasePresent,
	KindSpecialCharacterPresent:       ErrSpecialCharacterPresent,
	KindMalformedTokenSequence:        ErrMalformedTokenSequence,
	KindUnknownPrefix:                 ErrUnknownPrefix,
	KindNumberLengthInvalid:           ErrNumberLengthInvalid,
	KindSuffixInvalid:                 ErrSuffixInvalid,
	KindSuffixForbiddenPattern:        ErrSuffixForbiddenPattern,
	KindSpecialDigitCountInvalid:      ErrSpecialDigitCountInvalid,
	KindDiplomaticNumericRangeInvalid: ErrDiplomaticNumericRangeInvalid,
	KindTrailingCharactersUnconsumed:  ErrTrailingCharactersUnconsumed,
}

// ValidationError is the terminal failure value of Validate. It carries the
// kind, the stage that produced it and the token as seen by that stage.
type ValidationError struct {
	Kind   ErrorKind
	Stage  Stage
	Input  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("plate %q [%s/%s]: %s", e.Input, e.Stage, e.Kind, e.Detail)
	}
	return fmt.Sprintf("plate %q [%s/%s]", e.Input, e.Stage, e.Kind)
}

// Is reports whether target is the sentinel for e.Kind.
func (e *ValidationError) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// Unwrap exposes the sentinel so wrapped chains keep matching.
func (e *ValidationError) Unwrap() error {
	return sentinels[e.Kind]
}

// KindOf extracts the ErrorKind from err, or "" when err is not a validation error.
func KindOf(err error) ErrorKind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}

// StageOf extracts the failing Stage from err, or "" when err is not a validation error.
func StageOf(err error) Stage {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Stage
	}
	return ""
}

// IsValidationError reports whether err (or anything it wraps) is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func newError(kind ErrorKind, stage Stage, input, detail string) *ValidationError {
	return &ValidationError{Kind: kind, Stage: stage, Input: input, Detail: detail}
}
