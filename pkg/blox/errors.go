package blox

import "github.com/timothycrosley/blox/internal/errors"

// Sentinels for errors.Is. Returned errors carry the tag, attribute or
// child that caused them in their detail.
var (
	ErrMissingAttribute = errors.Sentinel("E010")
	ErrUnknownAttribute = errors.Sentinel("E011")
	ErrMissingChild     = errors.Sentinel("E012")
	ErrInvalidValue     = errors.Sentinel("E013")
	ErrParse            = errors.Sentinel("E020")
	ErrStructuralMisuse = errors.Sentinel("E030")
	ErrDuplicateSignal  = errors.Sentinel("E032")
)
