package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Ticker symbols: a leading letter, then letters, digits, dots or dashes
// (BRK.B, RDS-A). Case is folded by the caller.
var symbolRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.\-]{0,14}$`)

// MaxPortfolioNameLength bounds portfolio names in runes.
const MaxPortfolioNameLength = 100

func IsValidSymbol(symbol string) bool {
	return symbolRe.MatchString(symbol)
}

// IsValidPortfolioName requires a non-blank name of at most
// MaxPortfolioNameLength runes after trimming.
func IsValidPortfolioName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && utf8.RuneCountInString(name) <= MaxPortfolioNameLength
}
