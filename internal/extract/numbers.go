package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// a minus sign counts only when it touches the digits, so "2 - 4" stays a range
var numberToken = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?|-?\.\d+`)

// ParseNumber reads the first numeric token of s, ignoring currency symbols,
// units and thousands separators. Ranges yield their lower bound.
//
//	"$1,250,000"       -> 1250000
//	"2,500 - 3,100 sq" -> 2500
//	"3.5 Baths"        -> 3.5
//	"-112.4"           -> -112.4
func ParseNumber(s string) (float64, bool) {
	tok := numberToken.FindString(s)
	if tok == "" {
		return 0, false
	}
	tok = strings.ReplaceAll(tok, ",", "")
	n, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
