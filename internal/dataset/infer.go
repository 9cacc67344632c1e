package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// missing tokens are treated as empty cells.
var missingTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "-": {},
}

// IsMissing reports whether a cell holds no value.
func IsMissing(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

func inferKind(values []string) Kind {
	var nonNull, numCnt, dtCnt int
	uniq := make(map[string]struct{})
	for _, v := range values {
		if IsMissing(v) || isNonFinite(v) {
			continue
		}
		nonNull++
		uniq[v] = struct{}{}
		if _, ok := parseNumeric(v); ok {
			numCnt++
			continue
		}
		if _, ok := parseTimeMaybe(strings.TrimSpace(v)); ok {
			dtCnt++
		}
	}
	switch {
	case nonNull == 0:
		return KindUnknown
	case numCnt == nonNull:
		return KindNumeric
	case dtCnt == nonNull:
		return KindDatetime
	}
	limit := len(values) / 20
	if limit < 20 {
		limit = 20
	}
	if len(uniq) <= limit {
		return KindCategorical
	}
	return KindText
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric accepts plain, percent and locale-formatted numbers. The
// right-most of ',' and '.' is taken as the decimal separator.
func parseNumeric(s string) (float64, bool) {
	if IsMissing(s) {
		return 0, false
	}
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00a0", " ")
	raw = strings.TrimSpace(raw)

	dec := '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	if cpos > dpos {
		dec = ','
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// isNonFinite reports whether s spells an infinity. Such cells carry no
// plottable value and are skipped like missing ones.
func isNonFinite(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && (math.IsInf(f, 0) || math.IsNaN(f))
}
