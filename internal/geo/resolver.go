package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// UnknownName is returned when no extractor yields a country name.
const UnknownName = "Unknown"

// Feature is one map geometry feature: an identifier plus its property bag.
type Feature struct {
	ID         any            `json:"id"`
	Properties map[string]any `json:"properties"`
}

// Country is a resolved feature. Code is empty when unresolvable.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CodeExtractor returns an alpha-2 code or "" when it cannot decide.
type CodeExtractor func(Feature) string

// NameExtractor returns a display name or "" when it cannot decide.
type NameExtractor func(f Feature, code string) string

// CodeExtractors is tried in order; the first non-empty code wins.
var CodeExtractors = []CodeExtractor{
	propertyCode("iso2cd"),
	propertyCode("ISO_A2"),
	propertyCode("iso_a2"),
	numericIDCode,
}

// NameExtractors is tried in order; the first non-empty name wins.
var NameExtractors = []NameExtractor{
	propertyName("nam_en"),
	propertyName("name"),
	propertyName("NAME"),
	propertyName("ADMIN"),
	func(_ Feature, code string) string { return NameForCode(code) },
}

// numericOverrides covers identifiers that are not UN M.49 codes.
var numericOverrides = map[string]string{
	"-99": "XK",
}

var nameOverrides = map[string]string{
	"XK": "Kosovo",
}

var englishRegions = display.Regions(language.English)

// Resolve maps f to a country. It never panics on missing or oddly typed
// properties.
func Resolve(f Feature) Country {
	code := ResolveCode(f)
	name := ""
	for _, extract := range NameExtractors {
		if name = extract(f, code); name != "" {
			break
		}
	}
	if name == "" {
		name = UnknownName
	}
	return Country{Code: code, Name: name}
}

// ResolveCode runs the code chain only.
func ResolveCode(f Feature) string {
	for _, extract := range CodeExtractors {
		if code := extract(f); code != "" {
			return code
		}
	}
	return ""
}

// NameForCode returns the English name for an alpha-2 code, or "" when the
// code is not a known country.
func NameForCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if name, ok := nameOverrides[code]; ok {
		return name
	}
	region, err := language.ParseRegion(code)
	if err != nil || !region.IsCountry() {
		return ""
	}
	return englishRegions.Name(region)
}

// NormalizeCode validates an alpha-2 code, returning it upper-cased or "".
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 || code[0] < 'A' || code[0] > 'Z' || code[1] < 'A' || code[1] > 'Z' {
		return ""
	}
	return code
}

func propertyCode(key string) CodeExtractor {
	return func(f Feature) string {
		value, ok := f.Properties[key].(string)
		if !ok {
			return ""
		}
		return NormalizeCode(value)
	}
}

func propertyName(key string) NameExtractor {
	return func(f Feature, _ string) string {
		value, ok := f.Properties[key].(string)
		if !ok {
			return ""
		}
		return strings.TrimSpace(value)
	}
}

// numericIDCode maps a UN M.49 numeric identifier to its alpha-2 code.
func numericIDCode(f Feature) string {
	id, ok := numericID(f.ID)
	if !ok {
		return ""
	}
	key := strconv.Itoa(id)
	if code, ok := numericOverrides[key]; ok {
		return code
	}
	if id < 0 || id > 999 {
		return ""
	}
	region, err := language.ParseRegion(fmt.Sprintf("%03d", id))
	if err != nil || !region.IsCountry() {
		return ""
	}
	return NormalizeCode(region.String())
}

// numericID accepts the shapes geometry sources use for ids: JSON numbers,
// integers, and zero-padded strings such as "004".
func numericID(raw any) (int, bool) {
	switch v := raw.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case interface{ Int64() (int64, error) }:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
