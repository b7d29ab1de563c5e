package shortcode

import (
	"regexp"
	"strconv"
	"strings"
)

var attrPattern = regexp.MustCompile(
	`([\w-]+)\s*=\s*"([^"]*)"(?:\s|$)` +
		`|([\w-]+)\s*=\s*'([^']*)'(?:\s|$)` +
		`|([\w-]+)\s*=\s*([^\s'"]+)(?:\s|$)` +
		`|"([^"]*)"(?:\s|$)` +
		`|'([^']*)'(?:\s|$)` +
		`|(\S+)(?:\s|$)`)

var spaceReplacer = strings.NewReplacer("\u00a0", " ", "\u200b", " ")

// ParseAttrs parses the attribute text of a tag. Named attributes are keyed
// by their lower-cased name; bare values are keyed by position ("0", "1", ...).
func ParseAttrs(text string) map[string]string {
	attrs := make(map[string]string)
	text = spaceReplacer.Replace(text)

	group := func(loc []int, n int) (string, bool) {
		if loc[2*n] < 0 {
			return "", false
		}
		return text[loc[2*n]:loc[2*n+1]], true
	}

	pos := 0
	for _, loc := range attrPattern.FindAllStringSubmatchIndex(text, -1) {
		named := false
		for _, n := range []int{1, 3, 5} {
			if name, ok := group(loc, n); ok {
				value, _ := group(loc, n+1)
				attrs[strings.ToLower(name)] = value
				named = true
				break
			}
		}
		if named {
			continue
		}

		for _, n := range []int{7, 8, 9} {
			if value, ok := group(loc, n); ok {
				attrs[strconv.Itoa(pos)] = value
				pos++
				break
			}
		}
	}

	return attrs
}

// Merge returns defaults overridden by the matching keys of attrs. Keys
// absent from defaults are dropped.
func Merge(defaults, attrs map[string]string) map[string]string {
	out := make(map[string]string, len(defaults))
	for k, v := range defaults {
		if given, ok := attrs[k]; ok {
			v = given
		}
		out[k] = v
	}
	return out
}
