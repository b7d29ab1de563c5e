package dynamicimage

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/vortechron/go-dynamic-image/shortcode"
)

// Attributes are the sanitised inputs of one dynamic image.
type Attributes struct {
	// Src is the image URL. It is empty when the image is given by ID.
	Src string
	// ID is the attachment ID when ByID is set.
	ID       uint64
	ByID     bool
	Width    int
	Height   int
	Classes  string
	HWMarkup bool
}

var defaultAttributes = map[string]string{
	"src":      "",
	"width":    "",
	"height":   "",
	"classes":  "",
	"hwmarkup": "true",
}

// Sanitize trims raw attributes and coerces them to their types. A numeric
// src is an attachment ID, anything else is cleaned as a URL. width and
// height become non-negative integers; unparseable values become 0.
func Sanitize(raw map[string]string) Attributes {
	atts := shortcode.Merge(defaultAttributes, raw)
	for k, v := range atts {
		atts[k] = strings.TrimSpace(v)
	}

	a := Attributes{
		Width:    absInt(atts["width"]),
		Height:   absInt(atts["height"]),
		Classes:  atts["classes"],
		HWMarkup: true,
	}

	if hw, err := strconv.ParseBool(atts["hwmarkup"]); err == nil {
		a.HWMarkup = hw
	}

	if id, err := strconv.ParseUint(atts["src"], 10, 64); err == nil {
		a.ID = id
		a.ByID = true
	} else {
		a.Src = CleanURL(atts["src"])
	}

	return a
}

// absInt reads the leading integer of s and returns its absolute value,
// so "120px" is 120 and "-5" is 5.
func absInt(s string) int {
	s = strings.TrimSpace(s)
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

var (
	allowedSchemes = map[string]bool{
		"http": true, "https": true, "ftp": true, "ftps": true,
	}
	urlDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\-~+_.?#=!&;,/:%@$|*'()\[\]\x{80}-\x{10FFFF}]`)
	phpFile       = regexp.MustCompile(`(?i)^[a-z0-9-]+?\.php`)
)

// CleanURL strips characters that do not belong in a URL and rejects
// schemes other than http(s) and ftp(s). A host without a scheme gets
// http:// prepended. It returns "" for unusable input.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	raw = strings.ReplaceAll(raw, " ", "%20")
	raw = urlDisallowed.ReplaceAllString(raw, "")
	if raw == "" {
		return ""
	}

	if !strings.Contains(raw, ":") && !strings.ContainsRune("/#?", rune(raw[0])) && !phpFile.MatchString(raw) {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "" && !allowedSchemes[strings.ToLower(u.Scheme)] {
		return ""
	}

	return raw
}
