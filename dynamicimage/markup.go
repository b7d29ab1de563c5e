package dynamicimage

import (
	"fmt"
	"html"
	"strings"
)

// HWString returns the width and height attributes for an <img> tag,
// leaving out zero values.
func HWString(width, height int) string {
	var parts []string
	if width > 0 {
		parts = append(parts, fmt.Sprintf(`width="%d"`, width))
	}
	if height > 0 {
		parts = append(parts, fmt.Sprintf(`height="%d"`, height))
	}
	return strings.Join(parts, " ")
}

// Markup builds a self-closing <img> tag. hw is inserted as is; src and
// classes are escaped. The class attribute is left out when classes is
// empty.
func Markup(src, hw, classes string) string {
	parts := []string{"<img", fmt.Sprintf(`src="%s"`, html.EscapeString(src))}
	if hw != "" {
		parts = append(parts, hw)
	}
	if classes != "" {
		parts = append(parts, fmt.Sprintf(`class="%s"`, html.EscapeString(classes)))
	}
	parts = append(parts, "/>")
	return strings.Join(parts, " ")
}

// replaceBase swaps the last path segment of src for file, keeping any
// query or fragment.
func replaceBase(src, file string) string {
	rest := ""
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src, rest = src[:i], src[i:]
	}
	return src[:strings.LastIndex(src, "/")+1] + file + rest
}

// SizeKey names the metadata entry of a size generated on demand.
func SizeKey(width, height int) string {
	return fmt.Sprintf("resized-%dx%d", width, height)
}
