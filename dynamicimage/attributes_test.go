package dynamicimage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]string
		want Attributes
	}{
		{
			name: "defaults",
			raw:  map[string]string{},
			want: Attributes{HWMarkup: true},
		},
		{
			name: "numeric src is an ID",
			raw: map[string]string{
				"src":      " 12 ",
				"width":    "100px",
				"height":   "-80",
				"classes":  " a b ",
				"hwmarkup": "false",
			},
			want: Attributes{ID: 12, ByID: true, Width: 100, Height: 80, Classes: "a b"},
		},
		{
			name: "url src",
			raw:  map[string]string{"src": "http://example.org/a b.png", "width": "x", "hwmarkup": "maybe"},
			want: Attributes{Src: "http://example.org/a%20b.png", HWMarkup: true},
		},
		{
			name: "unknown attributes are ignored",
			raw:  map[string]string{"src": "/a.png", "onload": "x"},
			want: Attributes{Src: "/a.png", HWMarkup: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.raw))
		})
	}
}

func TestCleanURL(t *testing.T) {
	tests := map[string]string{
		"":                              "",
		"http://example.org/a.png":      "http://example.org/a.png",
		"https://example.org/a b.png":   "https://example.org/a%20b.png",
		"example.org/a.png":             "http://example.org/a.png",
		"/wp-content/uploads/a.png":     "/wp-content/uploads/a.png",
		"javascript:alert(1)":           "",
		"http://example.org/a<b>.png":   "http://example.org/ab.png",
		`http://example.org/"onload=x`:  "http://example.org/onload=x",
		"ftp://files.example.org/a.png": "ftp://files.example.org/a.png",
		"data:image/png;base64,AAAA":    "",
	}

	for in, want := range tests {
		assert.Equal(t, want, CleanURL(in), in)
	}
}

func TestMarkup(t *testing.T) {
	assert.Equal(t, `width="10" height="20"`, HWString(10, 20))
	assert.Equal(t, `height="20"`, HWString(0, 20))
	assert.Equal(t, "", HWString(0, 0))

	assert.Equal(t, `<img src="a.png" />`, Markup("a.png", "", ""))
	assert.Equal(t, `<img src="a.png?x=1&amp;y=2" width="1" class="x&#34;y" />`, Markup("a.png?x=1&y=2", `width="1"`, `x"y`))
}

func TestReplaceBase(t *testing.T) {
	assert.Equal(t, "http://x.org/1/photo-1x1.png", replaceBase("http://x.org/1/photo.png", "photo-1x1.png"))
	assert.Equal(t, "http://x.org/1/photo-1x1.png?v=2", replaceBase("http://x.org/1/photo.png?v=2", "photo-1x1.png"))
	assert.Equal(t, "photo-1x1.png", replaceBase("photo.png", "photo-1x1.png"))
	assert.Equal(t, "resized-100x80", SizeKey(100, 80))
}
