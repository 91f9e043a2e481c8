package tablemap

import (
	"regexp"
	"strconv"
	"strings"
)

// Defaults applied when a border-bottom declaration cannot be parsed.
const (
	DefaultBorderWidth = 1.0
	DefaultBorderColor = "#e5e7eb"
)

var borderPattern = regexp.MustCompile(`(\d+)px\s+\w+\s+(.*)`)

// Border is a parsed border-bottom declaration.
type Border struct {
	Width float64
	Style string
	Color string
}

// CellStyle is the subset of inline CSS a renderer honors.
type CellStyle struct {
	BackgroundColor string
	Color           string
	// FontWeight is numeric; "bold" maps to 700 and zero means unset.
	FontWeight   int
	TextAlign    string
	BorderBottom *Border
}

// Bold reports whether the weight is bold or heavier.
func (s CellStyle) Bold() bool {
	return s.FontWeight >= 700
}

// ParseStyle parses an inline style string such as
// "background-color: #fff; font-weight: bold". Unrecognized properties and
// malformed declarations are ignored.
func ParseStyle(s string) CellStyle {
	var out CellStyle
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		// Only the text up to a second colon is the value.
		v, _, _ = strings.Cut(v, ":")
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}

		switch k {
		case "background-color":
			out.BackgroundColor = v
		case "color":
			out.Color = v
		case "font-weight":
			if v == "bold" {
				out.FontWeight = 700
			} else if n, err := strconv.Atoi(v); err == nil {
				out.FontWeight = n
			}
		case "text-align":
			out.TextAlign = v
		case "border-bottom":
			b := &Border{Width: DefaultBorderWidth, Style: "solid", Color: DefaultBorderColor}
			if m := borderPattern.FindStringSubmatch(v); m != nil {
				if w, err := strconv.ParseFloat(m[1], 64); err == nil {
					b.Width = w
				}
				b.Color = m[2]
			}
			out.BorderBottom = b
		}
	}
	return out
}

// RGB is an opaque color.
type RGB struct {
	R, G, B int
}

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []int{c.R, c.G, c.B} {
		b[1+2*i] = digits[v>>4&0xf]
		b[2+2*i] = digits[v&0xf]
	}
	return string(b)
}

// Luminance is the perceived brightness, 0-255.
func (c RGB) Luminance() float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

var namedColors = map[string]RGB{
	"white": {255, 255, 255},
	"black": {0, 0, 0},
	"red":   {255, 0, 0},
	"green": {0, 128, 0},
	"blue":  {0, 0, 255},
	"gray":  {128, 128, 128},
	"grey":  {128, 128, 128},
}

// ParseColor understands #rgb, #rrggbb, rgb()/rgba() and a few names.
func ParseColor(s string) (RGB, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, true
	}

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return RGB{}, false
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return RGB{}, false
		}
		return RGB{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, true
	}

	inner, ok := strings.CutPrefix(s, "rgba(")
	if !ok {
		inner, ok = strings.CutPrefix(s, "rgb(")
	}
	if !ok {
		return RGB{}, false
	}
	inner, ok = strings.CutSuffix(inner, ")")
	if !ok {
		return RGB{}, false
	}
	parts := strings.Split(inner, ",")
	if len(parts) < 3 {
		return RGB{}, false
	}
	var ch [3]int
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return RGB{}, false
		}
		ch[i] = min(255, max(0, int(f+0.5)))
	}
	return RGB{R: ch[0], G: ch[1], B: ch[2]}, true
}
