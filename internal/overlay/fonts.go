package overlay

import (
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontStack is an ordered list of outline fonts with a guaranteed bitmap
// fallback. Faces are requested per size; when no outline font can
// produce a face, the fixed-size bitmap face is returned instead, so
// Face never fails. The zero value is a stack with only the bitmap
// fallback.
type FontStack struct {
	outlines []*opentype.Font
	names    []string
}

// NewFontStack parses the given TTF/OTF files in preference order,
// skipping any that are missing or unparseable, and appends the embedded
// Go fonts so at least one outline font is always present.
func NewFontStack(paths ...string) *FontStack {
	s := &FontStack{}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("font file unavailable", "path", path, "error", err)
			continue
		}
		f, err := opentype.Parse(data)
		if err != nil {
			slog.Debug("font file unparseable", "path", path, "error", err)
			continue
		}
		s.outlines = append(s.outlines, f)
		s.names = append(s.names, path)
	}

	for _, embedded := range []struct {
		name string
		ttf  []byte
	}{
		{"gobold", gobold.TTF},
		{"goregular", goregular.TTF},
	} {
		f, err := opentype.Parse(embedded.ttf)
		if err != nil {
			slog.Warn("embedded font unparseable", "name", embedded.name, "error", err)
			continue
		}
		s.outlines = append(s.outlines, f)
		s.names = append(s.names, embedded.name)
	}

	return s
}

// Face returns a face for the requested pixel size and reports whether it
// is an outline face. The bitmap fallback ignores the size.
func (s *FontStack) Face(px float64) (font.Face, bool) {
	for i, f := range s.outlines {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    px,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			slog.Debug("face creation failed", "font", s.names[i], "size", px, "error", err)
			continue
		}
		return face, true
	}
	return basicfont.Face7x13, false
}
