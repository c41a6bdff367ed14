package render

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/inviteforge/inviteforge/pkg/logger"
)

// fontDirs are scanned for system TrueType files, in order.
var fontDirs = []string{
	"/usr/share/fonts/truetype/dejavu",
	"/usr/share/fonts/truetype/liberation",
	"/usr/share/fonts/truetype",
	"/usr/share/fonts/TTF",
	"/usr/local/share/fonts",
	"/Library/Fonts",
	"/System/Library/Fonts",
}

// familyFiles maps common requested families to candidate file names. Every
// family additionally falls back to the DejaVu and Liberation faces, which
// cover most Linux images.
var familyFiles = map[string][]string{
	"arial":     {"Arial.ttf", "arial.ttf", "LiberationSans-Regular.ttf"},
	"helvetica": {"Helvetica.ttf", "LiberationSans-Regular.ttf"},
	"times":     {"Times New Roman.ttf", "LiberationSerif-Regular.ttf", "DejaVuSerif.ttf"},
	"courier":   {"Courier New.ttf", "LiberationMono-Regular.ttf", "DejaVuSansMono.ttf"},
}

var fallbackFiles = []string{"DejaVuSans.ttf", "LiberationSans-Regular.ttf"}

type faceKey struct {
	family string
	size   int
}

// FontCache loads and caches font faces by family and pixel size. Lookups
// never fail: a missing or unparsable font degrades to the embedded Go
// regular face, and as a last resort to the fixed-size basicfont, so text
// always renders.
type FontCache struct {
	mu       sync.Mutex
	faces    map[faceKey]font.Face
	embedded *opentype.Font
}

// NewFontCache builds an empty cache and parses the embedded fallback font.
func NewFontCache() *FontCache {
	cache := &FontCache{faces: make(map[faceKey]font.Face)}

	embedded, err := opentype.Parse(goregular.TTF)
	if err == nil {
		cache.embedded = embedded
	} else {
		logger.WithModule("fonts").Warn("embedded font unavailable, falling back to bitmap face")
	}

	return cache
}

// Face returns a drawing face for the requested family at the given pixel
// size.
func (c *FontCache) Face(family string, size int) font.Face {
	if size <= 0 {
		size = 16
	}
	family = strings.ToLower(strings.TrimSpace(family))

	key := faceKey{family: family, size: size}

	c.mu.Lock()
	defer c.mu.Unlock()

	if face, ok := c.faces[key]; ok {
		return face
	}

	face := c.buildFace(family, size)
	c.faces[key] = face
	return face
}

func (c *FontCache) buildFace(family string, size int) font.Face {
	candidates := append([]string{}, familyFiles[family]...)
	candidates = append(candidates, fallbackFiles...)

	for _, name := range candidates {
		for _, dir := range fontDirs {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				continue
			}
			parsed, err := opentype.Parse(data)
			if err != nil {
				continue
			}
			if face := newFace(parsed, size); face != nil {
				return face
			}
		}
	}

	if c.embedded != nil {
		if face := newFace(c.embedded, size); face != nil {
			return face
		}
	}

	return basicfont.Face7x13
}

func newFace(parsed *opentype.Font, size int) font.Face {
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil
	}
	return face
}
