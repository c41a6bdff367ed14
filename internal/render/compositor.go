package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/inviteforge/inviteforge/internal/models"
	"github.com/inviteforge/inviteforge/pkg/logger"
)

// defaultFontSize applies when a text element carries no explicit size.
const defaultFontSize = 16

// Compositor rasterizes a resolved element list onto a canvas and encodes the
// result as PNG. Per-element decode or draw failures are logged and skipped;
// only an unusable canvas aborts a render.
type Compositor struct {
	fonts *FontCache
	log   *zap.Logger
}

// NewCompositor builds a Compositor with its own font cache.
func NewCompositor() *Compositor {
	return &Compositor{
		fonts: NewFontCache(),
		log:   logger.WithModule("compositor"),
	}
}

// Render paints the background and the elements in slice order (z-order) and
// returns the PNG bytes.
func (c *Compositor) Render(background string, width, height int, elements []models.Element) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("compositor: invalid canvas dimensions %dx%d", width, height)
	}

	canvas := c.paintBackground(background, width, height)

	for i, el := range elements {
		switch el.Type {
		case models.ElementText:
			c.drawText(canvas, el)
		case models.ElementImage:
			canvas = c.drawImage(canvas, el, i)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("compositor: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// paintBackground fills the canvas with a hex color, or stretches a data URI
// image over the full canvas. Decode failures keep the default fill; a broken
// background never aborts the render.
func (c *Compositor) paintBackground(background string, width, height int) *image.NRGBA {
	if strings.HasPrefix(background, "data:") {
		img, err := decodeDataURI(background)
		if err != nil {
			c.log.Warn("background image decode failed, using default fill", zap.Error(err))
			return imaging.New(width, height, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
		resized := imaging.Resize(img, width, height, imaging.Lanczos)
		canvas := imaging.New(width, height, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		return imaging.Paste(canvas, resized, image.Pt(0, 0))
	}

	fill, err := ParseHexColor(background)
	if err != nil {
		fill = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return imaging.New(width, height, fill)
}

// drawText renders the content line by line. Line pitch equals the font size:
// line i sits at (x, y + i*fontSize). Alignment offsets the anchor per line:
// center and right alignments measure the line and shift the origin.
func (c *Compositor) drawText(canvas *image.NRGBA, el models.Element) {
	if el.Content == "" {
		return
	}

	size := el.FontSize
	if size <= 0 {
		size = defaultFontSize
	}

	col, err := ParseHexColor(el.Color)
	if err != nil {
		col = color.NRGBA{A: 255} // black
	}

	face := c.fonts.Face(el.FontFamily, size)
	ascent := face.Metrics().Ascent.Ceil()

	for i, line := range strings.Split(el.Content, "\n") {
		if line == "" {
			continue
		}

		x := el.X
		switch el.TextAlign {
		case "center":
			x -= font.MeasureString(face, line).Ceil() / 2
		case "right":
			x -= font.MeasureString(face, line).Ceil()
		}

		drawer := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(col),
			Face: face,
			Dot:  fixed.P(x, el.Y+i*size+ascent),
		}
		drawer.DrawString(line)
	}
}

// drawImage decodes, resizes and pastes one image element. A nil src renders
// nothing; any decode failure skips just this element.
func (c *Compositor) drawImage(canvas *image.NRGBA, el models.Element, index int) *image.NRGBA {
	if el.Src == nil || *el.Src == "" {
		return canvas
	}

	img, err := decodeDataURI(*el.Src)
	if err != nil {
		c.log.Warn("image element decode failed, skipping",
			zap.Int("element", index),
			zap.Error(err),
		)
		return canvas
	}

	w, h := el.Width, el.Height
	if w <= 0 || h <= 0 {
		bounds := img.Bounds()
		w, h = bounds.Dx(), bounds.Dy()
	}

	// Stretch to the declared box; aspect ratio is deliberately not preserved.
	resized := imaging.Resize(img, w, h, imaging.Lanczos)

	if el.Shape == models.ShapeCircle {
		resized = applyEllipseMask(resized)
	}

	return imaging.Overlay(canvas, resized, image.Pt(el.X, el.Y), 1.0)
}

// applyEllipseMask crops the image to a full-bounding-box ellipse by zeroing
// the alpha channel outside it, leaving transparent corners.
func applyEllipseMask(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return img
	}

	rx, ry := float64(w)/2, float64(h)/2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nx := (float64(x) + 0.5 - rx) / rx
			ny := (float64(y) + 0.5 - ry) / ry
			if nx*nx+ny*ny > 1 {
				offset := img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				img.Pix[offset+3] = 0
			}
		}
	}

	return img
}

// decodeDataURI decodes "data:<mime>;base64,<payload>" into an image.
func decodeDataURI(uri string) (image.Image, error) {
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return nil, errors.New("data uri: missing payload separator")
	}

	raw, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("data uri: decode base64: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("data uri: decode image: %w", err)
	}
	return img, nil
}

// ParseHexColor parses "#rgb" and "#rrggbb" color strings.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "#"))

	var r, g, b uint8
	switch len(s) {
	case 3:
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b); err != nil {
			return color.NRGBA{}, fmt.Errorf("parse hex color %q: %w", s, err)
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
			return color.NRGBA{}, fmt.Errorf("parse hex color %q: %w", s, err)
		}
	default:
		return color.NRGBA{}, fmt.Errorf("parse hex color %q: unsupported length", s)
	}

	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
