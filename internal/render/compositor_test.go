package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inviteforge/inviteforge/internal/models"
)

// solidPNGDataURI builds a data URI for a solid-color PNG.
func solidPNGDataURI(t *testing.T, c color.NRGBA, w, h int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func pixelRGB(img image.Image, x, y int) (uint32, uint32, uint32) {
	r, g, b, _ := img.At(x, y).RGBA()
	return r >> 8, g >> 8, b >> 8
}

var (
	red   = color.NRGBA{R: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func TestRenderHexBackgroundFill(t *testing.T) {
	c := NewCompositor()

	data, err := c.Render("#ff0000", 20, 10, nil)
	require.NoError(t, err)

	img := decodePNG(t, data)
	require.Equal(t, 20, img.Bounds().Dx())
	require.Equal(t, 10, img.Bounds().Dy())

	r, g, b := pixelRGB(img, 0, 0)
	require.Equal(t, uint32(255), r)
	require.Equal(t, uint32(0), g)
	require.Equal(t, uint32(0), b)
}

func TestRenderInvalidBackgroundFallsBackToWhite(t *testing.T) {
	c := NewCompositor()

	data, err := c.Render("not-a-color", 8, 8, nil)
	require.NoError(t, err)

	r, g, b := pixelRGB(decodePNG(t, data), 4, 4)
	require.Equal(t, uint32(255), r)
	require.Equal(t, uint32(255), g)
	require.Equal(t, uint32(255), b)
}

func TestRenderDataURIBackgroundStretched(t *testing.T) {
	c := NewCompositor()

	// A 2x2 source stretched over a 30x20 canvas covers every pixel.
	bg := solidPNGDataURI(t, red, 2, 2)
	data, err := c.Render(bg, 30, 20, nil)
	require.NoError(t, err)

	img := decodePNG(t, data)
	for _, pt := range []image.Point{{0, 0}, {29, 0}, {15, 10}, {29, 19}} {
		r, _, _ := pixelRGB(img, pt.X, pt.Y)
		require.Equal(t, uint32(255), r, "pixel %v", pt)
	}
}

func TestRenderInvalidDimensions(t *testing.T) {
	c := NewCompositor()

	_, err := c.Render("#ffffff", 0, 10, nil)
	require.Error(t, err)

	_, err = c.Render("#ffffff", 10, -1, nil)
	require.Error(t, err)
}

func TestRenderCircleShapeLeavesCornersUntouched(t *testing.T) {
	c := NewCompositor()

	src := solidPNGDataURI(t, red, 40, 40)
	elements := []models.Element{{
		Type:   models.ElementImage,
		X:      0,
		Y:      0,
		Width:  40,
		Height: 40,
		Shape:  models.ShapeCircle,
		Src:    &src,
	}}

	data, err := c.Render("#ffffff", 40, 40, elements)
	require.NoError(t, err)
	img := decodePNG(t, data)

	// Corners stay background white, the ellipse center is the pasted red.
	for _, pt := range []image.Point{{0, 0}, {39, 0}, {0, 39}, {39, 39}} {
		r, g, b := pixelRGB(img, pt.X, pt.Y)
		require.Equal(t, uint32(255), r, "corner %v", pt)
		require.Equal(t, uint32(255), g, "corner %v", pt)
		require.Equal(t, uint32(255), b, "corner %v", pt)
	}

	r, g, b := pixelRGB(img, 20, 20)
	require.Equal(t, uint32(255), r)
	require.Equal(t, uint32(0), g)
	require.Equal(t, uint32(0), b)
}

func TestRenderRectangleShapeKeepsCorners(t *testing.T) {
	c := NewCompositor()

	src := solidPNGDataURI(t, red, 40, 40)
	elements := []models.Element{{
		Type:   models.ElementImage,
		Width:  40,
		Height: 40,
		Shape:  models.ShapeRectangle,
		Src:    &src,
	}}

	data, err := c.Render("#ffffff", 40, 40, elements)
	require.NoError(t, err)

	r, g, b := pixelRGB(decodePNG(t, data), 0, 0)
	require.Equal(t, uint32(255), r)
	require.Equal(t, uint32(0), g)
	require.Equal(t, uint32(0), b)
}

func TestRenderBrokenImageElementIsSkipped(t *testing.T) {
	c := NewCompositor()

	bad := "data:image/png;base64,!!!notbase64!!!"
	elements := []models.Element{
		{Type: models.ElementImage, Width: 10, Height: 10, Src: &bad},
		{Type: models.ElementText, Content: "still here", X: 5, Y: 5, FontSize: 12, Color: "#000000"},
	}

	data, err := c.Render("#ffffff", 60, 30, elements)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestRenderNilImageSrcIsSkipped(t *testing.T) {
	c := NewCompositor()

	elements := []models.Element{{Type: models.ElementImage, Width: 10, Height: 10}}

	data, err := c.Render("#00ff00", 10, 10, elements)
	require.NoError(t, err)

	_, g, _ := pixelRGB(decodePNG(t, data), 5, 5)
	require.Equal(t, uint32(255), g)
}

func TestRenderTextAlignShiftsGlyphs(t *testing.T) {
	c := NewCompositor()

	draw := func(align string) image.Image {
		elements := []models.Element{{
			Type:      models.ElementText,
			Content:   "MMMM",
			X:         100,
			Y:         10,
			FontSize:  20,
			Color:     "#000000",
			TextAlign: align,
		}}
		data, err := c.Render("#ffffff", 200, 60, elements)
		require.NoError(t, err)
		return decodePNG(t, data)
	}

	leftmostDark := func(img image.Image) int {
		bounds := img.Bounds()
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
				r, _, _ := pixelRGB(img, x, y)
				if r < 128 {
					return x
				}
			}
		}
		return -1
	}

	left := leftmostDark(draw(""))
	center := leftmostDark(draw("center"))
	right := leftmostDark(draw("right"))

	require.GreaterOrEqual(t, left, 95)
	require.Less(t, center, left)
	require.Less(t, right, center)
}

func TestRenderMultilinePitchEqualsFontSize(t *testing.T) {
	c := NewCompositor()

	elements := []models.Element{{
		Type:     models.ElementText,
		Content:  "A\nA",
		X:        10,
		Y:        10,
		FontSize: 20,
		Color:    "#000000",
	}}

	data, err := c.Render("#ffffff", 80, 80, elements)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestApplyEllipseMask(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.SetNRGBA(x, y, red)
		}
	}

	masked := applyEllipseMask(img)

	require.Equal(t, uint8(0), masked.NRGBAAt(0, 0).A)
	require.Equal(t, uint8(0), masked.NRGBAAt(19, 19).A)
	require.Equal(t, uint8(255), masked.NRGBAAt(10, 10).A)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#336699")
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{R: 0x33, G: 0x66, B: 0x99, A: 255}, c)

	c, err = ParseHexColor("#fff")
	require.NoError(t, err)
	require.Equal(t, white, c)

	_, err = ParseHexColor("#12345")
	require.Error(t, err)

	_, err = ParseHexColor("blue")
	require.Error(t, err)
}

func TestDecodeDataURI(t *testing.T) {
	uri := solidPNGDataURI(t, red, 3, 3)

	img, err := decodeDataURI(uri)
	require.NoError(t, err)
	require.Equal(t, 3, img.Bounds().Dx())

	_, err = decodeDataURI("data:image/png;base64")
	require.Error(t, err)

	_, err = decodeDataURI("data:image/png;base64,%%%")
	require.Error(t, err)
}
