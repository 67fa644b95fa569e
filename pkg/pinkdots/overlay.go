package pinkdots

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// overlayMaxWidth caps the rendered width; larger frames are scaled down.
const overlayMaxWidth = 800

// WriteDefectOverlay renders a defect overlay and writes it as a JPEG file.
func WriteDefectOverlay(buf PixelBuffer, sites []DefectSite, label, outputPath string) error {
	data, err := RenderDefectOverlay(buf, sites, label)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write overlay file: %w", err)
	}
	return nil
}

// RenderDefectOverlay draws the frame as a contrast-stretched grayscale
// image, circles every defect site in the colour of its CFA channel and
// adds a summary line. It returns JPEG bytes.
func RenderDefectOverlay(buf PixelBuffer, sites []DefectSite, label string) ([]byte, error) {
	img, err := renderOverlayImage(buf, sites, label)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func renderOverlayImage(buf PixelBuffer, sites []DefectSite, label string) (*image.RGBA, error) {
	if buf == nil || buf.Width() == 0 || buf.Height() == 0 {
		return nil, fmt.Errorf("no frame to render")
	}
	srcW, srcH := buf.Width(), buf.Height()

	scale := 1.0
	if srcW > overlayMaxWidth {
		scale = float64(overlayMaxWidth) / float64(srcW)
	}
	imgW := int(float64(srcW) * scale)
	imgH := int(float64(srcH) * scale)
	if imgW < 1 {
		imgW = 1
	}
	if imgH < 1 {
		imgH = 1
	}

	const summaryH = 40
	img := image.NewRGBA(image.Rect(0, 0, imgW, imgH+summaryH))

	lo, hi := intensityRange(buf)
	span := float64(hi) - float64(lo)
	if span <= 0 {
		span = 1
	}
	for y := 0; y < imgH; y++ {
		sy := clampInt(int(float64(y)/scale), 0, srcH-1)
		for x := 0; x < imgW; x++ {
			sx := clampInt(int(float64(x)/scale), 0, srcW-1)
			v := uint8(clampFloat64((float64(buf.Pixel(sx, sy))-float64(lo))/span*255, 0, 255))
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	for y := imgH; y < imgH+summaryH; y++ {
		for x := 0; x < imgW; x++ {
			img.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
		}
	}

	radius := int(4 * scale)
	if radius < 3 {
		radius = 3
	}
	for _, s := range sites {
		if s.X < 0 || s.X >= srcW || s.Y < 0 || s.Y >= srcH {
			continue
		}
		cx := int(float64(s.X) * scale)
		cy := int(float64(s.Y) * scale)
		drawCircle(img, cx, cy, radius, channelColor(ChannelAtRGGB(s.X, s.Y)))
	}

	face := basicfont.Face7x13
	textColor := color.RGBA{220, 220, 220, 255}
	counts := ChannelCounts(sites)
	drawText(img, face, fmt.Sprintf("%s  %dx%d  sites=%d", label, srcW, srcH, len(sites)), 10, imgH+15, textColor)
	drawText(img, face, fmt.Sprintf("R=%d Gr=%d Gb=%d B=%d",
		counts[ChannelRed], counts[ChannelGreenRed], counts[ChannelGreenBlue], counts[ChannelBlue]),
		10, imgH+33, textColor)

	return img, nil
}

// intensityRange returns the minimum and maximum intensity of buf.
func intensityRange(buf PixelBuffer) (uint16, uint16) {
	lo, hi := uint16(0xffff), uint16(0)
	for y := 0; y < buf.Height(); y++ {
		for x := 0; x < buf.Width(); x++ {
			v := buf.Pixel(x, y)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

func channelColor(c CFAChannel) color.RGBA {
	switch c {
	case ChannelRed:
		return color.RGBA{255, 60, 60, 255}
	case ChannelBlue:
		return color.RGBA{80, 120, 255, 255}
	default:
		return color.RGBA{60, 230, 60, 255}
	}
}

// drawText draws a string at (x, y) using the given font face.
func drawText(img *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawCircle draws a circle outline using the midpoint algorithm.
func drawCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	x := radius
	y := 0
	err := 0

	for x >= y {
		img.Set(cx+x, cy+y, c)
		img.Set(cx+y, cy+x, c)
		img.Set(cx-y, cy+x, c)
		img.Set(cx-x, cy+y, c)
		img.Set(cx-x, cy-y, c)
		img.Set(cx-y, cy-x, c)
		img.Set(cx+y, cy-x, c)
		img.Set(cx+x, cy-y, c)

		y++
		err += 1 + 2*y
		if 2*(err-x)+1 > 0 {
			x--
			err += 1 - 2*x
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
