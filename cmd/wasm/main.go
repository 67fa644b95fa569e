//go:build js && wasm

package main

import (
	"bytes"
	"context"
	"syscall/js"

	pd "pinkdots/pkg/pinkdots"
)

var (
	lastFrame *pd.RawBuffer
	lastSites []pd.DefectSite
	lastLabel string
)

func main() {
	js.Global().Set("fixFITS", js.FuncOf(fixFITS))
	js.Global().Set("renderOverlay", js.FuncOf(renderOverlay))
	select {} // block forever
}

// fixFITS(fileBytes, cameraType, dots, options) corrects a FITS image or
// cube. dots is an array of [x, y] pairs; options.mode is "interpolate"
// (default) or "mark-bad".
func fixFITS(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorResult("usage: fixFITS(fileBytes, cameraType, dots, options)")
	}

	jsBytes := args[0]
	length := jsBytes.Get("length").Int()
	fileBytes := make([]byte, length)
	js.CopyBytesToGo(fileBytes, jsBytes)

	cameraType := args[1].String()

	mode := pd.ModeInterpolate
	if len(args) >= 4 && args[3].Type() == js.TypeObject {
		modeVal := args[3].Get("mode")
		if modeVal.Type() == js.TypeString {
			m, err := pd.ParseCorrectionMode(modeVal.String())
			if err != nil {
				return errorResult(err.Error())
			}
			mode = m
		}
	}

	img, err := pd.ReadFitsFromBytes(fileBytes)
	if err != nil {
		return errorResult("FITS parse error: " + err.Error())
	}

	jsDots := args[2]
	sites := make([]pd.DefectSite, jsDots.Length())
	for i := range sites {
		pair := jsDots.Index(i)
		sites[i] = pd.DefectSite{X: pair.Index(0).Int(), Y: pair.Index(1).Int()}
	}
	lookup := pd.NewMapLookup()
	lookup.Register(cameraType, img.Width, img.Height, sites)

	var out bytes.Buffer
	sink, err := pd.NewFitsBufferSink(&out, img.Width, img.Height, img.FrameCount(), img.BitDepth, img.Cards)
	if err != nil {
		return errorResult("FITS write error: " + err.Error())
	}

	corrector := &pd.Corrector{Lookup: lookup, Mode: mode}
	stats, err := corrector.Run(context.Background(), img, cameraType, sink)
	if err != nil {
		return errorResult("Correction error: " + err.Error())
	}

	frame, _ := img.Frame(0)
	lastFrame = pd.CopyBuffer(frame)
	lastSites = sites
	lastLabel = cameraType

	fitsArray := js.Global().Get("Uint8Array").New(out.Len())
	js.CopyBytesToJS(fitsArray, out.Bytes())

	median, mad := stats.DeltaMedianMAD()
	return js.ValueOf(map[string]interface{}{
		"fits":           fitsArray,
		"width":          stats.Width,
		"height":         stats.Height,
		"frames":         stats.Frames,
		"mode":           stats.Mode.String(),
		"sites":          stats.Sites,
		"corrected":      stats.Corrected,
		"marked":         stats.Marked,
		"skippedBorder":  stats.SkippedBorder,
		"skippedOutside": stats.SkippedOutside,
		"deltaMedian":    nanToZero(median),
		"deltaMAD":       nanToZero(mad),
	})
}

func renderOverlay(this js.Value, args []js.Value) interface{} {
	if lastFrame == nil {
		return js.Null()
	}

	jpegBytes, err := pd.RenderDefectOverlay(lastFrame, lastSites, lastLabel)
	if err != nil {
		return js.Null()
	}

	uint8Array := js.Global().Get("Uint8Array").New(len(jpegBytes))
	js.CopyBytesToJS(uint8Array, jpegBytes)
	return uint8Array
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}

func nanToZero(v float64) float64 {
	if v != v {
		return 0
	}
	return v
}
