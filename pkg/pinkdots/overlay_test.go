package pinkdots

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelAtRGGB(t *testing.T) {
	require.Equal(t, ChannelRed, ChannelAtRGGB(0, 0))
	require.Equal(t, ChannelGreenRed, ChannelAtRGGB(1, 0))
	require.Equal(t, ChannelGreenBlue, ChannelAtRGGB(0, 1))
	require.Equal(t, ChannelBlue, ChannelAtRGGB(1, 1))
	require.Equal(t, ChannelRed, ChannelAtRGGB(50, 50))

	counts := ChannelCounts([]DefectSite{{0, 0}, {2, 2}, {1, 0}, {3, 5}})
	require.Equal(t, 2, counts[ChannelRed])
	require.Equal(t, 1, counts[ChannelGreenRed])
	require.Equal(t, 1, counts[ChannelBlue])
	require.Zero(t, counts[ChannelGreenBlue])
}

func TestRenderDefectOverlay_ScalesWideFrames(t *testing.T) {
	buf := gradientBuffer(1600, 100, 0)
	data, err := RenderDefectOverlay(buf, []DefectSite{{800, 50}, {5000, 5}}, "650D")
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, overlayMaxWidth, cfg.Width)
	require.Equal(t, 50+40, cfg.Height)
}

func TestWriteDefectOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dots.jpg")
	require.NoError(t, WriteDefectOverlay(flatBuffer(64, 48, 100), []DefectSite{{10, 10}}, "650D", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 64, 48+40), img.Bounds())
}
