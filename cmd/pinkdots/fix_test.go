package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pinkdots/internal/config"
	pd "pinkdots/pkg/pinkdots"
)

func writeTestFits(t *testing.T, path string, w, h int) {
	t.Helper()
	buf := pd.NewRawBuffer(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.SetPixel(x, y, uint16(1000+3*x+5*y))
		}
	}
	buf.SetPixel(50, 50, 60000)

	sink, err := pd.NewFitsFileSink(path, w, h, 1, 16, nil)
	require.NoError(t, err)
	require.NoError(t, sink.WriteFrame(0, buf))
	require.NoError(t, sink.Commit())
}

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		for _, name := range []string{"camera", "mode", "maps", "workers", "overlay", "log-level"} {
			f := fixCmd.Flags().Lookup(name)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
}

func TestFixOptionsFromFlags_ConfigDefaults(t *testing.T) {
	resetFlags(t)
	cfg = &config.Config{MapDir: "/maps", Mode: "mark-bad", Workers: 3, LogLevel: "warn"}

	opts, err := fixOptionsFromFlags(fixCmd)
	require.NoError(t, err)
	require.Equal(t, "/maps", opts.mapDir)
	require.Equal(t, pd.ModeMarkBad, opts.mode)
	require.Equal(t, 3, opts.workers)
	require.Equal(t, "warn", opts.logLevel)
}

func TestFixOptionsFromFlags_FlagsOverride(t *testing.T) {
	resetFlags(t)
	cfg = &config.Config{MapDir: "/maps", Mode: "mark-bad", Workers: 3, LogLevel: "warn"}

	require.NoError(t, fixCmd.Flags().Set("mode", "interpolate"))
	require.NoError(t, fixCmd.Flags().Set("maps", "/other"))
	require.NoError(t, fixCmd.Flags().Set("workers", "0"))

	opts, err := fixOptionsFromFlags(fixCmd)
	require.NoError(t, err)
	require.Equal(t, "/other", opts.mapDir)
	require.Equal(t, pd.ModeInterpolate, opts.mode)
	require.Equal(t, 1, opts.workers)

	require.NoError(t, fixCmd.Flags().Set("mode", "blur"))
	_, err = fixOptionsFromFlags(fixCmd)
	require.Error(t, err)
}

func TestFixCommand_WritesCorrectedCopy(t *testing.T) {
	resetFlags(t)
	cfg = &config.Config{Mode: "interpolate", Workers: 1, LogLevel: "error"}

	dir := t.TempDir()
	mapDir := filepath.Join(dir, "maps")
	require.NoError(t, os.Mkdir(mapDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(mapDir, "650D_100x100.fpm"), []byte("50 50\n"), 0o644))
	input := filepath.Join(dir, "IMG_0001.fits")
	writeTestFits(t, input, 100, 100)

	rootCmd.SetArgs([]string{"fix", input, "--camera", "650D", "--maps", mapDir, "--overlay"})
	require.NoError(t, rootCmd.Execute())

	got, err := pd.ReadFits(filepath.Join(dir, "_IMG_0001.fits"))
	require.NoError(t, err)
	frame, err := got.Frame(0)
	require.NoError(t, err)
	require.Equal(t, uint16(1400), frame.Pixel(50, 50))

	_, err = os.Stat(filepath.Join(dir, "_IMG_0001_dots.jpg"))
	require.NoError(t, err)
}

func TestFixCommand_UnknownCameraFails(t *testing.T) {
	resetFlags(t)
	cfg = &config.Config{Mode: "interpolate", Workers: 1, LogLevel: "error"}

	dir := t.TempDir()
	input := filepath.Join(dir, "IMG_0002.fits")
	writeTestFits(t, input, 100, 100)

	rootCmd.SetArgs([]string{"fix", input, "--camera", "700D", "--maps", dir})
	err := rootCmd.Execute()
	require.ErrorIs(t, err, pd.ErrUnknownDefectPattern)

	_, err = os.Stat(filepath.Join(dir, "_IMG_0002.fits"))
	require.True(t, os.IsNotExist(err))
}

func TestFixCommand_RequiresCamera(t *testing.T) {
	resetFlags(t)
	cfg = &config.Config{Mode: "interpolate", Workers: 1, LogLevel: "error"}

	input := filepath.Join(t.TempDir(), "IMG_0003.fits")
	writeTestFits(t, input, 100, 100)

	rootCmd.SetArgs([]string{"fix", input})
	require.ErrorContains(t, rootCmd.Execute(), "--camera")
}

func TestWriteOverlay_UnknownPatternFails(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "IMG_0004.fits")
	writeTestFits(t, input, 100, 100)
	src, err := pd.OpenSource(input)
	require.NoError(t, err)

	output := pd.OutputPath(input)
	err = writeOverlay(pd.NewMapLookup(), src, "650D", output)
	require.ErrorIs(t, err, pd.ErrUnknownDefectPattern)

	_, err = os.Stat(filepath.Join(dir, "_IMG_0004_dots.jpg"))
	require.True(t, os.IsNotExist(err))
}
