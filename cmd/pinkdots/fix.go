package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	pd "pinkdots/pkg/pinkdots"
)

var fixCmd = &cobra.Command{
	Use:   "fix <input>...",
	Short: "Correct the pink dots of one or more FITS / 16-bit PNG / TIFF raw files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().StringP("camera", "c", "", "Camera type (defaults to the INSTRUME header)")
	fixCmd.Flags().StringP("mode", "m", "", "Correction mode: interpolate or mark-bad")
	fixCmd.Flags().String("maps", "", "Directory of <camera>_<width>x<height>.fpm dot maps")
	fixCmd.Flags().IntP("workers", "j", 0, "Frames corrected in parallel")
	fixCmd.Flags().Bool("overlay", false, "Also write a JPEG marking the defect sites of frame 0")
	fixCmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(fixCmd)
}

type fixOptions struct {
	camera   string
	mode     pd.CorrectionMode
	mapDir   string
	workers  int
	overlay  bool
	logLevel string
}

func fixOptionsFromFlags(cmd *cobra.Command) (*fixOptions, error) {
	flags := cmd.Flags()
	opts := &fixOptions{
		mapDir:   cfg.MapDir,
		workers:  cfg.Workers,
		logLevel: cfg.LogLevel,
	}
	modeStr := cfg.Mode

	opts.camera, _ = flags.GetString("camera")
	opts.overlay, _ = flags.GetBool("overlay")
	if flags.Changed("mode") {
		modeStr, _ = flags.GetString("mode")
	}
	if flags.Changed("maps") {
		opts.mapDir, _ = flags.GetString("maps")
	}
	if flags.Changed("workers") {
		opts.workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("log-level") {
		opts.logLevel, _ = flags.GetString("log-level")
	}

	mode, err := pd.ParseCorrectionMode(modeStr)
	if err != nil {
		return nil, err
	}
	opts.mode = mode
	if opts.workers < 1 {
		opts.workers = 1
	}
	return opts, nil
}

func runFix(cmd *cobra.Command, args []string) error {
	opts, err := fixOptionsFromFlags(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	corrector := &pd.Corrector{
		Lookup:   pd.NewDirLookup(opts.mapDir),
		Mode:     opts.mode,
		Workers:  opts.workers,
		Observer: pd.NewLogObserver(logger),
	}

	for _, input := range args {
		if err := fixFile(ctx, corrector, input, opts); err != nil {
			return err
		}
	}
	return nil
}

func fixFile(ctx context.Context, corrector *pd.Corrector, input string, opts *fixOptions) error {
	fmt.Printf("Loading: %s\n", input)
	src, err := pd.OpenSource(input)
	if err != nil {
		return err
	}

	camera := opts.camera
	if camera == "" {
		camera = strings.TrimSpace(src.CameraHint)
	}
	if camera == "" {
		return fmt.Errorf("%s: camera type not recorded in file, pass --camera", input)
	}

	output := pd.OutputPath(input)
	sink, err := src.NewSink(output)
	if err != nil {
		return err
	}

	startTime := time.Now()
	stats, err := corrector.Run(ctx, src, camera, sink)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	elapsed := time.Since(startTime)

	fmt.Println()
	fmt.Printf("=== Pink Dot Correction (%.1fs) ===\n", elapsed.Seconds())
	fmt.Printf("  Camera:          %s\n", stats.CameraType)
	fmt.Printf("  Image size:      %d x %d\n", stats.Width, stats.Height)
	fmt.Printf("  Frames:          %d\n", stats.Frames)
	fmt.Printf("  Mode:            %s\n", stats.Mode)
	fmt.Printf("  Defect sites:    %d\n", stats.Sites)
	if stats.Mode == pd.ModeMarkBad {
		fmt.Printf("  Marked:          %d\n", stats.Marked)
		fmt.Printf("  Outside frame:   %d\n", stats.SkippedOutside)
	} else {
		fmt.Printf("  Corrected:       %d\n", stats.Corrected)
		fmt.Printf("  Border skipped:  %d\n", stats.SkippedBorder)
		if stats.Corrected > 0 {
			median, mad := stats.DeltaMedianMAD()
			fmt.Printf("  |delta| median:  %.1f +/- %.1f\n", median, mad)
		}
	}
	fmt.Printf("  Output:          %s\n", output)
	fmt.Println("==============================")

	if opts.overlay {
		if err := writeOverlay(corrector.Lookup, src, camera, output); err != nil {
			return err
		}
	}
	return nil
}

func writeOverlay(lookup pd.DefectLookup, src *pd.OpenedSource, camera, output string) error {
	frame, err := src.Frame(0)
	if err != nil {
		return fmt.Errorf("reading frame 0 for overlay: %w", err)
	}
	sites, err := lookup.Dots(camera, src.Width, src.Height)
	if err != nil {
		return fmt.Errorf("resolving sites for overlay: %w", err)
	}
	overlayPath := strings.TrimSuffix(output, filepath.Ext(output)) + "_dots.jpg"
	if err := pd.WriteDefectOverlay(frame, sites, camera, overlayPath); err != nil {
		return err
	}
	fmt.Printf("Overlay: %s\n", overlayPath)
	return nil
}
