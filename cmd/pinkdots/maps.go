package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pd "pinkdots/pkg/pinkdots"
)

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "List the dot maps available in the map directory",
	Args:  cobra.NoArgs,
	RunE:  runMaps,
}

func init() {
	mapsCmd.Flags().String("maps", "", "Directory of <camera>_<width>x<height>.fpm dot maps")
	rootCmd.AddCommand(mapsCmd)
}

func runMaps(cmd *cobra.Command, args []string) error {
	dir := cfg.MapDir
	if cmd.Flags().Changed("maps") {
		dir, _ = cmd.Flags().GetString("maps")
	}

	lookup := pd.NewDirLookup(dir)
	keys, err := lookup.Keys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Printf("No dot maps in %s\n", dir)
		return nil
	}

	fmt.Printf("Dot maps in %s:\n", dir)
	for _, k := range keys {
		sites, err := lookup.Dots(k.CameraType, k.Width, k.Height)
		if err != nil {
			fmt.Printf("  %-10s %5d x %-5d  unusable: %v\n", k.CameraType, k.Width, k.Height, err)
			continue
		}
		fmt.Printf("  %-10s %5d x %-5d  %d sites\n", k.CameraType, k.Width, k.Height, len(sites))
	}
	return nil
}
