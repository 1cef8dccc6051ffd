package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// sitie: single-image reconstruction; only valid for thin samples with
// purely magnetic contrast.
func sitieCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitie",
		Short: "Single-image TIE reconstruction of a purely magnetic sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := loadSeries()
			if err != nil {
				return err
			}

			rec, err := newReconstructor(series)
			if err != nil {
				return err
			}

			if cfg.Output.Verbose {
				fmt.Println("================================")
				fmt.Println("SITIE RECONSTRUCTION")
				fmt.Printf("image index %d of %d\n", cfg.Reconstruction.DefocusIndex, series.Len())
				fmt.Println("================================")
			}

			start := time.Now()
			res, err := rec.SITIE(cfg.Reconstruction.DefocusIndex)
			if err != nil {
				return fmt.Errorf("reconstruction failed: %w", err)
			}
			return writeResult("sitie", res, start)
		},
	}
	addInputFlags(cmd)
	return cmd
}
