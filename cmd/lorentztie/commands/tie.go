package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"lorentztie/pkg/microscope"
	"lorentztie/pkg/physics"
	"lorentztie/pkg/reconstruction"
	"lorentztie/pkg/tie"
	"lorentztie/pkg/visualization"
)

// tie: reconstruct phase and induction from a through-focal series, with
// flip/unflip separation when a flip directory is configured.
func tieCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tie",
		Short: "Reconstruct phase and induction from a through-focal series",
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
				fmt.Println("TIE RECONSTRUCTION")
				fmt.Printf("%d defocus planes, flip series: %v\n", series.Len(), series.HasFlip())
				fmt.Println("================================")
			}

			start := time.Now()
			res, err := rec.TIE(cfg.Reconstruction.DefocusIndex)
			if err != nil {
				return fmt.Errorf("reconstruction failed: %w", err)
			}
			return writeResult("tie", res, start)
		},
	}
	addInputFlags(cmd)
	return cmd
}

// addInputFlags registers the directory overrides shared by tie and sitie.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&unflipDir, "unflip", "", "unflipped series directory (overrides config)")
	cmd.Flags().StringVar(&flipDir, "flip", "", "flipped series directory (overrides config)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (overrides config)")
}

// loadSeries builds the DefocusSeries from the configured directories.
func loadSeries() (*tie.DefocusSeries, error) {
	uDir := cfg.Input.UnflipDir
	if unflipDir != "" {
		uDir = unflipDir
	}
	if uDir == "" {
		return nil, fmt.Errorf("no unflip directory configured (use --unflip or the config file)")
	}

	unflip, err := tie.LoadStack(uDir)
	if err != nil {
		return nil, fmt.Errorf("loading unflip stack: %w", err)
	}

	var flip *tie.ImageStack
	fDir := cfg.Input.FlipDir
	if flipDir != "" {
		fDir = flipDir
	}
	if fDir != "" {
		flip, err = tie.LoadStack(fDir)
		if err != nil {
			return nil, fmt.Errorf("loading flip stack: %w", err)
		}
	}

	return tie.NewDefocusSeries(unflip, flip, cfg.Reconstruction.DefocusValuesNm)
}

// newReconstructor assembles the microscope model and orchestrator from the
// resolved configuration.
func newReconstructor(series *tie.DefocusSeries) (*reconstruction.Reconstructor, error) {
	scope, err := microscope.New(cfg.Microscope.Voltage)
	if err != nil {
		return nil, err
	}

	c := cfg.Reconstruction.Crop
	return reconstruction.New(series, scope, reconstruction.Params{
		Scale:      cfg.Reconstruction.ScaleNmPerPixel,
		Crop:       tie.CropRect{X0: c.X0, Y0: c.Y0, X1: c.X1, Y1: c.Y1},
		Symmetrize: cfg.Reconstruction.Symmetrize,
		Cutoff:     cfg.Reconstruction.TikhonovCutoff,
		Workers:    cfg.Reconstruction.Workers,
	})
}

// writeResult persists the result bundle and prints the run summary.
func writeResult(method string, res *reconstruction.Result, start time.Time) error {
	dir := cfg.Output.Dir
	if outDir != "" {
		dir = outDir
	}

	writer := visualization.NewWriter(dir, cfg.Output.FourFold)
	rec := visualization.Record{
		Method:     method,
		DefocusNm:  res.Defocus,
		Index:      res.Index,
		ScaleNmPx:  res.Params.Scale,
		Voltage:    cfg.Microscope.Voltage,
		Symmetrize: res.Params.Symmetrize,
		Cutoff:     res.Params.Cutoff,
	}
	prefix := cfg.Output.Prefix
	if prefix == "" {
		prefix = method
	}
	if err := writer.WriteResult(prefix, res, rec); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	if cfg.Output.Verbose {
		fmt.Printf("\nReconstruction completed in %.2f seconds\n", time.Since(start).Seconds())
		fmt.Printf("Region: %dx%d px at %.3g nm/px, defocus %.4g nm\n",
			res.Width, res.Height, res.Params.Scale, res.Defocus)
		if len(res.BMag) > 0 {
			peak := floats.Max(res.BMag)
			fmt.Printf("Peak integrated induction: %.4g T*nm (%.4g G*nm)\n",
				peak, peak*physics.TeslaToGauss)
		}
		fmt.Printf("Results saved to: %s\n", dir)
		for _, warning := range res.Warnings {
			fmt.Printf("Warning: %s\n", warning)
		}
	}
	return nil
}
