package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lumenraw/imagecore"
	"github.com/spf13/cobra"
)

// NewCompositeCmd loads a base image, composites the patches of an
// adjustments document onto it and saves the result.
func NewCompositeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "composite INPUT",
		Short: "composite the aiPatches of an adjustments document onto an image",
		Long: "Loads INPUT, a regular image or a camera raw file, applies its EXIF orientation and " +
			"blends every visible patch of the adjustments document onto it. The output format is " +
			"chosen from the extension of --out.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			adjustments_path, _ := f.GetString("adjustments")
			out, _ := f.GetString("out")
			fast_raw, _ := f.GetBool("fast-raw")
			no_orient, _ := f.GetBool("no-orient")
			quality, _ := f.GetInt("quality")
			return runComposite(cmd.Context(), args[0], adjustments_path, out, fast_raw, !no_orient, quality)
		},
	}
	f := cmd.Flags()
	f.StringP("adjustments", "a", "", "JSON adjustments document containing aiPatches")
	f.StringP("out", "o", "", "Output image path")
	f.Bool("fast-raw", false, "Prefer the embedded thumbnail when loading raw files")
	f.Bool("no-orient", false, "Do not apply the EXIF orientation of the input")
	f.Int("quality", 95, "JPEG quality of the output")
	_ = cmd.MarkFlagRequired("adjustments")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runComposite(ctx context.Context, input, adjustments_path, out string, fast_raw, orient bool, quality int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := imagecore.FormatFromFilename(out); err != nil {
		return err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read base image: %w", err)
	}
	adjustments, err := os.ReadFile(adjustments_path)
	if err != nil {
		return fmt.Errorf("failed to read adjustments: %w", err)
	}
	start := time.Now()
	img, err := imagecore.LoadAndComposite(data, input, adjustments, fast_raw,
		imagecore.WithDecodeOptions(imagecore.AutoOrientation(orient)))
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = imagecore.Save(img, out, imagecore.JPEGQuality(quality)); err != nil {
		return err
	}
	b := img.Bounds()
	slog.InfoContext(ctx, "composited image", "input", input, "output", out,
		"width", b.Dx(), "height", b.Dy(), "elapsed", time.Since(start))
	return nil
}
