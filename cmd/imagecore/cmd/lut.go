package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/lumenraw/imagecore/lut"
	"github.com/spf13/cobra"
)

// NewLUTCmd parses a LUT file and prints a summary, optionally converting
// it to .cube.
func NewLUTCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lut FILE",
		Short: "parse a .cube, .3dl or HALD image LUT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			g, err := lut.ParseFile(path)
			if err != nil {
				return err
			}
			format, _ := lut.FormatFromFilename(path)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "format: %s\nsize: %d\nsamples: %d\n", format, g.Size, g.Size*g.Size*g.Size)
			n := g.Size - 1
			for _, c := range [][3]int{{0, 0, 0}, {n, 0, 0}, {0, n, 0}, {0, 0, n}, {n, n, n}} {
				s := g.At(c[0], c[1], c[2])
				hex := colorful.Color{R: float64(s[0]), G: float64(s[1]), B: float64(s[2])}.Clamped().Hex()
				fmt.Fprintf(w, "%v: %v %s\n", c, s, hex)
			}
			out, _ := cmd.Flags().GetString("write-cube")
			if out == "" {
				return nil
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if err = lut.WriteCube(f, g, title); err != nil {
				f.Close()
				return err
			}
			if err = f.Close(); err != nil {
				return err
			}
			slog.InfoContext(cmd.Context(), "wrote cube LUT", "path", out, "size", g.Size)
			return nil
		},
	}
	cmd.Flags().String("write-cube", "", "Also write the LUT to this path in .cube format")
	return cmd
}
