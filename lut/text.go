package lut

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func lines(r io.Reader, f func(lnum int, fields []string) error) error {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lnum := 0
	for s.Scan() {
		lnum++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := f(lnum, strings.Fields(line)); err != nil {
			return err
		}
	}
	return s.Err()
}

func parseTriple(lnum int, fields []string, data []float32) ([]float32, error) {
	for i, name := range []string{"R", "G", "B"} {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return data, fmt.Errorf("line %d: invalid %s value %q: %w", lnum, name, fields[i], err)
		}
		data = append(data, float32(v))
	}
	return data, nil
}

// ParseCube parses an Adobe/Resolve .cube 3D LUT. Comment lines start with
// #. TITLE, DOMAIN_MIN, DOMAIN_MAX and LUT_3D_INPUT_RANGE lines are
// skipped; the last LUT_3D_SIZE wins. Data lines before a size is declared
// are ignored.
func ParseCube(r io.Reader) (*Grid, error) {
	size := -1
	var data []float32
	err := lines(r, func(lnum int, fields []string) (err error) {
		switch strings.ToUpper(fields[0]) {
		case "TITLE", "DOMAIN_MIN", "DOMAIN_MAX", "LUT_3D_INPUT_RANGE":
			return nil
		case "LUT_1D_SIZE", "LUT_1D_INPUT_RANGE":
			return fmt.Errorf("%w: 1D LUTs are not supported (line %d)", ErrUnsupportedFormat, lnum)
		case "LUT_3D_SIZE":
			if len(fields) > 1 {
				n, err := strconv.Atoi(fields[1])
				if err != nil || n < 1 {
					return fmt.Errorf("line %d: invalid LUT_3D_SIZE %q", lnum, fields[1])
				}
				if n > MaxSize {
					return fmt.Errorf("%w: line %d: LUT_3D_SIZE %d exceeds %d", ErrSizeMismatch, lnum, n, MaxSize)
				}
				size = n
			}
			return nil
		}
		if size < 0 {
			return nil
		}
		if len(fields) < 3 {
			return fmt.Errorf("line %d: expected 3 values, found %d", lnum, len(fields))
		}
		data, err = parseTriple(lnum, fields, data)
		return
	})
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, ErrMissingSize
	}
	g := &Grid{Size: size, Data: data}
	if err = g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Parse3DL parses an Autodesk/Lustre .3dl 3D LUT. Only lines with exactly
// three values are data; other lines, such as the input mesh header, are
// skipped. The grid size is inferred from the number of triples. Integer
// encoded tables, where every sample is an integer literal and some
// exceed 1, are normalized to [0, 1] by the smallest 10, 12 or 16 bit
// maximum that holds every sample. Float tables are kept as parsed.
func Parse3DL(r io.Reader) (*Grid, error) {
	var data []float32
	integers := true
	err := lines(r, func(lnum int, fields []string) (err error) {
		if len(fields) != 3 {
			return nil
		}
		if data, err = parseTriple(lnum, fields, data); err != nil {
			return
		}
		for _, f := range fields {
			if _, e := strconv.ParseInt(f, 10, 64); e != nil {
				integers = false
			}
		}
		return
	})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w in 3DL file", ErrNoData)
	}
	size, ok := cubeRoot(len(data) / 3)
	if !ok {
		return nil, fmt.Errorf("%w: invalid 3DL LUT data size, %d triples", ErrNotCubic, len(data)/3)
	}
	if integers {
		normalize3DL(data)
	}
	g := &Grid{Size: size, Data: data}
	if err = g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func normalize3DL(data []float32) {
	var peak float32
	for _, v := range data {
		peak = max(peak, v)
	}
	if peak <= 1 {
		return
	}
	scale := float32(65535)
	for _, m := range []float32{1023, 4095} {
		if peak <= m {
			scale = m
			break
		}
	}
	for i, v := range data {
		data[i] = v / scale
	}
}

func formatSample(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}

// WriteCube serializes g in the .cube format. Samples are written with the
// shortest representation that parses back to the identical float32.
func WriteCube(w io.Writer, g *Grid, title string) error {
	if err := g.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if title != "" {
		fmt.Fprintf(bw, "TITLE %q\n", title)
	}
	fmt.Fprintf(bw, "LUT_3D_SIZE %d\n", g.Size)
	for i := 0; i < len(g.Data); i += 3 {
		fmt.Fprintf(bw, "%s %s %s\n", formatSample(g.Data[i]), formatSample(g.Data[i+1]), formatSample(g.Data[i+2]))
	}
	return bw.Flush()
}
