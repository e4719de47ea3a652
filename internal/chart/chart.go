package chart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/i474232898/flood-monitoring/internal/readings"
)

// ErrNoSeries is returned when there is nothing to plot.
var ErrNoSeries = errors.New("no series to plot")

const (
	panelWidth  = 10 * vg.Inch
	panelHeight = 4 * vg.Inch
)

// Save renders one stacked panel per series and writes the figure to path.
// The output format is inferred from the file extension (png, pdf or svg).
// Nothing is written when the series list is empty.
func Save(series []readings.Series, path string) error {
	if len(series) == 0 {
		return ErrNoSeries
	}

	panels, err := buildPanels(series)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating plot directory: %w", err)
		}
	}

	return writeFigure(panels, path)
}

// Show renders the figure to a temporary PNG and opens the platform image
// viewer. The viewer process is detached; closing it is up to the user.
func Show(series []readings.Series) error {
	if len(series) == 0 {
		return ErrNoSeries
	}

	f, err := os.CreateTemp("", "flood-monitoring-*.png")
	if err != nil {
		return err
	}
	path := f.Name()
	f.Close()

	if err := Save(series, path); err != nil {
		return err
	}

	return openViewer(path)
}

func buildPanels(series []readings.Series) ([]*plot.Plot, error) {
	panels := make([]*plot.Plot, 0, len(series))

	for _, s := range series {
		p := plot.New()
		p.Title.Text = s.Measure
		p.X.Label.Text = "Time"
		p.Y.Label.Text = s.Unit
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02 15:04"}
		p.X.Tick.Label.Rotation = 0.5
		p.Add(plotter.NewGrid())

		xys := make(plotter.XYs, len(s.Points))
		for i, pt := range s.Points {
			xys[i].X = float64(pt.Time.Unix())
			xys[i].Y = pt.Value
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("building line for %s: %w", s.Measure, err)
		}
		p.Add(line)

		panels = append(panels, p)
	}

	return panels, nil
}

// figureCanvas is any drawing backend that can be flushed to a file.
type figureCanvas interface {
	vg.CanvasSizer
	io.WriterTo
}

func newCanvas(path string, w, h vg.Length) (figureCanvas, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return vgimg.PngCanvas{Canvas: vgimg.New(w, h)}, nil
	case ".pdf":
		return vgpdf.New(w, h), nil
	case ".svg":
		return vgsvg.New(w, h), nil
	default:
		return nil, fmt.Errorf("unsupported plot format %q", ext)
	}
}

func writeFigure(panels []*plot.Plot, path string) error {
	rows := len(panels)

	canvas, err := newCanvas(path, panelWidth, panelHeight*vg.Length(rows))
	if err != nil {
		return err
	}

	tiles := draw.Tiles{
		Rows: rows,
		Cols: 1,
		PadY: 5 * vg.Millimeter,
	}

	grid := make([][]*plot.Plot, rows)
	for i, p := range panels {
		grid[i] = []*plot.Plot{p}
	}

	canvases := plot.Align(grid, tiles, draw.New(canvas))
	for i, p := range panels {
		p.Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating plot file: %w", err)
	}

	if _, err := canvas.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing plot file: %w", err)
	}

	return f.Close()
}

func openViewer(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening image viewer: %w", err)
	}
	return nil
}
