// Package choropleth runs the load → join → classify → colorize → render
// pipeline that turns a country value table into a PNG map.
package choropleth

import (
	"context"
	"image/color"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/sells-group/choropleth-cli/internal/classify"
	"github.com/sells-group/choropleth-cli/internal/colormap"
	"github.com/sells-group/choropleth-cli/internal/dataset"
	"github.com/sells-group/choropleth-cli/internal/fetcher"
	"github.com/sells-group/choropleth-cli/internal/geo"
	"github.com/sells-group/choropleth-cli/internal/projection"
	"github.com/sells-group/choropleth-cli/internal/render"
)

// legendRampStops is the number of colors sampled for a continuous legend bar.
const legendRampStops = 32

// fetchTimeout bounds each remote input download.
const fetchTimeout = 2 * time.Minute

// Options configures one map.
type Options struct {
	// Input table.
	DataPath      string
	CodeCol       string
	ValueCol      string
	LabelCol      string
	LabelRequired bool
	Sheet         string

	// Geometry. Source wins over WorldPath; both empty means the bundled world.
	// WorldPath must be local; only DataPath may be an http(s) or ftp URL.
	Source         geo.Source
	WorldPath      string
	WorldCodeField string
	WorldNameField string

	// Output.
	OutPath      string
	Title        string
	Legend       bool
	LegendTitle  string
	Scheme       string // empty for continuous coloring
	K            int
	Projection   string
	Colormap     string
	MissingColor string
	EdgeColor    string
	EdgeWidth    float64
	Background   string
	DPI          int
	Width        float64
	Height       float64
	LabelTopN    int
	FormatValues string

	// Remote downloads a URL DataPath; nil uses fetcher.NewRemote.
	Remote *fetcher.Remote
}

// Result summarizes a completed run.
type Result struct {
	Joined    []geo.JoinedCountry
	Classes   *classify.Result // nil for continuous coloring
	Unmatched []string
	Output    string
}

// plan holds everything resolved from Options before any file is touched.
type plan struct {
	proj       *projection.Projection
	cmap       *colormap.Colormap
	scheme     classify.Scheme
	missing    color.NRGBA
	edge       color.NRGBA
	background color.NRGBA
	numbers    render.NumberFormat
	source     geo.Source
}

// Run executes the pipeline. Option errors are reported before any input is
// read; on error no output file is written.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("component", "choropleth"), zap.String("out", opts.OutPath))

	p, err := resolve(opts)
	if err != nil {
		return nil, err
	}

	if fetcher.IsRemote(opts.DataPath) {
		dir, err := os.MkdirTemp("", "choropleth-*")
		if err != nil {
			return nil, eris.Wrap(err, "choropleth: create download dir")
		}
		defer os.RemoveAll(dir) //nolint:errcheck

		if opts.DataPath, err = fetchData(ctx, opts, dir); err != nil {
			return nil, err
		}
	}

	table, err := dataset.Load(dataset.Options{
		Path:          opts.DataPath,
		CodeCol:       opts.CodeCol,
		ValueCol:      opts.ValueCol,
		LabelCol:      opts.LabelCol,
		LabelRequired: opts.LabelRequired,
		Sheet:         opts.Sheet,
	})
	if err != nil {
		return nil, err
	}

	countries, err := p.source.Countries()
	if err != nil {
		return nil, err
	}

	joined := geo.Join(countries, table)
	if len(joined.Unmatched) > 0 {
		log.Warn("codes did not match any country geometry",
			zap.Int("count", len(joined.Unmatched)),
			zap.Strings("codes", joined.Unmatched),
		)
	}

	values := joined.PresentValues()
	if len(values) == 0 {
		return nil, eris.Wrapf(classify.ErrEmptyData, "choropleth: no numeric values in %s matched a country", opts.DataPath)
	}

	var classes *classify.Result
	if p.scheme != "" {
		classes, err = classify.Classify(values, p.scheme, opts.K)
		if err != nil {
			return nil, err
		}
		for i := range joined.Countries {
			if c := &joined.Countries[i]; c.Present {
				c.Bin = classes.Assign(c.Value)
			}
		}
		log.Debug("classified values",
			zap.String("scheme", string(p.scheme)),
			zap.Int("classes", classes.Classes()),
			zap.Float64s("edges", classes.Edges),
		)
	}

	scene := &render.Scene{
		Features:   colorize(joined.Countries, classes, p, values),
		Projection: p.proj,
		Width:      opts.Width,
		Height:     opts.Height,
		DPI:        opts.DPI,
		Background: p.background,
		EdgeColor:  p.edge,
		EdgeWidth:  opts.EdgeWidth,
		Title:      opts.Title,
		Labels:     topLabels(joined.Countries, opts.LabelTopN, p.numbers),
	}
	if opts.Legend {
		scene.Legend = buildLegend(opts, p, classes, values, joined.Countries)
	}

	if err := render.Render(ctx, scene, opts.OutPath); err != nil {
		return nil, err
	}

	log.Info("rendered choropleth",
		zap.Int("countries", len(joined.Countries)),
		zap.Int("matched", joined.Matched),
		zap.Int("with_values", len(values)),
	)

	return &Result{
		Joined:    joined.Countries,
		Classes:   classes,
		Unmatched: joined.Unmatched,
		Output:    opts.OutPath,
	}, nil
}

// resolve validates every name and color in opts without touching the
// filesystem.
func resolve(opts Options) (*plan, error) {
	p := &plan{}
	var err error

	if strings.TrimSpace(opts.OutPath) == "" {
		return nil, eris.New("choropleth: output path is required")
	}
	if p.proj, err = projection.Lookup(opts.Projection); err != nil {
		return nil, err
	}
	if p.cmap, err = colormap.Lookup(opts.Colormap); err != nil {
		return nil, err
	}
	if opts.Scheme != "" {
		if p.scheme, err = classify.ParseScheme(opts.Scheme); err != nil {
			return nil, err
		}
		if opts.K < 1 {
			return nil, eris.Wrapf(classify.ErrInvalidClassCount, "choropleth: k=%d", opts.K)
		}
	}
	if p.missing, err = colormap.ParseColor(opts.MissingColor); err != nil {
		return nil, eris.Wrap(err, "choropleth: missing color")
	}
	if p.edge, err = colormap.ParseColor(opts.EdgeColor); err != nil {
		return nil, eris.Wrap(err, "choropleth: edge color")
	}
	if p.background, err = colormap.ParseColor(opts.Background); err != nil {
		return nil, eris.Wrap(err, "choropleth: background color")
	}
	p.numbers = render.DefaultNumberFormat
	if opts.FormatValues != "" {
		if p.numbers, err = render.ParseNumberFormat(opts.FormatValues); err != nil {
			return nil, err
		}
	}
	if opts.EdgeWidth < 0 {
		return nil, eris.Errorf("choropleth: edge width must be >= 0, got %g", opts.EdgeWidth)
	}
	if opts.LabelTopN < 0 {
		return nil, eris.Errorf("choropleth: label top-N must be >= 0, got %d", opts.LabelTopN)
	}
	scene := render.Scene{Projection: p.proj, Width: opts.Width, Height: opts.Height, DPI: opts.DPI}
	if err := scene.Validate(); err != nil {
		return nil, err
	}

	p.source = opts.Source
	if p.source == nil {
		if fetcher.IsRemote(opts.WorldPath) {
			return nil, eris.Wrapf(geo.ErrGeometrySource, "choropleth: world file must be local, got %s", opts.WorldPath)
		}
		if p.source, err = geo.Open(opts.WorldPath, opts.WorldCodeField, opts.WorldNameField); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// fetchData downloads a URL DataPath into dir and returns the local copy.
func fetchData(ctx context.Context, opts Options, dir string) (string, error) {
	remote := opts.Remote
	if remote == nil {
		remote = fetcher.NewRemote(fetchTimeout)
	}
	local, err := remote.Localize(ctx, opts.DataPath, dir)
	if err != nil {
		return "", eris.Wrapf(dataset.ErrInputFile, "choropleth: %v", err)
	}
	return local, nil
}

// colorize assigns a fill to every joined country. Countries without a value
// always get the missing color.
func colorize(joined []geo.JoinedCountry, classes *classify.Result, p *plan, values []float64) []render.Feature {
	var palette []color.NRGBA
	if classes != nil {
		palette = p.cmap.Discrete(classes.Classes())
	}
	lo, hi := floats.Min(values), floats.Max(values)

	features := make([]render.Feature, 0, len(joined))
	for _, c := range joined {
		fill := p.missing
		switch {
		case !c.Present:
		case classes != nil:
			if c.Bin >= 0 && c.Bin < len(palette) {
				fill = palette[c.Bin]
			}
		default:
			fill = p.cmap.At(normalize(c.Value, lo, hi))
		}
		features = append(features, render.Feature{
			Code:     c.Geometry.Code,
			Boundary: c.Geometry.Boundary,
			Fill:     fill,
		})
	}
	return features
}

// normalize maps v into [0, 1] over [lo, hi]; a zero-width range maps to 0.5.
func normalize(v, lo, hi float64) float64 {
	if hi == lo {
		return 0.5
	}
	return math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
}

func buildLegend(opts Options, p *plan, classes *classify.Result, values []float64, joined []geo.JoinedCountry) *render.Legend {
	title := opts.LegendTitle
	if title == "" {
		title = opts.ValueCol
	}
	legend := &render.Legend{Title: title}

	if classes != nil {
		palette := p.cmap.Discrete(classes.Classes())
		for i := 0; i < classes.Classes(); i++ {
			legend.Entries = append(legend.Entries, render.LegendEntry{
				Color: palette[i],
				Text:  p.numbers.Format(classes.Edges[i]) + " - " + p.numbers.Format(classes.Edges[i+1]),
			})
		}
		legend.NoData = &render.LegendEntry{Color: p.missing, Text: "No data"}
		return legend
	}

	legend.Ramp = p.cmap.Discrete(legendRampStops)
	legend.Min = p.numbers.Format(floats.Min(values))
	legend.Max = p.numbers.Format(floats.Max(values))
	for _, c := range joined {
		if !c.Present {
			legend.NoData = &render.LegendEntry{Color: p.missing, Text: "No data"}
			break
		}
	}
	return legend
}

// topLabels returns labels for the n highest present values. Ties keep
// geometry order.
func topLabels(joined []geo.JoinedCountry, n int, nf render.NumberFormat) []render.Label {
	if n <= 0 {
		return nil
	}
	idx := make([]int, 0, len(joined))
	for i, c := range joined {
		if c.Present {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return joined[idx[a]].Value > joined[idx[b]].Value
	})
	if len(idx) > n {
		idx = idx[:n]
	}

	labels := make([]render.Label, 0, len(idx))
	for _, i := range idx {
		c := joined[i]
		lon, lat := c.Geometry.RepresentativePoint()
		labels = append(labels, render.Label{
			Lon:  lon,
			Lat:  lat,
			Text: labelText(c) + " (" + nf.Format(c.Value) + ")",
		})
	}
	return labels
}

func labelText(c geo.JoinedCountry) string {
	switch {
	case c.Label != "":
		return c.Label
	case c.Geometry.Name != "":
		return c.Geometry.Name
	default:
		return c.Geometry.Code
	}
}
