package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sells-group/choropleth-cli/internal/choropleth"
	"github.com/sells-group/choropleth-cli/internal/config"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one choropleth map to PNG",
	Long: `Renders a single map. Without --scheme, countries are colored continuously
by value; with --scheme (quantiles, equal_interval, natural_breaks, std_mean)
values are binned into --k classes first. Countries without data always get
--missing-color.`,
	Example: `  choropleth render --data gdp.csv --value-col gdp --out gdp.png \
    --scheme quantiles --k 5 --legend --title "GDP per capita"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts, err := renderOptions(cmd.Flags(), cfg)
		if err != nil {
			return err
		}

		res, err := choropleth.Run(ctx, opts)
		if err != nil {
			return err
		}

		zap.L().Debug("render complete",
			zap.String("command", "render"),
			zap.Int("unmatched", len(res.Unmatched)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", res.Output)
		return nil
	},
}

func init() {
	addRenderFlags(renderCmd.Flags())
	_ = renderCmd.MarkFlagRequired("data")
	_ = renderCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(renderCmd)
}

func addRenderFlags(f *pflag.FlagSet) {
	f.String("data", "", "input CSV or XLSX file or http(s)/ftp URL (required)")
	f.String("out", "", "output PNG path (required)")
	f.String("code-col", "iso_a3", "column holding ISO-3 country codes")
	f.String("value-col", "value", "column holding numeric values")
	f.String("label-col", "label", "column holding display names for labels")
	f.String("sheet", "", "XLSX worksheet name (default first sheet)")
	f.String("title", "", "map title")
	f.Bool("legend", false, "draw a legend")
	f.String("legend-title", "", "legend title (default value column)")
	f.String("scheme", "", "classification scheme: quantiles, equal_interval, natural_breaks, std_mean")
	f.Int("k", 5, "number of classes")
	f.String("projection", "Robinson", "PlateCarree, Mercator, Robinson, Mollweide, EqualEarth or WinkelTripel")
	f.String("cmap", "viridis", "colormap name (append _r to reverse)")
	f.String("missing-color", "#EEEEEE", "fill for countries without data")
	f.String("edge-color", "#FFFFFF", "country border color")
	f.Float64("edge-width", 0.25, "country border width in points")
	f.String("background", "#FFFFFF", "background color (none for transparent)")
	f.Int("dpi", 300, "output resolution")
	f.Float64("width", 12, "figure width in inches")
	f.Float64("height", 6.5, "figure height in inches")
	f.Int("label-topn", 0, "label the N highest-valued countries (0 = none)")
	f.String("format-values", ".2f", "number format for legend and labels, e.g. .2f or ,.0f")
	f.String("world", "", "local country boundaries file (.geojson, .json, .shp or .zip); default bundled")
	f.String("world-code-field", "", "ISO-3 property/field in --world")
	f.String("world-name-field", "", "name property/field in --world")
}

// renderOptions builds pipeline options from flags, falling back to the
// loaded configuration for every flag the user did not set.
func renderOptions(f *pflag.FlagSet, c *config.Config) (choropleth.Options, error) {
	if c == nil {
		return choropleth.Options{}, eris.New("render: configuration not loaded")
	}

	opts := choropleth.Options{
		CodeCol:        c.Data.CodeCol,
		ValueCol:       c.Data.ValueCol,
		LabelCol:       c.Data.LabelCol,
		Scheme:         c.Render.Scheme,
		K:              c.Render.Classes,
		Projection:     c.Render.Projection,
		Colormap:       c.Render.Colormap,
		MissingColor:   c.Render.MissingColor,
		EdgeColor:      c.Render.EdgeColor,
		EdgeWidth:      c.Render.EdgeWidth,
		Background:     c.Render.Background,
		DPI:            c.Render.DPI,
		Width:          c.Render.Width,
		Height:         c.Render.Height,
		FormatValues:   c.Render.FormatValues,
		WorldPath:      c.World.Path,
		WorldCodeField: c.World.CodeField,
		WorldNameField: c.World.NameField,
	}

	opts.DataPath, _ = f.GetString("data")
	opts.OutPath, _ = f.GetString("out")
	opts.Sheet, _ = f.GetString("sheet")
	opts.Title, _ = f.GetString("title")
	opts.Legend, _ = f.GetBool("legend")
	opts.LegendTitle, _ = f.GetString("legend-title")
	opts.LabelTopN, _ = f.GetInt("label-topn")

	// A label column named explicitly must exist.
	opts.LabelRequired = f.Changed("label-col")

	overrideString(f, "code-col", &opts.CodeCol)
	overrideString(f, "value-col", &opts.ValueCol)
	overrideString(f, "label-col", &opts.LabelCol)
	overrideString(f, "scheme", &opts.Scheme)
	overrideString(f, "projection", &opts.Projection)
	overrideString(f, "cmap", &opts.Colormap)
	overrideString(f, "missing-color", &opts.MissingColor)
	overrideString(f, "edge-color", &opts.EdgeColor)
	overrideString(f, "background", &opts.Background)
	overrideString(f, "format-values", &opts.FormatValues)
	overrideString(f, "world", &opts.WorldPath)
	overrideString(f, "world-code-field", &opts.WorldCodeField)
	overrideString(f, "world-name-field", &opts.WorldNameField)
	if f.Changed("k") {
		opts.K, _ = f.GetInt("k")
	}
	if f.Changed("dpi") {
		opts.DPI, _ = f.GetInt("dpi")
	}
	if f.Changed("edge-width") {
		opts.EdgeWidth, _ = f.GetFloat64("edge-width")
	}
	if f.Changed("width") {
		opts.Width, _ = f.GetFloat64("width")
	}
	if f.Changed("height") {
		opts.Height, _ = f.GetFloat64("height")
	}

	return opts, nil
}

func overrideString(f *pflag.FlagSet, name string, dst *string) {
	if f.Changed(name) {
		*dst, _ = f.GetString(name)
	}
}
