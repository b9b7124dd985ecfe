package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/choropleth-cli/internal/choropleth"
	"github.com/sells-group/choropleth-cli/internal/config"
	"github.com/sells-group/choropleth-cli/internal/fetcher"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Render every map listed in a YAML manifest",
	Long: `Renders a list of maps described by a YAML manifest. Each entry under
"maps" takes the same keys as the render flags (data, out, value_col, scheme,
k, ...). Keys under "defaults" apply to every entry that leaves them unset.
Relative paths resolve against the manifest's directory.

Maps run in order; the first failure stops the batch unless --keep-going.`,
	Example: `  choropleth batch --manifest maps.yaml --keep-going`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		path, _ := cmd.Flags().GetString("manifest")
		keepGoing, _ := cmd.Flags().GetBool("keep-going")

		m, err := loadManifest(path)
		if err != nil {
			return err
		}
		return runBatch(ctx, m, cfg, keepGoing, cmd.OutOrStdout())
	},
}

func init() {
	batchCmd.Flags().String("manifest", "", "YAML manifest of maps to render (required)")
	batchCmd.Flags().Bool("keep-going", false, "continue after a map fails")
	_ = batchCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(batchCmd)
}

// mapSpec is one manifest entry. Zero values fall through to the manifest
// defaults and then to the loaded configuration; pointer fields distinguish
// an explicit zero or false from an unset key.
type mapSpec struct {
	Name           string   `yaml:"name"`
	Data           string   `yaml:"data"`
	Out            string   `yaml:"out"`
	CodeCol        string   `yaml:"code_col"`
	ValueCol       string   `yaml:"value_col"`
	LabelCol       string   `yaml:"label_col"`
	Sheet          string   `yaml:"sheet"`
	Title          string   `yaml:"title"`
	Legend         *bool    `yaml:"legend"`
	LegendTitle    string   `yaml:"legend_title"`
	Scheme         string   `yaml:"scheme"`
	K              int      `yaml:"k"`
	Projection     string   `yaml:"projection"`
	Cmap           string   `yaml:"cmap"`
	MissingColor   string   `yaml:"missing_color"`
	EdgeColor      string   `yaml:"edge_color"`
	EdgeWidth      *float64 `yaml:"edge_width"`
	Background     string   `yaml:"background"`
	DPI            int      `yaml:"dpi"`
	Width          float64  `yaml:"width"`
	Height         float64  `yaml:"height"`
	LabelTopN      *int     `yaml:"label_topn"`
	FormatValues   string   `yaml:"format_values"`
	World          string   `yaml:"world"`
	WorldCodeField string   `yaml:"world_code_field"`
	WorldNameField string   `yaml:"world_name_field"`
}

type manifest struct {
	Defaults mapSpec   `yaml:"defaults"`
	Maps     []mapSpec `yaml:"maps"`

	dir string
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is a CLI argument
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read manifest %s", path)
	}
	m, err := parseManifest(data)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: manifest %s", path)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

func parseManifest(data []byte) (*manifest, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "parse yaml")
	}
	if len(m.Maps) == 0 {
		return nil, eris.New("no maps listed")
	}
	return &m, nil
}

// options merges an entry over the manifest defaults and the configuration.
// Only paths written in the manifest resolve against its directory; paths
// from the configuration stay relative to the working directory.
func (m *manifest) options(entry mapSpec, c *config.Config) choropleth.Options {
	d := m.Defaults
	opts := choropleth.Options{
		DataPath:       m.resolve(pick(entry.Data, d.Data)),
		OutPath:        m.resolve(pick(entry.Out, d.Out)),
		CodeCol:        pick(entry.CodeCol, d.CodeCol, c.Data.CodeCol),
		ValueCol:       pick(entry.ValueCol, d.ValueCol, c.Data.ValueCol),
		LabelCol:       pick(entry.LabelCol, d.LabelCol, c.Data.LabelCol),
		LabelRequired:  entry.LabelCol != "" || d.LabelCol != "",
		Sheet:          pick(entry.Sheet, d.Sheet),
		Title:          pick(entry.Title, d.Title),
		LegendTitle:    pick(entry.LegendTitle, d.LegendTitle),
		Scheme:         pick(entry.Scheme, d.Scheme, c.Render.Scheme),
		K:              pickInt(entry.K, d.K, c.Render.Classes),
		Projection:     pick(entry.Projection, d.Projection, c.Render.Projection),
		Colormap:       pick(entry.Cmap, d.Cmap, c.Render.Colormap),
		MissingColor:   pick(entry.MissingColor, d.MissingColor, c.Render.MissingColor),
		EdgeColor:      pick(entry.EdgeColor, d.EdgeColor, c.Render.EdgeColor),
		EdgeWidth:      c.Render.EdgeWidth,
		Background:     pick(entry.Background, d.Background, c.Render.Background),
		DPI:            pickInt(entry.DPI, d.DPI, c.Render.DPI),
		Width:          pickFloat(entry.Width, d.Width, c.Render.Width),
		Height:         pickFloat(entry.Height, d.Height, c.Render.Height),
		FormatValues:   pick(entry.FormatValues, d.FormatValues, c.Render.FormatValues),
		WorldPath:      pick(m.resolve(pick(entry.World, d.World)), c.World.Path),
		WorldCodeField: pick(entry.WorldCodeField, d.WorldCodeField, c.World.CodeField),
		WorldNameField: pick(entry.WorldNameField, d.WorldNameField, c.World.NameField),
	}

	switch {
	case entry.Legend != nil:
		opts.Legend = *entry.Legend
	case d.Legend != nil:
		opts.Legend = *d.Legend
	}
	switch {
	case entry.EdgeWidth != nil:
		opts.EdgeWidth = *entry.EdgeWidth
	case d.EdgeWidth != nil:
		opts.EdgeWidth = *d.EdgeWidth
	}
	switch {
	case entry.LabelTopN != nil:
		opts.LabelTopN = *entry.LabelTopN
	case d.LabelTopN != nil:
		opts.LabelTopN = *d.LabelTopN
	}
	return opts
}

func (m *manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || fetcher.IsRemote(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

func runBatch(ctx context.Context, m *manifest, c *config.Config, keepGoing bool, out io.Writer) error {
	if c == nil {
		return eris.New("batch: configuration not loaded")
	}
	log := zap.L().With(zap.String("command", "batch"))

	failed := 0
	for i, entry := range m.Maps {
		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("map %d", i+1)
		}
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "batch: interrupted")
		}

		res, err := choropleth.Run(ctx, m.options(entry, c))
		if err != nil {
			failed++
			log.Error("map failed", zap.String("map", name), zap.Error(err))
			if !keepGoing {
				return eris.Wrapf(err, "batch: %s", name)
			}
			continue
		}
		fmt.Fprintf(out, "Saved %s\n", res.Output)
	}

	if failed > 0 {
		return eris.Errorf("batch: %d of %d maps failed", failed, len(m.Maps))
	}
	log.Info("batch complete", zap.Int("maps", len(m.Maps)))
	return nil
}

func pick(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func pickInt(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func pickFloat(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
