package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mapping-tomorrow/riskmap-cli/internal/export"
)

var (
	exportFormat string
	exportOut    string
	exportPlace  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run an analysis and write the collections for GIS tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		place := cfg.Place
		if exportPlace != "" {
			place = exportPlace
		}

		result, err := e.pipeline(place).Run(cmd.Context())
		if err != nil {
			return err
		}

		if err := os.MkdirAll(exportOut, 0o755); err != nil {
			return eris.Wrapf(err, "create output dir %s", exportOut)
		}

		switch exportFormat {
		case "geojson":
			files := []struct {
				name   string
				encode func() ([]byte, error)
			}{
				{"points.geojson", func() ([]byte, error) { return export.PointsGeoJSON(result.Points) }},
				{"zones.geojson", func() ([]byte, error) { return export.ZonesGeoJSON(result.Zones) }},
				{"exposures.geojson", func() ([]byte, error) { return export.ExposuresGeoJSON(result.Exposures) }},
			}
			for _, f := range files {
				raw, err := f.encode()
				if err != nil {
					return err
				}
				path := filepath.Join(exportOut, f.name)
				if err := os.WriteFile(path, raw, 0o644); err != nil {
					return eris.Wrapf(err, "write %s", path)
				}
			}
			return nil
		case "shp":
			return export.WriteShapefiles(exportOut, result.Points, result.Zones)
		default:
			return eris.Errorf("unknown export format %q (want geojson or shp)", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "geojson", "output format: geojson or shp")
	exportCmd.Flags().StringVar(&exportOut, "out", "riskmap-export", "output directory")
	exportCmd.Flags().StringVar(&exportPlace, "place", "", "override the configured place name")
	rootCmd.AddCommand(exportCmd)
}
