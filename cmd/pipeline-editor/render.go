package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/pipeline-editor/pkg/editor/drawer"
	"github.com/askiada/pipeline-editor/pkg/editor/interaction"
)

var errUnknownFormat = errors.New("unknown render format")

func (a *app) newDrawer(format string) (drawer.Drawer, error) {
	opts := []drawer.Option{
		drawer.WithPalette(a.cfg.Render.Palette),
		drawer.WithMargin(a.cfg.Render.Margin),
		drawer.WithScale(a.cfg.Render.Scale),
	}

	switch format {
	case "svg":
		return drawer.NewSVGDrawer(opts...), nil
	case "png":
		return drawer.NewPNGDrawer(opts...), nil
	case "dot":
		return drawer.NewDOTDrawer(opts...), nil
	default:
		return nil, errors.Wrapf(errUnknownFormat, "%q", format)
	}
}

func renderCmd(a *app) *cobra.Command {
	var (
		outDir  string
		formats []string
	)

	cmd := &cobra.Command{
		Use:   "render <pipeline-uuid>",
		Short: "Render a pipeline as SVG, PNG and DOT files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipelineUUID := args[0]

			e := a.newEditor(interaction.NewDispatcher())
			defer e.Close()

			if err := e.Load(cmd.Context(), pipelineUUID); err != nil {
				return err
			}

			drawers := make(map[string]drawer.Drawer, len(formats))
			for _, format := range formats {
				format = strings.ToLower(strings.TrimSpace(format))
				d, err := a.newDrawer(format)
				if err != nil {
					return err
				}
				if err := e.DrawTo(d); err != nil {
					return errors.Wrapf(err, "unable to draw %s", format)
				}
				drawers[format] = d
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return errors.Wrapf(err, "unable to create %s", outDir)
			}

			g, _ := errgroup.WithContext(cmd.Context())
			for format, d := range drawers {
				path := filepath.Join(outDir, pipelineUUID+"."+format)
				g.Go(func() error {
					var buf bytes.Buffer
					if err := d.Draw(&buf); err != nil {
						return errors.Wrapf(err, "unable to render %s", format)
					}
					if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec
						return errors.Wrapf(err, "unable to write %s", path)
					}
					a.logger.Info("pipeline rendered", zap.String("format", format), zap.String("path", path))

					return nil
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", ".", "directory the files are written to")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{"svg", "png", "dot"}, "formats to render")

	return cmd
}
