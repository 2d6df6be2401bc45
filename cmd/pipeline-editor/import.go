package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/askiada/pipeline-editor/pkg/editor/drawer"
)

func importDOTCmd(a *app) *cobra.Command {
	var pipelineUUID string

	cmd := &cobra.Command{
		Use:   "import-dot <graph.dot>",
		Short: "Create a pipeline from a Graphviz digraph",
		Long: `import-dot turns every node of a digraph into a step and every edge into a
connection, then stores the pipeline through the configured backend.
Node attributes title, file_path and pos="x,y" are honoured.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "unable to read graph")
			}
			if pipelineUUID == "" {
				pipelineUUID = uuid.NewString()
			}

			pipe, err := drawer.ParseDOT(string(src), pipelineUUID)
			if err != nil {
				return err
			}
			if err := a.backend().Save(cmd.Context(), pipe.Serialize()); err != nil {
				return errors.Wrapf(err, "unable to store pipeline %s", pipelineUUID)
			}

			a.logger.Info("pipeline imported",
				zap.String("pipeline", pipelineUUID),
				zap.Int("steps", pipe.Len()),
				zap.Int("connections", len(pipe.Connections())),
			)
			fmt.Fprintln(cmd.OutOrStdout(), pipelineUUID)

			return nil
		},
	}

	cmd.Flags().StringVar(&pipelineUUID, "uuid", "", "uuid of the new pipeline (default is a random one)")

	return cmd
}
