package main

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/askiada/pipeline-editor/pkg/editor"
	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/interaction"
)

const (
	actionEvent      = ""
	actionAddStep    = "add_step"
	actionDeleteStep = "delete_step"
	actionSurface    = "surface"
	actionSave       = "save"
)

var errUnknownAction = errors.New("unknown replay action")

// replayLine is one line of a replay file. Lines without an action are
// events; a pointer event without a target is hit tested.
type replayLine struct {
	interaction.Event

	Action   string            `json:"action"`
	Title    string            `json:"title"`
	FilePath string            `json:"file_path"`
	Step     string            `json:"step"`
	Surface  *geometry.Surface `json:"surface"`
}

type replaySummary struct {
	Pipeline    string         `json:"pipeline"`
	State       string         `json:"state"`
	Selected    string         `json:"selected,omitempty"`
	Dirty       bool           `json:"dirty"`
	Steps       int            `json:"steps"`
	Connections int            `json:"connections"`
	Added       []string       `json:"added,omitempty"`
	Frames      *editor.Frames `json:"frames,omitempty"`
}

type replayer struct {
	editor     *editor.Editor
	dispatcher *interaction.Dispatcher
	logger     *zap.Logger
	added      []string
}

func (r *replayer) apply(cmd *cobra.Command, line replayLine) error {
	switch line.Action {
	case actionEvent:
		if line.Type == "" {
			return errors.Wrap(errUnknownAction, "event without a type")
		}
		r.dispatcher.Dispatch(line.Event)
	case actionAddStep:
		id, err := r.editor.AddStep(line.Title, line.FilePath)
		if err != nil {
			return err
		}
		r.added = append(r.added, id)
	case actionDeleteStep:
		return r.editor.DeleteStep(line.Step)
	case actionSurface:
		if line.Surface == nil {
			return errors.Wrap(errUnknownAction, "surface action without a surface")
		}
		r.editor.SetSurface(*line.Surface)
	case actionSave:
		return r.editor.Save(cmd.Context())
	default:
		return errors.Wrapf(errUnknownAction, "%q", line.Action)
	}

	return nil
}

func (r *replayer) run(cmd *cobra.Command, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	n := 0
	for scanner.Scan() {
		n++
		raw := scanner.Bytes()
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		if err := cmd.Context().Err(); err != nil {
			return errors.Wrap(err, "replay interrupted")
		}

		var line replayLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return errors.Wrapf(err, "line %d", n)
		}
		if err := r.apply(cmd, line); err != nil {
			return errors.Wrapf(err, "line %d", n)
		}
		r.logger.Debug("replayed", zap.Int("line", n), zap.String("action", line.Action),
			zap.String("type", string(line.Type)), zap.Stringer("state", r.editor.State()))
	}

	return errors.Wrap(scanner.Err(), "unable to read replay")
}

func replayCmd(a *app) *cobra.Command {
	var (
		save          bool
		frames        bool
		width, height float64
	)

	cmd := &cobra.Command{
		Use:   "replay <pipeline-uuid> <events.jsonl|->",
		Short: "Replay editor gestures on a pipeline",
		Long: `replay loads a pipeline, feeds it one JSON value per line and prints a
summary of the editor afterwards. A line is either an event

  {"type": "pointerdown", "point": {"x": 95, "y": 130}}
  {"type": "keydown", "key": "Delete"}

or an action: add_step (title, file_path), delete_step (step),
surface (surface) or save.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return errors.Wrap(err, "unable to open replay")
				}
				defer f.Close()
				in = f
			}

			tracker := &saveTracker{}
			dispatcher := interaction.NewDispatcher()
			e := a.newEditor(dispatcher,
				editor.WithObserver(tracker),
				editor.WithSurface(geometry.Surface{Bounds: geometry.Rect{Width: width, Height: height}}),
			)
			defer e.Close()

			if err := e.Load(cmd.Context(), args[0]); err != nil {
				return err
			}

			r := &replayer{editor: e, dispatcher: dispatcher, logger: a.logger}
			if err := r.run(cmd, in); err != nil {
				return err
			}
			if save && e.Dirty() {
				if err := e.Save(cmd.Context()); err != nil {
					return err
				}
			}

			summary := replaySummary{
				Pipeline:    e.Pipeline().UUID(),
				State:       e.State().String(),
				Selected:    e.SelectedStep(),
				Dirty:       e.Dirty(),
				Steps:       e.Pipeline().Len(),
				Connections: len(e.Pipeline().Connections()),
				Added:       r.added,
			}
			if frames {
				f := e.Frames()
				summary.Frames = &f
			}

			// Waits for the queued saves.
			e.Close()
			if err := tracker.Err(); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return errors.Wrap(enc.Encode(summary), "unable to write summary")
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "save the pipeline at the end if it changed")
	cmd.Flags().BoolVar(&frames, "frames", false, "include the rendered frames in the summary")
	cmd.Flags().Float64Var(&width, "width", 1280, "viewport width")
	cmd.Flags().Float64Var(&height, "height", 800, "viewport height")

	return cmd
}
