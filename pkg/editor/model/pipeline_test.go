package model_test

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/pipeline-editor/pkg/editor/geometry"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
)

func newPipeline(t *testing.T, uuids ...string) *model.Pipeline {
	t.Helper()

	pipe := model.New("test", "pipeline-uuid")
	for _, id := range uuids {
		require.NoError(t, pipe.AddStep(model.NewStep(id, "step "+id, id+".ipynb")))
	}

	return pipe
}

func outgoing(t *testing.T, pipe *model.Pipeline, uuid string) []string {
	t.Helper()

	step, ok := pipe.Step(uuid)
	require.True(t, ok, "step %s not found", uuid)

	return step.OutgoingConnections()
}

func incoming(t *testing.T, pipe *model.Pipeline, uuid string) []string {
	t.Helper()

	step, ok := pipe.Step(uuid)
	require.True(t, ok, "step %s not found", uuid)

	return step.IncomingConnections()
}

func TestConnectThenRemoveStep(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t, "S1", "S2")
	require.NoError(t, pipe.AddConnection("S1", "S2"))
	pipe.DeriveOutgoing()

	assert.Equal(t, []string{"S1"}, incoming(t, pipe, "S2"))
	assert.Equal(t, []string{"S2"}, outgoing(t, pipe, "S1"))

	removed, err := pipe.RemoveStep("S1")
	require.NoError(t, err)
	assert.Equal(t, []model.Connection{{From: "S1", To: "S2"}}, removed)
	assert.Empty(t, incoming(t, pipe, "S2"))
	assert.Empty(t, pipe.Connections())
}

func TestAddConnectionIdempotent(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t, "S1", "S2")
	require.NoError(t, pipe.AddConnection("S1", "S2"))
	require.NoError(t, pipe.AddConnection("S1", "S2"))

	assert.Equal(t, []string{"S1"}, incoming(t, pipe, "S2"))
	assert.Equal(t, []model.Connection{{From: "S1", To: "S2"}}, pipe.Connections())
	assert.True(t, pipe.HasConnection("S1", "S2"))
	assert.False(t, pipe.HasConnection("S2", "S1"))
}

func TestAddConnectionErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		from, to string
		expected error
	}{
		"self loop":      {from: "S1", to: "S1", expected: model.ErrSelfConnection},
		"unknown source": {from: "nope", to: "S1", expected: model.ErrStepNotFound},
		"unknown target": {from: "S1", to: "nope", expected: model.ErrStepNotFound},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pipe := newPipeline(t, "S1", "S2")
			err := pipe.AddConnection(tc.from, tc.to)
			assert.ErrorIs(t, err, tc.expected)
			assert.Empty(t, pipe.Connections())
		})
	}
}

func TestAddStepErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		step     *model.Step
		expected error
	}{
		"nil step":         {step: nil, expected: model.ErrEmptyUUID},
		"empty uuid":       {step: model.NewStep("", "t", "f.py"), expected: model.ErrEmptyUUID},
		"duplicate":        {step: model.NewStep("S1", "t", "f.py"), expected: model.ErrDuplicateStep},
		"self incoming":    {step: model.NewStep("S3", "t", "f.py", model.WithIncoming("S3")), expected: model.ErrSelfConnection},
		"unknown incoming": {step: model.NewStep("S3", "t", "f.py", model.WithIncoming("nope")), expected: model.ErrStepNotFound},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pipe := newPipeline(t, "S1")
			err := pipe.AddStep(tc.step)
			assert.ErrorIs(t, err, tc.expected)
			assert.Equal(t, 1, pipe.Len())
		})
	}
}

func TestAddStepWithIncoming(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t, "S1", "S2")
	step := model.NewStep("S3", "merge", "merge.py", model.WithIncoming("S2", "S1", "S2"))
	require.NoError(t, pipe.AddStep(step))

	assert.Equal(t, []string{"S2", "S1"}, incoming(t, pipe, "S3"))
	assert.Equal(t, []string{"S3"}, outgoing(t, pipe, "S1"))
	assert.Equal(t, []string{"S3"}, outgoing(t, pipe, "S2"))
}

func TestRemoveConnection(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t, "S1", "S2", "S3")
	require.NoError(t, pipe.AddConnection("S1", "S3"))
	require.NoError(t, pipe.AddConnection("S2", "S3"))

	assert.True(t, pipe.RemoveConnection("S1", "S3"))
	assert.False(t, pipe.RemoveConnection("S1", "S3"))
	assert.False(t, pipe.RemoveConnection("S1", "nope"))

	assert.Equal(t, []string{"S2"}, incoming(t, pipe, "S3"))
	assert.Empty(t, outgoing(t, pipe, "S1"))
	assert.Equal(t, []string{"S3"}, outgoing(t, pipe, "S2"))
}

func TestRemoveStepPrunesBothSides(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t, "A", "B", "C", "D")
	require.NoError(t, pipe.AddConnection("A", "B"))
	require.NoError(t, pipe.AddConnection("B", "C"))
	require.NoError(t, pipe.AddConnection("B", "D"))
	require.NoError(t, pipe.AddConnection("A", "D"))

	removed, err := pipe.RemoveStep("B")
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.Connection{
		{From: "A", To: "B"},
		{From: "B", To: "C"},
		{From: "B", To: "D"},
	}, removed)

	for _, step := range pipe.Steps() {
		assert.NotContains(t, step.IncomingConnections(), "B")
		assert.NotContains(t, step.OutgoingConnections(), "B")
	}
	assert.Equal(t, []string{"D"}, outgoing(t, pipe, "A"))

	_, err = pipe.RemoveStep("B")
	assert.ErrorIs(t, err, model.ErrStepNotFound)
}

func TestOutgoingOrderFollowsStepOrder(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t, "src", "z", "y", "x")
	require.NoError(t, pipe.AddConnection("src", "x"))
	require.NoError(t, pipe.AddConnection("src", "z"))
	require.NoError(t, pipe.AddConnection("src", "y"))

	assert.Equal(t, []string{"z", "y", "x"}, outgoing(t, pipe, "src"))
}

func TestOutgoingIsACopy(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t, "S1", "S2")
	require.NoError(t, pipe.AddConnection("S1", "S2"))

	out := outgoing(t, pipe, "S1")
	out[0] = "tampered"
	in := incoming(t, pipe, "S2")
	in[0] = "tampered"

	assert.Equal(t, []string{"S2"}, outgoing(t, pipe, "S1"))
	assert.Equal(t, []string{"S1"}, incoming(t, pipe, "S2"))
}

func TestSetPosition(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t, "S1")
	require.NoError(t, pipe.SetPosition("S1", geometry.Pt(12, 34)))

	step, _ := pipe.Step("S1")
	assert.Equal(t, model.Position{12, 34}, step.MetaData.Position)
	assert.ErrorIs(t, pipe.SetPosition("nope", geometry.Point{}), model.ErrStepNotFound)
}

func TestGraph(t *testing.T) {
	t.Parallel()

	pipe := newPipeline(t, "S1", "S2", "S3")
	require.NoError(t, pipe.AddConnection("S1", "S2"))
	require.NoError(t, pipe.AddConnection("S1", "S3"))

	adjacency, err := pipe.Graph().AdjacencyMap()
	require.NoError(t, err)
	assert.Len(t, adjacency, 3)
	assert.Contains(t, adjacency["S1"], "S2")
	assert.Contains(t, adjacency["S1"], "S3")
	assert.Empty(t, adjacency["S2"])
}

// TestBidirectionalConsistency drives random mutation sequences and checks
// that incoming and outgoing connections are always inverse of each other.
func TestBidirectionalConsistency(t *testing.T) {
	t.Parallel()

	for seed := int64(1); seed <= 20; seed++ {
		t.Run("seed "+strconv.FormatInt(seed, 10), func(t *testing.T) {
			t.Parallel()

			rnd := rand.New(rand.NewSource(seed))
			pipe := model.New("random", "random")
			next := 0
			pick := func() string {
				steps := pipe.Steps()
				if len(steps) == 0 {
					return "missing"
				}
				return steps[rnd.Intn(len(steps))].UUID()
			}

			for i := 0; i < 200; i++ {
				switch rnd.Intn(4) {
				case 0:
					next++
					_ = pipe.AddStep(model.NewStep("s"+strconv.Itoa(next), "", ""))
				case 1:
					if rnd.Intn(3) == 0 {
						_, _ = pipe.RemoveStep(pick())
					}
				case 2:
					_ = pipe.AddConnection(pick(), pick())
				case 3:
					_ = pipe.RemoveConnection(pick(), pick())
				}
				pipe.DeriveOutgoing()
				assertConsistent(t, pipe)
			}
		})
	}
}

func assertConsistent(t *testing.T, pipe *model.Pipeline) {
	t.Helper()

	for _, a := range pipe.Steps() {
		assert.NotContains(t, a.IncomingConnections(), a.UUID())
		for _, b := range a.IncomingConnections() {
			src, ok := pipe.Step(b)
			require.True(t, ok, "dangling reference %s in %s", b, a.UUID())
			assert.Contains(t, src.OutgoingConnections(), a.UUID())
		}
		for _, b := range a.OutgoingConnections() {
			dst, ok := pipe.Step(b)
			require.True(t, ok, "dangling outgoing %s in %s", b, a.UUID())
			assert.Contains(t, dst.IncomingConnections(), a.UUID())
		}
	}
}
