package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStage appends its name to the shared order slice when processed.
type recordingStage struct {
	name string
	deps []string
	err  error
}

func (s *recordingStage) Name() string {
	return s.name
}

func (s *recordingStage) Dependencies() []string {
	return s.deps
}

func (s *recordingStage) Process(ctx context.Context, baggage map[string]interface{}) error {
	if s.err != nil {
		return s.err
	}
	order, _ := baggage["order"].([]string)
	baggage["order"] = append(order, s.name)
	return nil
}

func TestPipeline_ExecutesInDependencyOrder(t *testing.T) {
	pipeline := NewPipeline()

	// Registered out of order on purpose.
	require.NoError(t, pipeline.AddStage(&recordingStage{name: "third", deps: []string{"second"}}))
	require.NoError(t, pipeline.AddStage(&recordingStage{name: "first"}))
	require.NoError(t, pipeline.AddStage(&recordingStage{name: "second", deps: []string{"first"}}))

	baggage := map[string]interface{}{}
	require.NoError(t, pipeline.Execute(context.Background(), baggage))

	assert.Equal(t, []string{"first", "second", "third"}, baggage["order"])
	assert.Equal(t, 3, pipeline.StageCount())
}

func TestPipeline_RejectsDuplicateNames(t *testing.T) {
	pipeline := NewPipeline()
	require.NoError(t, pipeline.AddStage(&recordingStage{name: "only"}))

	err := pipeline.AddStage(&recordingStage{name: "only"})
	assert.ErrorContains(t, err, "already exists")
}

func TestPipeline_RejectsUnknownDependency(t *testing.T) {
	pipeline := NewPipeline()

	err := pipeline.AddStage(&recordingStage{name: "late", deps: []string{"missing"}})
	assert.ErrorContains(t, err, "not registered")
}

func TestPipeline_DetectsCircularDependencies(t *testing.T) {
	pipeline := NewPipeline()

	// a -> b is fine on its own; adding b -> a closes the cycle.
	require.NoError(t, pipeline.AddStage(&recordingStage{name: "a"}))
	require.NoError(t, pipeline.AddStage(&recordingStage{name: "b", deps: []string{"a"}}))

	pipeline.stages["a"] = &recordingStage{name: "a", deps: []string{"b"}}
	err := pipeline.calculateOrder()
	assert.ErrorContains(t, err, "circular dependency")
}

func TestPipeline_WrapsStageErrors(t *testing.T) {
	pipeline := NewPipeline()
	boom := errors.New("boom")
	require.NoError(t, pipeline.AddStage(&recordingStage{name: "broken", err: boom}))

	err := pipeline.Execute(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "stage broken failed")
}

func TestPipeline_ExecuteWithoutStages(t *testing.T) {
	err := NewPipeline().Execute(context.Background(), map[string]interface{}{})
	assert.Error(t, err)
}
