package agent

import (
	"context"
	"fmt"
)

// Pipeline orchestrates the execution of stages in dependency order
type Pipeline struct {
	stages map[string]Stage
	order  []string
}

// NewPipeline creates a new stage pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{
		stages: make(map[string]Stage),
	}
}

// AddStage adds a stage to the pipeline
func (p *Pipeline) AddStage(stage Stage) error {
	name := stage.Name()
	if _, exists := p.stages[name]; exists {
		return fmt.Errorf("stage with name %s already exists", name)
	}

	p.stages[name] = stage

	// Recalculate execution order
	return p.calculateOrder()
}

// calculateOrder determines the execution order based on dependencies
func (p *Pipeline) calculateOrder() error {
	order, err := p.topologicalSort()
	if err != nil {
		return err
	}

	p.order = order
	return nil
}

// topologicalSort performs a topological sort on the stages based on dependencies
func (p *Pipeline) topologicalSort() ([]string, error) {
	// Build adjacency list and in-degree count
	adjList := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range p.stages {
		adjList[name] = []string{}
		inDegree[name] = 0
	}

	// Build dependency graph
	for name, stage := range p.stages {
		for _, dep := range stage.Dependencies() {
			if _, exists := p.stages[dep]; !exists {
				return nil, fmt.Errorf("stage %s depends on %s, but %s is not registered", name, dep, dep)
			}
			adjList[dep] = append(adjList[dep], name)
			inDegree[name]++
		}
	}

	// Kahn's algorithm for topological sorting
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}

	var result []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		for _, neighbor := range adjList[current] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	// Check for circular dependencies
	if len(result) != len(p.stages) {
		return nil, fmt.Errorf("circular dependency detected in stage chain")
	}

	return result, nil
}

// Execute runs all stages in dependency order
func (p *Pipeline) Execute(ctx context.Context, baggage map[string]interface{}) error {
	if len(p.order) == 0 {
		return fmt.Errorf("no stages registered or order not calculated")
	}

	for _, name := range p.order {
		stage, exists := p.stages[name]
		if !exists {
			return fmt.Errorf("stage %s not found", name)
		}

		if err := stage.Process(ctx, baggage); err != nil {
			return fmt.Errorf("stage %s failed: %w", name, err)
		}
	}

	return nil
}

// ExecutionOrder returns the current execution order
func (p *Pipeline) ExecutionOrder() []string {
	result := make([]string, len(p.order))
	copy(result, p.order)
	return result
}

// StageCount returns the number of registered stages
func (p *Pipeline) StageCount() int {
	return len(p.stages)
}
