package schema

import "fmt"

var buildStageFields = []field{
	{name: "name", kind: kindString},
	{name: "type", kind: kindString},
	{name: "parameters", kind: kindMap},
}

// BuildStage is one ordered unit of a processing pipeline.
type BuildStage struct {
	Name       string
	Type       string
	Parameters map[string]any
}

// NewBuildStage constructs a BuildStage from a raw document mapping.
func NewBuildStage(raw map[string]any) (BuildStage, error) {
	if err := checkFields("build_stage", raw, buildStageFields); err != nil {
		return BuildStage{}, err
	}
	return BuildStage{
		Name:       stringField(raw, "name"),
		Type:       stringField(raw, "type"),
		Parameters: mapField(raw, "parameters"),
	}, nil
}

// ToMap returns the document form of s.
func (s BuildStage) ToMap() map[string]any {
	m := map[string]any{"name": s.Name, "type": s.Type}
	if len(s.Parameters) > 0 {
		m["parameters"] = copyMap(s.Parameters)
	}
	return m
}

var buildTargetFields = []field{
	{name: "stages", kind: kindList},
	{name: "parents", kind: kindList},
}

// BuildTarget is an ordered sequence of stages with parent target references.
type BuildTarget struct {
	Name    string
	Stages  []BuildStage
	Parents []string
}

// NewBuildTarget constructs a BuildTarget named name from a raw document mapping.
func NewBuildTarget(name string, raw map[string]any) (*BuildTarget, error) {
	if err := checkFields("build_target", raw, buildTargetFields); err != nil {
		return nil, err
	}
	t := &BuildTarget{Name: name}

	for i, v := range listField(raw, "stages") {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, &SchemaValidationError{
				Schema: "build_target",
				Field:  fmt.Sprintf("stages[%d]", i),
				Reason: fmt.Sprintf("expected mapping, got %T", v),
			}
		}
		stage, err := NewBuildStage(m)
		if err != nil {
			return nil, prefixed(err, "build_target", fmt.Sprintf("stages[%d]", i))
		}
		t.Stages = append(t.Stages, stage)
	}

	for i, v := range listField(raw, "parents") {
		s, ok := v.(string)
		if !ok {
			return nil, &SchemaValidationError{
				Schema: "build_target",
				Field:  fmt.Sprintf("parents[%d]", i),
				Reason: fmt.Sprintf("expected string, got %T", v),
			}
		}
		t.Parents = append(t.Parents, s)
	}
	return t, nil
}

// Root returns the first stage.
func (t *BuildTarget) Root() (BuildStage, bool) {
	if len(t.Stages) == 0 {
		return BuildStage{}, false
	}
	return t.Stages[0], true
}

// Head returns the last stage.
func (t *BuildTarget) Head() (BuildStage, bool) {
	if len(t.Stages) == 0 {
		return BuildStage{}, false
	}
	return t.Stages[len(t.Stages)-1], true
}

// ToMap returns the document form of t.
func (t *BuildTarget) ToMap() map[string]any {
	stages := make([]any, 0, len(t.Stages))
	for _, s := range t.Stages {
		stages = append(stages, s.ToMap())
	}
	parents := make([]any, 0, len(t.Parents))
	for _, p := range t.Parents {
		parents = append(parents, p)
	}
	return map[string]any{"stages": stages, "parents": parents}
}
