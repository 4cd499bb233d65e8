package schema

var modelFields = []field{
	{name: "launcher", kind: kindString},
	{name: "options", kind: kindMap},
}

// Model is a launcher identifier plus options.
type Model struct {
	Name     string
	Launcher string
	Options  map[string]any
}

// NewModel constructs a Model named name from a raw document mapping.
func NewModel(name string, raw map[string]any) (*Model, error) {
	if err := checkFields("model", raw, modelFields); err != nil {
		return nil, err
	}
	return &Model{
		Name:     name,
		Launcher: stringField(raw, "launcher"),
		Options:  mapField(raw, "options"),
	}, nil
}

// ToMap returns the document form of m.
func (m *Model) ToMap() map[string]any {
	out := map[string]any{"launcher": m.Launcher}
	if len(m.Options) > 0 {
		out["options"] = copyMap(m.Options)
	}
	return out
}
