package mcptools

// --- MCP Tool Input Types ---
// The MCP Go SDK generates JSON schemas from these struct tags.

// OptimizeComponentInput is the input for the optimize_component MCP tool.
type OptimizeComponentInput struct {
	Filename string `json:"filename" jsonschema:"file name; the extension (.jsx or .tsx) selects the grammar"`
	Code     string `json:"code" jsonschema:"full source text of the file"`
}

// CandidateOutcome describes what happened to one component.
type CandidateOutcome struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// OptimizeComponentOutput is the result of the optimize_component MCP tool.
type OptimizeComponentOutput struct {
	Code     string             `json:"code"`
	Changed  bool               `json:"changed"`
	Binding  string             `json:"binding,omitempty"`
	Outcomes []CandidateOutcome `json:"outcomes"`
}

// DetectComponentsInput is the input for the detect_components MCP tool.
type DetectComponentsInput struct {
	Filename string `json:"filename" jsonschema:"file name; the extension (.jsx or .tsx) selects the grammar"`
	Code     string `json:"code" jsonschema:"full source text of the file"`
}

// Component is one detected rewrite candidate.
type Component struct {
	Name      string `json:"name"`
	StartLine int    `json:"startLine"`
	Source    string `json:"source"`
}

// DetectComponentsOutput is the result of the detect_components MCP tool.
type DetectComponentsOutput struct {
	Components []Component `json:"components"`
}
