package core

// OutputMode controls how output is displayed
type OutputMode int

// OutputMode constants define available output formatting modes.
const (
	OutputNormal OutputMode = iota // Default: styled output
	OutputQuiet                    // Errors only
	OutputJSON                     // Structured JSON
)

// CommonFlags groups the flags every command accepts
type CommonFlags struct {
	Mode       OutputMode
	Verbose    bool   // Debug logging on stderr
	ConfigPath string // Overrides /etc/gentoostats/gentoostats.yml
	Root       string // Overrides the configured root
}

// JSONOutput represents structured output
type JSONOutput struct {
	Status  string         `json:"status"`            // "success", "error", "warning", "info"
	Message string         `json:"message,omitempty"` // Optional message
	Data    map[string]any `json:"data,omitempty"`    // Command-specific data
	Error   *JSONError     `json:"error,omitempty"`   // Error details
}

// JSONError represents error information in JSON output
type JSONError struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
