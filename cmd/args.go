package cmd

import "fmt"

// CommandArgs contains parsed command arguments
type CommandArgs struct {
	// Positional arguments (command-specific)
	Args []string

	// Parsed flags
	Flags map[string]any

	// Raw unparsed arguments (for custom parsing)
	Raw []string
}

// Bool returns the value of a bool flag, false when unset.
func (a *CommandArgs) Bool(name string) bool {
	v, _ := a.Flags[name].(bool)
	return v
}

// String returns the value of a string flag, "" when unset.
func (a *CommandArgs) String(name string) string {
	v, _ := a.Flags[name].(string)
	return v
}

// Strings returns every value of a flag given multiple times.
func (a *CommandArgs) Strings(name string) []string {
	v, _ := a.Flags[name].([]string)
	return v
}

// Int returns the value of an int flag, 0 when unset.
func (a *CommandArgs) Int(name string) int64 {
	v, _ := a.Flags[name].(int64)
	return v
}

// Expect fails unless exactly n positional arguments were given.
func (a *CommandArgs) Expect(n int, usage string) error {
	if len(a.Args) != n {
		return fmt.Errorf("expected %d argument(s), usage: %s", n, usage)
	}
	return nil
}

// CommandFlagSet defines the expected flags for a command
type CommandFlagSet struct {
	Flags map[string]*CommandFlag
}

// CommandFlag represents a single command-line flag
type CommandFlag struct {
	Name        string `json:"name"`              // e.g., "long"
	Short       string `json:"short"`             // Single-char shorthand (e.g., "l")
	Type        string `json:"type"`              // "string", "bool", "int"
	Default     any    `json:"default,omitempty"` // Default value
	Required    bool   `json:"required"`          // Must be provided
	Description string `json:"description"`       // Help text
	Multiple    bool   `json:"multiple"`          // Can be specified multiple times
}
