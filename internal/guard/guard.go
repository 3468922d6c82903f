// Package guard decides whether an agent tool call may touch a vault file.
// It reads the PreToolUse hook payload and never looks at file content
// beyond what classification needs.
package guard

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/contexttlp/internal/tlp"
	"github.com/ppiankov/contexttlp/internal/vault"
)

// Verdict is the gate outcome.
type Verdict string

const (
	Allow Verdict = "allow"
	Block Verdict = "block"
)

// Exit codes understood by the hook runner.
const (
	ExitAllow = 0
	ExitBlock = 2
)

// Tool names with special handling.
const (
	ToolRead  = "Read"
	ToolWrite = "Write"
)

// ReadCommand is suggested to agents blocked from a direct AMBER read.
const ReadCommand = "contexttlp read"

// Input is the hook payload.
type Input struct {
	ToolName  string `json:"tool_name"`
	ToolInput struct {
		FilePath string `json:"file_path"`
	} `json:"tool_input"`
}

// Decision is the gate result. Stdout is shown to the agent on allow,
// Stderr on block.
type Decision struct {
	Verdict Verdict `json:"decision"`
	Tool    string  `json:"tool,omitempty"`
	Reason  string  `json:"reason"`
	Stdout  string  `json:"-"`
	Stderr  string  `json:"-"`

	// Classification is nil when the call was not gated: no file path,
	// unparseable payload, or a file outside any vault.
	Classification *vault.Classification `json:"classification,omitempty"`
}

// ExitCode maps the verdict to the hook exit status.
func (d Decision) ExitCode() int {
	if d.Verdict == Block {
		return ExitBlock
	}
	return ExitAllow
}

// Evaluate parses a raw payload and decides. Malformed payloads are allowed:
// validating them is the hook runner's job.
func Evaluate(payload []byte) Decision {
	var in Input
	if err := json.Unmarshal(payload, &in); err != nil {
		return Decision{Verdict: Allow, Reason: "unparseable hook payload"}
	}
	return Decide(in)
}

// Decide applies the gate rules to one tool call.
func Decide(in Input) Decision {
	path := in.ToolInput.FilePath
	if path == "" {
		return Decision{Verdict: Allow, Tool: in.ToolName, Reason: "no file path"}
	}
	c, ok := vault.ClassifyFile(path)
	if !ok {
		return Decision{Verdict: Allow, Tool: in.ToolName, Reason: "outside vault"}
	}

	d := Decision{Tool: in.ToolName, Classification: c}
	if c.ConfigError {
		d.Verdict = Block
		d.Reason = "config_error"
		d.Stderr = "Malformed .tlp config. All files treated as RED until fixed."
		return d
	}

	switch c.Level {
	case tlp.Red:
		if in.ToolName == ToolWrite && !exists(path) {
			d.Verdict = Allow
			d.Reason = "new RED file"
			d.Stdout = fmt.Sprintf("TLP:RED: new file creation allowed in: %s", c.RelPath)
			return d
		}
		d.Verdict = Block
		d.Reason = "RED"
		d.Stderr = fmt.Sprintf("TLP:RED: access blocked for: %s", c.RelPath)
	case tlp.Amber:
		if in.ToolName == ToolRead {
			d.Verdict = Block
			d.Reason = "AMBER direct read"
			d.Stderr = fmt.Sprintf("TLP:AMBER: this file requires approval. Ask the user, then use:\n%s %q", ReadCommand, path)
			return d
		}
		d.Verdict = Allow
		d.Reason = "AMBER"
		d.Stdout = fmt.Sprintf("TLP:AMBER: editing allowed, but never output content verbatim from: %s", c.RelPath)
	default:
		d.Verdict = Allow
		d.Reason = c.Level.String()
	}
	return d
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
