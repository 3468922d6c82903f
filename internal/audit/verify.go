package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// VerifyResult holds the outcome of a hash chain verification.
type VerifyResult struct {
	Valid bool `json:"valid"`
	Lines int  `json:"lines"`
	// Head is the hash of the last line, to pin the chain externally.
	Head      string `json:"head,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

// Verify reads a JSONL audit log and validates the hash chain and that
// every entry carries a parseable timestamp and a decision. Returns
// Valid=true if the log is intact, or details about the first bad line.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	expected := GenesisHash

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		var entry AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return VerifyResult{
				Error:     fmt.Sprintf("parse error: %v", err),
				ErrorLine: lineNum,
			}
		}
		if entry.PrevHash != expected {
			msg := fmt.Sprintf("hash mismatch: expected %s, got %s", expected, entry.PrevHash)
			if lineNum == 1 {
				msg = fmt.Sprintf("first entry prev_hash is %q, expected genesis hash", entry.PrevHash)
			}
			return VerifyResult{Error: msg, ErrorLine: lineNum}
		}
		if _, err := time.Parse(TimestampFormat, entry.Timestamp); err != nil {
			return VerifyResult{
				Error:     fmt.Sprintf("bad timestamp %q", entry.Timestamp),
				ErrorLine: lineNum,
			}
		}
		if entry.Decision == "" {
			return VerifyResult{Error: "missing decision", ErrorLine: lineNum}
		}

		expected = HashLine(line)
	}

	if err := scanner.Err(); err != nil {
		return VerifyResult{Error: fmt.Sprintf("scan: %v", err)}
	}

	r := VerifyResult{Valid: true, Lines: lineNum}
	if lineNum > 0 {
		r.Head = expected
	}
	return r
}
