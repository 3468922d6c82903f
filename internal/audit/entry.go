package audit

import "github.com/ppiankov/contexttlp/internal/tlp"

// Decisions recorded in the log.
const (
	DecisionAllow  = "allow"
	DecisionBlock  = "block"
	DecisionRead   = "read"
	DecisionWrite  = "write"
	DecisionRefuse = "refuse"
)

// AuditAction is the flattened action recorded in each audit entry.
// Resource is the vault-relative path, never file content.
type AuditAction struct {
	Tool     string `json:"tool"`
	Resource string `json:"resource"`
}

// Restored counts hidden chunks put back by a write.
type Restored struct {
	Blocks  int `json:"blocks"`
	Inline  int `json:"inline"`
	Secrets int `json:"secrets"`
}

// AuditEntry is one line in the hash-chained JSONL audit log.
// All fields are structs (no map[string]any) to guarantee deterministic
// json.Marshal field order for reproducible hashing.
type AuditEntry struct {
	Timestamp  string      `json:"ts"`
	SessionID  string      `json:"session_id"`
	Action     AuditAction `json:"action"`
	Level      tlp.Level   `json:"level"`
	Decision   string      `json:"decision"`
	Reason     string      `json:"reason"`
	PolicyHash string      `json:"policy_hash"`
	Restored   *Restored   `json:"restored,omitempty"`
	PrevHash   string      `json:"prev_hash"`
}
