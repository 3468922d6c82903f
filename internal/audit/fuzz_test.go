package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/contexttlp/internal/tlp"
)

func FuzzVerify(f *testing.F) {
	tmpDir := f.TempDir()
	validLog := filepath.Join(tmpDir, "valid.jsonl")
	al, err := Open(validLog)
	if err != nil {
		f.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		al.Record(AuditEntry{
			SessionID:  "s-fuzz",
			Action:     AuditAction{Tool: "Read", Resource: "notes/a.md"},
			Level:      tlp.Green,
			Decision:   DecisionAllow,
			PolicyHash: "sha256:test",
		})
	}
	al.Close()
	validData, _ := os.ReadFile(validLog)
	f.Add(validData)

	f.Add([]byte{})
	f.Add([]byte(`{"not":"a valid entry"}` + "\n"))
	f.Add([]byte(`{"level":"PURPLE"}` + "\n"))
	f.Add([]byte(`not json`))

	f.Fuzz(func(t *testing.T, data []byte) {
		tmpFile := filepath.Join(t.TempDir(), "fuzz.jsonl")
		os.WriteFile(tmpFile, data, 0644)

		// Must not panic
		Verify(tmpFile)
		Replay(tmpFile, ReplayFilter{})
	})
}

func BenchmarkRecord(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.jsonl")
	al, err := Open(path)
	if err != nil {
		b.Fatal(err)
	}
	defer al.Close()

	entry := AuditEntry{
		SessionID:  "s-bench",
		Action:     AuditAction{Tool: "write", Resource: "clients/acme.md"},
		Level:      tlp.Amber,
		Decision:   DecisionWrite,
		PolicyHash: "sha256:bench",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		al.Record(entry)
	}
}

func BenchmarkVerify1000(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.jsonl")
	al, err := Open(path)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		al.Record(AuditEntry{SessionID: "s-bench", Level: tlp.Green, Decision: DecisionAllow})
	}
	al.Close()

	info, _ := os.Stat(path)
	b.ResetTimer()
	b.SetBytes(info.Size())
	for i := 0; i < b.N; i++ {
		if r := Verify(path); !r.Valid {
			b.Fatal("invalid chain:", r.Error)
		}
	}
}
