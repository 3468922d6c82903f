// Package watch re-reads and lints a vault policy whenever it changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/contexttlp/internal/tlp"
	"github.com/ppiankov/contexttlp/internal/vault"
)

// DefaultDebounce is how long the watcher waits after the last event
// before re-reading the policy.
const DefaultDebounce = 500 * time.Millisecond

// Report is the state of the policy after a change.
type Report struct {
	Root        string
	PolicyHash  string
	Rules       int
	Diagnostics []tlp.Diagnostic
	// Err is set when the policy could not be read; every file in the
	// vault classifies RED until it is fixed.
	Err error
}

// Watcher watches a vault root for policy changes.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	log      *slog.Logger
	onChange func(Report)

	// Debounce overrides DefaultDebounce when non-zero.
	Debounce time.Duration
}

// New creates a watcher on the vault root directory. The directory is
// watched rather than the policy file so that editors that save by
// rename are seen too.
func New(root string, log *slog.Logger, onChange func(Report)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(root); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", root, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{root: root, watcher: w, log: log, onChange: onChange}, nil
}

// Check reads and lints the policy once.
func Check(root string) Report {
	r := Report{Root: root}
	text, hash, err := vault.ReadPolicy(root)
	if err != nil {
		r.Err = err
		return r
	}
	r.PolicyHash = hash
	r.Rules = len(tlp.ParsePolicy(text).Rules)
	r.Diagnostics = tlp.Lint(text)
	return r
}

// Run watches for policy changes. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	delay := w.Debounce
	if delay == 0 {
		delay = DefaultDebounce
	}

	var mu sync.Mutex
	var debounce *time.Timer
	policyPath := filepath.Join(w.root, vault.PolicyFileName)

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if debounce != nil {
				debounce.Stop()
			}
			mu.Unlock()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != policyPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug("policy event", "op", event.Op.String())
			mu.Lock()
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(delay, func() {
				w.report(Check(w.root))
			})
			mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) report(r Report) {
	switch {
	case r.Err != nil:
		w.log.Error("policy unreadable, vault fails closed to RED", "vault", r.Root, "error", r.Err)
	case len(r.Diagnostics) > 0:
		w.log.Warn("policy reloaded with problems", "vault", r.Root, "policy_hash", r.PolicyHash,
			"rules", r.Rules, "problems", len(r.Diagnostics))
	default:
		w.log.Info("policy reloaded", "vault", r.Root, "policy_hash", r.PolicyHash, "rules", r.Rules)
	}
	if w.onChange != nil {
		w.onChange(r)
	}
}
