// Package checkpoint records per-document pipeline progress in a JSON file
// so an interrupted run can resume. Completed stages are skipped on rerun;
// the idempotent graph writes make repeating a half-finished stage safe.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type state struct {
	DocID          string            `json:"doc_id"`
	CompletedSteps []string          `json:"completed_steps"`
	Artifacts      map[string]string `json:"artifacts"`
}

// Manager tracks one document's pipeline progress.
type Manager struct {
	path string
	data state
}

// New loads or initializes the checkpoint file for docID under dir.
func New(dir, docID string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint dir: %w", err)
	}

	m := &Manager{
		path: filepath.Join(dir, docID+".json"),
		data: state{
			DocID:     docID,
			Artifacts: map[string]string{},
		},
	}

	raw, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if err := json.Unmarshal(raw, &m.data); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint %s: %w", m.path, err)
	}
	if m.data.Artifacts == nil {
		m.data.Artifacts = map[string]string{}
	}
	return m, nil
}

func (m *Manager) save() error {
	raw, err := json.MarshalIndent(m.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, raw, 0o644)
}

// MarkCompleted records a finished stage.
func (m *Manager) MarkCompleted(step string) error {
	if m.IsCompleted(step) {
		return nil
	}
	m.data.CompletedSteps = append(m.data.CompletedSteps, step)
	return m.save()
}

// IsCompleted reports whether a stage already ran to completion.
func (m *Manager) IsCompleted(step string) bool {
	for _, s := range m.data.CompletedSteps {
		if s == step {
			return true
		}
	}
	return false
}

// Store saves a small string artifact alongside stage progress.
func (m *Manager) Store(key, value string) error {
	m.data.Artifacts[key] = value
	return m.save()
}

// Load returns a stored artifact.
func (m *Manager) Load(key string) (string, bool) {
	v, ok := m.data.Artifacts[key]
	return v, ok
}

// Reset forgets all progress for the document.
func (m *Manager) Reset() error {
	m.data.CompletedSteps = nil
	m.data.Artifacts = map[string]string{}
	err := os.Remove(m.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
