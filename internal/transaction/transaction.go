// Package transaction guards a release run with a lock in the output
// directory and records the run's progress as a YAML report.
package transaction

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ReportFile is the run report filename inside the output directory.
const ReportFile = "npmship-report.yaml"

// State represents the current state of a stage.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Stage names one step of the release pipeline.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageVerify  Stage = "verify"
	StageStage   Stage = "stage"
	StagePack    Stage = "pack"
	StagePublish Stage = "publish"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{StageFetch, StageVerify, StageStage, StagePack, StagePublish}

// StageTxn is the recorded state of one stage.
type StageTxn struct {
	Name      Stage  `yaml:"name"`
	State     State  `yaml:"state"`
	LastError string `yaml:"last_error,omitempty"`
}

// RunTxn records one release run.
type RunTxn struct {
	Version      int        `yaml:"version"` // Schema version for future evolution
	ID           string     `yaml:"id"`      // UUID for unique identification
	Repo         string     `yaml:"repo"`
	Tag          string     `yaml:"tag"`
	DryRun       bool       `yaml:"dry_run"`
	Timestamp    time.Time  `yaml:"timestamp"`
	Stages       []StageTxn `yaml:"stages"`
	Verification []string   `yaml:"verification,omitempty"`
	Unlisted     []string   `yaml:"unlisted,omitempty"` // assets absent from the checksum file
	Staged       []string   `yaml:"staged,omitempty"`
	Missing      []string   `yaml:"missing,omitempty"` // supported targets not staged
	Archive      string     `yaml:"archive,omitempty"`
	Entries      []string   `yaml:"entries,omitempty"`
	Summary      string     `yaml:"summary,omitempty"`
}

// New creates the record for a run with every stage pending.
func New(repo, tag string, dryRun bool) *RunTxn {
	stages := make([]StageTxn, 0, len(Stages))
	for _, s := range Stages {
		stages = append(stages, StageTxn{Name: s, State: StatePending})
	}

	return &RunTxn{
		Version:   1,
		ID:        uuid.New().String(),
		Repo:      repo,
		Tag:       tag,
		DryRun:    dryRun,
		Timestamp: time.Now().UTC(),
		Stages:    stages,
	}
}

// Save writes the report to dir atomically.
// Uses write-then-rename pattern for atomicity.
func (t *RunTxn) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	finalPath := filepath.Join(dir, ReportFile)
	tmpPath := finalPath + ".tmp"

	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	// Write to temporary file
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temporary report file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath) // Clean up temp file on error
		return fmt.Errorf("rename report file: %w", err)
	}

	return nil
}

// Load reads a report from disk.
func Load(path string) (*RunTxn, error) {
	// #nosec G304 -- report path is inside the output directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}

	var txn RunTxn
	if err := yaml.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}

	return &txn, nil
}

// UpdateStage updates the state of a stage in the record.
func (t *RunTxn) UpdateStage(stage Stage, state State, err error) {
	for i := range t.Stages {
		if t.Stages[i].Name == stage {
			t.Stages[i].State = state
			if err != nil {
				t.Stages[i].LastError = err.Error()
			} else {
				t.Stages[i].LastError = ""
			}
			break
		}
	}
}

// StageState returns the recorded state of stage.
func (t *RunTxn) StageState(stage Stage) State {
	for _, s := range t.Stages {
		if s.Name == stage {
			return s.State
		}
	}
	return StatePending
}

// FailedStage returns the stage that failed, if any.
func (t *RunTxn) FailedStage() (Stage, bool) {
	for _, s := range t.Stages {
		if s.State == StateFailed {
			return s.Name, true
		}
	}
	return "", false
}

// AllStagesCompleted returns true if all stages are in completed state.
func (t *RunTxn) AllStagesCompleted() bool {
	for _, s := range t.Stages {
		if s.State != StateCompleted {
			return false
		}
	}
	return len(t.Stages) > 0
}
