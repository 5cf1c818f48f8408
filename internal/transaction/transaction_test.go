package transaction

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewRunTxn(t *testing.T) {
	txn := New("acme/mcp-getweb", "v1.2.3", true)

	if txn.Version != 1 {
		t.Errorf("expected version 1, got %d", txn.Version)
	}
	if _, err := uuid.Parse(txn.ID); err != nil {
		t.Errorf("expected a UUID id, got %q: %v", txn.ID, err)
	}
	if txn.Repo != "acme/mcp-getweb" || txn.Tag != "v1.2.3" || !txn.DryRun {
		t.Errorf("unexpected run fields: %+v", txn)
	}
	if len(txn.Stages) != len(Stages) {
		t.Fatalf("expected %d stages, got %d", len(Stages), len(txn.Stages))
	}
	for i, s := range txn.Stages {
		if s.Name != Stages[i] || s.State != StatePending {
			t.Errorf("stage %d = %+v, want pending %s", i, s, Stages[i])
		}
	}
	if time.Since(txn.Timestamp) > time.Minute || txn.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp should be recent UTC, got %v", txn.Timestamp)
	}
}

func TestRunTxnSaveLoad(t *testing.T) {
	dir := t.TempDir()
	txn := New("acme/mcp-getweb", "1.0.0", false)
	txn.Staged = []string{"mcp-getweb-x86_64-unknown-linux-musl"}
	txn.Missing = []string{"mcp-getweb-aarch64-apple-darwin"}
	txn.Archive = filepath.Join(dir, "mcp-getweb-1.0.0.tgz")
	txn.UpdateStage(StageFetch, StateCompleted, nil)
	txn.UpdateStage(StageVerify, StateFailed, errors.New("checksum mismatch"))

	if err := txn.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path := filepath.Join(dir, ReportFile)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !strings.Contains(string(data), "id: "+txn.ID) {
		t.Errorf("report should be YAML carrying the run id, got:\n%s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ID != txn.ID || loaded.Tag != txn.Tag || loaded.Archive != txn.Archive {
		t.Errorf("loaded = %+v, want %+v", loaded, txn)
	}
	if !reflect.DeepEqual(loaded.Staged, txn.Staged) || !reflect.DeepEqual(loaded.Missing, txn.Missing) {
		t.Errorf("loaded staged/missing = %v/%v", loaded.Staged, loaded.Missing)
	}
	if !loaded.Timestamp.Equal(txn.Timestamp) {
		t.Errorf("timestamp = %v, want %v", loaded.Timestamp, txn.Timestamp)
	}
	if loaded.StageState(StageVerify) != StateFailed || loaded.Stages[1].LastError != "checksum mismatch" {
		t.Errorf("verify stage = %+v", loaded.Stages[1])
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), ReportFile)
	if err := os.WriteFile(bad, []byte("stages: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestRunTxnUpdateStage(t *testing.T) {
	txn := New("a/b", "1", false)

	txn.UpdateStage(StagePack, StateFailed, errors.New("boom"))
	if txn.StageState(StagePack) != StateFailed {
		t.Errorf("pack state = %s", txn.StageState(StagePack))
	}

	txn.UpdateStage(StagePack, StateCompleted, nil)
	if txn.Stages[3].LastError != "" {
		t.Errorf("LastError should clear on success, got %q", txn.Stages[3].LastError)
	}

	txn.UpdateStage(Stage("unknown"), StateCompleted, nil)
	if len(txn.Stages) != len(Stages) {
		t.Error("unknown stage must not be added")
	}
}

func TestRunTxnFailedStage(t *testing.T) {
	txn := New("a/b", "1", false)
	if _, failed := txn.FailedStage(); failed {
		t.Error("fresh run has no failed stage")
	}

	txn.UpdateStage(StageStage, StateFailed, errors.New("no binaries staged"))
	stage, failed := txn.FailedStage()
	if !failed || stage != StageStage {
		t.Errorf("FailedStage() = %s, %v", stage, failed)
	}
}

func TestRunTxnAllStagesCompleted(t *testing.T) {
	txn := New("a/b", "1", false)
	if txn.AllStagesCompleted() {
		t.Error("pending stages are not complete")
	}
	for _, s := range Stages {
		txn.UpdateStage(s, StateCompleted, nil)
	}
	if !txn.AllStagesCompleted() {
		t.Error("expected all stages completed")
	}

	empty := &RunTxn{}
	if empty.AllStagesCompleted() {
		t.Error("a run with no stages is not complete")
	}
}
