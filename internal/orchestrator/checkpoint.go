package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// checkpointFileName derives the on-disk checkpoint name from the data
// root's own basename: ".etl_pause.<basename>.json". The original
// implementation used a single fixed ".etl_pause.json" name; widening it
// with the data root's basename avoids two concurrent runs against
// different data roots from colliding on the same checkpoint file.
func checkpointFileName(dataRoot string) string {
	return fmt.Sprintf(".etl_pause.%s.json", filepath.Base(dataRoot))
}

// Checkpoint is the durable record a run leaves behind when it stops
// before completing every folder: enough to resume exactly where it
// left off without re-scanning folders that already finished.
type Checkpoint struct {
	DataRoot                string     `json:"data_root"`
	CurrentFolder           []string   `json:"current_folder"`
	RemainingFilesInCurrent []string   `json:"remaining_files_in_current_folder"`
	RemainingFolders        [][]string `json:"remaining_folders"`
	CreatedAt               time.Time  `json:"created_at"`
}

func checkpointPath(dataRoot string) string {
	return filepath.Join(dataRoot, checkpointFileName(dataRoot))
}

// WriteCheckpoint persists cp atomically: it is written to a temp file
// in the same directory, fsynced, then renamed over the final path, so a
// crash mid-write never leaves a half-written checkpoint behind.
func WriteCheckpoint(dataRoot string, cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	final := checkpointPath(dataRoot)
	tmp, err := os.CreateTemp(dataRoot, ".etl_pause.*.tmp")
	if err != nil {
		return fmt.Errorf("create checkpoint temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename checkpoint into place: %w", err)
	}
	return nil
}

// ReadCheckpoint returns the checkpoint for dataRoot, or (Checkpoint{},
// false, nil) if none exists.
func ReadCheckpoint(dataRoot string) (Checkpoint, bool, error) {
	data, err := os.ReadFile(checkpointPath(dataRoot))
	if os.IsNotExist(err) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	return cp, true, nil
}

// DeleteCheckpoint removes the checkpoint file, ignoring a not-exist
// error since the caller's intent ("there should be no checkpoint now")
// is already satisfied in that case.
func DeleteCheckpoint(dataRoot string) error {
	err := os.Remove(checkpointPath(dataRoot))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// HasCheckpoint reports whether a checkpoint file is present.
func HasCheckpoint(dataRoot string) bool {
	_, err := os.Stat(checkpointPath(dataRoot))
	return err == nil
}
