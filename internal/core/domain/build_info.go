package domain

import "time"

// BuildInfo is the cached result of a compile task, keyed by the hash of its inputs.
type BuildInfo struct {
	TaskName  string     `json:"task_name,omitzero"`
	InputHash string     `json:"input_hash,omitzero"`
	BuildHash string     `json:"build_hash,omitzero"`
	Inputs    []string   `json:"inputs,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	Timestamp time.Time  `json:"timestamp,omitzero"`
}
