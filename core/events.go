package core

import (
	"encoding/json"
)

// UploadEvent announces that a file is ready for ingestion.
type UploadEvent struct {
	FilePath     string `json:"file_path"`
	OriginalName string `json:"original_name"`
	Role         string `json:"role"`
}

// UnmarshalJSON accepts "role_required" as an alias for "role", which is the
// key older publishers emit.
func (e *UploadEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		FilePath     string `json:"file_path"`
		OriginalName string `json:"original_name"`
		Role         string `json:"role"`
		RoleRequired string `json:"role_required"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.FilePath = raw.FilePath
	e.OriginalName = raw.OriginalName
	e.Role = raw.Role
	if e.Role == "" {
		e.Role = raw.RoleRequired
	}
	return nil
}

// Key identifies the (document, role) pair the event targets.
func (e UploadEvent) Key() string {
	return e.OriginalName + "\x00" + e.Role
}
