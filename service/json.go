package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ToJSON writes v as a json file in workingdir
func ToJSON(v interface{}, workingdir, filename string) error {
	vb, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("toJSON.Marshal: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workingdir, filename), vb, 0644); err != nil {
		return fmt.Errorf("toJSON.WriteFile: %w", err)
	}
	return nil
}

// FromJSON reads the json file into v
func FromJSON(path string, v interface{}) error {
	vb, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fromJSON.ReadFile: %w", err)
	}
	if err := json.Unmarshal(vb, v); err != nil {
		return fmt.Errorf("fromJSON.Unmarshal: %w", err)
	}
	return nil
}
