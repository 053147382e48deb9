package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Stage is a task's position in the import pipeline. Values are ordered; a task never moves backwards.
type Stage int

const (
	StageSelect Stage = iota
	StageImport
	StageAnalyze
	StageFix
	StagePostProcess
	StageFinished
	StageCancelled
)

var stageNames = [...]string{
	StageSelect:      "SELECT",
	StageImport:      "IMPORT",
	StageAnalyze:     "ANALYZE",
	StageFix:         "FIX",
	StagePostProcess: "POSTPROCESS",
	StageFinished:    "FINISHED",
	StageCancelled:   "CANCELLED",
}

func (s Stage) String() string {
	if s < StageSelect || s > StageCancelled {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Terminal reports whether s is FINISHED or CANCELLED.
func (s Stage) Terminal() bool {
	return s == StageFinished || s == StageCancelled
}

// ParseStage is the inverse of [Stage.String], case-insensitive.
func ParseStage(name string) (Stage, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

// MarshalJSON encodes the stage by name.
func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Stage) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseStage(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML encodes the stage by name, matching the JSON form.
func (s Stage) MarshalYAML() (any, error) {
	return s.String(), nil
}

func (s *Stage) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseStage(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SourceKind names either a candidate date source or one of the non-date dispositions.
type SourceKind string

const (
	KindIgnore    SourceKind = "ignore"
	KindDelete    SourceKind = "delete"
	KindCustom    SourceKind = "custom"
	KindStartDate SourceKind = "start_date"
	KindEndDate   SourceKind = "end_date"
	KindFileDate  SourceKind = "file_date"
	KindFilename  SourceKind = "filename"
	KindPathname  SourceKind = "pathname"
)

// SourceKinds lists every accepted kind in display order.
var SourceKinds = []SourceKind{
	KindIgnore, KindDelete, KindCustom, KindStartDate, KindEndDate, KindFileDate, KindFilename, KindPathname,
}

// ParseSourceKind validates a kind name.
func ParseSourceKind(s string) (SourceKind, bool) {
	k := SourceKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SourceKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// IsCandidate reports whether k is filled from file metadata or the import range,
// and so is only legal for files that carry it.
func (k SourceKind) IsCandidate() bool {
	switch k {
	case KindStartDate, KindEndDate, KindFileDate, KindFilename, KindPathname:
		return true
	default:
		return false
	}
}

// IsDate reports whether choosing k assigns a date.
func (k SourceKind) IsDate() bool {
	return k == KindCustom || k.IsCandidate()
}
