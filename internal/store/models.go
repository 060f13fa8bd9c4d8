// Package store implements the run cache (SPEC_FULL.md §3/§4): every
// pipeline run is recorded keyed by a content hash of its input and
// options, so a repeat run with identical input+options short-circuits to
// the cached output — both an operator convenience and a direct
// implementation of the Determinism testable property (spec.md §8).
// Grounded on the teacher's models.Stage/Apply/Session gorm records and its
// db.Connect (sqlite + libsql/Turso) connection shape.
package store

import (
	"time"

	"gorm.io/datatypes"
)

// RunRecord is one deobfuscate() invocation's cached result.
type RunRecord struct {
	ID string `gorm:"primaryKey;type:varchar(64)"` // inputHash:optionsHash

	InputDigest   string `gorm:"type:varchar(64);index;not null"`
	OptionsDigest string `gorm:"type:varchar(64);index;not null"`

	Input  string `gorm:"type:text;not null"`
	Output string `gorm:"type:text;not null"`

	PassStats datatypes.JSON `gorm:"type:jsonb"` // []PassStat, see report.go

	TotalRewrites int           `gorm:"default:0"`
	Duration      time.Duration `gorm:"type:bigint"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName matches the teacher's cleaner-plural-name convention.
func (RunRecord) TableName() string { return "run_records" }

// PassStat is one pass's contribution to a RunRecord, persisted as JSON
// inside PassStats.
type PassStat struct {
	Pass              string `json:"pass"`
	Iterations        int    `json:"iterations"`
	Rewrites          int    `json:"rewrites"`
	PatternMismatches int    `json:"pattern_mismatches"`
	GuardFailures     int    `json:"guard_failures"`
	BudgetExceeded    bool   `json:"budget_exceeded"`
}
