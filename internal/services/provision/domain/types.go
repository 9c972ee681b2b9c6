// Package domain holds the provisioning data model and the ports the
// pipeline talks through
package domain

import "fmt"

// Role is the profile role written to the document store
type Role string

const (
	// RoleUser is the role every provisioned profile starts with
	RoleUser Role = "user"
	// RoleAdmin is granted by promote
	RoleAdmin Role = "admin"
)

// Entry is one validated CSV row
type Entry struct {
	Identifier string `name:"email" validate:"required"`
	Secret     string `name:"password" validate:"required"`
	Row        int    // 1-based source row
}

// Account is what the directory knows about an identifier
type Account struct {
	UID        string
	Identifier string
}

// Path records how an entry was resolved
type Path string

const (
	// PathExisting means the lookup found the account
	PathExisting Path = "existing"
	// PathCreated means lookup missed and create succeeded
	PathCreated Path = "created"
	// PathRaceRecovered means create lost to a concurrent create and the compensating lookup succeeded
	PathRaceRecovered Path = "race_recovered"
	// PathWouldCreate is the dry run stand-in for PathCreated, it carries no uid
	PathWouldCreate Path = "would_create"
)

// ResolvedAccount is the outcome of lookup-or-create for one entry
type ResolvedAccount struct {
	Identifier string
	UID        string
	WasCreated bool
	Path       Path
	Row        int
}

// ProfileRecord is the document written per resolved account
type ProfileRecord struct {
	UID        string
	Identifier string
	Role       Role
	HasVoted   bool
	WasCreated bool
}

// NewProfile builds the record a freshly provisioned account gets
func NewProfile(r ResolvedAccount) ProfileRecord {
	return ProfileRecord{
		UID:        r.UID,
		Identifier: r.Identifier,
		Role:       RoleUser,
		HasVoted:   false,
		WasCreated: r.WasCreated,
	}
}

// Fields returns the document fields using the voting app's wire names
func (p ProfileRecord) Fields() map[string]any {
	return map[string]any{
		"uid":      p.UID,
		"email":    p.Identifier,
		"role":     string(p.Role),
		"hasVoted": p.HasVoted,
	}
}

// SkipReason says why a row never became an Entry
type SkipReason string

const (
	// SkipMalformed is a row with fewer than two fields
	SkipMalformed SkipReason = "malformed"
	// SkipEmpty is a row whose identifier or secret is blank
	SkipEmpty SkipReason = "empty"
	// SkipDuplicate is a repeat of an identifier seen earlier
	SkipDuplicate SkipReason = "duplicate"
)

// Skip is a row dropped during ingestion
type Skip struct {
	Row    int
	Reason SkipReason
	Fields []string

	// FirstRow is the row that kept the identifier, set for duplicates
	FirstRow int
	// Detail is the validation message, set for empty rows
	Detail string
}

// String renders the skip for progress output
func (s Skip) String() string {
	switch s.Reason {
	case SkipMalformed:
		return fmt.Sprintf("Skipping row %d: expected at least 2 fields, got %d", s.Row, len(s.Fields))
	case SkipEmpty:
		if s.Detail != "" {
			return fmt.Sprintf("Skipping row %d: empty field (%s)", s.Row, s.Detail)
		}
		return fmt.Sprintf("Skipping row %d: empty field", s.Row)
	case SkipDuplicate:
		return fmt.Sprintf("Skipping row %d: duplicate of row %d", s.Row, s.FirstRow)
	}
	return fmt.Sprintf("Skipping row %d: %s", s.Row, s.Reason)
}

// Failure is an entry whose resolution failed
type Failure struct {
	Identifier string
	Row        int
	Err        error
}

// Summary aggregates the counters of one run
type Summary struct {
	DryRun         bool
	RowsRead       int
	Entries        int
	Skipped        int
	Resolved       int
	Failed         int
	Created        int
	Existing       int
	RaceRecovered  int
	WouldCreate    int
	RecordsWritten int
	Batches        int

	Failures []Failure
}
