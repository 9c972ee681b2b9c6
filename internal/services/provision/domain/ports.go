package domain

import (
	"context"
	"io"
)

// Directory is the auth provider seen by the resolver
// LookupAccount fails with perr.ErrorCodeNotFound when the identifier is unknown;
// CreateAccount fails with perr.ErrorCodeAlreadyExists when it loses a race
type Directory interface {
	LookupAccount(ctx context.Context, identifier string) (Account, error)
	CreateAccount(ctx context.Context, identifier, secret string) (Account, error)
}

// ClaimsSetter merges custom claims into an account
type ClaimsSetter interface {
	MergeClaims(ctx context.Context, uid string, claims map[string]any) error
}

// AdminDirectory is a Directory that can also manage claims
type AdminDirectory interface {
	Directory
	ClaimsSetter
}

// ProfileWriter is the document store seen by projection
type ProfileWriter interface {
	// CommitBatch merge-upserts records atomically; len(records) <= MaxBatch()
	CommitBatch(ctx context.Context, records []ProfileRecord) error
	// SetRole merge-upserts uid, email and role on one profile
	SetRole(ctx context.Context, uid, email string, role Role) error
	// MaxBatch is the backend's hard cap on writes per commit
	MaxBatch() int
}

// RunOptions are the per run knobs the CLI passes through
type RunOptions struct {
	DryRun bool
	// Out receives operator progress lines, nil discards them
	Out io.Writer
}

// RunnerPort runs the provision pipeline over a CSV file
type RunnerPort interface {
	RunFile(ctx context.Context, path string, opt RunOptions) (Summary, error)
}

// PromoterPort grants the admin role to an existing account
type PromoterPort interface {
	Promote(ctx context.Context, identifier string, out io.Writer) (Account, error)
}
