package firebase

import (
	"context"
	"maps"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/services/provision/domain"

	"firebase.google.com/go/v4/auth"
)

// authClient is the slice of *auth.Client the directory uses
type authClient interface {
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
}

// Directory adapts Firebase Authentication to domain.AdminDirectory
// SDK errors are classified into perr codes so callers never match text
type Directory struct {
	c authClient
}

var _ domain.AdminDirectory = (*Directory)(nil)

// NewDirectory wraps an auth client
func NewDirectory(c authClient) *Directory {
	if c == nil {
		panic("firebase.Directory requires a non nil auth client")
	}
	return &Directory{c: c}
}

// LookupAccount fetches the account by email
func (d *Directory) LookupAccount(ctx context.Context, identifier string) (domain.Account, error) {
	u, err := d.c.GetUserByEmail(ctx, identifier)
	if err != nil {
		return domain.Account{}, perr.FromFirebase(err, "get user "+identifier)
	}
	return toAccount(u, identifier), nil
}

// CreateAccount creates an email/password account
func (d *Directory) CreateAccount(ctx context.Context, identifier, secret string) (domain.Account, error) {
	u, err := d.c.CreateUser(ctx, (&auth.UserToCreate{}).Email(identifier).Password(secret))
	if err != nil {
		return domain.Account{}, perr.FromFirebase(err, "create user "+identifier)
	}
	return toAccount(u, identifier), nil
}

// MergeClaims reads the current custom claims and writes back the union
func (d *Directory) MergeClaims(ctx context.Context, uid string, claims map[string]any) error {
	u, err := d.c.GetUser(ctx, uid)
	if err != nil {
		return perr.FromFirebase(err, "get user "+uid)
	}
	merged := map[string]any{}
	if u != nil {
		maps.Copy(merged, u.CustomClaims)
	}
	maps.Copy(merged, claims)
	return perr.FromFirebase(d.c.SetCustomUserClaims(ctx, uid, merged), "set claims on "+uid)
}

func toAccount(u *auth.UserRecord, identifier string) domain.Account {
	if u == nil || u.UserInfo == nil {
		return domain.Account{Identifier: identifier}
	}
	a := domain.Account{UID: u.UID, Identifier: u.Email}
	if a.Identifier == "" {
		a.Identifier = identifier
	}
	return a
}
