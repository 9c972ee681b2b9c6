// Package firebase opens the Firebase admin SDK once per run and adapts its
// auth client to the provisioning directory port
package firebase

import (
	"context"

	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/logger"

	"cloud.google.com/go/firestore"
	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// App holds the SDK clients a run needs
type App struct {
	Auth      *auth.Client
	Firestore *firestore.Client // nil unless requested
	ProjectID string
	Source    Source
}

// Options picks which clients Open builds
type Options struct {
	Firestore bool
}

var newApp = fb.NewApp

// Open initializes the admin SDK with creds
func Open(ctx context.Context, creds Credentials, opt Options) (*App, error) {
	var opts []option.ClientOption
	switch {
	case creds.File != "":
		opts = append(opts, option.WithCredentialsFile(creds.File))
	case len(creds.JSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(creds.JSON))
	case creds.Emulator():
		opts = append(opts, option.WithoutAuthentication())
	}

	var conf *fb.Config
	if creds.ProjectID != "" {
		conf = &fb.Config{ProjectID: creds.ProjectID}
	}
	app, err := newApp(ctx, conf, opts...)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "initialize firebase-admin")
	}

	out := &App{ProjectID: creds.ProjectID, Source: creds.Source}
	if out.Auth, err = app.Auth(ctx); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "firebase auth client")
	}
	if opt.Firestore {
		if out.Firestore, err = app.Firestore(ctx); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeConfig, "firestore client")
		}
	}

	logger.C(ctx).Info().
		Str("credentials", string(creds.Source)).
		Str("project", creds.ProjectID).
		Bool("firestore", opt.Firestore).
		Msg("firebase: initialized")
	return out, nil
}

// Directory returns the account directory over the auth client
func (a *App) Directory() *Directory { return NewDirectory(a.Auth) }

// Close releases the Firestore connection when one was opened
func (a *App) Close() error {
	if a == nil || a.Firestore == nil {
		return nil
	}
	return a.Firestore.Close()
}
