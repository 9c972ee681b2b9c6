package firebase

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"ballotbox/internal/platform/config"
	perr "ballotbox/internal/platform/errors"
	"ballotbox/internal/platform/logger"
)

// Source names where credentials came from
type Source string

const (
	SourceFlag      Source = "flag"
	SourceEnvFile   Source = "GOOGLE_APPLICATION_CREDENTIALS"
	SourceLocalFile Source = "local_key_file"
	SourceEnvVars   Source = "FIREBASE_env"
	SourceEmulator  Source = "emulator"
)

// LocalKeyPath is the repo-local service account file, relative to the working dir
var LocalKeyPath = filepath.Join("src", "lib", "firebase_key.json")

// emulatorProject is used when the emulator runs without a configured project
const emulatorProject = "demo-ballotbox"

// Credentials is the resolved way to authenticate the admin SDK
type Credentials struct {
	Source    Source
	File      string // set for file sources
	JSON      []byte // set for SourceEnvVars
	ProjectID string
}

// Emulator reports whether the SDK should talk to local emulators
func (c Credentials) Emulator() bool { return c.Source == SourceEmulator }

// serviceAccount mirrors the JSON key file google issues
type serviceAccount struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id,omitempty"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id,omitempty"`
	AuthURI                 string `json:"auth_uri"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `json:"client_x509_cert_url,omitempty"`
	UniverseDomain          string `json:"universe_domain"`
}

// ResolveCredentials picks credentials in order: the --key file, the
// GOOGLE_APPLICATION_CREDENTIALS file, ./src/lib/firebase_key.json, a key
// assembled from FIREBASE_* variables, then the emulator when one is configured
// nothing found is a config error raised before any network call
func ResolveCredentials(flagPath string, cfg config.Conf) (Credentials, error) {
	project := firstNonEmpty(
		cfg.MayString("PROVISION_PROJECT_ID", ""),
		cfg.MayString("FIREBASE_PROJECT_ID", ""),
		cfg.MayString("GOOGLE_CLOUD_PROJECT", ""),
	)

	if flagPath != "" {
		if config.IsFile(flagPath) {
			return Credentials{Source: SourceFlag, File: flagPath, ProjectID: project}, nil
		}
		logger.Get().Warn().Str("key", flagPath).Msg("key file not found; trying fallbacks")
	}
	if p, ok := cfg.MayFile("GOOGLE_APPLICATION_CREDENTIALS"); ok {
		return Credentials{Source: SourceEnvFile, File: p, ProjectID: project}, nil
	}
	if config.IsFile(LocalKeyPath) {
		return Credentials{Source: SourceLocalFile, File: LocalKeyPath, ProjectID: project}, nil
	}
	if js, ok, err := accountFromEnv(cfg); err != nil {
		return Credentials{}, err
	} else if ok {
		return Credentials{Source: SourceEnvVars, JSON: js, ProjectID: project}, nil
	}
	if cfg.MayString("FIREBASE_AUTH_EMULATOR_HOST", "") != "" {
		return Credentials{Source: SourceEmulator, ProjectID: firstNonEmpty(project, emulatorProject)}, nil
	}

	return Credentials{}, perr.Configf("could not find service account key: provide --key, set GOOGLE_APPLICATION_CREDENTIALS, put %s in place, or set FIREBASE_PROJECT_ID/FIREBASE_CLIENT_EMAIL/FIREBASE_PRIVATE_KEY", LocalKeyPath)
}

// accountFromEnv assembles a service account from FIREBASE_* variables
// ok is false when none of project, client email or private key are set
func accountFromEnv(cfg config.Conf) (js []byte, ok bool, err error) {
	fb := cfg.Prefix("FIREBASE_")
	project := fb.MayString("PROJECT_ID", "")
	email := fb.MayString("CLIENT_EMAIL", "")
	key := fb.MayString("PRIVATE_KEY", "")
	if project == "" && email == "" && key == "" {
		return nil, false, nil
	}
	if email == "" || key == "" {
		return nil, false, perr.Configf("FIREBASE_CLIENT_EMAIL and FIREBASE_PRIVATE_KEY must both be set")
	}

	sa := serviceAccount{
		Type:                    fb.MayString("TYPE", "service_account"),
		ProjectID:               project,
		PrivateKeyID:            fb.MayString("PRIVATE_KEY_ID", ""),
		PrivateKey:              strings.ReplaceAll(key, `\n`, "\n"),
		ClientEmail:             email,
		ClientID:                fb.MayString("CLIENT_ID", ""),
		AuthURI:                 fb.MayString("AUTH_URI", "https://accounts.google.com/o/oauth2/auth"),
		TokenURI:                fb.MayString("TOKEN_URI", "https://oauth2.googleapis.com/token"),
		AuthProviderX509CertURL: fb.MayString("AUTH_PROVIDER_X509_CERT_URL", "https://www.googleapis.com/oauth2/v1/certs"),
		ClientX509CertURL:       fb.MayString("CLIENT_X509_CERT_URL", ""),
		UniverseDomain:          fb.MayString("UNIVERSE_DOMAIN", "googleapis.com"),
	}
	js, err = json.Marshal(sa)
	if err != nil {
		return nil, false, perr.Wrap(err, perr.ErrorCodeConfig, "encode service account")
	}
	return js, true, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
