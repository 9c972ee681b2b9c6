package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "ballotbox/internal/platform/errors"
)

func TestPromote_GrantsAdmin(t *testing.T) {
	emulatorEnv(t)
	f := newFakes()
	f.install(t)
	uid := f.dir.Seed("admin@x.com", "pw")

	out, err := execute(t, "promote", "admin@x.com")
	require.NoError(t, err)

	assert.Contains(t, out, "Granted admin to admin@x.com (uid="+uid+").")
	assert.Contains(t, out, "sign out and sign back in")
	assert.Equal(t, true, f.dir.Claims("admin@x.com")["admin"])

	doc, err := f.profiles.Doc(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, "admin", doc["role"])
}

func TestPromote_UnknownAccount(t *testing.T) {
	emulatorEnv(t)
	f := newFakes()
	f.install(t)

	_, err := execute(t, "promote", "ghost@x.com")
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))
	assert.Equal(t, 1, perr.ExitCode(err))
	assert.Equal(t, 0, f.profiles.Len())
}

func TestPromote_BlankEmail(t *testing.T) {
	emulatorEnv(t)
	f := newFakes()
	f.install(t)

	_, err := execute(t, "promote", "  ")
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeConfig))
	assert.Zero(t, f.opened)
}
