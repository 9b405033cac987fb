package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tvkcanada/tvk-be/internal/config"
	"github.com/tvkcanada/tvk-be/internal/jobs"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{FrontendURL: "http://localhost:3000"},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "tvk.db"), Timeout: 5 * time.Second},
		JWT:      config.JWTConfig{Secret: "cli-test", TTL: time.Hour},
		Membership: config.MembershipConfig{
			FoundingLimit:      200,
			FoundingFreeMonths: 3,
			ReminderWindow:     7 * 24 * time.Hour,
		},
		Jobs: config.JobsConfig{ExpireMemberships: "0 * * * *", WebhookRetention: time.Hour},
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "tvk dev\n", out.String())
}

func TestNewAppWiresSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	defer a.close()

	assert.Nil(t, a.redis)
	assert.Nil(t, a.oauth, "google login is off without credentials")

	user, err := a.users.EnsureAdmin(ctx, "admin@tvkcanada.ca", "Admin", "changeme123")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	list := a.scheduler.List()
	require.Len(t, list, 1)
	assert.Equal(t, jobs.ExpireMemberships, list[0].Name)

	st, err := a.scheduler.RunNow(ctx, jobs.ExpireMemberships)
	require.NoError(t, err)
	assert.Empty(t, st.LastError)
}

func TestOpenStoreIsRepeatable(t *testing.T) {
	cfg := testConfig(t)
	for i := 0; i < 2; i++ {
		store, closeStore, err := openStore(context.Background(), cfg)
		require.NoError(t, err)
		require.NotNil(t, store.Users)
		closeStore()
	}
}
