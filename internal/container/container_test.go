package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/funding-workflow/internal/application/workflow"
	"github.com/garyjia/funding-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/funding-workflow/internal/domain/workflow"
)

func memoryConfig() *Config {
	cfg := DefaultConfig()
	cfg.Store.Driver = StoreMemory
	cfg.Roles = map[string][]string{
		"boss@example.org":  {entity.RoleApprover},
		"payer@example.org": {entity.RoleDisburser},
	}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"memory", func(c *Config) { c.Store.Driver = StoreMemory }, false},
		{"unknown store", func(c *Config) { c.Store.Driver = "mongo" }, true},
		{"sqlite without path", func(c *Config) { c.Store.Path = "" }, true},
		{"redis without addr", func(c *Config) { c.Store.Driver = StoreRedis }, true},
		{"lark without credentials", func(c *Config) { c.Notifier.Driver = NotifierLark }, true},
		{"lark", func(c *Config) {
			c.Notifier.Driver = NotifierLark
			c.Notifier.AppID = "cli_x"
			c.Notifier.AppSecret = "secret"
		}, false},
		{"no base url", func(c *Config) { c.Server.BaseURL = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestContainer_Lifecycle(t *testing.T) {
	c, err := NewContainer(memoryConfig(), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(ctx))

	health := c.Health(ctx)
	assert.True(t, health.Overall)
	assert.True(t, health.Components["store"].Healthy)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(ctx))
}

func TestContainer_SubmitAndDecide(t *testing.T) {
	c, err := NewContainer(memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	req, err := c.Services().Submissions.Submit(ctx,
		&entity.Identity{Email: "alice@example.org"},
		entity.FormData{entity.FieldRegistrationFee: "250"})
	require.NoError(t, err)
	assert.Equal(t, domainwf.StatePending, req.Status)

	result, err := c.Engine().Decide(ctx, workflow.DecideCommand{
		RequestID: req.ID,
		Token:     req.DecisionToken,
		Decision:  "accepted",
	})
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateAccepted, result.Request.Status)

	state, err := c.Engine().CurrentState(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateAccepted, state)

	deps := c.HTTPDependencies()
	assert.NotNil(t, deps.Submissions)
	assert.NotNil(t, deps.Engine)
	assert.NotNil(t, deps.Identity)
	assert.NotNil(t, deps.Store)
}

func TestContainer_NoApprovers(t *testing.T) {
	cfg := memoryConfig()
	cfg.Roles = nil
	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	_, err = c.Services().Submissions.Submit(ctx,
		&entity.Identity{Email: "alice@example.org"},
		entity.FormData{entity.FieldRegistrationFee: "250"})
	assert.Error(t, err)
}

func TestConvertToZapFields(t *testing.T) {
	fields := convertToZapFields("request_id", "a-1", 42, "skipped", "count", 3, "dangling")
	require.Len(t, fields, 2)
	assert.Equal(t, "request_id", fields[0].Key)
	assert.Equal(t, "count", fields[1].Key)
}
