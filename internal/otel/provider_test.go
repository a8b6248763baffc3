package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/OCAP2/unitcore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutExporter(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "unitcore"})
	assert.ErrorIs(t, err, ErrNoExporter)
}

func TestNew_FileExporter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:      true,
		ServiceName:  "unitcore",
		BatchTimeout: time.Second,
		LogWriter:    &buf,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	ctx := context.Background()
	assert.NoError(t, p.Flush(ctx))
	assert.NoError(t, p.Shutdown(ctx))
}

func TestProvider_NilSafe(t *testing.T) {
	var p *Provider
	ctx := context.Background()

	assert.False(t, p.Enabled())
	assert.NoError(t, p.Flush(ctx))
	assert.NoError(t, p.Shutdown(ctx))
}

func TestFromSettings(t *testing.T) {
	var buf bytes.Buffer
	cfg := FromSettings(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "arena",
		BatchTimeout: 2 * time.Second,
		Endpoint:     "localhost:4318",
		Insecure:     true,
	}, "1.2.0", &buf)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "arena", cfg.ServiceName)
	assert.Equal(t, "1.2.0", cfg.ServiceVersion)
	assert.Equal(t, 2*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "localhost:4318", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Same(t, &buf, cfg.LogWriter)
}
