package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OCAP2/unitcore/pkg/core"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

func readBackup(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	return string(data)
}

func TestConnect_Disabled(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("influx.enabled", false)

	m := NewManager(zerolog.Nop(), "")
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.False(t, m.Enabled())
}

func TestConnect_FallsBackToBackup(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("influx.enabled", true)
	viper.Set("influx.protocol", "http")
	viper.Set("influx.host", "127.0.0.1")
	viper.Set("influx.port", "1")

	path := filepath.Join(t.TempDir(), "influx", "backup.lp.gz")
	m := NewManager(zerolog.Nop(), path)
	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)
	assert.True(t, m.Enabled())

	require.NoError(t, m.WritePoint(BucketCombat, DamagePoint("s1", &core.DamageEvent{
		Time: at, Tick: 2, Attacker: 1, Victim: 2, Requested: 30, Amount: 25,
	})))
	require.NoError(t, m.Close())

	lines := readBackup(t, path)
	assert.True(t, strings.HasPrefix(lines, "damage,attacker=1,session=s1,victim=2 "), lines)
	assert.Contains(t, lines, "amount=25i")
	assert.Contains(t, lines, "requested=30i")
	assert.True(t, strings.HasSuffix(lines, "\n"))
}

func TestWritePoint_NoSink(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	assert.Error(t, m.WritePoint(BucketCombat, HealPoint("s", &core.HealEvent{Time: at})))
	assert.Error(t, m.OpenBackup(), "no path configured")
}

func TestServerURL(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("influx.protocol", "https")
	viper.Set("influx.host", "metrics.local")
	viper.Set("influx.port", "8086")
	assert.Equal(t, "https://metrics.local:8086", ServerURL())
}

func TestPoints(t *testing.T) {
	kill := KillPoint("s", &core.KillEvent{Time: at, Killer: 0, Victim: 4, Distance: 2})
	assert.Equal(t, "kill", kill.Name())

	tags := map[string]string{}
	for _, tag := range kill.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"session": "s", "killer": "0", "victim": "4"}, tags)

	cs := ControlStatePoint("s", &core.ControlStateEvent{Time: at, Unit: 1, State: core.StateStunned, Applied: true})
	assert.Equal(t, "control_state", cs.Name())

	perf := PerformancePoint("s", 3, 10, 0, 1500*time.Microsecond, at)
	fields := map[string]any{}
	for _, f := range perf.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, 1.5, fields["lastWriteMillis"])
	assert.Equal(t, int64(3), fields["units"])
}

func TestProcessMetricData(t *testing.T) {
	bucket, point, err := ProcessMetricData([]string{
		"combat", "encounter",
		"tag::zone::arena",
		"field::int::wave::3",
		"field::float::dps::12.5",
		"field::string::boss::wolf",
		"field::bool::wipe::false",
		"ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "combat", bucket)
	assert.Equal(t, "encounter", point.Name())
	require.Len(t, point.TagList(), 1)
	assert.Len(t, point.FieldList(), 4)

	_, _, err = ProcessMetricData([]string{"combat", "m", "field::int::wave::three"})
	assert.ErrorContains(t, err, "three")

	_, _, err = ProcessMetricData([]string{"combat"})
	assert.Error(t, err)
}
