// Package influx writes combat metrics to InfluxDB, falling back to a gzipped
// line-protocol file when the server is unreachable.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/OCAP2/unitcore/pkg/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	BucketCombat      = "combat"
	BucketPerformance = "unitcore_performance"
)

// DefaultBucketNames are the buckets created on connect.
var DefaultBucketNames = []string{
	BucketCombat,
	BucketPerformance,
}

// ErrDisabled is returned by Connect when influx.enabled is false.
var ErrDisabled = errors.New("influx.enabled is false")

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	BucketNames  []string
	Logger       zerolog.Logger
	BackupPath   string

	mu         sync.Mutex
	backupFile *os.File
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		Writers:     make(map[string]influxdb2_api.WriteAPI),
		BucketNames: DefaultBucketNames,
		Logger:      log,
		BackupPath:  backupPath,
	}
}

// ServerURL builds the server address from the influx.* config keys.
func ServerURL() string {
	return fmt.Sprintf(
		"%s://%s:%s",
		viper.GetString("influx.protocol"),
		viper.GetString("influx.host"),
		viper.GetString("influx.port"),
	)
}

// Connect establishes a connection to InfluxDB. When the server cannot be
// reached, points go to the backup file instead.
func (m *Manager) Connect(ctx context.Context) error {
	if !viper.GetBool("influx.enabled") {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(
		ServerURL(),
		viper.GetString("influx.token"),
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.Logger.Warn().Err(err).Str("backupPath", m.BackupPath).
			Msg("InfluxDB client failed to initialize, writing to backup file")
		return m.OpenBackup()
	}

	if err := m.setupOrganizationAndBuckets(ctx); err != nil {
		return err
	}
	m.CreateWriters()
	m.IsValid = true
	m.Logger.Info().Msg("InfluxDB client initialized")
	return nil
}

// OpenBackup opens the gzip line-protocol backup file in append mode.
func (m *Manager) OpenBackup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter != nil {
		return nil
	}
	if m.BackupPath == "" {
		return errors.New("no influx backup path configured")
	}
	if err := os.MkdirAll(filepath.Dir(m.BackupPath), 0o755); err != nil {
		return fmt.Errorf("error creating backup dir: %w", err)
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBuckets(ctx context.Context) error {
	orgName := viper.GetString("influx.org")

	// ensure org exists
	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// ensure buckets exist with 90 day retention
	for _, bucket := range m.BucketNames {
		if _, err := m.Client.BucketsAPI().FindBucketByName(ctx, bucket); err == nil {
			continue
		}
		m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90, // 90 days
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
			return err
		}
	}

	return nil
}

// CreateWriters creates write APIs for all configured buckets.
func (m *Manager) CreateWriters() {
	orgName := viper.GetString("influx.org")
	for _, bucket := range m.BucketNames {
		w := m.Client.WriteAPI(orgName, bucket)
		m.Writers[bucket] = w

		go func(bucketName string, errorsCh <-chan error) {
			for writeErr := range errorsCh {
				m.Logger.Error().Err(writeErr).Str("bucket", bucketName).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, w.Errors())
	}

	m.Logger.Debug().Int("buckets", len(m.BucketNames)).Msg("InfluxDB writers initialized")
}

// Enabled reports whether points have somewhere to go.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.IsValid || m.BackupWriter != nil
}

// WritePoint writes a point to InfluxDB or backup file.
func (m *Manager) WritePoint(bucket string, point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsValid {
		w, ok := m.Writers[bucket]
		if !ok {
			return fmt.Errorf("influxDB bucket '%s' not registered", bucket)
		}
		w.WritePoint(point)
		return nil
	}

	if m.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the client or backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range m.Writers {
		w.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}

	var err error
	if m.BackupWriter != nil {
		err = errors.Join(m.BackupWriter.Close(), m.backupFile.Close())
		m.BackupWriter = nil
		m.backupFile = nil
	}
	m.IsValid = false
	return err
}

// ProcessMetricData parses a free-form metric and returns a bucket name and point.
//
// 0 = bucket name
// 1 = measurement name
// n with "tag" prefix = tag name
// n with "field" prefix = field
// tag and field values use "::" separator
func ProcessMetricData(data []string) (bucket string, point *influxdb2_write.Point, err error) {
	if len(data) < 2 {
		return "", nil, fmt.Errorf("metric needs bucket and measurement, got %d args", len(data))
	}

	bucket = data[0]
	point = influxdb2_write.NewPointWithMeasurement(data[1])

	for _, arg := range data[2:] {
		parts := strings.Split(arg, "::")
		switch {
		case parts[0] == "tag" && len(parts) >= 3:
			point.AddTag(parts[1], parts[2])
		case parts[0] == "field" && len(parts) >= 4:
			fieldType, fieldName, fieldValue := parts[1], parts[2], parts[3]
			switch fieldType {
			case "string":
				point.AddField(fieldName, fieldValue)
			case "int":
				intVal, err := strconv.Atoi(fieldValue)
				if err != nil {
					return "", nil, fmt.Errorf("error converting field value '%s' to int: %w", fieldValue, err)
				}
				point.AddField(fieldName, intVal)
			case "float":
				floatVal, err := strconv.ParseFloat(fieldValue, 64)
				if err != nil {
					return "", nil, fmt.Errorf("error converting field value '%s' to float: %w", fieldValue, err)
				}
				point.AddField(fieldName, floatVal)
			case "bool":
				boolVal, err := strconv.ParseBool(fieldValue)
				if err != nil {
					return "", nil, fmt.Errorf("error converting field value '%s' to bool: %w", fieldValue, err)
				}
				point.AddField(fieldName, boolVal)
			}
		}
	}

	return bucket, point, nil
}

func handleTag(h core.Handle) string {
	return strconv.FormatUint(uint64(h), 10)
}

// DamagePoint builds the combat point for a damage event.
func DamagePoint(sessionTag string, e *core.DamageEvent) *influxdb2_write.Point {
	return influxdb2.NewPoint("damage",
		map[string]string{
			"session":  sessionTag,
			"attacker": handleTag(e.Attacker),
			"victim":   handleTag(e.Victim),
		},
		map[string]any{
			"requested": e.Requested,
			"amount":    e.Amount,
			"killing":   e.Killing,
			"distance":  e.Distance,
			"tick":      e.Tick,
		},
		e.Time,
	)
}

// HealPoint builds the combat point for a heal event.
func HealPoint(sessionTag string, e *core.HealEvent) *influxdb2_write.Point {
	return influxdb2.NewPoint("heal",
		map[string]string{
			"session": sessionTag,
			"caster":  handleTag(e.Caster),
			"target":  handleTag(e.Target),
		},
		map[string]any{
			"requested": e.Requested,
			"amount":    e.Amount,
			"tick":      e.Tick,
		},
		e.Time,
	)
}

// KillPoint builds the combat point for a kill event.
func KillPoint(sessionTag string, e *core.KillEvent) *influxdb2_write.Point {
	return influxdb2.NewPoint("kill",
		map[string]string{
			"session": sessionTag,
			"killer":  handleTag(e.Killer),
			"victim":  handleTag(e.Victim),
		},
		map[string]any{
			"distance": e.Distance,
			"tick":     e.Tick,
		},
		e.Time,
	)
}

// ControlStatePoint builds the combat point for a control-state change.
func ControlStatePoint(sessionTag string, e *core.ControlStateEvent) *influxdb2_write.Point {
	return influxdb2.NewPoint("control_state",
		map[string]string{
			"session": sessionTag,
			"unit":    handleTag(e.Unit),
			"state":   e.State.String(),
		},
		map[string]any{
			"applied": e.Applied,
			"changed": e.Changed,
			"active":  int64(e.Active),
			"tick":    e.Tick,
		},
		e.Time,
	)
}

// PerformancePoint builds the status sample written by the monitor.
func PerformancePoint(sessionTag string, units int, tick uint64, queued int, writeDuration time.Duration, at time.Time) *influxdb2_write.Point {
	return influxdb2.NewPoint("status",
		map[string]string{"session": sessionTag},
		map[string]any{
			"units":           units,
			"tick":            tick,
			"queued":          queued,
			"lastWriteMillis": float64(writeDuration.Microseconds()) / 1000,
		},
		at,
	)
}
