// Package influx ships aggregate totals to InfluxDB. When the server cannot
// be reached, points are written as line protocol to a gzip backup file.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/shipmanifest/extension/internal/aggregate"
	"github.com/shipmanifest/extension/internal/config"
	"github.com/shipmanifest/extension/pkg/core"
)

// Measurement is the measurement name used for aggregate totals.
const Measurement = "resource_totals"

var ErrNotConnected = errors.New("influxDB client not initialized and backup writer not available")

// Manager handles InfluxDB connections and writes.
type Manager struct {
	mu           sync.Mutex
	cfg          config.InfluxConfig
	client       influxdb2.Client
	writer       influxdb2_api.WriteAPI
	backupFile   io.Closer
	backupWriter *gzip.Writer
	valid        bool
	logger       zerolog.Logger
	backupPath   string
	now          func() time.Time
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, cfg config.InfluxConfig, backupPath string) *Manager {
	return &Manager{
		cfg:        cfg,
		logger:     log,
		backupPath: backupPath,
		now:        time.Now,
	}
}

// Connect establishes a connection to InfluxDB, falling back to the backup
// file when the server does not answer.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return errors.New("influx.enabled is false")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.client = influxdb2.NewClientWithOptions(
		m.cfg.URL(),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	running, err := m.client.Ping(ctx)
	if err != nil || !running {
		m.valid = false
		m.logger.Info().Str("backupPath", m.backupPath).
			Msg("Failed to initialize InfluxDB client, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.valid = true
	m.logger.Info().Str("bucket", m.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.backupWriter != nil {
		return nil
	}
	file, err := os.OpenFile(m.backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.UseBackup(file)
	return nil
}

// UseBackup routes points to w as gzipped line protocol. If w is an
// io.Closer it is closed by Close.
func (m *Manager) UseBackup(w io.Writer) {
	m.backupWriter = gzip.NewWriter(w)
	if c, ok := w.(io.Closer); ok {
		m.backupFile = c
	}
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgName := m.cfg.Org

	influxOrg, err := m.client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	if _, err = m.client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err == nil {
		return nil
	}
	m.logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")

	rule := domain.RetentionRuleTypeExpire
	_, err = m.client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, m.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: 60 * 60 * 24 * 30, // 30 days
	})
	if err != nil {
		m.logger.Error().Err(err).Str("bucket", m.cfg.Bucket).Msg("Error creating bucket")
		return err
	}
	return nil
}

func (m *Manager) createWriter() {
	m.writer = m.client.WriteAPI(m.cfg.Org, m.cfg.Bucket)

	errorsCh := m.writer.Errors()
	go func() {
		for writeErr := range errorsCh {
			m.logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}()
}

// Valid reports whether points go to the server rather than the backup file.
func (m *Manager) Valid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.valid
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid {
		m.writer.WritePoint(point)
		return nil
	}
	if m.backupWriter == nil {
		return ErrNotConnected
	}

	lineProtocol := strings.TrimRight(influxdb2_write.PointToLineProtocol(point, time.Nanosecond), "\n")
	if _, err := m.backupWriter.Write([]byte(lineProtocol + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// TotalsPoint converts one aggregate into a point tagged with the vessel,
// the starting part and the resource.
func TotalsPoint(vessel string, start core.PartID, t aggregate.Totals, ts time.Time) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(Measurement).
		AddTag("vessel", vessel).
		AddTag("start", string(start)).
		AddTag("resource", string(t.Resource)).
		AddTag("class", t.Class).
		AddField("current", t.Current).
		AddField("excluded", len(t.Excluded)).
		SetTime(ts)
	if t.HasTotal {
		p.AddField("total", t.Total)
	}
	return p
}

// ObserveTotals writes one point per aggregate. Write failures are logged,
// never returned to the caller.
func (m *Manager) ObserveTotals(vessel string, start core.PartID, totals []aggregate.Totals) {
	ts := m.now()
	for _, t := range totals {
		if err := m.WritePoint(TotalsPoint(vessel, start, t, ts)); err != nil {
			m.logger.Warn().Err(err).Str("vessel", vessel).Str("resource", string(t.Resource)).
				Msg("Dropped resource totals point")
			return
		}
	}
}

// Close flushes pending writes and releases the client and backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.writer != nil {
		m.writer.Flush()
	}
	if m.client != nil {
		m.client.Close()
	}
	if m.backupWriter != nil {
		errs = append(errs, m.backupWriter.Close())
		m.backupWriter = nil
	}
	if m.backupFile != nil {
		errs = append(errs, m.backupFile.Close())
		m.backupFile = nil
	}
	m.valid = false
	return errors.Join(errs...)
}
