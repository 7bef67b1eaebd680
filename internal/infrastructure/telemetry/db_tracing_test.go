package telemetry

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockGormDB(t *testing.T) *gorm.DB {
	t.Helper()
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, "supplyhub", cfg.DBName)
}

func TestRegisterDBTracingDisabled(t *testing.T) {
	db := newMockGormDB(t)

	err := RegisterDBTracing(db, DefaultDBTracingConfig(), zap.NewNop())
	assert.NoError(t, err)
}

func TestRegisterDBTracingEnabled(t *testing.T) {
	db := newMockGormDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true

	err := RegisterDBTracing(db, cfg, zap.NewNop())
	require.NoError(t, err)

	// second registration fails because the callbacks already exist
	err = RegisterDBTracing(db, cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestRegisterDBTracingNilLogger(t *testing.T) {
	db := newMockGormDB(t)
	assert.NoError(t, RegisterDBTracing(db, DBTracingConfig{}, nil))
}
