package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/judyrop/sweets-catalog/config"
	"github.com/judyrop/sweets-catalog/logging"
	"github.com/judyrop/sweets-catalog/models"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DBDriver:    "sqlite",
		DatabaseURL: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		LogLevel:    "disabled",
	}
}

func TestForeignKeyNames(t *testing.T) {
	cache := &sync.Map{}

	vendor, err := schema.Parse(&models.Vendor{}, cache, NamingStrategy{})
	require.NoError(t, err)
	constraint := vendor.Relationships.Relations["VendorSweets"].ParseConstraint()
	require.NotNil(t, constraint)
	assert.Equal(t, "fk_vendor_sweets_vendor_id_vendors", constraint.Name)
	assert.Equal(t, "CASCADE", constraint.OnDelete)

	sweet, err := schema.Parse(&models.Sweet{}, cache, NamingStrategy{})
	require.NoError(t, err)
	constraint = sweet.Relationships.Relations["VendorSweets"].ParseConstraint()
	require.NotNil(t, constraint)
	assert.Equal(t, "fk_vendor_sweets_sweet_id_sweets", constraint.Name)
	assert.Equal(t, "CASCADE", constraint.OnDelete)
}

func TestDialector(t *testing.T) {
	d, err := Dialector("sqlite", "file::memory:")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = Dialector("postgres", "host=localhost user=postgres dbname=sweets")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Dialector("oracle", "")
	assert.Error(t, err)
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "file:sweets.db?_foreign_keys=on", withForeignKeys("file:sweets.db"))
	assert.Equal(t, "file::memory:?cache=shared&_foreign_keys=on", withForeignKeys("file::memory:?cache=shared"))
	assert.Equal(t, "file:x.db?_fk=1", withForeignKeys("file:x.db?_fk=1"))
}

func TestMigrate(t *testing.T) {
	db, err := Open(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"sweets", "vendors", "vendor_sweets"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	var ddl string
	require.NoError(t, db.Raw("SELECT sql FROM sqlite_master WHERE type = ? AND name = ?", "table", "vendor_sweets").Scan(&ddl).Error)
	assert.Contains(t, ddl, "fk_vendor_sweets_vendor_id_vendors")
	assert.Contains(t, ddl, "fk_vendor_sweets_sweet_id_sweets")
	assert.Contains(t, ddl, "ON DELETE CASCADE")
	assert.Contains(t, ddl, "chk_vendor_sweets_price")

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)

	// idempotent
	require.NoError(t, Migrate(db))
}

func TestGormLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logging.SetGlobalLogger(logging.New(&buf, "debug"))
	defer logging.SetGlobalLogger(zerolog.Nop())

	ctx := context.Background()
	sql := func() (string, int64) { return "UPDATE vendor_sweets SET price = -5", 0 }

	l := newGormLogger("info")
	l.Info(ctx, "hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Error(ctx, "broken %s", "pipe")
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "broken pipe")
	buf.Reset()

	l.Warn(ctx, "careful")
	assert.Contains(t, buf.String(), `"level":"warn"`)
	buf.Reset()

	l.Trace(ctx, time.Now(), sql, errors.New("CHECK constraint failed"))
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "CHECK constraint failed")
	buf.Reset()

	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "slow query")
	buf.Reset()

	l.Trace(ctx, time.Now(), sql, nil)
	assert.Empty(t, buf.String())

	verbose := newGormLogger("debug")
	verbose.Trace(ctx, time.Now(), sql, nil)
	assert.Contains(t, buf.String(), `"level":"debug"`)
	buf.Reset()

	newGormLogger("disabled").Error(ctx, "silent")
	assert.Empty(t, buf.String())

	newGormLogger("info").LogMode(logger.Silent).Warn(ctx, "silent")
	assert.Empty(t, buf.String())
}
