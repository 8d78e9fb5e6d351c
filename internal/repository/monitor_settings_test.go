package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *MonitorSettingsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewMonitorSettingsRepository(db, logger)

	return db, mock, repo
}

func TestGetAll_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"device_id", "monitored"}).
		AddRow("H1", true).
		AddRow("H2", false).
		AddRow("H7", true)

	mock.ExpectQuery(`SELECT device_id, monitored`).
		WillReturnRows(rows)

	flags, err := repo.GetAll(context.Background())

	require.NoError(t, err)
	assert.Len(t, flags, 3)
	assert.True(t, flags["H1"])
	assert.False(t, flags["H2"])
	assert.True(t, flags["H7"])

	// 表中没有的设备不出现在快照里（由调用方默认 true）
	_, ok := flags["H3"]
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAll_Empty(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT device_id, monitored`).
		WillReturnRows(sqlmock.NewRows([]string{"device_id", "monitored"}))

	flags, err := repo.GetAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, flags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAll_QueryError(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT device_id, monitored`).
		WillReturnError(sql.ErrConnDone)

	flags, err := repo.GetAll(context.Background())

	assert.Error(t, err)
	assert.Nil(t, flags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSet_Upsert(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO device_monitor_settings`).
		WithArgs("H4", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Set(context.Background(), "H4", false)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSet_ExecError(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO device_monitor_settings`).
		WithArgs("H4", true, sqlmock.AnyArg()).
		WillReturnError(sql.ErrConnDone)

	err := repo.Set(context.Background(), "H4", true)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "H4")
	require.NoError(t, mock.ExpectationsWereMet())
}
