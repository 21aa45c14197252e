package circuitbreaker

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBCircuitBreaker_QueryContext(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	dcb := NewDBCircuitBreaker(db)
	mock.ExpectQuery("SELECT (.+) FROM summaries").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	rows, err := dcb.QueryContext(context.Background(), "SELECT id FROM summaries")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var id int64
	require.NoError(t, rows.Scan(&id))
	assert.Equal(t, int64(1), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	dcb := NewDBCircuitBreaker(db)
	dbErr := errors.New("connection refused")
	for i := 0; i < 3; i++ {
		mock.ExpectExec("INSERT INTO summaries").WillReturnError(dbErr)
		_, err := dcb.ExecContext(context.Background(), "INSERT INTO summaries (id) VALUES ($1)", i)
		assert.ErrorIs(t, err, dbErr)
	}

	assert.True(t, dcb.IsOpen())
	_, err = dcb.ExecContext(context.Background(), "INSERT INTO summaries (id) VALUES ($1)", 4)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBConfig(t *testing.T) {
	cfg := DBConfig()
	assert.Equal(t, "summary-store", cfg.Name)
	assert.Equal(t, 1.0, cfg.FailureThreshold)
	assert.Equal(t, uint32(3), cfg.MinRequests)
}
