package db

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockchain-insights/insights/api/types"
)

var resultColumns = []string{
	"id", "round_id", "miner_id", "hotkey", "network", "verdict",
	"cross_check", "agreed", "score", "response_time", "start_time", "end_time",
}

func newMockDB(t *testing.T) (*SqlDB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewSqlDB(sqlx.NewDb(mockDB, "mysql")), mock
}

func resultRow(roundID, minerID string) *types.ValidationResultInfo {
	now := time.Now()
	return &types.ValidationResultInfo{
		RoundID:      roundID,
		MinerID:      minerID,
		Hotkey:       minerID,
		Network:      types.NetworkBitcoin,
		Verdict:      int(types.VerdictValid),
		CrossCheck:   int(types.CrossCheckPass),
		Agreed:       true,
		Score:        0.5,
		ResponseTime: 1.2,
		StartTime:    now,
		EndTime:      now,
	}
}

func TestInsertValidationResults(t *testing.T) {
	db, mock := newMockDB(t)

	rows := []*types.ValidationResultInfo{
		resultRow("round-1", "m1"),
		resultRow("round-1", "m2"),
	}

	mock.ExpectBegin()
	for range rows {
		mock.ExpectExec("INSERT INTO validation_result").WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, db.InsertValidationResults(rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertValidationResultsRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO validation_result").WillReturnError(errors.New("table is full"))
	mock.ExpectRollback()

	err := db.InsertValidationResults([]*types.ValidationResultInfo{resultRow("round-1", "m1")})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListValidationResults(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM validation_result").WillReturnRows(
		sqlmock.NewRows(resultColumns).
			AddRow(1, "round-1", "m1", "m1", "bitcoin", 0, int(types.CrossCheckPass), true, 0.5, 1.2, now, now))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(
		sqlmock.NewRows([]string{"count"}).AddRow(1))

	rsp, err := db.ListValidationResults(now.Add(-time.Hour), now, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, rsp.Total)
	require.Len(t, rsp.ValidationResultInfos, 1)
	assert.Equal(t, "m1", rsp.ValidationResultInfos[0].MinerID)
	assert.Equal(t, int(types.CrossCheckPass), rsp.ValidationResultInfos[0].CrossCheck)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMinerResultsClampsLimit(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM validation_result WHERE miner_id").
		WithArgs("m1", loadResultInfosLimit).
		WillReturnRows(sqlmock.NewRows(resultColumns))

	_, err := db.LoadMinerResults("m1", 0)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
