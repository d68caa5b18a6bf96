package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"carconnect/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serviceRecordColumns = []string{
	"id", "client_id", "service_date", "description", "mileage", "cost", "details", "is_ongoing", "technicians",
}

func TestServiceRecords_CreateWithTechnicians(t *testing.T) {
	db, mock := setupMockDB(t)
	_, h := resolveHandles(t, "service_acme")
	repo := NewPostgresServiceRecordsRepository(db)

	mock.ExpectQuery(`(?s)WITH inserted AS \(\s+INSERT INTO service_acme.service_records .*INSERT INTO service_acme.service_technician .*unnest\(\$8::int\[\]\)`).
		WithArgs(int64(3), sqlmock.AnyArg(), "Full service", sqlmock.AnyArg(), sqlmock.AnyArg(),
			`{"oil":"5W-30"}`, true, "{4,5}").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	id, err := repo.CreateServiceRecord(context.Background(), db, h, &domain.ServiceRecord{
		ClientID:    3,
		ServiceDate: domain.NewDate(2024, time.March, 1),
		Description: "Full service",
		Mileage:     decimal.RequireFromString("42000.5"),
		Cost:        decimal.RequireFromString("15000"),
		Details:     json.RawMessage(`{"oil":"5W-30"}`),
		IsOngoing:   true,
		Technicians: []int64{4, 5},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRecords_GetOngoing(t *testing.T) {
	db, mock := setupMockDB(t)
	_, h := resolveHandles(t, "service_acme")
	repo := NewPostgresServiceRecordsRepository(db)

	mock.ExpectQuery(`LEFT JOIN service_acme.service_technician st ON st.service_id = s.id\s+WHERE s.id = \$1 AND s.is_ongoing = \$2`).
		WithArgs(int64(11), true).
		WillReturnRows(sqlmock.NewRows(serviceRecordColumns).AddRow(
			11, 3, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "Full service", "42000.5", "15000.00",
			[]byte(`{"oil":"5W-30"}`), true, []byte("{4,5}"),
		))

	rec, err := repo.GetServiceRecord(context.Background(), h, 11, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, rec.Technicians)
	assert.JSONEq(t, `{"oil":"5W-30"}`, string(rec.Details))
	assert.True(t, rec.IsOngoing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRecords_GetFinishedMissesOngoing(t *testing.T) {
	db, mock := setupMockDB(t)
	_, h := resolveHandles(t, "service_acme")
	repo := NewPostgresServiceRecordsRepository(db)

	mock.ExpectQuery(`FROM service_acme.service_records s`).
		WithArgs(int64(11), false).
		WillReturnRows(sqlmock.NewRows(serviceRecordColumns))

	_, err := repo.GetServiceRecord(context.Background(), h, 11, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRecords_UpdateDetailsAsText(t *testing.T) {
	db, mock := setupMockDB(t)
	_, h := resolveHandles(t, "service_acme")
	repo := NewPostgresServiceRecordsRepository(db)

	details := json.RawMessage(`{"note":"brake pads"}`)
	done := false
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE service_acme.service_records SET details=$1, is_ongoing=$2 WHERE id=$3 RETURNING *`)).
		WithArgs(`{"note":"brake pads"}`, false, int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateServiceRecord(context.Background(), db, h, 11, domain.ServiceRecordPatch{
		Details:   &details,
		IsOngoing: &done,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRecords_ReplaceTechnicians(t *testing.T) {
	db, mock := setupMockDB(t)
	_, h := resolveHandles(t, "service_acme")
	repo := NewPostgresServiceRecordsRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM service_acme.service_technician WHERE service_id = $1`)).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO service_acme.service_technician`).
		WithArgs(int64(11), "{6}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ReplaceTechnicians(ctx, db, h, 11, []int64{6}))

	mock.ExpectExec(`DELETE FROM service_acme.service_technician`).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ReplaceTechnicians(ctx, db, h, 11, nil))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRecords_HistoryForVehicle_Filter(t *testing.T) {
	db, mock := setupMockDB(t)
	_, h := resolveHandles(t, "repair_beta")
	repo := NewPostgresServiceRecordsRepository(db)

	from := domain.NewDate(2024, time.January, 1)
	maxMileage := decimal.NewFromInt(50000)

	mock.ExpectQuery(`FROM repair_beta.service_records s\s+JOIN repair_beta.clients c ON c.id = s.client_id\s+WHERE c.vehicle_id = \$1 AND s.id = ANY\(\$2\)`).
		WithArgs(int64(9), "{11,12}", "2024-01-01", nil, nil, "50000").
		WillReturnRows(sqlmock.NewRows([]string{"id", "service_date", "description", "mileage", "cost", "details", "is_ongoing"}).
			AddRow(12, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "Tyres", "41000", "8000", nil, false))

	entries, err := repo.HistoryForVehicle(context.Background(), h, 9, []int64{11, 12}, domain.HistoryFilter{
		FromDate:   &from,
		MaxMileage: &maxMileage,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "repair_beta", entries[0].Schema)
	assert.Equal(t, int64(12), entries[0].RecordID)
	assert.Nil(t, entries[0].Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRecords_LatestMileage(t *testing.T) {
	db, mock := setupMockDB(t)
	_, h := resolveHandles(t, "service_acme")
	repo := NewPostgresServiceRecordsRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT COALESCE\(`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"mileage"}).AddRow("42000.5"))
	m, err := repo.LatestMileage(ctx, h, 9)
	require.NoError(t, err)
	assert.Equal(t, "42000.5", m.String())

	mock.ExpectQuery(`SELECT COALESCE\(`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"mileage"}))
	_, err = repo.LatestMileage(ctx, h, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
