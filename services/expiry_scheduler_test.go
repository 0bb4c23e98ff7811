package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}
	return db, mock
}

func dareRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "short_id", "status"})
}

func TestExpireDueDaresSweepsUnfunded(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewDareService(db, "http://localhost:3000")

	// awaiting-claim and active sweeps find nothing; the third sweep catches a
	// dare stuck in FUNDING past its lifetime
	mock.ExpectQuery(`SELECT \* FROM "dares"`).WillReturnRows(dareRows())
	mock.ExpectQuery(`SELECT \* FROM "dares"`).WillReturnRows(dareRows())
	mock.ExpectQuery(`SELECT \* FROM "dares"`).WillReturnRows(
		dareRows().AddRow("11111111-1111-1111-1111-111111111111", "stale-abc123", "FUNDING"))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "dares"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s.expireDueDares(time.Now())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("abandoned FUNDING dare was not swept: %v", err)
	}
}
