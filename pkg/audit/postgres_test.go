package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
)

func TestPostgresAuditStore_CreateAuditLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewPostgresAuditStore(db)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(sqlmock.AnyArg(), "usr-1", "ops@rentos", "lease_creation_blocked",
			"lease", "lease-9", sqlmock.AnyArg(), sqlmock.AnyArg(), "", "", "req-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.CreateAuditLog(context.Background(), &contracts.AuditEntry{
		ActorID:    "usr-1",
		ActorEmail: "ops@rentos",
		Action:     "lease_creation_blocked",
		EntityType: "lease",
		EntityID:   "lease-9",
		RequestID:  "req-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAuditStore_InsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewPostgresAuditStore(db)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnError(errors.New("connection reset"))

	_, err = store.CreateAuditLog(context.Background(), &contracts.AuditEntry{
		ActorEmail: "ops@rentos",
		Action:     "gate_evaluated",
		EntityType: "listing",
		EntityID:   "lst-1",
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
