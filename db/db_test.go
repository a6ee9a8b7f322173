package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"procurement/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewStorage(sqlx.NewDb(conn, "postgres")), mock
}

func TestBuildUpdate(t *testing.T) {
	t.Run("no fields", func(t *testing.T) {
		_, _, err := buildUpdate("projects", 1, nil)
		require.ErrorIs(t, err, ErrNoFieldsToUpdate)
	})

	t.Run("numbers placeholders in order and appends id", func(t *testing.T) {
		query, args, err := buildUpdate("projects", 42, models.ProjectPatch{
			Name:   models.Some("new"),
			Status: models.Some("paused"),
		}.Assignments())
		require.NoError(t, err)
		assert.Equal(t,
			"UPDATE projects SET name = $1, status = $2, updated_at = NOW() WHERE id = $3 RETURNING *",
			query)
		require.Len(t, args, 3)
		assert.Equal(t, int64(42), args[2])
	})

	t.Run("explicit null becomes NULL argument", func(t *testing.T) {
		query, args, err := buildUpdate("rfqs", 7, models.RfqPatch{
			SpecialRequirements: models.SetNull[string](),
		}.Assignments())
		require.NoError(t, err)
		assert.Equal(t,
			"UPDATE rfqs SET special_requirements = $1, updated_at = NOW() WHERE id = $2 RETURNING *",
			query)
		assert.Equal(t, []any{nil, int64(7)}, args)
	})
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(fmt.Errorf("scan: %w", sql.ErrNoRows)), ErrNotFound)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapErr(plain))

	dup := mapErr(&pq.Error{Code: "23505", Constraint: "vendors_user_id_key"})
	assert.ErrorIs(t, dup, ErrDuplicate)
	assert.Contains(t, dup.Error(), "vendors_user_id_key")

	other := &pq.Error{Code: "23503"}
	assert.Equal(t, error(other), mapErr(other))
}

func TestCreateProject(t *testing.T) {
	store, mock := newMockStorage(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO projects")).
		WithArgs("PROJ_ABC_1234", "Warehouse", nil, nil, nil, int64(3), models.ProjectStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(11, now, now))

	p := &models.Project{CustomID: "PROJ_ABC_1234", Name: "Warehouse", OwnerID: 3}
	require.NoError(t, store.CreateProject(context.Background(), p))

	assert.Equal(t, int64(11), p.ID)
	assert.Equal(t, models.ProjectStatusActive, p.Status)
	assert.Equal(t, now, p.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProjectNotFound(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM projects WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	p, err := store.GetProject(context.Background(), 5)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, p)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProjectWithoutFieldsSkipsQuery(t *testing.T) {
	store, mock := newMockStorage(t)

	p, err := store.UpdateProject(context.Background(), 5, models.ProjectPatch{})
	require.ErrorIs(t, err, ErrNoFieldsToUpdate)
	assert.Nil(t, p)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateQuoteCoercesAmount(t *testing.T) {
	store, mock := newMockStorage(t)
	amount := 2500.5

	// NUMERIC приходит из pq строкой байт
	rows := sqlmock.NewRows([]string{"id", "custom_id", "rfq_id", "rfq_custom_id", "vendor_id", "status", "total_amount"}).
		AddRow(4, "QUOT_F00_1111", 2, "RFQ_AAA_2222", 9, "submitted", []byte("2500.50"))

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE quotes SET total_amount = $1, updated_at = NOW() WHERE id = $2 RETURNING *")).
		WithArgs(amount, int64(4)).
		WillReturnRows(rows)

	q, err := store.UpdateQuote(context.Background(), 4, models.QuotePatch{TotalAmount: models.Some(amount)})
	require.NoError(t, err)
	assert.Equal(t, 2500.5, q.TotalAmount)
	require.NotNil(t, q.RfqCustomID)
	assert.Equal(t, "RFQ_AAA_2222", *q.RfqCustomID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRequirementsByProjectOldestFirst(t *testing.T) {
	store, mock := newMockStorage(t)

	rows := sqlmock.NewRows([]string{"id", "custom_id", "project_id", "project_custom_id", "item_name", "quantity", "unit"}).
		AddRow(1, "REQ_AAA_1000", 7, "PROJ_BBB_2000", "cement", []byte("10"), "bag").
		AddRow(2, "REQ_CCC_3000", 7, "PROJ_BBB_2000", "steel", []byte("2.5"), "t")

	mock.ExpectQuery(`SELECT \* FROM requirements WHERE project_id = \$1.*ORDER BY r.created_at ASC`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	reqs, err := store.GetRequirementsByProject(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "cement", reqs[0].ItemName)
	assert.Equal(t, 2.5, reqs[1].Quantity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetClosedRfqsFiltersAwardedAndClosed(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectQuery(`SELECT \* FROM rfqs WHERE status IN \(\$1, \$2\).*ORDER BY q.created_at DESC`).
		WithArgs(models.RfqStatusAwarded, models.RfqStatusClosed).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status", "deadline"}).
			AddRow(3, "Cement supply", "awarded", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))

	rfqs, err := store.GetClosedRfqs(context.Background())
	require.NoError(t, err)
	require.Len(t, rfqs, 1)
	assert.Equal(t, "2025-01-02", rfqs[0].Deadline.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasVendorQuotedRfq(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM quotes WHERE vendor_id = $1 AND rfq_id = $2)")).
		WithArgs(int64(9), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.HasVendorQuotedRfq(context.Background(), 9, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVendorDuplicate(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO vendors")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "vendors_user_id_key"})

	err := store.CreateVendor(context.Background(), &models.Vendor{UserID: 1, CompanyName: "Acme"})
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetResetTokenUnknownUser(t *testing.T) {
	store, mock := newMockStorage(t)
	expiry := time.Now().Add(time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs("tok", expiry, int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetResetToken(context.Background(), 77, "tok", expiry)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeResetTokenSingleStatement(t *testing.T) {
	store, mock := newMockStorage(t)
	now := time.Now()

	mock.ExpectQuery(`SET password_hash = \$1, reset_token = NULL, reset_token_expiry = NULL.*WHERE reset_token = \$2 AND reset_token_expiry > \$3`).
		WithArgs("new-hash", "tok", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role"}).
			AddRow(5, "v@example.com", "new-hash", "vendor"))

	u, err := store.ConsumeResetToken(context.Background(), "tok", "new-hash", now)
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.ID)
	assert.Equal(t, models.RoleVendor, u.Role)
	assert.Nil(t, u.ResetToken)

	mock.ExpectQuery(`WHERE reset_token = \$2 AND reset_token_expiry > \$3`).
		WithArgs("new-hash", "tok", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = store.ConsumeResetToken(context.Background(), "tok", "new-hash", now)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDocumentsByEntity(t *testing.T) {
	store, mock := newMockStorage(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE entity_type = $1 AND entity_id = $2")).
		WithArgs("rfq", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "filename", "file_size"}).
			AddRow(1, "rfq", 3, "a.pdf", 1024))

	docs, err := store.GetDocumentsByEntity(context.Background(), models.EntityRfq, 3)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, models.EntityRfq, docs[0].EntityType)
	assert.Equal(t, int64(1024), docs[0].FileSize)
	require.NoError(t, mock.ExpectationsWereMet())
}
