package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/account-ledger/internal/models"
	"github.com/sheikh-saqib/account-ledger/internal/storage"
)

var (
	accountColumns     = []string{"account_number", "holder_name", "account_type", "balance", "created_at"}
	transactionColumns = []string{"transaction_id", "from_account_number", "to_account_number", "amount",
		"transaction_type", "description", "performed_by", "status", "created_at", "updated_at"}
)

func newMockStore(t *testing.T) (*PostgresLedgerStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresLedgerStore(db), mock
}

func q(s string) string {
	return regexp.QuoteMeta(s)
}

func TestPostgresLedgerStore_CreateAccount(t *testing.T) {
	store, mock := newMockStore(t)
	account := models.Account{
		Number:     "S-1",
		HolderName: "Ada",
		Kind:       models.KindSavings,
		Balance:    decimal.NewFromInt(800),
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec(q("INSERT INTO bank_accounts")).
		WithArgs("S-1", "Ada", "SAVINGS", "800", "500", "2.5", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.CreateAccount(context.Background(), account))

	mock.ExpectExec(q("INSERT INTO bank_accounts")).
		WillReturnError(&pq.Error{Code: uniqueViolation, Message: "duplicate key value"})
	err := store.CreateAccount(context.Background(), account)
	assert.ErrorIs(t, err, storage.ErrDuplicateAccount)
}

func TestPostgresLedgerStore_LoadAccount(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(q("FROM bank_accounts WHERE account_number = $1")).
		WithArgs("C-1").
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("C-1", "Bob", "CURRENT", "-250.00", created))

	account, err := store.LoadAccount(context.Background(), "C-1")
	require.NoError(t, err)
	assert.Equal(t, models.KindCurrent, account.Kind)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(-250)))
	assert.Equal(t, created, account.CreatedAt)

	mock.ExpectQuery(q("FROM bank_accounts WHERE account_number = $1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(accountColumns))
	_, err = store.LoadAccount(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrAccountNotFound)
}

func TestPostgresLedgerStore_ListAccounts(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(q("FROM bank_accounts WHERE status = 'ACTIVE' ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow("S-1", "Ada", "SAVINGS", "1000", now).
			AddRow("C-1", "Bob", "CURRENT", "0", now))

	accounts, err := store.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "S-1", accounts[0].Number)
	assert.Equal(t, "C-1", accounts[1].Number)
}

func TestPostgresLedgerStore_SaveBalancesCommits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE bank_accounts SET balance = $1")).
		WithArgs("950", "A").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE bank_accounts SET balance = $1")).
		WithArgs("550", "B").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.SaveBalances(context.Background(), []models.BalanceUpdate{
		{AccountNumber: "A", Balance: decimal.NewFromInt(950)},
		{AccountNumber: "B", Balance: decimal.NewFromInt(550)},
	})
	require.NoError(t, err)
}

func TestPostgresLedgerStore_SaveBalancesRollsBack(t *testing.T) {
	t.Run("exec error", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("connection reset")

		mock.ExpectBegin()
		mock.ExpectExec(q("UPDATE bank_accounts SET balance = $1")).
			WithArgs("950", "A").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q("UPDATE bank_accounts SET balance = $1")).
			WithArgs("550", "B").
			WillReturnError(boom)
		mock.ExpectRollback()

		err := store.SaveBalances(context.Background(), []models.BalanceUpdate{
			{AccountNumber: "A", Balance: decimal.NewFromInt(950)},
			{AccountNumber: "B", Balance: decimal.NewFromInt(550)},
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("missing account", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(q("UPDATE bank_accounts SET balance = $1")).
			WithArgs("10", "gone").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := store.SaveAccountBalance(context.Background(), "gone", decimal.NewFromInt(10))
		assert.ErrorIs(t, err, storage.ErrAccountNotFound)
	})
}

func TestPostgresLedgerStore_Transactions(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tx := models.Transaction{
		ID:          "TXN0A1B2C3D",
		ToAccount:   "C-1",
		Amount:      decimal.NewFromInt(25),
		Type:        models.TypeDeposit,
		Description: "cash",
		PerformedBy: "teller",
		Status:      models.StatusCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	mock.ExpectExec(q("INSERT INTO transactions")).
		WithArgs("TXN0A1B2C3D", nil, "C-1", "25", "DEPOSIT", "cash", "teller", "COMPLETED", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.SaveTransaction(ctx, tx))

	mock.ExpectExec(q("INSERT INTO transactions")).
		WillReturnError(&pq.Error{Code: uniqueViolation, Message: "duplicate key value"})
	assert.ErrorIs(t, store.SaveTransaction(ctx, tx), storage.ErrDuplicateTransaction)

	mock.ExpectQuery(q("FROM transactions WHERE transaction_id = $1")).
		WithArgs("TXN0A1B2C3D").
		WillReturnRows(sqlmock.NewRows(transactionColumns).
			AddRow("TXN0A1B2C3D", nil, "C-1", "25.00", "DEPOSIT", "cash", "teller", "COMPLETED", now, now))
	got, err := store.GetTransaction(ctx, "TXN0A1B2C3D")
	require.NoError(t, err)
	assert.Empty(t, got.FromAccount)
	assert.Equal(t, "C-1", got.ToAccount)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(25)))

	mock.ExpectQuery(q("FROM transactions WHERE transaction_id = $1")).
		WithArgs("TXNFFFFFFFF").
		WillReturnRows(sqlmock.NewRows(transactionColumns))
	_, err = store.GetTransaction(ctx, "TXNFFFFFFFF")
	assert.ErrorIs(t, err, storage.ErrTransactionNotFound)

	mock.ExpectQuery(q("WHERE from_account_number = $1 OR to_account_number = $1")).
		WithArgs("C-1").
		WillReturnRows(sqlmock.NewRows(transactionColumns).
			AddRow("TXN00000002", "C-1", nil, "5", "WITHDRAWAL", "", "system", "COMPLETED", now, now).
			AddRow("TXN0A1B2C3D", nil, "C-1", "25", "DEPOSIT", "cash", "teller", "COMPLETED", now, now))
	history, err := store.ListTransactionsByAccount(ctx, "C-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.TypeWithdrawal, history[0].Type)

	mock.ExpectExec(q("UPDATE transactions SET status = $1")).
		WithArgs("CANCELLED", "TXNFFFFFFFF").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.UpdateTransactionStatus(ctx, "TXNFFFFFFFF", models.StatusCancelled), storage.ErrTransactionNotFound)
}

func TestPostgresLedgerStore_Summaries(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(q("SELECT COUNT(*), COALESCE(SUM(balance), 0) FROM bank_accounts")).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(int64(3), "1250.50"))
	accounts, err := store.AccountSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, accounts.TotalAccounts)
	assert.True(t, accounts.TotalBalance.Equal(decimal.RequireFromString("1250.50")))

	mock.ExpectQuery(q("SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM transactions WHERE status = 'COMPLETED'")).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(int64(0), "0"))
	txs, err := store.TransactionSummary(ctx)
	require.NoError(t, err)
	assert.Zero(t, txs.TotalTransactions)
	assert.True(t, txs.TotalAmount.IsZero())
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schema {
		mock.ExpectExec("CREATE (TABLE|INDEX) IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}
