package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/account-ledger/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger/internal/models"
	"github.com/sheikh-saqib/account-ledger/internal/storage"
)

const uniqueViolation = "23505"

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

// Open connects to dsn with lib/pq and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (p *PostgresLedgerStore) CreateAccount(ctx context.Context, account models.Account) error {
	const query = `INSERT INTO bank_accounts (account_number, holder_name, account_type, balance, minimum_balance, interest_rate, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := p.db.ExecContext(ctx, query,
		account.Number,
		account.HolderName,
		string(account.Kind),
		account.Balance,
		account.Floor(),
		account.InterestRate(),
		account.CreatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", storage.ErrDuplicateAccount, account.Number)
	}
	return err
}

func (p *PostgresLedgerStore) LoadAccount(ctx context.Context, number string) (models.Account, error) {
	const query = `SELECT account_number, holder_name, account_type, balance, created_at
	FROM bank_accounts WHERE account_number = $1 AND status = 'ACTIVE'`

	account, err := scanAccount(p.db.QueryRowContext(ctx, query, number))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, storage.ErrAccountNotFound
	}
	return account, err
}

func (p *PostgresLedgerStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	const query = `SELECT account_number, holder_name, account_type, balance, created_at
	FROM bank_accounts WHERE status = 'ACTIVE' ORDER BY id`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *PostgresLedgerStore) SaveAccountBalance(ctx context.Context, number string, balance decimal.Decimal) error {
	return p.SaveBalances(ctx, []models.BalanceUpdate{{AccountNumber: number, Balance: balance}})
}

// SaveBalances applies every update inside one database transaction.
func (p *PostgresLedgerStore) SaveBalances(ctx context.Context, updates []models.BalanceUpdate) (err error) {
	const query = `UPDATE bank_accounts SET balance = $1, updated_at = CURRENT_TIMESTAMP
	WHERE account_number = $2`

	dbTx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	for _, u := range updates {
		res, err := dbTx.ExecContext(ctx, query, u.Balance, u.AccountNumber)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("%w: %s", storage.ErrAccountNotFound, u.AccountNumber)
		}
	}
	return dbTx.Commit()
}

func (p *PostgresLedgerStore) SaveTransaction(ctx context.Context, tx models.Transaction) error {
	const query = `INSERT INTO transactions (transaction_id, from_account_number, to_account_number, amount,
	transaction_type, description, performed_by, status, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

	_, err := p.db.ExecContext(ctx, query,
		tx.ID,
		nullString(tx.FromAccount),
		nullString(tx.ToAccount),
		tx.Amount,
		string(tx.Type),
		tx.Description,
		tx.PerformedBy,
		string(tx.Status),
		tx.CreatedAt,
		tx.UpdatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", storage.ErrDuplicateTransaction, tx.ID)
	}
	return err
}

func (p *PostgresLedgerStore) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	const query = `SELECT transaction_id, from_account_number, to_account_number, amount,
	transaction_type, description, performed_by, status, created_at, updated_at
	FROM transactions WHERE transaction_id = $1`

	tx, err := scanTransaction(p.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, storage.ErrTransactionNotFound
	}
	return tx, err
}

func (p *PostgresLedgerStore) ListTransactionsByAccount(ctx context.Context, number string) ([]models.Transaction, error) {
	const query = `SELECT transaction_id, from_account_number, to_account_number, amount,
	transaction_type, description, performed_by, status, created_at, updated_at
	FROM transactions WHERE from_account_number = $1 OR to_account_number = $1
	ORDER BY created_at DESC`

	rows, err := p.db.QueryContext(ctx, query, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

func (p *PostgresLedgerStore) UpdateTransactionStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	const query = `UPDATE transactions SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE transaction_id = $2`

	res, err := p.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrTransactionNotFound
	}
	return nil
}

func (p *PostgresLedgerStore) AccountSummary(ctx context.Context) (models.AccountSummary, error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(balance), 0) FROM bank_accounts WHERE status = 'ACTIVE'`

	var sum models.AccountSummary
	err := p.db.QueryRowContext(ctx, query).Scan(&sum.TotalAccounts, &sum.TotalBalance)
	return sum, err
}

func (p *PostgresLedgerStore) TransactionSummary(ctx context.Context) (models.TransactionSummary, error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM transactions WHERE status = 'COMPLETED'`

	var sum models.TransactionSummary
	err := p.db.QueryRowContext(ctx, query).Scan(&sum.TotalTransactions, &sum.TotalAmount)
	return sum, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (models.Account, error) {
	var (
		account models.Account
		kind    string
	)
	if err := row.Scan(&account.Number, &account.HolderName, &kind, &account.Balance, &account.CreatedAt); err != nil {
		return models.Account{}, err
	}
	k, err := models.ParseAccountKind(kind)
	if err != nil {
		return models.Account{}, err
	}
	account.Kind = k
	return account, nil
}

func scanTransaction(row scanner) (models.Transaction, error) {
	var (
		tx       models.Transaction
		from, to sql.NullString
		typ      string
		status   string
	)
	err := row.Scan(
		&tx.ID,
		&from,
		&to,
		&tx.Amount,
		&typ,
		&tx.Description,
		&tx.PerformedBy,
		&status,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return models.Transaction{}, err
	}
	tx.FromAccount = from.String
	tx.ToAccount = to.String
	tx.Type = models.TransactionType(typ)
	tx.Status = models.TransactionStatus(status)
	return tx, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
