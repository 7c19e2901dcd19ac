package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/account-ledger/internal/interfaces"
	"github.com/sheikh-saqib/account-ledger/internal/models"
	"github.com/sheikh-saqib/account-ledger/internal/models/events"
	"github.com/sheikh-saqib/account-ledger/internal/registry"
	"github.com/sheikh-saqib/account-ledger/internal/storage"
)

const (
	DefaultPersistTimeout = 5 * time.Second
	defaultActor          = "system"
)

// Ledger orchestrates balance changes together with their transaction records.
// It holds a reference to the registry and the store, and a mutex per account
// so that read-modify-persist on one account is never interleaved.
// Transaction ids are locked in their own namespace.
type Ledger struct {
	registry       *registry.Registry
	store          interfaces.LedgerStore
	publisher      interfaces.EventPublisher // optional
	topic          string
	logger         *zap.Logger
	persistTimeout time.Duration
	auditFailures  bool

	accountLocks *keyedMutex
	txnLocks     *keyedMutex
}

type Option func(*Ledger)

// WithPublisher publishes a TransactionCompleted event to topic after each
// completed record. An empty topic keeps the default.
func WithPublisher(p interfaces.EventPublisher, topic string) Option {
	return func(l *Ledger) {
		l.publisher = p
		if topic != "" {
			l.topic = topic
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithPersistTimeout bounds every store call made by an operation.
func WithPersistTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.persistTimeout = d
		}
	}
}

// WithFailureAudit stores a FAILED record whenever a balance could not be persisted.
func WithFailureAudit(enabled bool) Option {
	return func(l *Ledger) { l.auditFailures = enabled }
}

// NewLedger creates a Ledger on top of a registry and the store it shares.
func NewLedger(reg *registry.Registry, store interfaces.LedgerStore, opts ...Option) *Ledger {
	l := &Ledger{
		registry:       reg,
		store:          store,
		logger:         zap.NewNop(),
		persistTimeout: DefaultPersistTimeout,
		topic:          events.TopicTransactionCompleted,
		accountLocks:   newKeyedMutex(),
		txnLocks:       newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) lockAccounts(numbers ...string) func() {
	return l.accountLocks.lockAll(numbers...)
}

// Deposit credits an account and records a DEPOSIT transaction.
func (l *Ledger) Deposit(ctx context.Context, req DepositRequest) Result {
	if req.Account == "" {
		return invalid(ErrAccountNumberRequired)
	}
	if err := models.CheckAmount(req.Amount); err != nil {
		return invalid(err)
	}

	tx, err := models.NewTransaction(models.TypeDeposit, "", req.Account, req.Amount, req.Description, actor(req.Actor))
	if err != nil {
		return invalid(err)
	}

	unlock := l.lockAccounts(req.Account)
	defer unlock()

	account, res := l.resolve(ctx, req.Account, SideAccount)
	if account == nil {
		return res
	}

	if err := account.Deposit(req.Amount); err != nil {
		return invalid(err)
	}

	if err := l.persist(ctx, "save account balance", func(ctx context.Context) error {
		return l.store.SaveAccountBalance(ctx, account.Number, account.Balance)
	}); err != nil {
		return l.persistenceFailure(ctx, tx, err)
	}

	return l.record(ctx, tx, nil, account)
}

// Withdraw debits an account within its floor and records a WITHDRAWAL transaction.
// Insufficient funds is a result, not an error: nothing is persisted or recorded.
func (l *Ledger) Withdraw(ctx context.Context, req WithdrawRequest) Result {
	if req.Account == "" {
		return invalid(ErrAccountNumberRequired)
	}
	if err := models.CheckAmount(req.Amount); err != nil {
		return invalid(err)
	}

	tx, err := models.NewTransaction(models.TypeWithdrawal, req.Account, "", req.Amount, req.Description, actor(req.Actor))
	if err != nil {
		return invalid(err)
	}

	unlock := l.lockAccounts(req.Account)
	defer unlock()

	account, res := l.resolve(ctx, req.Account, SideAccount)
	if account == nil {
		return res
	}

	ok, err := account.Withdraw(req.Amount)
	if err != nil {
		return invalid(err)
	}
	if !ok {
		return Result{Outcome: OutcomeInsufficientFunds, From: account, Err: ErrInsufficientFunds}
	}

	if err := l.persist(ctx, "save account balance", func(ctx context.Context) error {
		return l.store.SaveAccountBalance(ctx, account.Number, account.Balance)
	}); err != nil {
		return l.persistenceFailure(ctx, tx, err)
	}

	return l.record(ctx, tx, account, nil)
}

// Transfer moves money between two accounts. Both balances are written in one
// atomic store call; the TRANSFER record is only written after that succeeds.
func (l *Ledger) Transfer(ctx context.Context, req TransferRequest) Result {
	if req.From == "" || req.To == "" {
		return invalid(ErrAccountNumberRequired)
	}
	if req.From == req.To {
		return invalid(ErrSameAccount)
	}
	if err := models.CheckAmount(req.Amount); err != nil {
		return invalid(err)
	}

	tx, err := models.NewTransaction(models.TypeTransfer, req.From, req.To, req.Amount, req.Description, actor(req.Actor))
	if err != nil {
		return invalid(err)
	}

	unlock := l.lockAccounts(req.From, req.To)
	defer unlock()

	from, res := l.resolve(ctx, req.From, SideFrom)
	if from == nil {
		return res
	}
	to, res := l.resolve(ctx, req.To, SideTo)
	if to == nil {
		return res
	}

	ok, err := from.Withdraw(req.Amount)
	if err != nil {
		return invalid(err)
	}
	if !ok {
		return Result{Outcome: OutcomeInsufficientFunds, From: from, To: to, Err: ErrInsufficientFunds}
	}
	if err := to.Deposit(req.Amount); err != nil {
		return invalid(err)
	}

	updates := []models.BalanceUpdate{
		{AccountNumber: from.Number, Balance: from.Balance},
		{AccountNumber: to.Number, Balance: to.Balance},
	}
	if err := l.persist(ctx, "save transfer balances", func(ctx context.Context) error {
		return l.store.SaveBalances(ctx, updates)
	}); err != nil {
		return l.persistenceFailure(ctx, tx, err)
	}

	return l.record(ctx, tx, from, to)
}

// CancelTransaction moves a PENDING record to CANCELLED.
func (l *Ledger) CancelTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	unlock := l.txnLocks.lockAll(id)
	defer unlock()

	tx, err := l.Transaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Cancel(); err != nil {
		return nil, err
	}
	if err := l.persist(ctx, "update transaction status", func(ctx context.Context) error {
		return l.store.UpdateTransactionStatus(ctx, tx.ID, tx.Status)
	}); err != nil {
		return nil, err
	}

	l.logger.Info("transaction cancelled", zap.String("transaction_id", tx.ID))
	return tx, nil
}

// Transaction looks up a single record by id.
func (l *Ledger) Transaction(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := l.persist(ctx, "get transaction", func(ctx context.Context) error {
		var err error
		tx, err = l.store.GetTransaction(ctx, id)
		return err
	})
	if errors.Is(err, storage.ErrTransactionNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// History lists the records touching an account, newest first.
func (l *Ledger) History(ctx context.Context, number string) ([]models.Transaction, error) {
	if _, res := l.resolve(ctx, number, SideAccount); res.Err != nil {
		return nil, res.Err
	}

	var txs []models.Transaction
	err := l.persist(ctx, "list transactions", func(ctx context.Context) error {
		var err error
		txs, err = l.store.ListTransactionsByAccount(ctx, number)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Summary returns account and completed-transaction totals.
func (l *Ledger) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := l.persist(ctx, "summary", func(ctx context.Context) error {
		var err error
		if sum.Accounts, err = l.store.AccountSummary(ctx); err != nil {
			return err
		}
		sum.Transactions, err = l.store.TransactionSummary(ctx)
		return err
	})
	return sum, err
}

// resolve loads a fresh copy of the account. The copy must not outlive the operation.
// On failure the account is nil and the returned Result describes why.
func (l *Ledger) resolve(ctx context.Context, number string, side Side) (*models.Account, Result) {
	var (
		account *models.Account
		found   bool
	)
	err := l.persist(ctx, "load account", func(ctx context.Context) error {
		var err error
		account, found, err = l.registry.Find(ctx, number)
		return err
	})
	if err != nil {
		l.logger.Error("could not load account",
			zap.String("account_number", number),
			zap.Error(err),
		)
		return nil, Result{Outcome: OutcomePersistenceFailure, Err: err}
	}
	if !found {
		return nil, Result{Outcome: OutcomeNotFound, Err: &AccountNotFoundError{Side: side, Number: number}}
	}
	return account, Result{}
}

// persist runs fn under the persist timeout and wraps any failure.
func (l *Ledger) persist(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, l.persistTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) || errors.Is(err, storage.ErrTransactionNotFound) {
			return err
		}
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

// record completes tx, stores it and publishes the completion event. The
// balances are already durable at this point.
func (l *Ledger) record(ctx context.Context, tx *models.Transaction, from, to *models.Account) Result {
	if err := tx.Complete(); err != nil {
		return Result{Outcome: OutcomeUnrecorded, Transaction: tx, From: from, To: to, Err: err}
	}

	if err := l.saveTransaction(ctx, "save transaction", tx); err != nil {
		l.logger.Error("balance applied but transaction record not persisted; manual reconciliation required",
			zap.Bool("reconcile", true),
			zap.String("transaction_id", tx.ID),
			zap.String("transaction_type", string(tx.Type)),
			zap.String("from_account", tx.FromAccount),
			zap.String("to_account", tx.ToAccount),
			zap.String("amount", tx.Amount.StringFixed(2)),
			zap.Error(err),
		)
		return Result{Outcome: OutcomeUnrecorded, Transaction: tx, From: from, To: to, Err: err}
	}

	l.logger.Info("transaction completed",
		zap.String("transaction_id", tx.ID),
		zap.String("transaction_type", string(tx.Type)),
		zap.String("amount", tx.Amount.StringFixed(2)),
		zap.String("performed_by", tx.PerformedBy),
	)
	l.publish(ctx, tx)

	return Result{Outcome: OutcomeCompleted, Transaction: tx, From: from, To: to}
}

// persistenceFailure logs the failed write loudly and optionally keeps a
// FAILED record for audit. Nothing is retried.
func (l *Ledger) persistenceFailure(ctx context.Context, tx *models.Transaction, err error) Result {
	l.logger.Error("ledger persistence failure",
		zap.Bool("reconcile", true),
		zap.String("transaction_id", tx.ID),
		zap.String("transaction_type", string(tx.Type)),
		zap.String("from_account", tx.FromAccount),
		zap.String("to_account", tx.ToAccount),
		zap.String("amount", tx.Amount.StringFixed(2)),
		zap.Error(err),
	)

	if l.auditFailures {
		if ferr := tx.Fail(); ferr == nil {
			if serr := l.persist(ctx, "save failed transaction", func(ctx context.Context) error {
				return l.store.SaveTransaction(ctx, *tx)
			}); serr != nil {
				l.logger.Warn("could not store failed transaction for audit",
					zap.String("transaction_id", tx.ID),
					zap.Error(serr),
				)
			}
		}
	}

	return Result{Outcome: OutcomePersistenceFailure, Err: err}
}

// saveTransaction stores tx. An id already taken by another record is
// replaced with a fresh one once before giving up.
func (l *Ledger) saveTransaction(ctx context.Context, op string, tx *models.Transaction) error {
	save := func(ctx context.Context) error {
		return l.store.SaveTransaction(ctx, *tx)
	}

	err := l.persist(ctx, op, save)
	if errors.Is(err, storage.ErrDuplicateTransaction) {
		previous := tx.ID
		tx.ID = models.NewTransactionID()
		l.logger.Warn("transaction id collision, retrying with a new id",
			zap.String("previous_id", previous),
			zap.String("transaction_id", tx.ID),
		)
		err = l.persist(ctx, op, save)
	}
	return err
}

func (l *Ledger) publish(ctx context.Context, tx *models.Transaction) {
	if l.publisher == nil {
		return
	}
	event := events.NewTransactionCompleted(tx)
	if err := l.publisher.Publish(ctx, l.topic, event); err != nil {
		l.logger.Warn("could not publish transaction event",
			zap.String("transaction_id", tx.ID),
			zap.Error(err),
		)
	}
}

func invalid(err error) Result {
	return Result{Outcome: OutcomeValidationError, Err: err}
}

func actor(a string) string {
	if a == "" {
		return defaultActor
	}
	return a
}
