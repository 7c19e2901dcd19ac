package models

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var txnIDPattern = regexp.MustCompile(`^TXN[0-9A-Z]{8}$`)

func TestNewTransactionID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewTransactionID()
		require.Regexp(t, txnIDPattern, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewTransactionShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		typ     TransactionType
		from    string
		to      string
		amount  string
		wantErr bool
	}{
		{name: "deposit", typ: TypeDeposit, to: "A", amount: "10"},
		{name: "deposit with source", typ: TypeDeposit, from: "B", to: "A", amount: "10", wantErr: true},
		{name: "deposit without destination", typ: TypeDeposit, amount: "10", wantErr: true},
		{name: "withdrawal", typ: TypeWithdrawal, from: "A", amount: "10"},
		{name: "withdrawal with destination", typ: TypeWithdrawal, from: "A", to: "B", amount: "10", wantErr: true},
		{name: "transfer", typ: TypeTransfer, from: "A", to: "B", amount: "10"},
		{name: "transfer same account", typ: TypeTransfer, from: "A", to: "A", amount: "10", wantErr: true},
		{name: "transfer missing side", typ: TypeTransfer, from: "A", amount: "10", wantErr: true},
		{name: "zero amount", typ: TypeDeposit, to: "A", amount: "0", wantErr: true},
		{name: "sub-cent amount", typ: TypeDeposit, to: "A", amount: "0.004", wantErr: true},
		{name: "negative amount", typ: TypeWithdrawal, from: "A", amount: "-1", wantErr: true},
		{name: "unknown type", typ: "REFUND", from: "A", amount: "1", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tx, err := NewTransaction(tt.typ, tt.from, tt.to, d(tt.amount), "note", "tester")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransaction)
				assert.Nil(t, tx)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusPending, tx.Status)
			assert.Regexp(t, txnIDPattern, tx.ID)
			assert.False(t, tx.CreatedAt.IsZero())
			assert.Equal(t, "tester", tx.PerformedBy)
		})
	}
}

func TestTransactionLifecycle(t *testing.T) {
	t.Parallel()

	newTx := func() *Transaction {
		tx, err := NewTransaction(TypeTransfer, "A", "B", d("50"), "", "tester")
		require.NoError(t, err)
		return tx
	}

	tx := newTx()
	require.NoError(t, tx.Complete())
	assert.Equal(t, StatusCompleted, tx.Status)
	assert.ErrorIs(t, tx.Fail(), ErrInvalidTransition)
	assert.ErrorIs(t, tx.Cancel(), ErrInvalidTransition)
	assert.ErrorIs(t, tx.Complete(), ErrInvalidTransition)

	tx = newTx()
	require.NoError(t, tx.Fail())
	assert.Equal(t, StatusFailed, tx.Status)
	assert.ErrorIs(t, tx.Complete(), ErrInvalidTransition)

	tx = newTx()
	require.NoError(t, tx.Cancel())
	assert.Equal(t, StatusCancelled, tx.Status)
	assert.True(t, tx.Status.Terminal())
	assert.ErrorIs(t, tx.Complete(), ErrInvalidTransition)

	assert.False(t, StatusPending.Terminal())
}

func TestTransactionInvolves(t *testing.T) {
	t.Parallel()

	tx := &Transaction{FromAccount: "A", ToAccount: "B"}
	assert.True(t, tx.Involves("A"))
	assert.True(t, tx.Involves("B"))
	assert.False(t, tx.Involves("C"))
}
