package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantConflict bool
	}{
		{name: "serialization failure", err: &pq.Error{Code: CodeSerializationFailure}, wantConflict: true},
		{name: "deadlock", err: &pq.Error{Code: CodeDeadlockDetected}, wantConflict: true},
		{name: "unique violation", err: &pq.Error{Code: CodeUniqueViolation}},
		{name: "plain error", err: errors.New("connection refused")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mapped := MapError(tc.err)
			if got := errors.Is(mapped, ErrConcurrentConflict); got != tc.wantConflict {
				t.Fatalf("expected conflict=%v, got %v (%v)", tc.wantConflict, got, mapped)
			}
			if !errors.Is(mapped, tc.err) {
				t.Fatalf("mapped error must keep the original in its chain")
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pq.Error{Code: CodeUniqueViolation, Constraint: "applications_one_pending"}
	if !IsUniqueViolation(err, "") || !IsUniqueViolation(err, "applications_one_pending") {
		t.Fatal("expected unique violation")
	}
	if IsUniqueViolation(err, "other") {
		t.Fatal("constraint name must match")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Fatal("plain error is not a unique violation")
	}
}

func TestRetryOnConflict(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryOnConflict(ctx, "test", func() error {
		calls++
		if calls == 1 {
			return ErrConcurrentConflict
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on second call, got err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryOnConflict(ctx, "test", func() error {
		calls++
		return ErrConcurrentConflict
	})
	if !errors.Is(err, ErrConcurrentConflict) || calls != 2 {
		t.Fatalf("expected exactly one retry, got err=%v calls=%d", err, calls)
	}

	calls = 0
	boom := errors.New("boom")
	err = RetryOnConflict(ctx, "test", func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("non-conflict errors must not be retried, got err=%v calls=%d", err, calls)
	}
}

func TestWithTx(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer raw.Close()
	db := sqlx.NewDb(raw, "postgres")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec("UPDATE users SET role = 'user'")
		return err
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").WillReturnError(&pq.Error{Code: CodeDeadlockDetected})
	mock.ExpectRollback()

	err = WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec("UPDATE users SET role = 'user'")
		return err
	})
	if !errors.Is(err, ErrConcurrentConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
