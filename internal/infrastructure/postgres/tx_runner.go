package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Opciones de transacción usadas por los repositorios.
var (
	// SnapshotReadOnly: todas las lecturas ven la misma instantánea (count + página consistentes).
	SnapshotReadOnly = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	// ReadWrite: transacción por defecto del servidor (READ COMMITTED).
	ReadWrite = pgx.TxOptions{}
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	db TxBeginner
}

// NewTxRunner construye el runner. Pasar el pool.
func NewTxRunner(db TxBeginner) *TxRunner {
	return &TxRunner{db: db}
}

// Run inicia una transacción con opts, ejecuta fn con la tx como Querier y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, opts pgx.TxOptions, fn func(q Querier) error) error {
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
