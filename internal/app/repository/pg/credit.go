package pg

import (
	"context"
	"database/sql"
	"fmt"

	"podforge/internal/app/model"
)

func (pdb *PostgresDB) GetBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := pdb.db.QueryRowContext(ctx, `SELECT credit_balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("query failed: %v", err)
	}
	return balance, nil
}

func (pdb *PostgresDB) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var isAdmin bool
	err := pdb.db.QueryRowContext(ctx, `SELECT is_admin FROM users WHERE id = $1`, userID).Scan(&isAdmin)
	if err != nil {
		return false, fmt.Errorf("query failed: %v", err)
	}
	return isAdmin, nil
}

// DeductAtomic decrements the balance only when sufficient funds remain.
// The balance check and the decrement are a single row-level atomic UPDATE;
// concurrent deductions for the same user serialize on the row lock.
func (pdb *PostgresDB) DeductAtomic(ctx context.Context, userID string, amount int64) (int64, bool, error) {
	var newBalance int64
	err := pdb.db.QueryRowContext(ctx,
		`UPDATE users SET credit_balance = credit_balance - $1 WHERE id = $2 AND credit_balance >= $1 RETURNING credit_balance`,
		amount, userID).Scan(&newBalance)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("update failed: %v", err)
	}
	return newBalance, true, nil
}

func (pdb *PostgresDB) CreditAtomic(ctx context.Context, userID string, amount int64) (int64, error) {
	var newBalance int64
	err := pdb.db.QueryRowContext(ctx,
		`UPDATE users SET credit_balance = credit_balance + $1 WHERE id = $2 RETURNING credit_balance`,
		amount, userID).Scan(&newBalance)
	if err != nil {
		return 0, fmt.Errorf("update failed: %v", err)
	}
	return newBalance, nil
}

func (pdb *PostgresDB) InsertTransaction(ctx context.Context, tx *model.CreditTransaction) error {
	insertSQL := `INSERT INTO credit_transactions (id, user_id, amount, type, balance_after, episode_id, podcast_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := pdb.db.ExecContext(ctx, insertSQL, tx.ID, tx.UserID, tx.Amount, string(tx.Type),
		tx.BalanceAfter, tx.EpisodeID, tx.PodcastID, tx.Description, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert failed: %v", err)
	}
	return nil
}

func (pdb *PostgresDB) GetTransaction(ctx context.Context, id string) (*model.CreditTransaction, error) {
	query := `SELECT id, user_id, amount, type, balance_after, episode_id, podcast_id, description, created_at
		FROM credit_transactions WHERE id = $1`
	row := pdb.db.QueryRowContext(ctx, query, id)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}
	return tx, nil
}

func (pdb *PostgresDB) ListTransactionsByUser(ctx context.Context, userID string) ([]model.CreditTransaction, error) {
	query := `SELECT id, user_id, amount, type, balance_after, episode_id, podcast_id, description, created_at
		FROM credit_transactions WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := pdb.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}
	defer rows.Close()

	var transactions []model.CreditTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("db scan failed: %v", err)
		}
		transactions = append(transactions, *tx)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %v", err)
	}

	return transactions, nil
}

func scanTransaction(row rowScanner) (*model.CreditTransaction, error) {
	var (
		tx        model.CreditTransaction
		txType    string
		episodeID sql.NullString
		podcastID sql.NullString
		desc      sql.NullString
	)

	err := row.Scan(&tx.ID, &tx.UserID, &tx.Amount, &txType, &tx.BalanceAfter,
		&episodeID, &podcastID, &desc, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}

	tx.Type = model.TransactionType(txType)
	tx.EpisodeID = episodeID.String
	tx.PodcastID = podcastID.String
	tx.Description = desc.String

	return &tx, nil
}
