package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"podforge/internal/app/model"
)

func (sdb *SQLiteDB) GetBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := sdb.db.QueryRowContext(ctx, `SELECT credit_balance FROM users WHERE id = ?`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("query failed: %v", err)
	}
	return balance, nil
}

func (sdb *SQLiteDB) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var isAdmin bool
	err := sdb.db.QueryRowContext(ctx, `SELECT is_admin FROM users WHERE id = ?`, userID).Scan(&isAdmin)
	if err != nil {
		return false, fmt.Errorf("query failed: %v", err)
	}
	return isAdmin, nil
}

// DeductAtomic runs the balance check and decrement inside one transaction.
// SQLite serializes writers, so the guarded UPDATE cannot interleave with a
// concurrent deduction.
func (sdb *SQLiteDB) DeductAtomic(ctx context.Context, userID string, amount int64) (int64, bool, error) {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin failed: %v", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET credit_balance = credit_balance - ? WHERE id = ? AND credit_balance >= ?`,
		amount, userID, amount)
	if err != nil {
		return 0, false, fmt.Errorf("update failed: %v", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("update failed: %v", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	var newBalance int64
	if err := tx.QueryRowContext(ctx, `SELECT credit_balance FROM users WHERE id = ?`, userID).Scan(&newBalance); err != nil {
		return 0, false, fmt.Errorf("query failed: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit failed: %v", err)
	}
	return newBalance, true, nil
}

func (sdb *SQLiteDB) CreditAtomic(ctx context.Context, userID string, amount int64) (int64, error) {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin failed: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET credit_balance = credit_balance + ? WHERE id = ?`, amount, userID); err != nil {
		return 0, fmt.Errorf("update failed: %v", err)
	}

	var newBalance int64
	if err := tx.QueryRowContext(ctx, `SELECT credit_balance FROM users WHERE id = ?`, userID).Scan(&newBalance); err != nil {
		return 0, fmt.Errorf("query failed: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit failed: %v", err)
	}
	return newBalance, nil
}

func (sdb *SQLiteDB) InsertTransaction(ctx context.Context, t *model.CreditTransaction) error {
	insertSQL := `INSERT INTO credit_transactions (id, user_id, amount, type, balance_after, episode_id, podcast_id, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := sdb.db.ExecContext(ctx, insertSQL, t.ID, t.UserID, t.Amount, string(t.Type),
		t.BalanceAfter, t.EpisodeID, t.PodcastID, t.Description, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert failed: %v", err)
	}
	return nil
}

func (sdb *SQLiteDB) GetTransaction(ctx context.Context, id string) (*model.CreditTransaction, error) {
	query := `SELECT id, user_id, amount, type, balance_after, episode_id, podcast_id, description, created_at
		FROM credit_transactions WHERE id = ?`
	row := sdb.db.QueryRowContext(ctx, query, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}
	return t, nil
}

func (sdb *SQLiteDB) ListTransactionsByUser(ctx context.Context, userID string) ([]model.CreditTransaction, error) {
	query := `SELECT id, user_id, amount, type, balance_after, episode_id, podcast_id, description, created_at
		FROM credit_transactions WHERE user_id = ? ORDER BY created_at ASC`

	rows, err := sdb.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}
	defer rows.Close()

	var transactions []model.CreditTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("db scan failed: %v", err)
		}
		transactions = append(transactions, *t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %v", err)
	}

	return transactions, nil
}

func scanTransaction(row rowScanner) (*model.CreditTransaction, error) {
	var (
		t         model.CreditTransaction
		txType    string
		episodeID sql.NullString
		podcastID sql.NullString
		desc      sql.NullString
	)

	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &txType, &t.BalanceAfter,
		&episodeID, &podcastID, &desc, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.Type = model.TransactionType(txType)
	t.EpisodeID = episodeID.String
	t.PodcastID = podcastID.String
	t.Description = desc.String

	return &t, nil
}
