package pg

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// PostgresDB implements repository.EpisodeDAO and repository.CreditDAO
// against a postgres database.
type PostgresDB struct {
	db *sql.DB
}

func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, err
	}
	return &PostgresDB{db: db}, nil
}

func (pdb *PostgresDB) Close() error {
	return pdb.db.Close()
}
