package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"podforge/internal/app/model"
	"podforge/internal/app/repository"
)

const episodeColumns = `id, podcast_id, created_by, status, title, description, cover_image, language, metadata, published_at, created_at, updated_at`

func (sdb *SQLiteDB) GetByID(ctx context.Context, id string) (*model.Episode, error) {
	query := fmt.Sprintf(`SELECT %s FROM episodes WHERE id = ?`, episodeColumns)
	row := sdb.db.QueryRowContext(ctx, query, id)

	episode, err := scanEpisode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}
	return episode, nil
}

func (sdb *SQLiteDB) GetByPodcast(ctx context.Context, podcastID string) ([]model.Episode, error) {
	query := fmt.Sprintf(`SELECT %s FROM episodes WHERE podcast_id = ? ORDER BY created_at DESC`, episodeColumns)

	rows, err := sdb.db.QueryContext(ctx, query, podcastID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %v", err)
	}
	defer rows.Close()

	var episodes []model.Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("db scan failed: %v", err)
		}
		episodes = append(episodes, *episode)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %v", err)
	}

	return episodes, nil
}

func (sdb *SQLiteDB) Update(ctx context.Context, id string, update repository.EpisodeUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	setClauses := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)

	add := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", column))
		args = append(args, value)
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.Status != nil {
		add("status", string(*update.Status))
	}
	if update.CoverImage != nil {
		add("cover_image", *update.CoverImage)
	}
	if update.Metadata != nil {
		add("metadata", *update.Metadata)
	}
	if update.PublishedAt != nil {
		add("published_at", *update.PublishedAt)
	}
	add("updated_at", time.Now())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE episodes SET %s WHERE id = ?", strings.Join(setClauses, ", "))

	_, err := sdb.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update failed: %v", err)
	}
	return nil
}

// InsertEpisode creates an episode row. Used by tests and local tooling;
// production episodes are created by the surrounding CRUD layer.
func (sdb *SQLiteDB) InsertEpisode(ctx context.Context, e *model.Episode) error {
	insertSQL := `INSERT INTO episodes (id, podcast_id, created_by, status, title, description, cover_image, language, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := sdb.db.ExecContext(ctx, insertSQL, e.ID, e.PodcastID, e.CreatedBy, string(e.Status),
		e.Title, e.Description, e.CoverImage, e.Language, e.Metadata.Encode(), now, now)
	if err != nil {
		return fmt.Errorf("insert failed: %v", err)
	}
	return nil
}

// InsertUser creates a user row with a starting balance
func (sdb *SQLiteDB) InsertUser(ctx context.Context, id string, isAdmin bool, balance int64) error {
	_, err := sdb.db.ExecContext(ctx, `INSERT INTO users (id, is_admin, credit_balance) VALUES (?, ?, ?)`,
		id, isAdmin, balance)
	if err != nil {
		return fmt.Errorf("insert failed: %v", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEpisode(row rowScanner) (*model.Episode, error) {
	var (
		e           model.Episode
		title       sql.NullString
		description sql.NullString
		coverImage  sql.NullString
		language    sql.NullString
		metadata    sql.NullString
		publishedAt sql.NullTime
		status      string
	)

	err := row.Scan(&e.ID, &e.PodcastID, &e.CreatedBy, &status, &title, &description,
		&coverImage, &language, &metadata, &publishedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	e.Status = model.EpisodeStatus(status)
	e.Title = title.String
	e.Description = description.String
	e.CoverImage = coverImage.String
	e.Language = language.String
	if publishedAt.Valid {
		t := publishedAt.Time
		e.PublishedAt = &t
	}

	meta, err := model.ParseEpisodeMetadata(metadata.String)
	if err != nil {
		log.Printf("episode %s has malformed metadata, treating as empty: %v", e.ID, err)
	}
	e.Metadata = meta

	return &e, nil
}
