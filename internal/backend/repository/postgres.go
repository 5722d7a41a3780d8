package repository

import (
	"context"
	"errors"
	"fmt"

	"sync-photo-client/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	username      TEXT,
	avatar_url    TEXT,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS groups (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	join_code   TEXT NOT NULL UNIQUE,
	image_key   TEXT,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS group_members (
	group_id  TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (group_id, user_id)
);
CREATE TABLE IF NOT EXISTS photos (
	id                 TEXT PRIMARY KEY,
	group_id           TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
	original_image_key TEXT NOT NULL,
	thumbnail_key      TEXT,
	uploaded_by        TEXT NOT NULL REFERENCES users(id),
	uploaded_at        TIMESTAMPTZ NOT NULL,
	captured_at        TIMESTAMPTZ,
	file_size_bytes    BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS photos_group_uploaded_idx ON photos (group_id, uploaded_at DESC);
CREATE TABLE IF NOT EXISTS photo_likes (
	photo_id   TEXT NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (photo_id, user_id)
);
CREATE TABLE IF NOT EXISTS feedback (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	message     TEXT NOT NULL,
	category    TEXT,
	app_version TEXT,
	created_at  TIMESTAMPTZ NOT NULL
);
`

const groupColumns = `
	g.id, g.name, g.description, g.join_code, g.image_key, g.created_at,
	(SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id)
`

var _ Store = (*PostgresStore)(nil)

// PostgresStore handles database operations on PostgreSQL
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres-backed store
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates missing tables
func (r *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateUser creates a new user
func (r *PostgresStore) CreateUser(ctx context.Context, user UserRecord) error {
	query := `
		INSERT INTO users (id, email, password_hash, username, avatar_url, created_at)
		VALUES ($1, lower($2), $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Username, user.AvatarURL, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user and password hash by email
func (r *PostgresStore) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	query := `
		SELECT id, email, password_hash, username, avatar_url, created_at
		FROM users
		WHERE email = lower($1)
	`
	var user UserRecord
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Username, &user.AvatarURL, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrNotFound
		}
		return UserRecord{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *PostgresStore) GetUserByID(ctx context.Context, id string) (models.User, error) {
	query := `
		SELECT id, email, username, avatar_url, created_at
		FROM users
		WHERE id = $1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Username, &user.AvatarURL, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateUserProfile sets the non-nil profile fields
func (r *PostgresStore) UpdateUserProfile(ctx context.Context, id string, username, avatarURL *string) (models.User, error) {
	query := `
		UPDATE users
		SET username = COALESCE($2, username), avatar_url = COALESCE($3, avatar_url)
		WHERE id = $1
		RETURNING id, email, username, avatar_url, created_at
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, id, username, avatarURL).Scan(
		&user.ID, &user.Email, &user.Username, &user.AvatarURL, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// CreateGroup creates a group and adds its owner as the first member
func (r *PostgresStore) CreateGroup(ctx context.Context, group models.Group, ownerID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO groups (id, name, description, join_code, image_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, group.ID, group.Name, group.Description, group.JoinCode, group.ImagePath, group.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create group: %w", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`, group.ID, ownerID); err != nil {
		return fmt.Errorf("failed to add group owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID
func (r *PostgresStore) GetGroup(ctx context.Context, id string) (models.Group, error) {
	return r.queryGroup(ctx, `SELECT `+groupColumns+` FROM groups g WHERE g.id = $1`, id)
}

// GetGroupByJoinCode retrieves a group by its join code
func (r *PostgresStore) GetGroupByJoinCode(ctx context.Context, code string) (models.Group, error) {
	return r.queryGroup(ctx, `SELECT `+groupColumns+` FROM groups g WHERE g.join_code = $1`, code)
}

// JoinCodeExists checks if a join code is taken
func (r *PostgresStore) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM groups WHERE join_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check join code existence: %w", err)
	}
	return exists, nil
}

// ListGroupsByUser retrieves the groups a user belongs to
func (r *PostgresStore) ListGroupsByUser(ctx context.Context, userID string) ([]models.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1
		ORDER BY g.created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := make([]models.Group, 0)
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	return groups, nil
}

// AddMember adds a user to a group; adding an existing member is a no-op
func (r *PostgresStore) AddMember(ctx context.Context, groupID, userID string) error {
	query := `
		INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, groupID, userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// IsMember checks group membership
func (r *PostgresStore) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// ListMembers retrieves the user ids of a group
func (r *PostgresStore) ListMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM group_members WHERE group_id = $1 ORDER BY joined_at`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	members, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan members: %w", err)
	}
	return members, nil
}

// CreatePhoto creates a new photo
func (r *PostgresStore) CreatePhoto(ctx context.Context, photo PhotoRecord) error {
	query := `
		INSERT INTO photos (id, group_id, original_image_key, thumbnail_key, uploaded_by, uploaded_at, captured_at, file_size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		photo.ID, photo.GroupID, photo.OriginalImageKey, photo.ThumbnailKey,
		photo.UploadedBy, photo.UploadedAt, photo.CapturedAt, photo.FileSizeBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// ListPhotos retrieves a group's photos, newest first, with like data for the viewer
func (r *PostgresStore) ListPhotos(ctx context.Context, groupID, viewerID string) ([]models.Photo, error) {
	query := `
		SELECT p.id, p.group_id, p.original_image_key, p.thumbnail_key, p.uploaded_by,
			u.username, p.uploaded_at, p.captured_at, p.file_size_bytes,
			(SELECT COUNT(*) FROM photo_likes l WHERE l.photo_id = p.id),
			EXISTS(SELECT 1 FROM photo_likes l WHERE l.photo_id = p.id AND l.user_id = $2)
		FROM photos p
		LEFT JOIN users u ON u.id = p.uploaded_by
		WHERE p.group_id = $1
		ORDER BY p.uploaded_at DESC
	`
	rows, err := r.db.Query(ctx, query, groupID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get photos: %w", err)
	}
	defer rows.Close()

	photos := make([]models.Photo, 0)
	for rows.Next() {
		var rec PhotoRecord
		var username *string
		var likeCount int64
		var likedByMe bool
		err := rows.Scan(
			&rec.ID, &rec.GroupID, &rec.OriginalImageKey, &rec.ThumbnailKey, &rec.UploadedBy,
			&username, &rec.UploadedAt, &rec.CapturedAt, &rec.FileSizeBytes,
			&likeCount, &likedByMe,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photo := toPhoto(rec)
		photo.UploadedByUsername = username
		photo.LikeCount = int(likeCount)
		photo.LikedByMe = likedByMe
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}
	return photos, nil
}

// SetLike records or removes a user's like and returns the new like count
func (r *PostgresStore) SetLike(ctx context.Context, groupID, photoID, userID string, liked bool) (int, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM photos WHERE id = $1 AND group_id = $2)`, photoID, groupID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check photo: %w", err)
	}
	if !exists {
		return 0, ErrNotFound
	}

	if liked {
		_, err = r.db.Exec(ctx, `
			INSERT INTO photo_likes (photo_id, user_id) VALUES ($1, $2)
			ON CONFLICT (photo_id, user_id) DO NOTHING
		`, photoID, userID)
	} else {
		_, err = r.db.Exec(ctx, `DELETE FROM photo_likes WHERE photo_id = $1 AND user_id = $2`, photoID, userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update like: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM photo_likes WHERE photo_id = $1`, photoID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return int(count), nil
}

// CreateFeedback stores a feedback message
func (r *PostgresStore) CreateFeedback(ctx context.Context, feedback Feedback) error {
	query := `
		INSERT INTO feedback (id, user_id, message, category, app_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		feedback.ID, feedback.UserID, feedback.Message, feedback.Category, feedback.AppVersion, feedback.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

func (r *PostgresStore) queryGroup(ctx context.Context, query string, arg string) (models.Group, error) {
	group, err := scanGroup(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Group{}, ErrNotFound
		}
		return models.Group{}, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

func scanGroup(row pgx.Row) (models.Group, error) {
	var group models.Group
	var memberCount int64
	err := row.Scan(
		&group.ID, &group.Name, &group.Description, &group.JoinCode,
		&group.ImagePath, &group.CreatedAt, &memberCount,
	)
	group.MemberCount = int(memberCount)
	return group, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
