package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const userColumns = "id, name, discogs_username, created_at"

func scanUser(row scanner) (*User, error) {
	var (
		user       User
		createdRaw string
	)
	if err := row.Scan(&user.ID, &user.Name, &user.DiscogsUsername, &createdRaw); err != nil {
		return nil, err
	}
	created, err := parseTimeString(createdRaw)
	if err != nil {
		return nil, err
	}
	user.CreatedAt = created
	return &user, nil
}

// CreateUser registers a local user linked to a marketplace account.
func (c *conn) CreateUser(ctx context.Context, name, discogsUsername string) (*User, error) {
	name = strings.TrimSpace(name)
	discogsUsername = strings.TrimSpace(discogsUsername)
	if name == "" || discogsUsername == "" {
		return nil, errors.New("user name and discogs username are required")
	}
	now := time.Now().UTC()
	res, err := c.q.ExecContext(ctx,
		`INSERT INTO users (name, discogs_username, created_at) VALUES (?, ?, ?)`,
		name, discogsUsername, formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := insertID(res, "user")
	if err != nil {
		return nil, err
	}
	return &User{ID: id, Name: name, DiscogsUsername: discogsUsername, CreatedAt: now}, nil
}

// GetUser fetches a user by id; it returns nil when absent.
func (c *conn) GetUser(ctx context.Context, id int64) (*User, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UserByName fetches a user by local name; it returns nil when absent.
func (c *conn) UserByName(ctx context.Context, name string) (*User, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE name = ?`, strings.TrimSpace(name))
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user by name: %w", err)
	}
	return user, nil
}

// ListUsers returns all users ordered by id.
func (c *conn) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := c.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}
