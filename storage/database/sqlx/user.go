package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

// orderableColumns whitelists the fields callers may order by.
var orderableColumns = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"is_active":  "is_active",
	"created_at": "created_at",
	"last_login": "last_login",
}

type dbUser struct {
	ID                  string         `db:"id"`
	Name                string         `db:"name"`
	Username            sql.NullString `db:"username"`
	Email               sql.NullString `db:"email"`
	IsActive            sql.NullBool   `db:"is_active"`
	Roles               pq.StringArray `db:"roles"`
	Batches             pq.StringArray `db:"batches"`
	AssignedTeacherID   sql.NullString `db:"assigned_teacher_id"`
	AssignedTeacherName string         `db:"assigned_teacher_name"`
	PasswordHash        []byte         `db:"password_hash"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
	LastLogin           sql.NullTime   `db:"last_login"`
}

func (u dbUser) toCore() user.User {
	usr := user.User{
		ID:                  u.ID,
		Name:                u.Name,
		Username:            u.Username.String,
		Email:               u.Email.String,
		Roles:               u.Roles,
		Batches:             u.Batches,
		AssignedTeacherID:   u.AssignedTeacherID.String,
		AssignedTeacherName: u.AssignedTeacherName,
		PasswordHash:        u.PasswordHash,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
	if u.IsActive.Valid {
		usr.SetActive(u.IsActive.Bool)
	}
	if u.LastLogin.Valid {
		usr.LastLogin = u.LastLogin.Time
	}
	return usr
}

func nullStr(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	args := []interface{}{nullStr(username), nullStr(email)}
	q := `SELECT EXISTS(SELECT 1 FROM "user" WHERE (username = $1 OR email = $2)`
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q += ` AND id <> ALL($3)`
		args = append(args, pq.Array(ids))
	}
	q += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrUserExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()

	q := `
INSERT INTO "user" (id, name, username, email, is_active, roles, batches, assigned_teacher_id, assigned_teacher_name, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Name, nullStr(usr.Username), nullStr(usr.Email), usr.IsActive,
		pq.Array(usr.Roles), pq.Array(usr.Batches), nullStr(usr.AssignedTeacherID), usr.AssignedTeacherName,
		usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	if filter.IsZero() {
		return user.User{}, user.ErrNotFound
	}

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ID != "" {
		conds = append(conds, "id = "+arg(filter.ID))
	}
	if filter.Username != "" {
		conds = append(conds, "username = "+arg(filter.Username))
	}
	if filter.Email != "" {
		conds = append(conds, "email = "+arg(filter.Email))
	}
	if len(filter.UsernameOrEmail) > 0 {
		p := arg(pq.Array(filter.UsernameOrEmail))
		conds = append(conds, fmt.Sprintf("(username = ANY(%s) OR email = ANY(%s))", p, p))
	}

	q := `SELECT * FROM "user" WHERE ` + strings.Join(conds, " OR ") + ` LIMIT 1`
	var u dbUser
	if err := repo.db.GetContext(ctx, &u, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, "getting user")
	}
	return u.toCore(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	conds := []string{"TRUE"}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(name ILIKE %s OR username ILIKE %s OR email ILIKE %s)", p, p, p))
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleConds := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				p := arg(role + "%")
				roleConds = append(roleConds, fmt.Sprintf("EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE %s)", p))
			}
			conds = append(conds, "("+strings.Join(roleConds, " OR ")+")")
		}
		if filter.Batch != "" {
			conds = append(conds, fmt.Sprintf("%s = ANY(batches)", arg(filter.Batch)))
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}

	orderBy := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := orderableColumns[ord.Field]; ok {
			orderBy = append(orderBy, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(orderBy) == 0 {
		orderBy = append(orderBy, "created_at DESC")
	}

	q := `SELECT * FROM "user" WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY ` + strings.Join(orderBy, ", ")
	var rows []dbUser
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, u := range rows {
		users = append(users, u.toCore())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	sets := make([]string, 0, 10)
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if usr.Name != "" {
		sets = append(sets, "name = "+arg(usr.Name))
	}
	if usr.Username != "" {
		sets = append(sets, "username = "+arg(usr.Username))
	}
	if usr.Email != "" {
		sets = append(sets, "email = "+arg(usr.Email))
	}
	if usr.Roles != nil {
		sets = append(sets, "roles = "+arg(pq.Array(usr.Roles)))
	}
	if usr.Batches != nil {
		sets = append(sets, "batches = "+arg(pq.Array(usr.Batches)))
	}
	if usr.AssignedTeacherID != "" {
		sets = append(sets,
			"assigned_teacher_id = "+arg(usr.AssignedTeacherID),
			"assigned_teacher_name = "+arg(usr.AssignedTeacherName),
		)
	}
	if usr.PasswordHash != nil {
		sets = append(sets, "password_hash = "+arg(usr.PasswordHash))
	}
	if isActive != nil {
		sets = append(sets, "is_active = "+arg(*isActive))
	}
	if !usr.LastLogin.IsZero() {
		sets = append(sets, "last_login = "+arg(usr.LastLogin.UTC()))
	}
	if !usr.UpdatedAt.IsZero() {
		sets = append(sets, "updated_at = "+arg(usr.UpdatedAt.UTC()))
	}
	if len(sets) == 0 {
		return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	}

	q := `UPDATE "user" SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + arg(usr.ID) + ` RETURNING *`
	var u dbUser
	if err := repo.db.GetContext(ctx, &u, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, "updating user")
	}
	return u.toCore(), nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		now := time.Now().UTC()
		if usr.CreatedAt.IsZero() {
			usr.CreatedAt = now
		}
		if usr.UpdatedAt.IsZero() {
			usr.UpdatedAt = now
		}
		return repo.CreateUser(ctx, usr)
	}
	usr.UpdatedAt = time.Now().UTC()
	return repo.UpdateUser(ctx, usr, usr.IsActive)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
