package sqlstorage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/Neamul01/breeze-time-server/internal/storage"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // migrate driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

const (
	dbErrUniqueViolation = "23505"
	dbErrInvalidText     = "22P02"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Migrate  bool
}

type Storage struct {
	host     string
	port     int
	database string
	username string
	password string
	migrate  bool
	db       *sqlx.DB
}

type eventRow struct {
	ID          string       `db:"id"`
	Name        string       `db:"event_name"`
	Type        string       `db:"event_type"`
	Description string       `db:"description"`
	DateTime    sql.NullTime `db:"date_time"`
	HostID      string       `db:"host_id"`
}

func (r eventRow) toEvent() storage.Event {
	e := storage.Event{
		ID:          r.ID,
		Name:        r.Name,
		Type:        r.Type,
		Description: r.Description,
		HostID:      r.HostID,
	}
	if r.DateTime.Valid {
		e.DateTime = r.DateTime.Time
	}
	return e
}

type packageRow struct {
	ID       string         `db:"id"`
	Name     string         `db:"name"`
	Tier     string         `db:"tier"`
	Price    int64          `db:"price"`
	Features pq.StringArray `db:"features"`
}

const (
	eventColumns        = "id, event_name, event_type, description, date_time, host_id"
	userColumns         = "id, user_name AS name, email, role, photo, phone"
	professionalColumns = "id, name, email, specialty, bio, hourly_rate AS hourlyrate"
)

func New(config Config) *Storage {
	return &Storage{
		host:     config.Host,
		port:     config.Port,
		database: config.Database,
		username: config.Username,
		password: config.Password,
		migrate:  config.Migrate,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db

	if s.migrate {
		if err := s.Migrate(); err != nil {
			return err
		}
	}
	return nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, s.dsn())
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	version, dirty, _ := m.Version()
	log.WithField("version", version).WithField("dirty", dirty).Info("database migrations applied")
	return nil
}

func (s *Storage) dsn() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.username, s.password),
		Host:     net.JoinHostPort(s.host, strconv.Itoa(s.port)),
		Path:     s.database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) AddEvent(ctx context.Context, e *storage.Event) error {
	return s.db.GetContext(
		ctx,
		&e.ID,
		"INSERT INTO events(event_name, event_type, description, date_time, host_id) "+
			"VALUES($1, $2, $3, $4, $5) RETURNING id",
		e.Name, e.Type, e.Description, nullTime(e), e.HostID)
}

func (s *Storage) UpdateEvent(ctx context.Context, id string, e storage.Event) error {
	var found bool
	err := s.db.GetContext(
		ctx,
		&found,
		"UPDATE events SET event_name=$2, event_type=$3, description=$4, date_time=$5, host_id=$6 "+
			"WHERE id=$1 RETURNING TRUE",
		id,
		e.Name,
		e.Type,
		e.Description,
		nullTime(&e),
		e.HostID,
	)
	if err != nil && !isMissing(err) {
		return fmt.Errorf("failed to update event with id %q: %w", id, err)
	}
	if err != nil || !found {
		return fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return nil
}

func (s *Storage) RemoveEvent(ctx context.Context, id string) error {
	var found bool
	err := s.db.GetContext(ctx, &found, "DELETE FROM events WHERE id=$1 RETURNING TRUE", id)
	if err != nil && !isMissing(err) {
		return fmt.Errorf("failed to remove event with id %q: %w", id, err)
	}
	if err != nil || !found {
		return fmt.Errorf("failed to remove event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return nil
}

func (s *Storage) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	var row eventRow
	err := s.db.GetContext(ctx, &row, "SELECT "+eventColumns+" FROM events WHERE id=$1", id)
	if isMissing(err) {
		return storage.Event{}, fmt.Errorf("failed to get event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	if err != nil {
		return storage.Event{}, err
	}
	return row.toEvent(), nil
}

func (s *Storage) ListEvents(ctx context.Context) ([]storage.Event, error) {
	return s.selectEvents(ctx, "SELECT "+eventColumns+" FROM events ORDER BY date_time NULLS LAST, id")
}

func (s *Storage) ListEventsByHost(ctx context.Context, hostID string) ([]storage.Event, error) {
	return s.selectEvents(
		ctx,
		"SELECT "+eventColumns+" FROM events WHERE host_id=$1 ORDER BY date_time NULLS LAST, id",
		hostID,
	)
}

func (s *Storage) selectEvents(ctx context.Context, query string, args ...interface{}) ([]storage.Event, error) {
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	events := make([]storage.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toEvent())
	}
	return events, nil
}

func (s *Storage) AddNotification(ctx context.Context, n *storage.Notification) error {
	err := s.db.QueryRowxContext(
		ctx,
		"INSERT INTO notifications(event_id, message, fire_at) VALUES($1, $2, $3) RETURNING id, created_at",
		n.EventID, n.Message, n.FireAt.UTC(),
	).Scan(&n.ID, &n.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("event %q at %s: %w", n.EventID, n.FireAt, storage.ErrDuplicateNotification)
	}
	return err
}

func (s *Storage) ListNotifications(ctx context.Context) ([]storage.Notification, error) {
	var out []storage.Notification
	err := s.db.SelectContext(
		ctx,
		&out,
		"SELECT id, event_id AS eventid, message, fire_at AS fireat, created_at AS createdat "+
			"FROM notifications ORDER BY created_at, id",
	)
	if out == nil {
		out = []storage.Notification{}
	}
	return out, err
}

func (s *Storage) AddUser(ctx context.Context, u *storage.User) error {
	if u.Role == "" {
		u.Role = storage.RoleUser
	}
	err := s.db.GetContext(
		ctx,
		&u.ID,
		"INSERT INTO users(user_name, email, role, photo, phone) VALUES($1, $2, $3, $4, $5) RETURNING id",
		u.Name, normalizeEmail(u.Email), u.Role, u.Photo, u.Phone,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("duplicate email %q: %w", u.Email, storage.ErrDuplicateUser)
	}
	return err
}

func (s *Storage) ListUsers(ctx context.Context) ([]storage.User, error) {
	var out []storage.User
	err := s.db.SelectContext(ctx, &out, "SELECT "+userColumns+" FROM users ORDER BY email")
	if out == nil {
		out = []storage.User{}
	}
	return out, err
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (storage.User, error) {
	var u storage.User
	err := s.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE email=$1", normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.User{}, fmt.Errorf("failed to get user %q: %w", email, storage.ErrNotFoundUser)
	}
	return u, err
}

func (s *Storage) UpsertUser(ctx context.Context, email string, patch storage.UserPatch) (storage.User, error) {
	var u storage.User
	err := s.db.GetContext(
		ctx,
		&u,
		"INSERT INTO users(email, user_name, photo, phone) "+
			"VALUES($1, COALESCE($2, ''), COALESCE($3, ''), COALESCE($4, '')) "+
			"ON CONFLICT (email) DO UPDATE SET "+
			"user_name=COALESCE($2, users.user_name), photo=COALESCE($3, users.photo), phone=COALESCE($4, users.phone) "+
			"RETURNING "+userColumns,
		normalizeEmail(email), patch.Name, patch.Photo, patch.Phone,
	)
	return u, err
}

func (s *Storage) SetUserRole(ctx context.Context, email, role string) error {
	var found bool
	err := s.db.GetContext(ctx, &found, "UPDATE users SET role=$2 WHERE email=$1 RETURNING TRUE", normalizeEmail(email), role)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to set role of %q: %w", email, err)
	}
	if err != nil || !found {
		return fmt.Errorf("failed to set role of %q: %w", email, storage.ErrNotFoundUser)
	}
	return nil
}

func (s *Storage) AddProfessional(ctx context.Context, p *storage.Professional) error {
	return s.db.GetContext(
		ctx,
		&p.ID,
		"INSERT INTO professionals(name, email, specialty, bio, hourly_rate) VALUES($1, $2, $3, $4, $5) RETURNING id",
		p.Name, p.Email, p.Specialty, p.Bio, p.HourlyRate,
	)
}

func (s *Storage) GetProfessional(ctx context.Context, id string) (storage.Professional, error) {
	var p storage.Professional
	err := s.db.GetContext(
		ctx,
		&p,
		"SELECT "+professionalColumns+" FROM professionals WHERE id=$1",
		id,
	)
	if isMissing(err) {
		return storage.Professional{}, fmt.Errorf("professional %q: %w", id, storage.ErrNotFound)
	}
	return p, err
}

func (s *Storage) ListProfessionals(ctx context.Context) ([]storage.Professional, error) {
	var out []storage.Professional
	err := s.db.SelectContext(
		ctx,
		&out,
		"SELECT "+professionalColumns+" FROM professionals ORDER BY name, id",
	)
	if out == nil {
		out = []storage.Professional{}
	}
	return out, err
}

func (s *Storage) AddPackage(ctx context.Context, p *storage.Package) error {
	return s.db.GetContext(
		ctx,
		&p.ID,
		"INSERT INTO packages(name, tier, price, features) VALUES($1, $2, $3, $4) RETURNING id",
		p.Name, p.Tier, p.Price, pq.StringArray(p.Features),
	)
}

func (s *Storage) ListPackages(ctx context.Context) ([]storage.Package, error) {
	var rows []packageRow
	if err := s.db.SelectContext(
		ctx,
		&rows,
		"SELECT id, name, tier, price, features FROM packages ORDER BY position",
	); err != nil {
		return nil, err
	}
	out := make([]storage.Package, 0, len(rows))
	for _, r := range rows {
		out = append(out, storage.Package{
			ID:       r.ID,
			Name:     r.Name,
			Tier:     r.Tier,
			Price:    r.Price,
			Features: []string(r.Features),
		})
	}
	return out, nil
}

func nullTime(e *storage.Event) sql.NullTime {
	if !e.HasStartTime() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: e.DateTime.UTC(), Valid: true}
}

// Ids are uuids, so a malformed id is reported by postgres as invalid text.
func isMissing(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == dbErrInvalidText
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == dbErrUniqueViolation
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
