// Package sqlstore persists gallery and profile state with sqlx over SQLite
// (modernc.org/sqlite) or PostgreSQL (lib/pq).
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/yxshee/marfa-gallery/internal/gallery"
	"github.com/yxshee/marfa-gallery/internal/profiles"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// timeLayout is fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Store implements gallery.Store and profiles.Store.
type Store struct {
	db *sqlx.DB
}

var (
	_ gallery.Store  = (*Store)(nil)
	_ profiles.Store = (*Store)(nil)
)

// Open connects to the database and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// A single connection keeps :memory: databases shared and serializes
		// writers.
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("configuring sqlite: %w", err)
			}
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", driver, err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating: %w", err)
	}
	return New(db), nil
}

// New wraps an already migrated connection.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const artColumns = `ap.id, ap.identification_word, ap.title, ap.description, ap.ipfs_metadata_url,
	ap.ipfs_image_url, ap.metadata_json, ap.is_minted, ap.minted_at, ap.minted_by, ap.token_id,
	ap.created_at, up.name AS minter_name`

const artFrom = `FROM art_pieces ap LEFT JOIN user_profiles up ON up.wallet_key = LOWER(ap.minted_by)`

type artRow struct {
	ID           int64          `db:"id"`
	Identifier   sql.NullString `db:"identification_word"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	MetadataURL  string         `db:"ipfs_metadata_url"`
	ImageURL     string         `db:"ipfs_image_url"`
	MetadataJSON sql.NullString `db:"metadata_json"`
	IsMinted     bool           `db:"is_minted"`
	MintedAt     sql.NullString `db:"minted_at"`
	MintedBy     sql.NullString `db:"minted_by"`
	TokenID      sql.NullInt64  `db:"token_id"`
	CreatedAt    string         `db:"created_at"`
	MinterName   sql.NullString `db:"minter_name"`
}

func (r artRow) toArtPiece() gallery.ArtPiece {
	piece := gallery.ArtPiece{
		ID:          r.ID,
		Identifier:  r.Identifier.String,
		Title:       r.Title,
		Description: r.Description,
		MetadataURL: r.MetadataURL,
		ImageURL:    r.ImageURL,
		IsMinted:    r.IsMinted,
		MintedBy:    nullableString(r.MintedBy),
		MinterName:  nullableString(r.MinterName),
		CreatedAt:   parseTime(r.CreatedAt),
	}
	if r.MetadataJSON.Valid && r.MetadataJSON.String != "" {
		piece.MetadataJSON = json.RawMessage(r.MetadataJSON.String)
	}
	if r.MintedAt.Valid {
		mintedAt := parseTime(r.MintedAt.String)
		piece.MintedAt = &mintedAt
	}
	if r.TokenID.Valid {
		tokenID := r.TokenID.Int64
		piece.TokenID = &tokenID
	}
	return piece
}

type execer interface {
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

func insertArtPiece(ctx context.Context, db execer, piece gallery.ArtPiece) (int64, error) {
	createdAt := piece.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var tokenID interface{}
	if piece.TokenID != nil {
		tokenID = *piece.TokenID
	}
	var mintedAt interface{}
	if piece.MintedAt != nil {
		mintedAt = formatTime(*piece.MintedAt)
	}

	var id int64
	err := db.QueryRowxContext(ctx, db.Rebind(`
		INSERT INTO art_pieces (
			identification_word, title, description, ipfs_metadata_url, ipfs_image_url,
			metadata_json, is_minted, minted_at, minted_by, token_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		nullIfEmpty(piece.Identifier),
		piece.Title,
		piece.Description,
		piece.MetadataURL,
		piece.ImageURL,
		nullIfEmpty(string(piece.MetadataJSON)),
		piece.IsMinted,
		mintedAt,
		stringOrNil(piece.MintedBy),
		tokenID,
		formatTime(createdAt),
	).Scan(&id)
	if err != nil {
		return 0, mapArtError(err)
	}
	return id, nil
}

func (s *Store) CreateArtPiece(ctx context.Context, piece gallery.ArtPiece) (gallery.ArtPiece, error) {
	id, err := insertArtPiece(ctx, s.db, piece)
	if err != nil {
		return gallery.ArtPiece{}, err
	}
	return s.artPieceWhere(ctx, "ap.id = ?", id)
}

func (s *Store) ArtPieceByIdentifier(ctx context.Context, identifier string) (gallery.ArtPiece, error) {
	return s.artPieceWhere(ctx, "ap.identification_word = ?", identifier)
}

func (s *Store) ArtPieceByMetadataURL(ctx context.Context, metadataURL string) (gallery.ArtPiece, error) {
	return s.artPieceWhere(ctx, "ap.ipfs_metadata_url = ?", metadataURL)
}

func (s *Store) artPieceWhere(ctx context.Context, condition string, arg interface{}) (gallery.ArtPiece, error) {
	var row artRow
	query := s.db.Rebind("SELECT " + artColumns + " " + artFrom + " WHERE " + condition)
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return gallery.ArtPiece{}, gallery.ErrArtPieceNotFound
		}
		return gallery.ArtPiece{}, err
	}
	return row.toArtPiece(), nil
}

func (s *Store) ListArtPieces(ctx context.Context, params gallery.ListParams) (gallery.ListResult, error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 6)
	if params.MintedOnly {
		conditions = append(conditions, "ap.is_minted = ?")
		args = append(args, true)
	}
	if query := strings.ToLower(strings.TrimSpace(params.Search)); query != "" {
		pattern := "%" + query + "%"
		conditions = append(conditions,
			"(LOWER(ap.title) LIKE ? OR LOWER(ap.description) LIKE ? OR LOWER(COALESCE(ap.identification_word, '')) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, s.db.Rebind("SELECT COUNT(*) FROM art_pieces ap"+where), args...); err != nil {
		return gallery.ListResult{}, err
	}

	order := " ORDER BY ap.created_at DESC, ap.id DESC"
	if params.Random {
		order = " ORDER BY RANDOM()"
	}
	query := s.db.Rebind("SELECT " + artColumns + " " + artFrom + where + order + " LIMIT ? OFFSET ?")
	rows := []artRow{}
	if err := s.db.SelectContext(ctx, &rows, query, append(args, params.Limit, params.Offset)...); err != nil {
		return gallery.ListResult{}, err
	}

	items := make([]gallery.ArtPiece, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toArtPiece())
	}
	return gallery.ListResult{Items: items, Total: total}, nil
}

func (s *Store) ListRecentUnminted(ctx context.Context, limit int) ([]gallery.ArtPiece, error) {
	rows := []artRow{}
	query := s.db.Rebind("SELECT " + artColumns + " " + artFrom +
		" WHERE ap.is_minted = ? ORDER BY ap.created_at DESC, ap.id DESC LIMIT ?")
	if err := s.db.SelectContext(ctx, &rows, query, false, limit); err != nil {
		return nil, err
	}
	items := make([]gallery.ArtPiece, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toArtPiece())
	}
	return items, nil
}

// MarkMinted flips is_minted in a single conditional UPDATE so two
// concurrent mints of one piece cannot both succeed.
func (s *Store) MarkMinted(ctx context.Context, identifier string, record gallery.MintRecord) (gallery.ArtPiece, error) {
	var tokenID interface{}
	if record.TokenID != nil {
		tokenID = *record.TokenID
	}
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE art_pieces
		SET is_minted = ?, minted_at = ?, minted_by = ?, token_id = ?
		WHERE identification_word = ? AND is_minted = ?`),
		true, formatTime(record.MintedAt), record.WalletAddress, tokenID, identifier, false,
	)
	if err != nil {
		return gallery.ArtPiece{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return gallery.ArtPiece{}, err
	}
	if affected == 0 {
		if _, err := s.ArtPieceByIdentifier(ctx, identifier); err != nil {
			return gallery.ArtPiece{}, err
		}
		return gallery.ArtPiece{}, gallery.ErrAlreadyMinted
	}
	return s.ArtPieceByIdentifier(ctx, identifier)
}

func (s *Store) ListIdentifiers(ctx context.Context) ([]gallery.IdentifierRow, error) {
	var rows []struct {
		ID         int64          `db:"id"`
		Identifier sql.NullString `db:"identification_word"`
	}
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, identification_word FROM art_pieces ORDER BY id"); err != nil {
		return nil, err
	}
	out := make([]gallery.IdentifierRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, gallery.IdentifierRow{ID: row.ID, Identifier: row.Identifier.String})
	}
	return out, nil
}

func (s *Store) AssignIdentifier(ctx context.Context, id int64, identifier string) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE art_pieces SET identification_word = ? WHERE id = ?"), identifier, id)
	if err != nil {
		return mapArtError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return gallery.ErrArtPieceNotFound
	}
	return nil
}

func (s *Store) TopCollectors(ctx context.Context, limit int) ([]gallery.Collector, error) {
	var rows []struct {
		WalletAddress string         `db:"wallet_address"`
		Name          sql.NullString `db:"name"`
		MintedCount   int            `db:"minted_count"`
		FirstMintAt   string         `db:"first_mint_at"`
		LastMintAt    string         `db:"last_mint_at"`
	}
	query := s.db.Rebind(`
		SELECT ap.minted_by AS wallet_address,
			MAX(up.name) AS name,
			COUNT(*) AS minted_count,
			MIN(ap.minted_at) AS first_mint_at,
			MAX(ap.minted_at) AS last_mint_at
		FROM art_pieces ap
		LEFT JOIN user_profiles up ON up.wallet_key = LOWER(ap.minted_by)
		WHERE ap.is_minted = ? AND ap.minted_by IS NOT NULL AND ap.minted_at IS NOT NULL
		GROUP BY ap.minted_by
		ORDER BY minted_count DESC, first_mint_at ASC, wallet_address ASC
		LIMIT ?`)
	if err := s.db.SelectContext(ctx, &rows, query, true, limit); err != nil {
		return nil, err
	}

	collectors := make([]gallery.Collector, 0, len(rows))
	for _, row := range rows {
		collectors = append(collectors, gallery.Collector{
			WalletAddress: row.WalletAddress,
			Name:          nullableString(row.Name),
			MintedCount:   row.MintedCount,
			FirstMintAt:   parseTime(row.FirstMintAt),
			LastMintAt:    parseTime(row.LastMintAt),
		})
	}
	return collectors, nil
}

func (s *Store) ReplaceArtPieces(ctx context.Context, pieces []gallery.ArtPiece) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM art_pieces"); err != nil {
		return err
	}
	for _, piece := range pieces {
		if _, err := insertArtPiece(ctx, tx, piece); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type profileRow struct {
	ID              int64          `db:"id"`
	WalletAddress   string         `db:"wallet_address"`
	Name            string         `db:"name"`
	XHandle         sql.NullString `db:"x_handle"`
	FarcasterHandle sql.NullString `db:"farcaster_handle"`
	InstagramHandle sql.NullString `db:"instagram_handle"`
	IsAdmin         bool           `db:"is_admin"`
	CreatedAt       string         `db:"created_at"`
	UpdatedAt       string         `db:"updated_at"`
}

func (r profileRow) toProfile() profiles.Profile {
	return profiles.Profile{
		ID:              r.ID,
		WalletAddress:   r.WalletAddress,
		Name:            r.Name,
		XHandle:         nullableString(r.XHandle),
		FarcasterHandle: nullableString(r.FarcasterHandle),
		InstagramHandle: nullableString(r.InstagramHandle),
		IsAdmin:         r.IsAdmin,
		CreatedAt:       parseTime(r.CreatedAt),
		UpdatedAt:       parseTime(r.UpdatedAt),
	}
}

const profileColumns = `id, wallet_address, name, x_handle, farcaster_handle, instagram_handle, is_admin, created_at, updated_at`

func (s *Store) ProfileByWallet(ctx context.Context, walletAddress string) (profiles.Profile, error) {
	var row profileRow
	query := s.db.Rebind("SELECT " + profileColumns + " FROM user_profiles WHERE wallet_key = ?")
	if err := s.db.GetContext(ctx, &row, query, walletKey(walletAddress)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return profiles.Profile{}, profiles.ErrProfileNotFound
		}
		return profiles.Profile{}, err
	}
	return row.toProfile(), nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]profiles.Profile, error) {
	rows := []profileRow{}
	query := "SELECT " + profileColumns + " FROM user_profiles ORDER BY created_at DESC, id DESC"
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	items := make([]profiles.Profile, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toProfile())
	}
	return items, nil
}

// UpsertProfile inserts or updates by wallet. is_admin and created_at are
// left untouched on update.
func (s *Store) UpsertProfile(ctx context.Context, profile profiles.Profile) (profiles.Profile, error) {
	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := profile.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	var row profileRow
	query := s.db.Rebind(`
		INSERT INTO user_profiles (
			wallet_key, wallet_address, name, x_handle, farcaster_handle, instagram_handle,
			is_admin, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (wallet_key) DO UPDATE SET
			wallet_address = excluded.wallet_address,
			name = excluded.name,
			x_handle = excluded.x_handle,
			farcaster_handle = excluded.farcaster_handle,
			instagram_handle = excluded.instagram_handle,
			updated_at = excluded.updated_at
		RETURNING ` + profileColumns)
	err := s.db.GetContext(ctx, &row, query,
		walletKey(profile.WalletAddress),
		profile.WalletAddress,
		profile.Name,
		stringOrNil(profile.XHandle),
		stringOrNil(profile.FarcasterHandle),
		stringOrNil(profile.InstagramHandle),
		false,
		formatTime(createdAt),
		formatTime(updatedAt),
	)
	if err != nil {
		return profiles.Profile{}, err
	}
	return row.toProfile(), nil
}

// SetAdmin flips the stored admin flag of an existing profile, which
// sessions honor alongside the configured admin wallets.
func (s *Store) SetAdmin(ctx context.Context, walletAddress string, isAdmin bool) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE user_profiles SET is_admin = ? WHERE wallet_key = ?"), isAdmin, walletKey(walletAddress))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return profiles.ErrProfileNotFound
	}
	return nil
}

// mapArtError turns unique violations on art_pieces into gallery errors.
func mapArtError(err error) error {
	switch {
	case isUniqueViolation(err, "identification_word"):
		return gallery.ErrDuplicateIdentifier
	case isUniqueViolation(err, "ipfs_metadata_url"):
		return gallery.ErrDuplicateArtwork
	default:
		return err
	}
}

func isUniqueViolation(err error, column string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, column)
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, "art_pieces."+column)
}

func walletKey(walletAddress string) string {
	return strings.ToLower(strings.TrimSpace(walletAddress))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t.UTC()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func stringOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	value := ns.String
	return &value
}
