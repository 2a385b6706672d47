package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yxshee/marfa-gallery/internal/platform/ipfs"
)

var (
	ErrArtPieceNotFound      = errors.New("art piece not found")
	ErrInvalidIdentifier     = errors.New("invalid art piece identifier")
	ErrDuplicateIdentifier   = errors.New("identifier already assigned")
	ErrDuplicateArtwork      = errors.New("art piece with this metadata url already exists")
	ErrAlreadyMinted         = errors.New("art piece is already minted")
	ErrMissingMetadataURL    = errors.New("ipfs metadata url is required")
	ErrInvalidMetadataURL    = errors.New("invalid ipfs metadata url")
	ErrMetadataUnavailable   = errors.New("metadata could not be fetched")
	ErrMissingMetadataFields = errors.New("metadata is missing required fields")
	ErrInvalidWallet         = errors.New("invalid wallet address")
	ErrInvalidTransaction    = errors.New("invalid transaction hash")
	ErrIdentifierContention  = errors.New("could not reserve a unique identifier")
)

// ArtPiece is the gallery aggregate. ID is the internal row key; Identifier
// is the public two-word handle used in URLs.
type ArtPiece struct {
	ID           int64           `json:"id"`
	Identifier   string          `json:"identification_word"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	MetadataURL  string          `json:"ipfs_metadata_url"`
	ImageURL     string          `json:"ipfs_image_url"`
	MetadataJSON json.RawMessage `json:"metadata,omitempty"`
	Traits       []ipfs.Trait    `json:"traits"`
	IsMinted     bool            `json:"is_minted"`
	MintedAt     *time.Time      `json:"minted_at"`
	MintedBy     *string         `json:"minted_by"`
	TokenID      *int64          `json:"token_id"`
	MinterName   *string         `json:"minter_name"`
	CreatedAt    time.Time       `json:"created_at"`
}

// IdentifierRow is the minimal projection used to maintain identifiers.
type IdentifierRow struct {
	ID         int64
	Identifier string
}

type ListParams struct {
	Limit      int
	Offset     int
	MintedOnly bool
	Search     string
	Random     bool
}

type ListResult struct {
	Items   []ArtPiece
	Total   int
	Limit   int
	Offset  int
	HasMore bool
}

// MintRecord is what storage persists when a piece is minted.
type MintRecord struct {
	WalletAddress string
	TokenID       *int64
	MintedAt      time.Time
}

// Collector aggregates the mints of one wallet.
type Collector struct {
	WalletAddress string    `json:"wallet_address"`
	Name          *string   `json:"name"`
	MintedCount   int       `json:"minted_count"`
	FirstMintAt   time.Time `json:"first_mint_date"`
	LastMintAt    time.Time `json:"last_mint_date"`
}

// Store persists art pieces. Implementations must enforce uniqueness of
// non-empty identifiers and of metadata URLs, reporting violations as
// ErrDuplicateIdentifier and ErrDuplicateArtwork.
type Store interface {
	CreateArtPiece(ctx context.Context, piece ArtPiece) (ArtPiece, error)
	ArtPieceByIdentifier(ctx context.Context, identifier string) (ArtPiece, error)
	ArtPieceByMetadataURL(ctx context.Context, metadataURL string) (ArtPiece, error)
	ListArtPieces(ctx context.Context, params ListParams) (ListResult, error)
	ListRecentUnminted(ctx context.Context, limit int) ([]ArtPiece, error)
	MarkMinted(ctx context.Context, identifier string, record MintRecord) (ArtPiece, error)
	ListIdentifiers(ctx context.Context) ([]IdentifierRow, error)
	AssignIdentifier(ctx context.Context, id int64, identifier string) error
	TopCollectors(ctx context.Context, limit int) ([]Collector, error)
	ReplaceArtPieces(ctx context.Context, pieces []ArtPiece) error
}

// ConflictError carries the piece that blocked a submission.
type ConflictError struct {
	Err      error
	Existing ArtPiece
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v (existing id %d)", e.Err, e.Existing.ID)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// MissingFieldsError lists the fields a metadata document did provide.
type MissingFieldsError struct {
	Received []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%v: name and image are required, received %v", ErrMissingMetadataFields, e.Received)
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrMissingMetadataFields
}
