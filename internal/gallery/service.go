package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yxshee/marfa-gallery/internal/platform/identifier"
	"github.com/yxshee/marfa-gallery/internal/platform/ipfs"
	"github.com/yxshee/marfa-gallery/internal/platform/metrics"
	"github.com/yxshee/marfa-gallery/internal/platform/wallet"
)

const (
	defaultListLimit      = 50
	maxListLimit          = 100
	defaultRecentLimit    = 6
	defaultTopCollectors  = 7
	maxIdentifierAttempts = 5
)

// MetadataFetcher resolves and downloads art metadata.
type MetadataFetcher interface {
	Fetch(ctx context.Context, metadataURL string) (ipfs.Metadata, error)
	GatewayURL(raw string) string
}

type Config struct {
	Store         Store
	Identifiers   *identifier.Generator
	Fetcher       MetadataFetcher
	Logger        logrus.FieldLogger
	ExplorerTxURL string
	Now           func() time.Time
}

// Service implements art submission, browsing, minting and identifier
// maintenance on top of a Store.
type Service struct {
	store         Store
	ids           *identifier.Generator
	fetcher       MetadataFetcher
	log           logrus.FieldLogger
	explorerTxURL string
	now           func() time.Time
}

func NewService(cfg Config) *Service {
	s := &Service{
		store:         cfg.Store,
		ids:           cfg.Identifiers,
		fetcher:       cfg.Fetcher,
		log:           cfg.Logger,
		explorerTxURL: cfg.ExplorerTxURL,
		now:           cfg.Now,
	}
	if s.ids == nil {
		s.ids = identifier.NewDefaultGenerator()
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	s.log = s.log.WithField("component", "gallery")
	return s
}

// ValidIdentifier reports whether candidate is a well-formed two-word
// identifier for this gallery's vocabulary.
func (s *Service) ValidIdentifier(candidate string) bool {
	return s.ids.IsValid(candidate)
}

// Capacity is the number of identifiers the vocabulary can express.
func (s *Service) Capacity() int {
	return s.ids.Capacity()
}

// Vocabulary reports the size of each word list.
func (s *Service) Vocabulary() (adjectives, nouns int) {
	return len(s.ids.Adjectives()), len(s.ids.Nouns())
}

// SampleIdentifier draws an identifier without reserving it.
func (s *Service) SampleIdentifier() string {
	return s.ids.Generate()
}

type SubmitInput struct {
	MetadataURL        string
	IdentificationWord string
}

// Submit registers a new art piece from its IPFS metadata document. A
// caller-supplied identifier (from the input or the metadata) must be valid
// and unused; otherwise one is generated.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (ArtPiece, error) {
	metadataURL := strings.TrimSpace(input.MetadataURL)
	if metadataURL == "" {
		return ArtPiece{}, ErrMissingMetadataURL
	}
	if !ipfs.IsIPFSURL(metadataURL) {
		return ArtPiece{}, ErrInvalidMetadataURL
	}

	if existing, err := s.store.ArtPieceByMetadataURL(ctx, metadataURL); err == nil {
		return ArtPiece{}, &ConflictError{Err: ErrDuplicateArtwork, Existing: existing}
	} else if !errors.Is(err, ErrArtPieceNotFound) {
		return ArtPiece{}, err
	}

	meta, err := s.fetcher.Fetch(ctx, metadataURL)
	if err != nil {
		s.log.WithError(err).WithField("metadata_url", metadataURL).Warn("metadata fetch failed")
		return ArtPiece{}, fmt.Errorf("%w: %w", ErrMetadataUnavailable, err)
	}
	if meta.Name == "" || meta.Image == "" {
		return ArtPiece{}, &MissingFieldsError{Received: meta.Fields}
	}

	piece := ArtPiece{
		Title:        meta.Name,
		Description:  meta.Description,
		MetadataURL:  metadataURL,
		ImageURL:     s.fetcher.GatewayURL(meta.Image),
		MetadataJSON: meta.Raw,
		CreatedAt:    s.now(),
	}

	requested := strings.TrimSpace(input.IdentificationWord)
	if requested == "" {
		requested = meta.IdentificationWord
	}

	var created ArtPiece
	if requested != "" {
		created, err = s.createWithRequestedIdentifier(ctx, piece, requested)
	} else {
		created, err = s.createWithGeneratedIdentifier(ctx, piece)
	}
	if err != nil {
		return ArtPiece{}, err
	}

	metrics.RecordArtEvent("submitted")
	s.log.WithFields(logrus.Fields{
		"art_id":     created.ID,
		"identifier": created.Identifier,
		"title":      created.Title,
	}).Info("art piece submitted")
	return decorate(created), nil
}

func (s *Service) createWithRequestedIdentifier(ctx context.Context, piece ArtPiece, requested string) (ArtPiece, error) {
	if !s.ids.IsValid(requested) {
		return ArtPiece{}, ErrInvalidIdentifier
	}
	if existing, err := s.store.ArtPieceByIdentifier(ctx, requested); err == nil {
		return ArtPiece{}, &ConflictError{Err: ErrDuplicateIdentifier, Existing: existing}
	} else if !errors.Is(err, ErrArtPieceNotFound) {
		return ArtPiece{}, err
	}

	piece.Identifier = requested
	created, err := s.store.CreateArtPiece(ctx, piece)
	if errors.Is(err, ErrDuplicateIdentifier) {
		return ArtPiece{}, &ConflictError{Err: ErrDuplicateIdentifier}
	}
	return created, err
}

// createWithGeneratedIdentifier draws against a fresh snapshot of assigned
// identifiers and relies on the store's uniqueness constraint to detect
// concurrent submissions that drew the same identifier.
func (s *Service) createWithGeneratedIdentifier(ctx context.Context, piece ArtPiece) (ArtPiece, error) {
	for attempt := 1; attempt <= maxIdentifierAttempts; attempt++ {
		existing, err := s.assignedIdentifiers(ctx)
		if err != nil {
			return ArtPiece{}, err
		}

		ids, err := s.ids.GenerateUnique(1, existing)
		if err != nil {
			if errors.Is(err, identifier.ErrExhaustedCapacity) {
				metrics.RecordIdentifierExhausted()
			}
			return ArtPiece{}, err
		}
		metrics.RecordIdentifiersGenerated("submission", 1)

		piece.Identifier = ids[0]
		created, err := s.store.CreateArtPiece(ctx, piece)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrDuplicateIdentifier) {
			return ArtPiece{}, err
		}

		metrics.RecordIdentifierConflict()
		s.log.WithFields(logrus.Fields{
			"identifier": ids[0],
			"attempt":    attempt,
		}).Warn("generated identifier taken concurrently, retrying")
	}
	return ArtPiece{}, ErrIdentifierContention
}

func (s *Service) assignedIdentifiers(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.store.ListIdentifiers(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if s.ids.IsValid(row.Identifier) {
			existing[row.Identifier] = struct{}{}
		}
	}
	return existing, nil
}

// List returns a page of art pieces, newest first unless Random is set.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	params.Limit = clampLimit(params.Limit, defaultListLimit)
	if params.Offset < 0 {
		params.Offset = 0
	}
	params.Search = strings.TrimSpace(params.Search)

	result, err := s.store.ListArtPieces(ctx, params)
	if err != nil {
		return ListResult{}, err
	}
	for i := range result.Items {
		result.Items[i] = decorate(result.Items[i])
	}
	result.Limit = params.Limit
	result.Offset = params.Offset
	result.HasMore = params.Offset+params.Limit < result.Total
	return result, nil
}

// Get looks an art piece up by its two-word identifier.
func (s *Service) Get(ctx context.Context, id string) (ArtPiece, error) {
	if !s.ids.IsValid(id) {
		return ArtPiece{}, ErrInvalidIdentifier
	}
	piece, err := s.store.ArtPieceByIdentifier(ctx, id)
	if err != nil {
		return ArtPiece{}, err
	}
	return decorate(piece), nil
}

func (s *Service) RecentUnminted(ctx context.Context, limit int) ([]ArtPiece, error) {
	items, err := s.store.ListRecentUnminted(ctx, clampLimit(limit, defaultRecentLimit))
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = decorate(items[i])
	}
	return items, nil
}

func (s *Service) TopCollectors(ctx context.Context, limit int) ([]Collector, error) {
	return s.store.TopCollectors(ctx, clampLimit(limit, defaultTopCollectors))
}

type MintInput struct {
	WalletAddress   string
	TransactionHash string
	TokenID         *int64
	MintCost        string
}

// MintReceipt describes a completed mint.
type MintReceipt struct {
	ArtPiece        ArtPiece `json:"art_piece"`
	TransactionHash string   `json:"transaction_hash"`
	TokenID         *int64   `json:"token_id"`
	MintCost        string   `json:"mint_cost,omitempty"`
	ExplorerURL     string   `json:"explorer_url"`
}

// Mint records that the piece behind id was minted by a wallet. A piece can
// be minted at most once.
func (s *Service) Mint(ctx context.Context, id string, input MintInput) (MintReceipt, error) {
	if !s.ids.IsValid(id) {
		return MintReceipt{}, ErrInvalidIdentifier
	}
	if !wallet.IsValidAddress(input.WalletAddress) {
		return MintReceipt{}, ErrInvalidWallet
	}
	txHash, err := wallet.NormalizeTransactionHash(input.TransactionHash)
	if err != nil {
		return MintReceipt{}, ErrInvalidTransaction
	}

	minted, err := s.store.MarkMinted(ctx, id, MintRecord{
		WalletAddress: wallet.Normalize(input.WalletAddress),
		TokenID:       input.TokenID,
		MintedAt:      s.now(),
	})
	if err != nil {
		return MintReceipt{}, err
	}

	metrics.RecordArtEvent("minted")
	s.log.WithFields(logrus.Fields{
		"identifier": id,
		"wallet":     *minted.MintedBy,
		"tx_hash":    txHash,
	}).Info("art piece minted")

	return MintReceipt{
		ArtPiece:        decorate(minted),
		TransactionHash: txHash,
		TokenID:         input.TokenID,
		MintCost:        strings.TrimSpace(input.MintCost),
		ExplorerURL:     s.explorerTxURL + txHash,
	}, nil
}

// BackfillResult reports identifiers assigned to legacy rows.
type BackfillResult struct {
	Updated        int      `json:"updated"`
	NewIdentifiers []string `json:"new_identifiers"`
}

// BackfillIdentifiers replaces every stored identifier that is missing or
// not a valid two-word identifier. Capacity exhaustion is reported before
// any row changes.
func (s *Service) BackfillIdentifiers(ctx context.Context) (BackfillResult, error) {
	rows, err := s.store.ListIdentifiers(ctx)
	if err != nil {
		return BackfillResult{}, err
	}

	existing := make(map[string]struct{}, len(rows))
	needing := make([]IdentifierRow, 0)
	for _, row := range rows {
		if s.ids.IsValid(row.Identifier) {
			existing[row.Identifier] = struct{}{}
			continue
		}
		needing = append(needing, row)
	}
	if len(needing) == 0 {
		return BackfillResult{Updated: 0, NewIdentifiers: []string{}}, nil
	}

	fresh, err := s.ids.GenerateUnique(len(needing), existing)
	if err != nil {
		if errors.Is(err, identifier.ErrExhaustedCapacity) {
			metrics.RecordIdentifierExhausted()
		}
		return BackfillResult{}, err
	}
	metrics.RecordIdentifiersGenerated("backfill", len(fresh))

	for _, id := range fresh {
		existing[id] = struct{}{}
	}

	result := BackfillResult{NewIdentifiers: make([]string, 0, len(needing))}
	for i, row := range needing {
		assigned, err := s.assignWithRetry(ctx, row, fresh[i], existing)
		if err != nil {
			return result, err
		}
		result.Updated++
		result.NewIdentifiers = append(result.NewIdentifiers, assigned)
	}

	s.log.WithField("updated", result.Updated).Info("identifiers backfilled")
	return result, nil
}

func (s *Service) assignWithRetry(ctx context.Context, row IdentifierRow, candidate string, existing map[string]struct{}) (string, error) {
	for attempt := 1; ; attempt++ {
		err := s.store.AssignIdentifier(ctx, row.ID, candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, ErrDuplicateIdentifier) || attempt >= maxIdentifierAttempts {
			if errors.Is(err, ErrDuplicateIdentifier) {
				return "", ErrIdentifierContention
			}
			return "", err
		}

		metrics.RecordIdentifierConflict()
		existing[candidate] = struct{}{}
		replacement, genErr := s.ids.GenerateUnique(1, existing)
		if genErr != nil {
			if errors.Is(genErr, identifier.ErrExhaustedCapacity) {
				metrics.RecordIdentifierExhausted()
			}
			return "", genErr
		}
		metrics.RecordIdentifiersGenerated("backfill", 1)
		candidate = replacement[0]
		existing[candidate] = struct{}{}
	}
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func decorate(piece ArtPiece) ArtPiece {
	piece.Traits = ipfs.TraitsFromRaw(piece.MetadataJSON)
	return piece
}
