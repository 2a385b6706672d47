// Package memory keeps gallery and profile state in process memory. It is
// the default store for local development and the fixture for service tests.
package memory

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yxshee/marfa-gallery/internal/gallery"
	"github.com/yxshee/marfa-gallery/internal/profiles"
)

// Store implements gallery.Store and profiles.Store.
type Store struct {
	mu sync.RWMutex

	pieces        map[int64]gallery.ArtPiece
	byIdentifier  map[string]int64
	byMetadataURL map[string]int64
	nextPieceID   int64

	profiles      map[string]profiles.Profile
	nextProfileID int64

	rnd *rand.Rand
}

var (
	_ gallery.Store  = (*Store)(nil)
	_ profiles.Store = (*Store)(nil)
)

func New() *Store {
	return &Store{
		pieces:        make(map[int64]gallery.ArtPiece),
		byIdentifier:  make(map[string]int64),
		byMetadataURL: make(map[string]int64),
		profiles:      make(map[string]profiles.Profile),
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Store) CreateArtPiece(_ context.Context, piece gallery.ArtPiece) (gallery.ArtPiece, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if piece.Identifier != "" {
		if _, exists := s.byIdentifier[piece.Identifier]; exists {
			return gallery.ArtPiece{}, gallery.ErrDuplicateIdentifier
		}
	}
	if _, exists := s.byMetadataURL[piece.MetadataURL]; exists {
		return gallery.ArtPiece{}, gallery.ErrDuplicateArtwork
	}

	s.insertLocked(piece)
	return s.withMinterLocked(s.pieces[s.nextPieceID]), nil
}

func (s *Store) insertLocked(piece gallery.ArtPiece) {
	s.nextPieceID++
	piece.ID = s.nextPieceID
	if piece.CreatedAt.IsZero() {
		piece.CreatedAt = time.Now().UTC()
	}
	piece.MinterName = nil
	piece.Traits = nil
	s.pieces[piece.ID] = piece
	if piece.Identifier != "" {
		s.byIdentifier[piece.Identifier] = piece.ID
	}
	s.byMetadataURL[piece.MetadataURL] = piece.ID
}

func (s *Store) ArtPieceByIdentifier(_ context.Context, identifier string) (gallery.ArtPiece, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, exists := s.byIdentifier[identifier]
	if !exists {
		return gallery.ArtPiece{}, gallery.ErrArtPieceNotFound
	}
	return s.withMinterLocked(s.pieces[id]), nil
}

func (s *Store) ArtPieceByMetadataURL(_ context.Context, metadataURL string) (gallery.ArtPiece, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, exists := s.byMetadataURL[metadataURL]
	if !exists {
		return gallery.ArtPiece{}, gallery.ErrArtPieceNotFound
	}
	return s.withMinterLocked(s.pieces[id]), nil
}

func (s *Store) ListArtPieces(_ context.Context, params gallery.ListParams) (gallery.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(params.Search))
	matched := make([]gallery.ArtPiece, 0, len(s.pieces))
	for _, piece := range s.pieces {
		if params.MintedOnly && !piece.IsMinted {
			continue
		}
		if query != "" && !matchesSearch(piece, query) {
			continue
		}
		matched = append(matched, piece)
	}

	if params.Random {
		sortNewestFirst(matched)
		s.rnd.Shuffle(len(matched), func(i, j int) {
			matched[i], matched[j] = matched[j], matched[i]
		})
	} else {
		sortNewestFirst(matched)
	}

	total := len(matched)
	start := params.Offset
	if start > total {
		start = total
	}
	end := total
	if params.Limit > 0 && start+params.Limit < end {
		end = start + params.Limit
	}

	items := make([]gallery.ArtPiece, 0, end-start)
	for _, piece := range matched[start:end] {
		items = append(items, s.withMinterLocked(piece))
	}
	return gallery.ListResult{Items: items, Total: total}, nil
}

func (s *Store) ListRecentUnminted(_ context.Context, limit int) ([]gallery.ArtPiece, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unminted := make([]gallery.ArtPiece, 0)
	for _, piece := range s.pieces {
		if !piece.IsMinted {
			unminted = append(unminted, piece)
		}
	}
	sortNewestFirst(unminted)
	if limit > 0 && len(unminted) > limit {
		unminted = unminted[:limit]
	}
	return unminted, nil
}

func (s *Store) MarkMinted(_ context.Context, identifier string, record gallery.MintRecord) (gallery.ArtPiece, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.byIdentifier[identifier]
	if !exists {
		return gallery.ArtPiece{}, gallery.ErrArtPieceNotFound
	}
	piece := s.pieces[id]
	if piece.IsMinted {
		return gallery.ArtPiece{}, gallery.ErrAlreadyMinted
	}

	mintedAt := record.MintedAt
	minter := record.WalletAddress
	piece.IsMinted = true
	piece.MintedAt = &mintedAt
	piece.MintedBy = &minter
	if record.TokenID != nil {
		tokenID := *record.TokenID
		piece.TokenID = &tokenID
	}
	s.pieces[id] = piece
	return s.withMinterLocked(piece), nil
}

func (s *Store) ListIdentifiers(_ context.Context) ([]gallery.IdentifierRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]gallery.IdentifierRow, 0, len(s.pieces))
	for _, piece := range s.pieces {
		rows = append(rows, gallery.IdentifierRow{ID: piece.ID, Identifier: piece.Identifier})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (s *Store) AssignIdentifier(_ context.Context, id int64, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	piece, exists := s.pieces[id]
	if !exists {
		return gallery.ErrArtPieceNotFound
	}
	if owner, taken := s.byIdentifier[identifier]; taken && owner != id {
		return gallery.ErrDuplicateIdentifier
	}

	if piece.Identifier != "" {
		delete(s.byIdentifier, piece.Identifier)
	}
	piece.Identifier = identifier
	s.pieces[id] = piece
	s.byIdentifier[identifier] = id
	return nil
}

func (s *Store) TopCollectors(_ context.Context, limit int) ([]gallery.Collector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byWallet := make(map[string]*gallery.Collector)
	for _, piece := range s.pieces {
		if !piece.IsMinted || piece.MintedBy == nil || piece.MintedAt == nil {
			continue
		}
		collector, exists := byWallet[*piece.MintedBy]
		if !exists {
			collector = &gallery.Collector{
				WalletAddress: *piece.MintedBy,
				Name:          s.profileNameLocked(*piece.MintedBy),
				FirstMintAt:   *piece.MintedAt,
				LastMintAt:    *piece.MintedAt,
			}
			byWallet[*piece.MintedBy] = collector
		}
		collector.MintedCount++
		if piece.MintedAt.Before(collector.FirstMintAt) {
			collector.FirstMintAt = *piece.MintedAt
		}
		if piece.MintedAt.After(collector.LastMintAt) {
			collector.LastMintAt = *piece.MintedAt
		}
	}

	collectors := make([]gallery.Collector, 0, len(byWallet))
	for _, collector := range byWallet {
		collectors = append(collectors, *collector)
	}
	sort.Slice(collectors, func(i, j int) bool {
		if collectors[i].MintedCount != collectors[j].MintedCount {
			return collectors[i].MintedCount > collectors[j].MintedCount
		}
		if !collectors[i].FirstMintAt.Equal(collectors[j].FirstMintAt) {
			return collectors[i].FirstMintAt.Before(collectors[j].FirstMintAt)
		}
		return collectors[i].WalletAddress < collectors[j].WalletAddress
	})
	if limit > 0 && len(collectors) > limit {
		collectors = collectors[:limit]
	}
	return collectors, nil
}

func (s *Store) ReplaceArtPieces(_ context.Context, pieces []gallery.ArtPiece) error {
	identifiers := make(map[string]struct{}, len(pieces))
	metadataURLs := make(map[string]struct{}, len(pieces))
	for _, piece := range pieces {
		if piece.Identifier != "" {
			if _, exists := identifiers[piece.Identifier]; exists {
				return gallery.ErrDuplicateIdentifier
			}
			identifiers[piece.Identifier] = struct{}{}
		}
		if _, exists := metadataURLs[piece.MetadataURL]; exists {
			return gallery.ErrDuplicateArtwork
		}
		metadataURLs[piece.MetadataURL] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pieces = make(map[int64]gallery.ArtPiece, len(pieces))
	s.byIdentifier = make(map[string]int64, len(pieces))
	s.byMetadataURL = make(map[string]int64, len(pieces))
	for _, piece := range pieces {
		s.insertLocked(piece)
	}
	return nil
}

func (s *Store) ProfileByWallet(_ context.Context, walletAddress string) (profiles.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, exists := s.profiles[walletKey(walletAddress)]
	if !exists {
		return profiles.Profile{}, profiles.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Store) ListProfiles(_ context.Context) ([]profiles.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]profiles.Profile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		items = append(items, profile)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpsertProfile(_ context.Context, profile profiles.Profile) (profiles.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := walletKey(profile.WalletAddress)
	if existing, exists := s.profiles[key]; exists {
		profile.ID = existing.ID
		profile.IsAdmin = existing.IsAdmin
		profile.CreatedAt = existing.CreatedAt
	} else {
		s.nextProfileID++
		profile.ID = s.nextProfileID
		profile.IsAdmin = false
	}
	s.profiles[key] = profile
	return profile, nil
}

// SetAdmin flips the stored admin flag of an existing profile, which
// sessions honor alongside the configured admin wallets. The flag is an
// operator action with no HTTP route.
func (s *Store) SetAdmin(walletAddress string, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := walletKey(walletAddress)
	profile, exists := s.profiles[key]
	if !exists {
		return profiles.ErrProfileNotFound
	}
	profile.IsAdmin = isAdmin
	s.profiles[key] = profile
	return nil
}

func (s *Store) withMinterLocked(piece gallery.ArtPiece) gallery.ArtPiece {
	if piece.MintedBy != nil {
		piece.MinterName = s.profileNameLocked(*piece.MintedBy)
	}
	return piece
}

func (s *Store) profileNameLocked(walletAddress string) *string {
	profile, exists := s.profiles[walletKey(walletAddress)]
	if !exists {
		return nil
	}
	name := profile.Name
	return &name
}

func matchesSearch(piece gallery.ArtPiece, query string) bool {
	return strings.Contains(strings.ToLower(piece.Title), query) ||
		strings.Contains(strings.ToLower(piece.Description), query) ||
		strings.Contains(strings.ToLower(piece.Identifier), query)
}

func sortNewestFirst(items []gallery.ArtPiece) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func walletKey(walletAddress string) string {
	return strings.ToLower(strings.TrimSpace(walletAddress))
}
