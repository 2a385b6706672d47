package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yxshee/marfa-gallery/internal/gallery"
	"github.com/yxshee/marfa-gallery/internal/profiles"
)

func piece(identifier, url string, created time.Time) gallery.ArtPiece {
	return gallery.ArtPiece{
		Identifier:  identifier,
		Title:       "Piece " + identifier,
		MetadataURL: url,
		CreatedAt:   created,
	}
}

func TestCreateArtPieceEnforcesUniqueness(t *testing.T) {
	ctx := context.Background()
	store := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	created, err := store.CreateArtPiece(ctx, piece("bold-sky", "ipfs://a", base))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	_, err = store.CreateArtPiece(ctx, piece("bold-sky", "ipfs://b", base))
	assert.ErrorIs(t, err, gallery.ErrDuplicateIdentifier)

	_, err = store.CreateArtPiece(ctx, piece("calm-sea", "ipfs://a", base))
	assert.ErrorIs(t, err, gallery.ErrDuplicateArtwork)

	// legacy rows without identifiers do not collide with each other
	_, err = store.CreateArtPiece(ctx, piece("", "ipfs://c", base))
	require.NoError(t, err)
	_, err = store.CreateArtPiece(ctx, piece("", "ipfs://d", base))
	require.NoError(t, err)
}

func TestListArtPiecesFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	store := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"bold-sky", "calm-sea", "dark-moon"} {
		_, err := store.CreateArtPiece(ctx, piece(id, "ipfs://"+id, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}
	_, err := store.MarkMinted(ctx, "calm-sea", gallery.MintRecord{WalletAddress: "0xabc", MintedAt: base})
	require.NoError(t, err)

	all, err := store.ListArtPieces(ctx, gallery.ListParams{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
	require.Len(t, all.Items, 2)
	assert.Equal(t, "dark-moon", all.Items[0].Identifier)
	assert.Equal(t, "calm-sea", all.Items[1].Identifier)

	page, err := store.ListArtPieces(ctx, gallery.ListParams{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "bold-sky", page.Items[0].Identifier)

	minted, err := store.ListArtPieces(ctx, gallery.ListParams{Limit: 10, MintedOnly: true})
	require.NoError(t, err)
	require.Len(t, minted.Items, 1)
	assert.Equal(t, "calm-sea", minted.Items[0].Identifier)

	search, err := store.ListArtPieces(ctx, gallery.ListParams{Limit: 10, Search: "MOON"})
	require.NoError(t, err)
	assert.Equal(t, 1, search.Total)

	random, err := store.ListArtPieces(ctx, gallery.ListParams{Limit: 10, Random: true})
	require.NoError(t, err)
	assert.Len(t, random.Items, 3)

	beyond, err := store.ListArtPieces(ctx, gallery.ListParams{Limit: 10, Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 3, beyond.Total)
}

func TestMarkMintedIsOneShot(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, err := store.CreateArtPiece(ctx, piece("bold-sky", "ipfs://a", time.Now()))
	require.NoError(t, err)

	tokenID := int64(7)
	minted, err := store.MarkMinted(ctx, "bold-sky", gallery.MintRecord{
		WalletAddress: "0x742d35Cc6639C0532fEb42387b22e3f0a1dd9527",
		TokenID:       &tokenID,
		MintedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.True(t, minted.IsMinted)
	require.NotNil(t, minted.TokenID)
	assert.Equal(t, int64(7), *minted.TokenID)

	_, err = store.MarkMinted(ctx, "bold-sky", gallery.MintRecord{WalletAddress: "0x1"})
	assert.ErrorIs(t, err, gallery.ErrAlreadyMinted)

	_, err = store.MarkMinted(ctx, "calm-sea", gallery.MintRecord{WalletAddress: "0x1"})
	assert.ErrorIs(t, err, gallery.ErrArtPieceNotFound)

	unminted, err := store.ListRecentUnminted(ctx, 6)
	require.NoError(t, err)
	assert.Empty(t, unminted)
}

func TestAssignIdentifier(t *testing.T) {
	ctx := context.Background()
	store := New()
	first, err := store.CreateArtPiece(ctx, piece("NEON_PORTAL", "ipfs://a", time.Now()))
	require.NoError(t, err)
	second, err := store.CreateArtPiece(ctx, piece("bold-sky", "ipfs://b", time.Now()))
	require.NoError(t, err)

	require.NoError(t, store.AssignIdentifier(ctx, first.ID, "calm-sea"))
	_, err = store.ArtPieceByIdentifier(ctx, "NEON_PORTAL")
	assert.ErrorIs(t, err, gallery.ErrArtPieceNotFound)
	got, err := store.ArtPieceByIdentifier(ctx, "calm-sea")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	assert.ErrorIs(t, store.AssignIdentifier(ctx, first.ID, "bold-sky"), gallery.ErrDuplicateIdentifier)
	assert.ErrorIs(t, store.AssignIdentifier(ctx, 99, "dark-moon"), gallery.ErrArtPieceNotFound)

	rows, err := store.ListIdentifiers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []gallery.IdentifierRow{
		{ID: first.ID, Identifier: "calm-sea"},
		{ID: second.ID, Identifier: "bold-sky"},
	}, rows)
}

func TestTopCollectorsJoinsProfiles(t *testing.T) {
	ctx := context.Background()
	store := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	alice := "0x742d35Cc6639C0532fEb42387b22e3f0a1dd9527"
	bob := "0x8Ba1f109551bD432803012645Ac136c4C0A5070a"

	for i, id := range []string{"bold-sky", "calm-sea", "dark-moon"} {
		_, err := store.CreateArtPiece(ctx, piece(id, "ipfs://"+id, base))
		require.NoError(t, err)
		minter := alice
		if i == 0 {
			minter = bob
		}
		_, err = store.MarkMinted(ctx, id, gallery.MintRecord{WalletAddress: minter, MintedAt: base.Add(time.Duration(i) * 24 * time.Hour)})
		require.NoError(t, err)
	}
	_, err := store.UpsertProfile(ctx, profiles.Profile{WalletAddress: alice, Name: "Alice"})
	require.NoError(t, err)

	collectors, err := store.TopCollectors(ctx, 7)
	require.NoError(t, err)
	require.Len(t, collectors, 2)
	assert.Equal(t, alice, collectors[0].WalletAddress)
	assert.Equal(t, 2, collectors[0].MintedCount)
	require.NotNil(t, collectors[0].Name)
	assert.Equal(t, "Alice", *collectors[0].Name)
	assert.Equal(t, base.Add(24*time.Hour), collectors[0].FirstMintAt)
	assert.Equal(t, base.Add(48*time.Hour), collectors[0].LastMintAt)
	assert.Nil(t, collectors[1].Name)

	limited, err := store.TopCollectors(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	got, err := store.ArtPieceByIdentifier(ctx, "calm-sea")
	require.NoError(t, err)
	require.NotNil(t, got.MinterName)
	assert.Equal(t, "Alice", *got.MinterName)
}

func TestReplaceArtPiecesIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := New()
	_, err := store.CreateArtPiece(ctx, piece("bold-sky", "ipfs://a", time.Now()))
	require.NoError(t, err)

	err = store.ReplaceArtPieces(ctx, []gallery.ArtPiece{
		piece("calm-sea", "ipfs://x", time.Now()),
		piece("calm-sea", "ipfs://y", time.Now()),
	})
	assert.ErrorIs(t, err, gallery.ErrDuplicateIdentifier)
	_, err = store.ArtPieceByIdentifier(ctx, "bold-sky")
	require.NoError(t, err)

	require.NoError(t, store.ReplaceArtPieces(ctx, []gallery.ArtPiece{
		piece("calm-sea", "ipfs://x", time.Now()),
	}))
	_, err = store.ArtPieceByIdentifier(ctx, "bold-sky")
	assert.ErrorIs(t, err, gallery.ErrArtPieceNotFound)
}

func TestUpsertProfilePreservesAdminAndCreation(t *testing.T) {
	ctx := context.Background()
	store := New()
	wallet := "0x742d35Cc6639C0532fEb42387b22e3f0a1dd9527"
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := store.UpsertProfile(ctx, profiles.Profile{WalletAddress: wallet, Name: "Alice", IsAdmin: true, CreatedAt: created})
	require.NoError(t, err)
	assert.False(t, first.IsAdmin)

	require.NoError(t, store.SetAdmin(wallet, true))

	second, err := store.UpsertProfile(ctx, profiles.Profile{WalletAddress: wallet, Name: "Alice B", CreatedAt: created.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsAdmin)
	assert.Equal(t, created, second.CreatedAt)

	byLower, err := store.ProfileByWallet(ctx, "0x742d35cc6639c0532feb42387b22e3f0a1dd9527")
	require.NoError(t, err)
	assert.Equal(t, "Alice B", byLower.Name)

	_, err = store.ProfileByWallet(ctx, "0x0000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, profiles.ErrProfileNotFound)
	assert.ErrorIs(t, store.SetAdmin("0x0000000000000000000000000000000000000000", true), profiles.ErrProfileNotFound)

	list, err := store.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
