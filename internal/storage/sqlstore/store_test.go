package sqlstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yxshee/marfa-gallery/internal/gallery"
	"github.com/yxshee/marfa-gallery/internal/profiles"
	"github.com/yxshee/marfa-gallery/internal/storage/sqlstore"
)

const (
	alice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	bob   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

func openSQLite(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// stores returns every backend available to the test run. Postgres joins when
// TEST_POSTGRES_DSN points at a disposable database.
func stores(t *testing.T) map[string]*sqlstore.Store {
	t.Helper()
	out := map[string]*sqlstore.Store{"sqlite": openSQLite(t)}
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		store, err := sqlstore.Open(context.Background(), sqlstore.DriverPostgres, dsn)
		require.NoError(t, err)
		require.NoError(t, store.Truncate(context.Background()))
		t.Cleanup(func() { store.Close() })
		out["postgres"] = store
	}
	return out
}

func artPiece(identifier, url string, created time.Time) gallery.ArtPiece {
	return gallery.ArtPiece{
		Identifier:   identifier,
		Title:        "Piece " + url,
		Description:  "desert light",
		MetadataURL:  url,
		ImageURL:     "https://ipfs.io/ipfs/img",
		MetadataJSON: []byte(`{"name":"x","attributes":[{"trait_type":"Mood","value":"calm"}]}`),
		CreatedAt:    created,
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := sqlstore.Open(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := t.TempDir() + "/gallery.db"
	first, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, path)
	require.NoError(t, err)
	_, err = first.CreateArtPiece(context.Background(), artPiece("bold-sky", "ipfs://a", time.Now()))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, path)
	require.NoError(t, err)
	defer second.Close()
	got, err := second.ArtPieceByIdentifier(context.Background(), "bold-sky")
	require.NoError(t, err)
	assert.Equal(t, "ipfs://a", got.MetadataURL)
}

func TestCreateAndLookup(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created := time.Date(2024, 3, 1, 12, 0, 0, 123, time.UTC)

			piece, err := store.CreateArtPiece(ctx, artPiece("bold-sky", "ipfs://a", created))
			require.NoError(t, err)
			assert.NotZero(t, piece.ID)
			assert.Equal(t, created, piece.CreatedAt)
			assert.JSONEq(t, `{"name":"x","attributes":[{"trait_type":"Mood","value":"calm"}]}`, string(piece.MetadataJSON))
			assert.False(t, piece.IsMinted)
			assert.Nil(t, piece.MintedAt)

			byURL, err := store.ArtPieceByMetadataURL(ctx, "ipfs://a")
			require.NoError(t, err)
			assert.Equal(t, piece.ID, byURL.ID)

			_, err = store.CreateArtPiece(ctx, artPiece("bold-sky", "ipfs://b", created))
			assert.ErrorIs(t, err, gallery.ErrDuplicateIdentifier)
			_, err = store.CreateArtPiece(ctx, artPiece("calm-sea", "ipfs://a", created))
			assert.ErrorIs(t, err, gallery.ErrDuplicateArtwork)

			_, err = store.CreateArtPiece(ctx, artPiece("", "ipfs://legacy1", created))
			require.NoError(t, err)
			_, err = store.CreateArtPiece(ctx, artPiece("", "ipfs://legacy2", created))
			require.NoError(t, err)

			_, err = store.ArtPieceByIdentifier(ctx, "dark-moon")
			assert.ErrorIs(t, err, gallery.ErrArtPieceNotFound)
		})
	}
}

func TestListAndMint(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			for i, id := range []string{"bold-sky", "calm-sea", "dark-moon"} {
				p := artPiece(id, "ipfs://"+id, base.Add(time.Duration(i)*time.Minute))
				p.Title = "Title " + id
				_, err := store.CreateArtPiece(ctx, p)
				require.NoError(t, err)
			}

			page, err := store.ListArtPieces(ctx, gallery.ListParams{Limit: 2})
			require.NoError(t, err)
			assert.Equal(t, 3, page.Total)
			require.Len(t, page.Items, 2)
			assert.Equal(t, "dark-moon", page.Items[0].Identifier)

			search, err := store.ListArtPieces(ctx, gallery.ListParams{Limit: 10, Search: "CALM"})
			require.NoError(t, err)
			assert.Equal(t, 1, search.Total)

			random, err := store.ListArtPieces(ctx, gallery.ListParams{Limit: 10, Random: true})
			require.NoError(t, err)
			assert.Len(t, random.Items, 3)

			tokenID := int64(1001)
			mintedAt := base.Add(48 * time.Hour)
			minted, err := store.MarkMinted(ctx, "calm-sea", gallery.MintRecord{WalletAddress: alice, TokenID: &tokenID, MintedAt: mintedAt})
			require.NoError(t, err)
			assert.True(t, minted.IsMinted)
			require.NotNil(t, minted.MintedAt)
			assert.Equal(t, mintedAt, *minted.MintedAt)
			require.NotNil(t, minted.TokenID)
			assert.Equal(t, tokenID, *minted.TokenID)

			_, err = store.MarkMinted(ctx, "calm-sea", gallery.MintRecord{WalletAddress: bob, MintedAt: mintedAt})
			assert.ErrorIs(t, err, gallery.ErrAlreadyMinted)
			_, err = store.MarkMinted(ctx, "no-such", gallery.MintRecord{WalletAddress: bob, MintedAt: mintedAt})
			assert.ErrorIs(t, err, gallery.ErrArtPieceNotFound)

			mintedOnly, err := store.ListArtPieces(ctx, gallery.ListParams{Limit: 10, MintedOnly: true})
			require.NoError(t, err)
			require.Len(t, mintedOnly.Items, 1)
			assert.Equal(t, "calm-sea", mintedOnly.Items[0].Identifier)

			unminted, err := store.ListRecentUnminted(ctx, 6)
			require.NoError(t, err)
			require.Len(t, unminted, 2)
			assert.Equal(t, "dark-moon", unminted[0].Identifier)
		})
	}
}

func TestIdentifiersAndCollectors(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

			legacy, err := store.CreateArtPiece(ctx, artPiece("NEON_PORTAL", "ipfs://1", base))
			require.NoError(t, err)
			_, err = store.CreateArtPiece(ctx, artPiece("bold-sky", "ipfs://2", base))
			require.NoError(t, err)
			_, err = store.CreateArtPiece(ctx, artPiece("calm-sea", "ipfs://3", base))
			require.NoError(t, err)

			require.NoError(t, store.AssignIdentifier(ctx, legacy.ID, "dark-moon"))
			assert.ErrorIs(t, store.AssignIdentifier(ctx, legacy.ID, "bold-sky"), gallery.ErrDuplicateIdentifier)
			assert.ErrorIs(t, store.AssignIdentifier(ctx, 9999, "free-word"), gallery.ErrArtPieceNotFound)

			rows, err := store.ListIdentifiers(ctx)
			require.NoError(t, err)
			require.Len(t, rows, 3)
			assert.Equal(t, "dark-moon", rows[0].Identifier)

			for i, id := range []string{"bold-sky", "calm-sea"} {
				_, err := store.MarkMinted(ctx, id, gallery.MintRecord{WalletAddress: alice, MintedAt: base.Add(time.Duration(i+1) * time.Hour)})
				require.NoError(t, err)
			}
			_, err = store.MarkMinted(ctx, "dark-moon", gallery.MintRecord{WalletAddress: bob, MintedAt: base})
			require.NoError(t, err)

			_, err = store.UpsertProfile(ctx, profiles.Profile{WalletAddress: alice, Name: "Alice"})
			require.NoError(t, err)

			collectors, err := store.TopCollectors(ctx, 7)
			require.NoError(t, err)
			require.Len(t, collectors, 2)
			assert.Equal(t, alice, collectors[0].WalletAddress)
			assert.Equal(t, 2, collectors[0].MintedCount)
			require.NotNil(t, collectors[0].Name)
			assert.Equal(t, "Alice", *collectors[0].Name)
			assert.Equal(t, base.Add(time.Hour), collectors[0].FirstMintAt)
			assert.Equal(t, base.Add(2*time.Hour), collectors[0].LastMintAt)
			assert.Nil(t, collectors[1].Name)

			piece, err := store.ArtPieceByIdentifier(ctx, "bold-sky")
			require.NoError(t, err)
			require.NotNil(t, piece.MinterName)
			assert.Equal(t, "Alice", *piece.MinterName)
		})
	}
}

func TestReplaceArtPiecesRollsBack(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)
	_, err := store.CreateArtPiece(ctx, artPiece("bold-sky", "ipfs://a", time.Now()))
	require.NoError(t, err)

	err = store.ReplaceArtPieces(ctx, []gallery.ArtPiece{
		artPiece("calm-sea", "ipfs://x", time.Now()),
		artPiece("calm-sea", "ipfs://y", time.Now()),
	})
	assert.ErrorIs(t, err, gallery.ErrDuplicateIdentifier)

	_, err = store.ArtPieceByIdentifier(ctx, "bold-sky")
	require.NoError(t, err)

	mintedAt := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	minted := artPiece("dark-moon", "ipfs://z", time.Now())
	minted.IsMinted = true
	minted.MintedAt = &mintedAt
	minted.MintedBy = ptr(alice)
	require.NoError(t, store.ReplaceArtPieces(ctx, []gallery.ArtPiece{minted}))

	_, err = store.ArtPieceByIdentifier(ctx, "bold-sky")
	assert.ErrorIs(t, err, gallery.ErrArtPieceNotFound)
	got, err := store.ArtPieceByIdentifier(ctx, "dark-moon")
	require.NoError(t, err)
	assert.True(t, got.IsMinted)
	assert.Equal(t, mintedAt, *got.MintedAt)
}

func TestProfiles(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

			first, err := store.UpsertProfile(ctx, profiles.Profile{
				WalletAddress: alice,
				Name:          "Alice",
				XHandle:       ptr("alice"),
				IsAdmin:       true,
				CreatedAt:     created,
				UpdatedAt:     created,
			})
			require.NoError(t, err)
			assert.False(t, first.IsAdmin)
			require.NotNil(t, first.XHandle)

			require.NoError(t, store.SetAdmin(ctx, alice, true))
			assert.ErrorIs(t, store.SetAdmin(ctx, bob, true), profiles.ErrProfileNotFound)

			second, err := store.UpsertProfile(ctx, profiles.Profile{
				WalletAddress: alice,
				Name:          "Alice B",
				CreatedAt:     created.Add(time.Hour),
				UpdatedAt:     created.Add(time.Hour),
			})
			require.NoError(t, err)
			assert.Equal(t, first.ID, second.ID)
			assert.True(t, second.IsAdmin)
			assert.Equal(t, created, second.CreatedAt)
			assert.Equal(t, created.Add(time.Hour), second.UpdatedAt)
			assert.Nil(t, second.XHandle)

			byLower, err := store.ProfileByWallet(ctx, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
			require.NoError(t, err)
			assert.Equal(t, "Alice B", byLower.Name)

			_, err = store.ProfileByWallet(ctx, bob)
			assert.ErrorIs(t, err, profiles.ErrProfileNotFound)

			list, err := store.ListProfiles(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func ptr(s string) *string {
	return &s
}
