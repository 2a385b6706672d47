package profiles_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yxshee/marfa-gallery/internal/platform/logging"
	"github.com/yxshee/marfa-gallery/internal/profiles"
	"github.com/yxshee/marfa-gallery/internal/storage/memory"
)

const (
	ownerWallet = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	otherWallet = "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"
)

func TestUpsertByOwner(t *testing.T) {
	ctx := context.Background()
	service := profiles.NewService(memory.New(), logging.Discard())
	owner := profiles.Requestor{WalletAddress: ownerWallet}

	created, err := service.Upsert(ctx, owner, profiles.UpsertInput{
		WalletAddress: ownerWallet,
		Name:          "  Marfa Collector ",
		XHandle:       "@marfa",
	})
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", created.WalletAddress)
	assert.Equal(t, "Marfa Collector", created.Name)
	require.NotNil(t, created.XHandle)
	assert.Equal(t, "marfa", *created.XHandle)
	assert.Nil(t, created.FarcasterHandle)
	assert.False(t, created.IsAdmin)

	updated, err := service.Upsert(ctx, owner, profiles.UpsertInput{
		WalletAddress:   "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED",
		Name:            "Renamed",
		InstagramHandle: "gallery.marfa",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Nil(t, updated.XHandle)
	require.NotNil(t, updated.InstagramHandle)

	fetched, err := service.GetByWallet(ctx, ownerWallet)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fetched.Name)

	all, err := service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertAuthorization(t *testing.T) {
	ctx := context.Background()
	service := profiles.NewService(memory.New(), logging.Discard())
	input := profiles.UpsertInput{WalletAddress: ownerWallet, Name: "Owner"}

	_, err := service.Upsert(ctx, profiles.Requestor{WalletAddress: otherWallet}, input)
	assert.ErrorIs(t, err, profiles.ErrUnauthorizedProfileAccess)

	_, err = service.Upsert(ctx, profiles.Requestor{}, input)
	assert.ErrorIs(t, err, profiles.ErrUnauthorizedProfileAccess)

	saved, err := service.Upsert(ctx, profiles.Requestor{WalletAddress: otherWallet, IsAdmin: true}, input)
	require.NoError(t, err)
	assert.False(t, saved.IsAdmin)
}

func TestUpsertValidation(t *testing.T) {
	ctx := context.Background()
	service := profiles.NewService(memory.New(), logging.Discard())
	owner := profiles.Requestor{WalletAddress: ownerWallet}

	cases := []profiles.UpsertInput{
		{WalletAddress: "not-a-wallet", Name: "Name"},
		{WalletAddress: ownerWallet, Name: "   "},
		{WalletAddress: ownerWallet, Name: "Name", XHandle: "has space"},
		{WalletAddress: ownerWallet, Name: "Name", FarcasterHandle: strings.Repeat("a", 65)},
	}
	for _, input := range cases {
		_, err := service.Upsert(ctx, owner, input)
		assert.ErrorIs(t, err, profiles.ErrInvalidProfileInput, "%+v", input)
	}
}

func TestIsAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	service := profiles.NewService(store, logging.Discard())

	isAdmin, err := service.IsAdmin(ctx, ownerWallet)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	_, err = service.Upsert(ctx, profiles.Requestor{WalletAddress: ownerWallet}, profiles.UpsertInput{WalletAddress: ownerWallet, Name: "Owner"})
	require.NoError(t, err)
	require.NoError(t, store.SetAdmin(ownerWallet, true))

	isAdmin, err = service.IsAdmin(ctx, ownerWallet)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	_, err = service.GetByWallet(ctx, "0x1234")
	assert.ErrorIs(t, err, profiles.ErrInvalidProfileInput)
}
