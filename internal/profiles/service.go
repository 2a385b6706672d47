package profiles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yxshee/marfa-gallery/internal/platform/wallet"
)

const (
	maxNameLength   = 80
	maxHandleLength = 64
)

var (
	ErrProfileNotFound           = errors.New("profile not found")
	ErrInvalidProfileInput       = errors.New("invalid profile input")
	ErrUnauthorizedProfileAccess = errors.New("unauthorized profile access")
)

// Profile is a collector's public identity, keyed by wallet.
type Profile struct {
	ID              int64     `json:"id"`
	WalletAddress   string    `json:"wallet_address"`
	Name            string    `json:"name"`
	XHandle         *string   `json:"x_handle"`
	FarcasterHandle *string   `json:"farcaster_handle"`
	InstagramHandle *string   `json:"instagram_handle"`
	IsAdmin         bool      `json:"is_admin"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type UpsertInput struct {
	WalletAddress   string
	Name            string
	XHandle         string
	FarcasterHandle string
	InstagramHandle string
}

// Requestor is the authenticated wallet performing a write.
type Requestor struct {
	WalletAddress string
	IsAdmin       bool
}

// Store persists profiles. Wallet lookups are case-insensitive and
// UpsertProfile never changes IsAdmin or CreatedAt of an existing row.
type Store interface {
	ProfileByWallet(ctx context.Context, walletAddress string) (Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	UpsertProfile(ctx context.Context, profile Profile) (Profile, error)
}

// Service provides collector profile operations.
type Service struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewService(store Store, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		store: store,
		log:   logger.WithField("component", "profiles"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) GetByWallet(ctx context.Context, walletAddress string) (Profile, error) {
	if !wallet.IsValidAddress(walletAddress) {
		return Profile{}, ErrInvalidProfileInput
	}
	return s.store.ProfileByWallet(ctx, walletAddress)
}

// IsAdmin reports whether the stored profile for walletAddress carries the
// admin flag. Unknown wallets are not admins.
func (s *Service) IsAdmin(ctx context.Context, walletAddress string) (bool, error) {
	profile, err := s.GetByWallet(ctx, walletAddress)
	if errors.Is(err, ErrProfileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return profile.IsAdmin, nil
}

func (s *Service) List(ctx context.Context) ([]Profile, error) {
	return s.store.ListProfiles(ctx)
}

// Upsert creates or updates the profile for input.WalletAddress. Only the
// owner of the wallet or an admin may write it.
func (s *Service) Upsert(ctx context.Context, requestor Requestor, input UpsertInput) (Profile, error) {
	if !wallet.IsValidAddress(input.WalletAddress) {
		return Profile{}, ErrInvalidProfileInput
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > maxNameLength {
		return Profile{}, ErrInvalidProfileInput
	}

	if !wallet.Equal(requestor.WalletAddress, input.WalletAddress) && !requestor.IsAdmin {
		return Profile{}, ErrUnauthorizedProfileAccess
	}

	xHandle, err := normalizeHandle(input.XHandle)
	if err != nil {
		return Profile{}, err
	}
	farcasterHandle, err := normalizeHandle(input.FarcasterHandle)
	if err != nil {
		return Profile{}, err
	}
	instagramHandle, err := normalizeHandle(input.InstagramHandle)
	if err != nil {
		return Profile{}, err
	}

	now := s.now()
	profile, err := s.store.UpsertProfile(ctx, Profile{
		WalletAddress:   wallet.Normalize(input.WalletAddress),
		Name:            name,
		XHandle:         xHandle,
		FarcasterHandle: farcasterHandle,
		InstagramHandle: instagramHandle,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return Profile{}, err
	}

	s.log.WithFields(logrus.Fields{
		"wallet":    profile.WalletAddress,
		"requestor": requestor.WalletAddress,
	}).Info("profile saved")
	return profile, nil
}

// normalizeHandle trims whitespace and a leading "@". Empty handles are
// stored as NULL.
func normalizeHandle(raw string) (*string, error) {
	handle := strings.TrimPrefix(strings.TrimSpace(raw), "@")
	if handle == "" {
		return nil, nil
	}
	if len(handle) > maxHandleLength || strings.ContainsAny(handle, " \t\r\n") {
		return nil, ErrInvalidProfileInput
	}
	return &handle, nil
}
