package auth

import (
	"strings"

	"github.com/yxshee/marfa-gallery/internal/platform/identifier"
)

// AdminSet is the bootstrap list of wallets that always receive the admin
// role, keyed by lowercase address.
type AdminSet map[string]struct{}

func BuildAdminSet(walletsCSV string) AdminSet {
	admins := make(AdminSet)
	for _, raw := range strings.Split(walletsCSV, ",") {
		wallet := strings.ToLower(strings.TrimSpace(raw))
		if wallet == "" {
			continue
		}
		admins[wallet] = struct{}{}
	}
	return admins
}

func (s AdminSet) Contains(wallet string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(wallet))]
	return ok
}

// NewSessionIdentity resolves the role for a freshly connected wallet.
func NewSessionIdentity(wallet string, profileIsAdmin bool, admins AdminSet) Identity {
	role := RoleCollector
	if profileIsAdmin || admins.Contains(wallet) {
		role = RoleAdmin
	}
	return Identity{
		WalletAddress: wallet,
		Role:          role,
		SessionID:     identifier.New("ses"),
	}
}
