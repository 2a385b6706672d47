package auth

import (
	"strings"
	"testing"
	"time"
)

const testWallet = "0x742d35Cc6639C0532fEb42387b22e3f0a1dd9527"

func TestIssueAndParseToken(t *testing.T) {
	manager, err := NewTokenManager("test-secret", "gallery-api", testDuration(900))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}

	identity := Identity{WalletAddress: testWallet, Role: RoleCollector, SessionID: "ses_1"}
	token, err := manager.Issue(identity)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := manager.ParseAndValidate(token.AccessToken)
	if err != nil {
		t.Fatalf("ParseAndValidate() error = %v", err)
	}
	if claims.WalletAddress != testWallet || claims.Role != RoleCollector || claims.SessionID != "ses_1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %s", claims.ExpiresAt)
	}
}

func TestParseInvalidSignature(t *testing.T) {
	good, err := NewTokenManager("good-secret", "gallery-api", testDuration(900))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}
	bad, err := NewTokenManager("bad-secret", "gallery-api", testDuration(900))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}

	token, err := good.Issue(Identity{WalletAddress: testWallet, Role: RoleAdmin, SessionID: "ses_1"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := bad.ParseAndValidate(token.AccessToken); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseExpiredAndForeignIssuer(t *testing.T) {
	manager, err := NewTokenManager("secret", "gallery-api", testDuration(60))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}
	manager.now = func() time.Time { return time.Now().Add(-time.Hour) }

	expired, err := manager.Issue(Identity{WalletAddress: testWallet, Role: RoleCollector})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := manager.ParseAndValidate(expired.AccessToken); err != ErrInvalidToken {
		t.Fatalf("expected expired token to fail, got %v", err)
	}

	other, _ := NewTokenManager("secret", "someone-else", testDuration(60))
	foreign, err := other.Issue(Identity{WalletAddress: testWallet, Role: RoleCollector})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := manager.ParseAndValidate(foreign.AccessToken); err != ErrInvalidToken {
		t.Fatalf("expected foreign issuer to fail, got %v", err)
	}
}

func TestNewTokenManagerValidation(t *testing.T) {
	if _, err := NewTokenManager("", "gallery-api", testDuration(1)); err == nil {
		t.Fatal("expected empty secret to fail")
	}
	if _, err := NewTokenManager("secret", "gallery-api", 0); err == nil {
		t.Fatal("expected zero ttl to fail")
	}
}

func TestNewSessionIdentity(t *testing.T) {
	admins := BuildAdminSet(" " + strings.ToUpper(testWallet[2:]) + ", ," + testWallet)

	identity := NewSessionIdentity(testWallet, false, admins)
	if identity.Role != RoleAdmin {
		t.Fatalf("expected bootstrap admin, got %s", identity.Role)
	}
	if !strings.HasPrefix(identity.SessionID, "ses_") {
		t.Fatalf("unexpected session id %q", identity.SessionID)
	}

	collector := NewSessionIdentity("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false, admins)
	if collector.Role != RoleCollector {
		t.Fatalf("expected collector, got %s", collector.Role)
	}

	promoted := NewSessionIdentity("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", true, admins)
	if promoted.Role != RoleAdmin {
		t.Fatalf("expected profile admin to be promoted, got %s", promoted.Role)
	}
}

func testDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
