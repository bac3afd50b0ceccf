package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueVerify_RoundTrip(t *testing.T) {
	is := NewIssuer(testSecret, time.Hour)
	tok, exp, err := is.Issue("65f0c0ffee0000000000abcd", []string{"ADMIN"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 59*time.Minute {
		t.Fatalf("unexpected expiry %v", exp)
	}
	id, err := is.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.ID != "65f0c0ffee0000000000abcd" || !id.HasAnyRole("admin") {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestVerify_FailuresAreIndistinguishable(t *testing.T) {
	is := NewIssuer(testSecret, time.Minute)
	good, _, _ := is.Issue("u1", nil)

	expired := NewIssuer(testSecret, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := expired.Issue("u1", nil)

	other := NewIssuer("another-secret-another-secret!!", time.Minute)
	forged, _, _ := other.Issue("u1", nil)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{ID: "u1"}).
		SignedString([]byte(testSecret))

	for name, tok := range map[string]string{
		"expired":   old,
		"forged":    forged,
		"alg none":  none,
		"no expiry": noExp,
		"garbage":   "not.a.jwt",
		"truncated": good[:len(good)-4],
	} {
		if _, err := is.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: want ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestIdentity_HasAnyRole(t *testing.T) {
	id := Identity{ID: "u", Roles: []string{"NGO_ADMIN", "user"}}
	if !id.HasAnyRole() || !id.HasAnyRole("USER") || !id.HasAnyRole("ADMIN", "ngo_admin") {
		t.Fatalf("expected role match")
	}
	if id.HasAnyRole("ADMIN") {
		t.Fatalf("unexpected role match")
	}
}

func TestPasswordAndOTP(t *testing.T) {
	hash, err := HashPassword("s3cretpass", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "s3cretpass"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("want mismatch, got %v", err)
	}
	if _, err := HashPassword("x", 99); err != nil {
		t.Fatalf("out-of-range cost should fall back: %v", err)
	}

	otp, err := GenerateOTP()
	if err != nil || len(otp) != 6 || strings.Trim(otp, "0123456789") != "" {
		t.Fatalf("bad otp %q %v", otp, err)
	}
}
