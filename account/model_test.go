package account

import (
	"testing"
	"time"
)

func TestBanEffectivelyActive(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name string
		ban  *Ban
		want bool
	}{
		{"nil", nil, false},
		{"permanent", &Ban{Active: true}, true},
		{"future expiry", &Ban{Active: true, ExpiresAt: &future}, true},
		{"past expiry", &Ban{Active: true, ExpiresAt: &past}, false},
		{"expiry now", &Ban{Active: true, ExpiresAt: &now}, false},
		{"lifted", &Ban{Active: false}, false},
	}
	for _, tc := range cases {
		if got := tc.ban.EffectivelyActive(now); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestMuteEffectivelyActive(t *testing.T) {
	now := time.Now()
	m := &Mute{Active: true, ExpiresAt: now.Add(time.Minute)}
	if !m.EffectivelyActive(now) {
		t.Fatal("expected active mute")
	}
	if m.EffectivelyActive(now.Add(time.Minute)) {
		t.Fatal("expected expired mute")
	}
}

func TestAccountUsable(t *testing.T) {
	deleted := time.Now()
	if (&Account{Active: true}).Usable() != true {
		t.Fatal("active account must be usable")
	}
	if (&Account{Active: false}).Usable() {
		t.Fatal("inactive account must not be usable")
	}
	if (&Account{Active: true, DeletedAt: &deleted}).Usable() {
		t.Fatal("deleted account must not be usable")
	}
}

func TestSecretTokenState(t *testing.T) {
	now := time.Now()
	exp := now.Add(time.Hour)
	tok := &SecretToken{ExpiresAt: &exp}
	if tok.Expired(now) || tok.Used() {
		t.Fatal("fresh token must be usable")
	}
	if !tok.Expired(exp) {
		t.Fatal("token must expire at its expiry instant")
	}
	if (&SecretToken{}).Expired(now.Add(1000 * time.Hour)) {
		t.Fatal("token without expiry never expires")
	}
	if !PurposePasswordReset.Valid() || Purpose("other").Valid() {
		t.Fatal("unexpected purpose validity")
	}
}
