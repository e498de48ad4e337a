package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the JWS algorithm.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"

	minHMACKeyBytes = 32
)

// ErrTokenInvalid wraps every parse or verification failure.
var ErrTokenInvalid = errors.New("token invalid")

// Config holds signing keys and lifetimes. PrivateKey doubles as the HMAC
// secret for MethodHS256.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
	// Now overrides the clock used for issuing and verifying. Nil means time.Now.
	Now func() time.Time
}

// Identity is the informational payload of an access token. It is never a
// substitute for a store lookup on privilege-sensitive paths.
type Identity struct {
	AccountID   string
	Username    string
	DisplayName string
	Email       string
	Role        string
}

// AccessClaims are the claims of an access token. Version is nil when the
// token carries no "ver" claim.
type AccessClaims struct {
	Version     *int64 `json:"ver,omitempty"`
	Type        string `json:"typ,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AccountID returns the subject claim.
func (c *AccessClaims) AccountID() string {
	return c.Subject
}

// Versioned reports whether the token carries both subject and version.
func (c *AccessClaims) Versioned() bool {
	return c != nil && c.Subject != "" && c.Version != nil
}

// RefreshClaims are the claims of a refresh token.
type RefreshClaims struct {
	Version *int64 `json:"ver"`
	Type    string `json:"typ"`
	jwt.RegisteredClaims
}

// Token is a signed credential with its identifiers.
type Token struct {
	Value     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Pair is an access and refresh token minted against the same version.
type Pair struct {
	Access  Token
	Refresh Token
	Version int64
}

// Manager signs and verifies session tokens. It is safe for concurrent use.
type Manager struct {
	config  Config
	signKey any
	method  jwt.SigningMethod
}

// NewManager validates cfg and resolves key material.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("jwt: access and refresh TTL must be > 0")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("jwt: refresh TTL must be >= access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("jwt: leeway must be within [0, 2m]")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("jwt: invalid MaxFutureIAT")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	m := &Manager{config: cfg}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < minHMACKeyBytes {
			return nil, fmt.Errorf("jwt: hs256 secret must be at least %d bytes", minHMACKeyBytes)
		}
		m.method = jwt.SigningMethodHS256
		m.signKey = cfg.PrivateKey
	case MethodEd25519:
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		} else {
			m.config.PublicKey = priv.Public().(ed25519.PublicKey)
		}
		for kid, key := range cfg.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return nil, errors.New("jwt: verify key map contains empty kid")
			}
			if _, err := parseEdPublicKey(key); err != nil {
				return nil, fmt.Errorf("jwt: invalid ed25519 verify key for kid %q: %w", kid, err)
			}
		}
		m.method = jwt.SigningMethodEdDSA
		m.signKey = priv
	default:
		return nil, errors.New("jwt: unsupported signing method")
	}

	if cfg.KeyID != "" && len(cfg.VerifyKeys) > 0 {
		if _, ok := cfg.VerifyKeys[cfg.KeyID]; !ok {
			return nil, errors.New("jwt: KeyID is not present in VerifyKeys")
		}
	}

	return m, nil
}

// AccessTTL returns the configured access token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

// IssueAccessToken mints an access token for id at version.
func (m *Manager) IssueAccessToken(id Identity, version int64) (Token, error) {
	return m.issueAccess(id, version, m.config.Now())
}

// IssueRefreshToken mints a refresh token for accountID at version.
func (m *Manager) IssueRefreshToken(accountID string, version int64) (Token, error) {
	return m.issueRefresh(accountID, version, m.config.Now())
}

// IssuePair mints both tokens against one version and one issued-at instant.
func (m *Manager) IssuePair(id Identity, version int64) (Pair, error) {
	now := m.config.Now()

	access, err := m.issueAccess(id, version, now)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.issueRefresh(id.AccountID, version, now)
	if err != nil {
		return Pair{}, err
	}

	return Pair{Access: access, Refresh: refresh, Version: version}, nil
}

func (m *Manager) issueAccess(id Identity, version int64, now time.Time) (Token, error) {
	if id.AccountID == "" {
		return Token{}, errors.New("jwt: empty account id")
	}

	v := version
	claims := AccessClaims{
		Version:          &v,
		Type:             typeAccess,
		Username:         id.Username,
		DisplayName:      id.DisplayName,
		Email:            id.Email,
		Role:             id.Role,
		RegisteredClaims: m.registered(id.AccountID, now, m.config.AccessTTL),
	}

	return m.sign(claims, claims.RegisteredClaims)
}

func (m *Manager) issueRefresh(accountID string, version int64, now time.Time) (Token, error) {
	if accountID == "" {
		return Token{}, errors.New("jwt: empty account id")
	}

	v := version
	claims := RefreshClaims{
		Version:          &v,
		Type:             typeRefresh,
		RegisteredClaims: m.registered(accountID, now, m.config.RefreshTTL),
	}

	return m.sign(claims, claims.RegisteredClaims)
}

func (m *Manager) registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	rc := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    m.config.Issuer,
	}
	if m.config.Audience != "" {
		rc.Audience = jwt.ClaimStrings{m.config.Audience}
	}
	return rc
}

func (m *Manager) sign(claims jwt.Claims, rc jwt.RegisteredClaims) (Token, error) {
	token := jwt.NewWithClaims(m.method, claims)
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}

	value, err := token.SignedString(m.signKey)
	if err != nil {
		return Token{}, err
	}

	return Token{
		Value:     value,
		ID:        rc.ID,
		IssuedAt:  rc.IssuedAt.Time,
		ExpiresAt: rc.ExpiresAt.Time,
	}, nil
}

// ParseAccess verifies an access token. Tokens typed as anything other than
// access are rejected. A missing version claim is not an error; callers check
// Versioned.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Type != "" && claims.Type != typeAccess {
		return nil, fmt.Errorf("%w: unexpected token type %q", ErrTokenInvalid, claims.Type)
	}
	if err := m.checkIssuedAt(claims.IssuedAt); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateRefreshToken verifies a refresh token. Every failure collapses to
// valid=false so callers cannot tell expired from tampered.
func (m *Manager) ValidateRefreshToken(tokenStr string) (valid bool, accountID string, version int64) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenStr, claims); err != nil {
		return false, "", 0
	}
	if claims.Type != typeRefresh || claims.Version == nil || claims.Subject == "" {
		return false, "", 0
	}
	if claims.ExpiresAt == nil || m.checkIssuedAt(claims.IssuedAt) != nil {
		return false, "", 0
	}
	return true, claims.Subject, *claims.Version
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithTimeFunc(m.config.Now),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, m.keyFunc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}

func (m *Manager) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != m.method.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}

	kid, _ := t.Header["kid"].(string)
	if len(m.config.VerifyKeys) > 0 {
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := m.config.VerifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return m.verifyKey(key)
	}
	if m.config.KeyID != "" && kid != m.config.KeyID {
		return nil, errors.New("unknown kid")
	}

	if m.config.SigningMethod == MethodHS256 {
		return m.config.PrivateKey, nil
	}
	return m.verifyKey(m.config.PublicKey)
}

func (m *Manager) verifyKey(key []byte) (any, error) {
	if m.config.SigningMethod == MethodHS256 {
		return key, nil
	}
	return parseEdPublicKey(key)
}

func (m *Manager) checkIssuedAt(iat *jwt.NumericDate) error {
	if iat == nil {
		return fmt.Errorf("%w: missing iat", ErrTokenInvalid)
	}
	if iat.Time.After(m.config.Now().Add(m.config.MaxFutureIAT)) {
		return fmt.Errorf("%w: iat too far in the future", ErrTokenInvalid)
	}
	return nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("jwt: invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwt: invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("jwt: invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("jwt: invalid ed25519 public key type")
	}
	return edKey, nil
}
