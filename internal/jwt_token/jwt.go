package jwttoken

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "idattest/pkg/domain"
	dErrors "idattest/pkg/domain-errors"
)

const (
	// DefaultTTL is how long a signed request stays valid.
	DefaultTTL = 2 * time.Minute
	// MaxTTL caps exp - iat.
	MaxTTL = 10 * time.Minute
)

// Claims are the request-signing claims. The subject is the signer's base58
// public key and the token is signed by that key, so possession of the
// private key is the only credential.
type Claims struct {
	BodySHA256 string `json:"body_sha256"`
	jwt.RegisteredClaims
}

// BodyDigest is the hex sha256 carried in body_sha256.
func BodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// RequestSigner issues tokens for one ed25519 key.
type RequestSigner struct {
	key      ed25519.PrivateKey
	pubkey   id.Pubkey
	audience string
	ttl      time.Duration
}

// NewRequestSigner signs requests for audience (the registry program id).
func NewRequestSigner(key ed25519.PrivateKey, audience string, ttl time.Duration) (*RequestSigner, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, errors.New("request signer: invalid ed25519 private key")
	}
	pub, err := id.PubkeyFromBytes(key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RequestSigner{key: key, pubkey: pub, audience: audience, ttl: ttl}, nil
}

// Pubkey is the signer identity placed in sub.
func (s *RequestSigner) Pubkey() id.Pubkey { return s.pubkey }

// Sign binds a token to body at now.
func (s *RequestSigner) Sign(body []byte, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, Claims{
		BodySHA256: BodyDigest(body),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.pubkey.String(),
			Audience:  []string{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// RequestValidator checks signed-request tokens.
type RequestValidator struct {
	audience string
	leeway   time.Duration
	now      func() time.Time
}

type ValidatorOption func(*RequestValidator)

// WithClock overrides the validation clock.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *RequestValidator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithLeeway tolerates clock skew between caller and server.
func WithLeeway(d time.Duration) ValidatorOption {
	return func(v *RequestValidator) {
		v.leeway = d
	}
}

func NewRequestValidator(audience string, opts ...ValidatorOption) *RequestValidator {
	v := &RequestValidator{audience: audience, leeway: 5 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate verifies the token against body and returns the signer.
func (v *RequestValidator) Validate(tokenString string, body []byte) (id.Pubkey, error) {
	var signer id.Pubkey
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		sub, err := token.Claims.GetSubject()
		if err != nil {
			return nil, err
		}
		signer, err = id.ParsePubkey(sub)
		if err != nil {
			return nil, jwt.ErrTokenInvalidSubject
		}
		return ed25519.PublicKey(signer.Bytes()), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.Pubkey{}, dErrors.New(dErrors.CodeUnauthorized, "signed request has expired")
		}
		return id.Pubkey{}, dErrors.New(dErrors.CodeUnauthorized, "invalid request signature")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return id.Pubkey{}, dErrors.New(dErrors.CodeUnauthorized, "invalid request signature")
	}
	if claims.IssuedAt == nil || claims.ExpiresAt.Sub(claims.IssuedAt.Time) > MaxTTL {
		return id.Pubkey{}, dErrors.New(dErrors.CodeUnauthorized, "signed request lifetime too long")
	}
	if subtle.ConstantTimeCompare([]byte(claims.BodySHA256), []byte(BodyDigest(body))) != 1 {
		return id.Pubkey{}, dErrors.New(dErrors.CodeUnauthorized, "request body does not match signature")
	}
	return signer, nil
}
