package jwtx

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
)

// signingMethod is fixed. The token header never gets a say in which
// algorithm verifies it.
var signingMethod = jwt.SigningMethodHS256

// Codec turns claims into compact HS256 tokens and back.
type Codec struct {
	secret []byte
}

// NewCodec copies the secret so later changes to the caller's buffer cannot
// alter signing.
func NewCodec(secret string) (*Codec, error) {
	if utf8.RuneCountInString(secret) < MinSecretLength {
		return nil, &ConfigError{Field: "secret", Reason: "must be at least 32 characters"}
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Alg returns the only algorithm this codec produces and accepts.
func (c *Codec) Alg() string { return signingMethod.Alg() }

// Encode signs the claims. The signature covers header and payload.
func (c *Codec) Encode(claims Claims) (string, error) {
	t := jwt.NewWithClaims(signingMethod, claims)
	s, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return s, nil
}

// Decode checks structure and signature and returns the claims. It does not
// look at exp, iss, aud or typ; that is the Validator's job.
func (c *Codec) Decode(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, malformed(fmt.Sprintf("expected 3 segments, got %d", len(parts)))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)

	// Header and payload must decode before the signature is looked at, so
	// garbage is reported as malformed whatever its last segment holds.
	// An unknown alg is left for ParseWithClaims to reject as unverifiable.
	if _, _, err := parser.ParseUnverified(token, &Claims{}); err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	// Strict decoding rejects signatures whose unused trailing bits were
	// flipped, otherwise two encodings of the same MAC would both verify.
	if _, err := base64.RawURLEncoding.Strict().DecodeString(parts[2]); err != nil {
		return Claims{}, fmt.Errorf("%w: undecodable signature", ErrInvalidSignature)
	}

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, classifyParseError(err)
	}

	if err := claims.checkStructure(); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
