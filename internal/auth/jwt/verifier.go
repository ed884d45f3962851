package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"clinsynth/internal/config"
	"clinsynth/internal/domain"
)

const accessAudience = "access"

// Verifier validates HS256 bearer tokens whose subject is the requester id.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a Verifier from the JWT configuration.
func NewVerifier(cfg *config.JWTConfig) *Verifier {
	return &Verifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

// Verify parses the token and returns the requester id carried in its subject.
func (v *Verifier) Verify(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(accessAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing token: %w: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return uuid.Nil, domain.ErrUnauthorized
	}

	requesterID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token subject: %w", domain.ErrUnauthorized)
	}
	return requesterID, nil
}

// Issue signs an access token for requesterID. Tokens are normally minted by the
// identity collaborator; this is used by tooling and tests.
func (v *Verifier) Issue(requesterID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   requesterID.String(),
		Issuer:    v.issuer,
		Audience:  jwt.ClaimStrings{accessAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
