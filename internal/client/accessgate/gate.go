// Package accessgate is the boundary to the NDA-acceptance policy that is
// resolved outside the document manager. A closed gate disables preview
// and download; it is a UX gate, not a security boundary.
package accessgate

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/dealroom/internal/client/models"
)

type Gate interface {
	CanAccess(doc models.Document) bool
}

// Static is a gate with a fixed answer.
type Static bool

func (s Static) CanAccess(models.Document) bool { return bool(s) }

// Func adapts a predicate to Gate.
type Func func(doc models.Document) bool

func (f Func) CanAccess(doc models.Document) bool { return f(doc) }

// Claims carries the NDA state issued by the hosting application.
type Claims struct {
	jwt.RegisteredClaims
	NDAAccepted bool `json:"nda_accepted"`
}

var ErrInvalidToken = errors.New("invalid access token")

// FromToken derives a gate from the nda_accepted claim of a JWT. With a nil
// secret the signature is not checked; expiry still is.
func FromToken(token string, secret []byte) (Gate, error) {
	claims := &Claims{}

	if secret == nil {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if exp := claims.ExpiresAt; exp != nil && exp.Before(time.Now()) {
			return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return Static(claims.NDAAccepted), nil
	}

	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid {
		return nil, ErrInvalidToken
	}
	return Static(claims.NDAAccepted), nil
}
