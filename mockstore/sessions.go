package mockstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	DefaultSessionTTL = time.Hour
	sessionPrefix     = "logged in user session:"
)

// sessions issues login tokens. A token is a signed JWT naming the user; the session it
// belongs to lives in an expiring cache, so logging out or expiry invalidates the token
// even though its signature stays valid.
type sessions struct {
	secret []byte
	ttl    time.Duration
	active *cache.Cache
}

func newSessions(ttl time.Duration) *sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &sessions{
		secret: []byte(uuid.NewString()),
		ttl:    ttl,
		active: cache.New(ttl, 2*ttl),
	}
}

func (s *sessions) issue(username string, now time.Time) (string, time.Time, error) {
	expires := now.Add(s.ttl)
	id := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	s.active.Set(id, username, cache.DefaultExpiration)
	return signed, expires, nil
}

// resolve returns the username of a live session.
func (s *sessions) resolve(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	username, ok := s.active.Get(claims.ID)
	if !ok {
		return "", errors.New("session has ended")
	}
	return username.(string), nil
}

// end removes the session for a token; it is not an error if there is none.
func (s *sessions) end(token string) {
	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}); err == nil {
		s.active.Delete(claims.ID)
	}
}

func (s *sessions) count() int {
	return s.active.ItemCount()
}
