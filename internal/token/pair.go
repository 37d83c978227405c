package token

import (
	"errors"
	"time"

	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
	"github.com/google/uuid"
	"github.com/kataras/jwt"
)

type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

var (
	ErrInvalidSignature = errors.New("token: invalid signature")
	ErrExpired          = errors.New("token: expired")
)

type Pair struct {
	Access  string `json:"accessToken"`
	Refresh string `json:"refreshToken"`
}

type Options struct {
	AccessSecret    []byte
	RefreshSecret   []byte
	AccessLifetime  time.Duration
	RefreshLifetime time.Duration
}

/* Both tokens of a pair carry the same identity and are signed with HS512,
 * each with its own secret and lifetime. The jti keeps two pairs issued in
 * the same second apart. */
type claims struct {
	model.Identity
	ID       string `json:"jti"`
	IssuedAt int64  `json:"iat"`
	Expiry   int64  `json:"exp"`
}

type Service struct {
	opts Options
	now  func() time.Time
}

func NewService(opts Options) *Service {
	return &Service{opts: opts, now: time.Now}
}

func (s *Service) Issue(identity model.Identity) (Pair, error) {
	access, err := s.sign(identity, s.opts.AccessSecret, s.opts.AccessLifetime)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.sign(identity, s.opts.RefreshSecret, s.opts.RefreshLifetime)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Verify checks the signature with the secret of the given kind and the expiry.
func (s *Service) Verify(token string, kind Kind) (model.Identity, error) {
	verifiedToken, err := jwt.Verify(jwt.HS512, s.secret(kind), []byte(token))
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return model.Identity{}, ErrExpired
		}
		return model.Identity{}, ErrInvalidSignature
	}
	var c claims
	if err = verifiedToken.Claims(&c); err != nil {
		return model.Identity{}, ErrInvalidSignature
	}
	if c.Expiry <= s.now().Unix() {
		return model.Identity{}, ErrExpired
	}
	if c.UserID == "" {
		return model.Identity{}, ErrInvalidSignature
	}
	return c.Identity, nil
}

func (s *Service) sign(identity model.Identity, secret []byte, lifetime time.Duration) (string, error) {
	now := s.now()
	token, err := jwt.Sign(jwt.HS512, secret, claims{
		Identity: identity,
		ID:       uuid.NewString(),
		IssuedAt: now.Unix(),
		Expiry:   now.Add(lifetime).Unix(),
	})
	if err != nil {
		return "", err
	}
	return string(token), nil
}

func (s *Service) secret(kind Kind) []byte {
	if kind == Refresh {
		return s.opts.RefreshSecret
	}
	return s.opts.AccessSecret
}
