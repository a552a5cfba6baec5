package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrMissingSubject = errors.New("token has no user")

const (
	defaultIssuer = "online-polls"
	defaultTTL    = 24 * time.Hour
)

// claims carries the account id in the standard subject claim.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified token says about its holder.
type Identity struct {
	UserID    int64
	Role      string
	ExpiresAt time.Time
}

type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	if issuer == "" {
		issuer = defaultIssuer
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	m := &Manager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	return m
}

// Generate signs a token for the account. The role is informational; the API
// re-reads it from the store on every request.
func (m *Manager) Generate(userID int64, role string) (string, error) {
	issued := m.now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

func (m *Manager) Parse(raw string) (Identity, error) {
	var c claims
	if _, err := m.parser.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return Identity{}, err
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, ErrMissingSubject
	}
	return Identity{UserID: id, Role: c.Role, ExpiresAt: c.ExpiresAt.Time}, nil
}
