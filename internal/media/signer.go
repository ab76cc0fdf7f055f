package media

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const fileAudience = "vehicle-files"

var ErrInvalidToken = errors.New("invalid or expired file token")

// FileClaims name one stored file. Tokens are audience-scoped so a login
// token can never be used as a file token and vice versa.
type FileClaims struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Inline   bool   `json:"inline,omitempty"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

func NewSigner(secret string, ttl time.Duration, baseURL string) *Signer {
	return &Signer{
		secret:  []byte(secret),
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// SignedURL is the JSON body of the url endpoints.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sign returns a URL of GET /api/files/:token for the stored file.
func (s *Signer) Sign(storagePath, filename string, inline bool) (SignedURL, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := FileClaims{
		Path:     storagePath,
		Filename: filename,
		Inline:   inline,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{fileAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return SignedURL{}, fmt.Errorf("sign file url: %w", err)
	}
	return SignedURL{
		URL:       s.baseURL + "/api/files/" + url.PathEscape(tok),
		ExpiresAt: exp.UTC().Truncate(time.Second),
	}, nil
}

func (s *Signer) Verify(token string) (*FileClaims, error) {
	claims := &FileClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithAudience(fileAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Path == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
