package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken 署名不一致、期限切れ、発行者不一致など
	ErrInvalidToken = errors.New("invalid attempt token")
)

// AttemptTokenSigner 決済試行IDを短命のHS256トークンとして署名する
// リダイレクト往復の間、ブラウザのCookieに載せて運ぶ
type AttemptTokenSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewAttemptTokenSigner 新しいAttemptTokenSignerを作成
func NewAttemptTokenSigner(secret, issuer string) (*AttemptTokenSigner, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	return &AttemptTokenSigner{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Issue 試行IDのトークンを発行
func (s *AttemptTokenSigner) Issue(attemptID string, ttl time.Duration) (string, error) {
	if attemptID == "" {
		return "", fmt.Errorf("attempt_id is required")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"attempt_id": attemptID,
		"iss":        s.issuer,
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign attempt token: %w", err)
	}
	return signed, nil
}

// Parse トークンを検証して試行IDを返す
func (s *AttemptTokenSigner) Parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 署名アルゴリズムの確認
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	attemptID, ok := claims["attempt_id"].(string)
	if !ok || attemptID == "" {
		return "", fmt.Errorf("%w: missing attempt_id", ErrInvalidToken)
	}
	return attemptID, nil
}
