package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoCredentials   = errors.New("no credentials")
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidInitData = errors.New("invalid telegram init data")
)

// максимальный возраст init_data и допустимый сдвиг часов
const (
	initDataMaxAge = time.Hour
	initDataSkew   = 5 * time.Minute
)

// TelegramUser - поле user из init_data
type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhotoURL  string `json:"photo_url"`
}

// Authenticator определяет игрока по JWT или по Telegram init_data.
// Пустой секрет отключает соответствующий способ.
type Authenticator struct {
	jwtSecret []byte
	botToken  string
	now       func() time.Time
}

func NewAuthenticator(jwtSecret, botToken string) *Authenticator {
	return &Authenticator{jwtSecret: []byte(jwtSecret), botToken: botToken, now: time.Now}
}

// Enabled - включен ли хотя бы один способ
func (a *Authenticator) Enabled() bool {
	return len(a.jwtSecret) > 0 || a.botToken != ""
}

// CanIssue - есть и секрет для токенов, и токен бота для init_data
func (a *Authenticator) CanIssue() bool {
	return len(a.jwtSecret) > 0 && a.botToken != ""
}

// Authenticate возвращает id игрока
func (a *Authenticator) Authenticate(token, initData string) (int64, error) {
	switch {
	case token != "" && len(a.jwtSecret) > 0:
		return a.ParseToken(token)
	case initData != "" && a.botToken != "":
		u, err := a.ValidateInitData(initData)
		if err != nil {
			return 0, err
		}
		return u.ID, nil
	default:
		return 0, ErrNoCredentials
	}
}

// IssueToken подписывает HS256 токен с id игрока в sub
func (a *Authenticator) IssueToken(playerID int64, ttl time.Duration) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", ErrNoCredentials
	}
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(playerID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

// ParseToken проверяет подпись и срок, возвращает id игрока
func (a *Authenticator) ParseToken(token string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}

// ValidateInitData проверяет HMAC Telegram WebApp init_data и свежесть auth_date
func (a *Authenticator) ValidateInitData(initData string) (*TelegramUser, error) {
	if a.botToken == "" {
		return nil, fmt.Errorf("%w: bot token not configured", ErrInvalidInitData)
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}

	provided, err := hex.DecodeString(values.Get("hash"))
	if err != nil || len(provided) == 0 {
		return nil, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}
	values.Del("hash")

	if !hmac.Equal(initDataHash(values, a.botToken), provided) {
		return nil, fmt.Errorf("%w: hash mismatch", ErrInvalidInitData)
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad auth_date", ErrInvalidInitData)
	}
	age := a.now().Sub(time.Unix(authDate, 0))
	if age > initDataMaxAge || age < -initDataSkew {
		return nil, fmt.Errorf("%w: stale auth_date", ErrInvalidInitData)
	}

	var u TelegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &u); err != nil || u.ID == 0 {
		return nil, fmt.Errorf("%w: bad user", ErrInvalidInitData)
	}
	return &u, nil
}

// секрет = HMAC("WebAppData", botToken), подпись = HMAC(секрет, отсортированные пары)
func initDataHash(values url.Values, botToken string) []byte {
	pairs := make([]string, 0, len(values))
	for k, v := range values {
		pairs = append(pairs, k+"="+strings.Join(v, ""))
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(strings.Join(pairs, "\n")))
	return h.Sum(nil)
}
