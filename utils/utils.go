package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ray-remotestate/smartmenu/config"
	"github.com/ray-remotestate/smartmenu/middlewares"
)

const accessTokenTTL = 7 * 24 * time.Hour

// GenerateAccessToken signs a token bound to a persisted session; the
// session id rides in the jti claim.
func GenerateAccessToken(userID, sessionID uuid.UUID, roles []string) (string, error) {
	now := time.Now()

	claims := &middlewares.Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID.String(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.SecretKey))
}

func HashPassword(pw string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(bytes), err
}

// NewOrderNumber builds a human-readable order number like
// "#ORD-9F86D081A3B2".
func NewOrderNumber() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return "#ORD-" + strings.ToUpper(suffix)
}

// GenerateOTP returns a uniformly random 6-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
