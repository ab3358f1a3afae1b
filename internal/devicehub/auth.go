package devicehub

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errors returned by Authenticator implementations, adapted from the
// teacher's websocket.JWTAuth error set.
var (
	ErrMissingToken = errors.New("missing device authentication token")
	ErrInvalidToken = errors.New("invalid device authentication token")
	ErrExpiredToken = errors.New("device authentication token has expired")
)

// Authenticator validates a device connection upgrade request and returns
// the authenticated device_id.
type Authenticator interface {
	Authenticate(r *http.Request) (deviceID string, err error)
}

// DeviceClaims carries the device identity in the JWT, mirroring the
// teacher's JWTClaims shape (UserID -> DeviceID).
type DeviceClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// JWTAuth authenticates device connections by bearer token, query
// parameter, or Sec-WebSocket-Protocol header, in that order — identical
// fallback chain to the teacher's JWTAuth.Authenticate.
type JWTAuth struct {
	secretKey string
}

// NewJWTAuth builds a JWTAuth using secretKey to validate HMAC signatures.
func NewJWTAuth(secretKey string) *JWTAuth {
	return &JWTAuth{secretKey: secretKey}
}

func (a *JWTAuth) Authenticate(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return a.validateToken(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return a.validateToken(token)
	}
	if protocols := r.Header.Get("Sec-WebSocket-Protocol"); protocols != "" {
		for _, p := range strings.Split(protocols, ",") {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "auth-") {
				return a.validateToken(strings.TrimPrefix(p, "auth-"))
			}
		}
	}
	return "", ErrMissingToken
}

func (a *JWTAuth) validateToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &DeviceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(a.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*DeviceClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	deviceID := claims.DeviceID
	if deviceID == "" {
		deviceID = claims.Subject
	}
	if deviceID == "" {
		return "", ErrInvalidToken
	}
	return deviceID, nil
}

// GenerateToken issues a signed token for deviceID, used by tests and by
// whatever provisioning flow hands a device its credential.
func (a *JWTAuth) GenerateToken(deviceID string, expiresAt time.Time) (string, error) {
	claims := DeviceClaims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.secretKey))
}
