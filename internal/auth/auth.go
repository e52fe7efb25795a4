// Package auth provides Kalshi API authentication using RSA PKCS#1 v1.5 signatures.
package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Header names sent with every signed request.
const (
	HeaderAccessKey       = "KALSHI-ACCESS-KEY"
	HeaderAccessSignature = "KALSHI-ACCESS-SIGNATURE"
	HeaderAccessTimestamp = "KALSHI-ACCESS-TIMESTAMP"
)

// ErrInvalidKey is returned when key material cannot be turned into an RSA private key.
// It is a configuration error and never worth retrying.
var ErrInvalidKey = errors.New("invalid private key")

// Credentials holds the API key and private key for signing requests.
// Loaded once at startup and never mutated.
type Credentials struct {
	KeyID      string          // API key ID from Kalshi dashboard
	PrivateKey *rsa.PrivateKey // RSA private key for signing
}

// SignedRequest is the result of signing one (method, path, timestamp) triple.
type SignedRequest struct {
	Method      string
	Path        string // absolute path including query string
	TimestampMs int64
	Signature   string // base64
	KeyID       string
}

// Headers returns the authentication header set for the request.
func (s SignedRequest) Headers() map[string]string {
	return map[string]string{
		HeaderAccessKey:       s.KeyID,
		HeaderAccessSignature: s.Signature,
		HeaderAccessTimestamp: strconv.FormatInt(s.TimestampMs, 10),
	}
}

// LoadCredentials loads credentials from key ID and private key file path.
func LoadCredentials(keyID, privateKeyPath string) (*Credentials, error) {
	if keyID == "" {
		return nil, fmt.Errorf("API key ID is required")
	}
	if privateKeyPath == "" {
		return nil, fmt.Errorf("private key path is required")
	}

	privateKey, err := LoadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}

	return &Credentials{
		KeyID:      keyID,
		PrivateKey: privateKey,
	}, nil
}

// LoadCredentialsBase64 loads credentials from a base64-encoded PEM document,
// the form used when the key is delivered through an environment variable.
func LoadCredentialsBase64(keyID, encodedPEM string) (*Credentials, error) {
	if keyID == "" {
		return nil, fmt.Errorf("API key ID is required")
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encodedPEM))
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %v", ErrInvalidKey, err)
	}

	privateKey, err := ParsePrivateKey(data)
	if err != nil {
		return nil, err
	}

	return &Credentials{
		KeyID:      keyID,
		PrivateKey: privateKey,
	}, nil
}

// LoadPrivateKey loads an RSA private key from a PEM file.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return ParsePrivateKey(data)
}

// ParsePrivateKey parses a PEM-encoded RSA private key in PKCS#8 or PKCS#1 form.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block", ErrInvalidKey)
	}

	// Try PKCS#8 first (newer format)
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: key is not an RSA private key", ErrInvalidKey)
		}
		return rsaKey, nil
	}

	// Fall back to PKCS#1 (older format)
	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %v", ErrInvalidKey, err)
	}

	return rsaKey, nil
}

// SignRequest generates authentication headers for a Kalshi API request.
// The timestamp is taken at call time; headers must not be reused across requests.
func (c *Credentials) SignRequest(method, path string) (headers map[string]string, err error) {
	signed, err := c.Sign(method, path, time.Now())
	if err != nil {
		return nil, err
	}
	return signed.Headers(), nil
}

// Sign signs method and path at the given instant.
// Message format: timestamp_ms + METHOD + path, no delimiters.
func (c *Credentials) Sign(method, path string, at time.Time) (SignedRequest, error) {
	if c == nil || c.PrivateKey == nil {
		return SignedRequest{}, fmt.Errorf("%w: no private key loaded", ErrInvalidKey)
	}

	method = strings.ToUpper(method)
	timestampMs := at.UnixMilli()

	signature, err := c.generateSignature(timestampMs, method, path)
	if err != nil {
		return SignedRequest{}, err
	}

	return SignedRequest{
		Method:      method,
		Path:        path,
		TimestampMs: timestampMs,
		Signature:   signature,
		KeyID:       c.KeyID,
	}, nil
}

// CanonicalMessage builds the string that is signed for a request.
func CanonicalMessage(timestampMs int64, method, path string) string {
	return strconv.FormatInt(timestampMs, 10) + method + path
}

func (c *Credentials) generateSignature(timestampMs int64, method, path string) (string, error) {
	hashed := sha256.Sum256([]byte(CanonicalMessage(timestampMs, method, path)))

	signature, err := rsa.SignPKCS1v15(rand.Reader, c.PrivateKey, crypto.SHA256, hashed[:])
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}
