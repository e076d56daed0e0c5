package tpay

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Notification carries the form fields of a payment gateway callback.
type Notification struct {
	MerchantID string
	TrID       string
	TrAmount   string
	TrCRC      string
	TrStatus   string
	TrError    string
	Md5sum     string
}

// StatusOK reports whether the gateway marked the payment as settled.
// The gateway sends "TRUE" with tr_error "none" on success.
func (n Notification) StatusOK() bool {
	return strings.EqualFold(strings.TrimSpace(n.TrStatus), "TRUE") &&
		(n.TrError == "" || strings.EqualFold(strings.TrimSpace(n.TrError), "none"))
}

// LegacyChecksum computes the md5sum the gateway attaches to legacy
// notifications: md5(merchant_id + tr_id + tr_amount + tr_crc + code).
func LegacyChecksum(merchantID, trID, trAmount, trCRC, securityCode string) string {
	sum := md5.Sum([]byte(merchantID + trID + trAmount + trCRC + securityCode))
	return hex.EncodeToString(sum[:])
}

// VerifyLegacy checks the md5sum field against the merchant security code.
func VerifyLegacy(n Notification, securityCode string) error {
	want := LegacyChecksum(n.MerchantID, n.TrID, n.TrAmount, n.TrCRC, securityCode)
	got := strings.ToLower(strings.TrimSpace(n.Md5sum))
	if !hmac.Equal([]byte(want), []byte(got)) {
		return fmt.Errorf("tpay: md5sum mismatch for tr_id %s", n.TrID)
	}
	return nil
}

// VerifyJWS checks a detached JWS signature (header..signature) over the
// raw notification body. The header and signature come from the
// X-JWS-Signature request header with the payload segment left empty.
func VerifyJWS(detached string, body []byte, secret []byte) error {
	parts := strings.Split(detached, ".")
	if len(parts) != 3 {
		return fmt.Errorf("tpay: malformed JWS signature")
	}
	payload := base64.RawURLEncoding.EncodeToString(body)
	signingInput := parts[0] + "." + payload

	method := jwt.SigningMethodHS256
	sig, err := method.Sign(signingInput, secret)
	if err != nil {
		return fmt.Errorf("tpay: sign for compare: %w", err)
	}
	want := base64.RawURLEncoding.EncodeToString(sig)
	if !hmac.Equal([]byte(want), []byte(parts[2])) {
		return fmt.Errorf("tpay: JWS signature mismatch")
	}
	return nil
}

// SignJWS produces the detached signature for body; used by tests and
// by the sandbox replay tool.
func SignJWS(body []byte, secret []byte) (string, error) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWS"}`))
	payload := base64.RawURLEncoding.EncodeToString(body)

	sig, err := jwt.SigningMethodHS256.Sign(header+"."+payload, secret)
	if err != nil {
		return "", err
	}
	return header + ".." + base64.RawURLEncoding.EncodeToString(sig), nil
}
