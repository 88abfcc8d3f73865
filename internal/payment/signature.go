package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// VerifySignature checks the x-signature header Mercado Pago sends with
// webhook notifications ("ts=<unix>,v1=<hex hmac>"). The signed manifest is
// "id:<data.id>;request-id:<x-request-id>;ts:<ts>;"; parts whose value is
// empty are left out of the manifest.
func VerifySignature(secret, xSignature, xRequestID, dataID string) error {
	var ts, v1 string
	for _, part := range strings.Split(xSignature, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "ts":
			ts = v
		case "v1":
			v1 = v
		}
	}
	if ts == "" || v1 == "" {
		return fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}

	want, err := hex.DecodeString(v1)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Manifest(dataID, xRequestID, ts)))
	if !hmac.Equal(mac.Sum(nil), want) {
		return ErrInvalidSignature
	}
	return nil
}

func Manifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		// alphanumeric ids are signed lowercase
		b.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	b.WriteString("ts:" + ts + ";")
	return b.String()
}
