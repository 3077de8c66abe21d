package pay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyHMAC validates a hex HMAC-SHA256 signature of body.
func VerifyHMAC(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(sig, expected)
}

// VerifyPaymentSignature checks a checkout callback signature computed over "orderID|paymentID".
func VerifyPaymentSignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}
	return VerifyHMAC([]byte(orderID+"|"+paymentID), signature, secret)
}

// SignPayment produces the signature VerifyPaymentSignature expects.
func SignPayment(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
