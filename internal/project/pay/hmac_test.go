package pay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestVerifyHMAC(t *testing.T) {
	body := []byte("order_1|pay_1")
	secret := "secret"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	if !VerifyHMAC(body, sig, secret) {
		t.Fatalf("expected signature to verify")
	}
	if VerifyHMAC(body, sig, "other") {
		t.Fatalf("signature should not verify with a different secret")
	}
	if VerifyHMAC(body, "zz-not-hex", secret) {
		t.Fatalf("non-hex signature should not verify")
	}
}

func TestVerifyPaymentSignature(t *testing.T) {
	sig := SignPayment("order_A", "pay_B", "s3cr3t")
	if !VerifyPaymentSignature("order_A", "pay_B", sig, "s3cr3t") {
		t.Fatalf("expected valid signature")
	}
	if VerifyPaymentSignature("order_A", "pay_C", sig, "s3cr3t") {
		t.Fatalf("signature bound to another payment must fail")
	}
	if VerifyPaymentSignature("order_A", "pay_B", sig, "") {
		t.Fatalf("empty secret must fail")
	}
	if VerifyPaymentSignature("", "pay_B", sig, "s3cr3t") {
		t.Fatalf("missing order id must fail")
	}
}
