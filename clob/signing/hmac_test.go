package signing

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestBuildHmacSignature_Deterministic(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	body := `{"order":"x"}`

	a, err := BuildHmacSignature(secret, 1700000000, "POST", "/order", &body)
	if err != nil {
		t.Fatalf("BuildHmacSignature error: %v", err)
	}
	b, err := BuildHmacSignature(secret, 1700000000, "POST", "/order", &body)
	if err != nil {
		t.Fatalf("BuildHmacSignature error: %v", err)
	}
	if a != b {
		t.Fatalf("same input produced different signatures: %s != %s", a, b)
	}
}

func TestBuildHmacSignature_BodyChangesSignature(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	body := `{"order":"x"}`

	withBody, err := BuildHmacSignature(secret, 1700000000, "POST", "/order", &body)
	if err != nil {
		t.Fatalf("BuildHmacSignature error: %v", err)
	}
	withoutBody, err := BuildHmacSignature(secret, 1700000000, "POST", "/order", nil)
	if err != nil {
		t.Fatalf("BuildHmacSignature error: %v", err)
	}
	if withBody == withoutBody {
		t.Fatalf("body not included in signature")
	}
}

func TestBuildHmacSignature_URLSafeSecret(t *testing.T) {
	// 构造一个解码后含 + 和 / 的密钥，再以 url-safe 形式传入
	raw := []byte{0xfb, 0xef, 0xff, 0x01, 0x02, 0x03, 0x04, 0x05,
		0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d}
	std := base64.StdEncoding.EncodeToString(raw)
	urlSafe := strings.ReplaceAll(strings.ReplaceAll(std, "+", "-"), "/", "_")

	fromStd, err := BuildHmacSignature(std, 1700000000, "GET", "/auth/derive-api-key", nil)
	if err != nil {
		t.Fatalf("std secret error: %v", err)
	}
	fromURLSafe, err := BuildHmacSignature(urlSafe, 1700000000, "GET", "/auth/derive-api-key", nil)
	if err != nil {
		t.Fatalf("url-safe secret error: %v", err)
	}
	if fromStd != fromURLSafe {
		t.Fatalf("url-safe secret decoded differently: %s != %s", fromStd, fromURLSafe)
	}
}

func TestBuildHmacSignature_OutputURLSafe(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

	// 多组输入下输出都不应包含 + 或 /
	for _, path := range []string{"/order", "/auth/api-key", "/data/orders", "/a/b/c"} {
		sig, err := BuildHmacSignature(secret, 1700000001, "POST", path, nil)
		if err != nil {
			t.Fatalf("BuildHmacSignature error: %v", err)
		}
		if strings.ContainsAny(sig, "+/") {
			t.Fatalf("signature not url-safe: %s", sig)
		}
	}
}

func TestBuildHmacSignature_BadSecret(t *testing.T) {
	if _, err := BuildHmacSignature("not base64!!!", 1700000000, "GET", "/", nil); err == nil {
		t.Fatalf("expected error for undecodable secret")
	}
}
