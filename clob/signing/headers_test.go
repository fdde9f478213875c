package signing

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/betbot/polyrouter/clob/types"
)

func TestCreateL1Headers_FixedTimestamp(t *testing.T) {
	signer := newTestSigner(t)
	ts := int64(1700000000)

	h, err := CreateL1Headers(context.Background(), signer, types.ChainPolygon, 3, &ts)
	if err != nil {
		t.Fatalf("CreateL1Headers error: %v", err)
	}
	if h.PolyAddress != signer.Address().Hex() {
		t.Fatalf("address got=%s want=%s", h.PolyAddress, signer.Address().Hex())
	}
	if h.PolyTimestamp != "1700000000" {
		t.Fatalf("timestamp got=%s want=1700000000", h.PolyTimestamp)
	}
	if h.PolyNonce != "3" {
		t.Fatalf("nonce got=%s want=3", h.PolyNonce)
	}
	if h.PolySignature == "" {
		t.Fatalf("empty signature")
	}

	m := h.Map()
	for _, k := range []string{"POLY_ADDRESS", "POLY_SIGNATURE", "POLY_TIMESTAMP", "POLY_NONCE"} {
		if m[k] == "" {
			t.Fatalf("missing header %s", k)
		}
	}
}

func TestCreateL2Headers(t *testing.T) {
	creds := &types.ApiKeyCreds{
		Key:        "key-1",
		Secret:     base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
		Passphrase: "pass-1",
	}
	ts := int64(1700000000)
	body := `{"x":1}`

	h, err := CreateL2Headers("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", creds, &types.L2HeaderArgs{
		Method:      "POST",
		RequestPath: "/order",
		Body:        &body,
	}, &ts)
	if err != nil {
		t.Fatalf("CreateL2Headers error: %v", err)
	}

	if h.PolyAPIKey != "key-1" || h.PolyPassphrase != "pass-1" {
		t.Fatalf("credentials not copied: %+v", h)
	}

	// 签名应与直接调用 BuildHmacSignature 一致
	want, err := BuildHmacSignature(creds.Secret, ts, "POST", "/order", &body)
	if err != nil {
		t.Fatalf("BuildHmacSignature error: %v", err)
	}
	if h.PolySignature != want {
		t.Fatalf("signature got=%s want=%s", h.PolySignature, want)
	}
}
