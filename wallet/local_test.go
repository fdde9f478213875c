package wallet

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

func testTypedData(addr string) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"Message": {
				{Name: "owner", Type: "address"},
				{Name: "note", Type: "string"},
			},
		},
		PrimaryType: "Message",
		Domain: apitypes.TypedDataDomain{
			Name:    "Test",
			Version: "1",
			ChainId: math.NewHexOrDecimal256(137),
		},
		Message: map[string]interface{}{
			"owner": addr,
			"note":  "hello",
		},
	}
}

func TestPrivateKeySigner_SignTypedData_Recoverable(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey error: %v", err)
	}
	signer := NewPrivateKeySigner(key)

	td := testTypedData(signer.Address().Hex())
	sigHex, err := signer.SignTypedData(context.Background(), td)
	if err != nil {
		t.Fatalf("SignTypedData error: %v", err)
	}

	if len(sigHex) != 2+65*2 {
		t.Fatalf("signature length got=%d want=%d", len(sigHex), 2+65*2)
	}
	sig := common.FromHex(sigHex)
	if v := sig[64]; v != 27 && v != 28 {
		t.Fatalf("recovery byte got=%d want 27 or 28", v)
	}

	// recover and compare with the signer address
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		t.Fatalf("TypedDataAndHash error: %v", err)
	}
	recSig := make([]byte, 65)
	copy(recSig, sig)
	recSig[64] -= 27
	pub, err := crypto.SigToPub(hash, recSig)
	if err != nil {
		t.Fatalf("SigToPub error: %v", err)
	}
	if got := crypto.PubkeyToAddress(*pub); got != signer.Address() {
		t.Fatalf("recovered %s, want %s", got.Hex(), signer.Address().Hex())
	}
}

func TestPrivateKeySignerFromHex(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey error: %v", err)
	}
	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))

	plain, err := NewPrivateKeySignerFromHex(hexKey)
	if err != nil {
		t.Fatalf("from hex error: %v", err)
	}
	prefixed, err := NewPrivateKeySignerFromHex("0x" + hexKey)
	if err != nil {
		t.Fatalf("from 0x hex error: %v", err)
	}
	if plain.Address() != prefixed.Address() {
		t.Fatalf("prefix changed address: %s != %s", plain.Address().Hex(), prefixed.Address().Hex())
	}

	if _, err := NewPrivateKeySignerFromHex("zz"); err == nil {
		t.Fatalf("expected error for garbage key")
	}
}

func TestPrivateKeySigner_SignTx(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey error: %v", err)
	}
	signer := NewPrivateKeySigner(key)
	chainID := big.NewInt(137)

	to := common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	tx := ethtypes.NewTransaction(0, to, big.NewInt(0), 60000, big.NewInt(30_000_000_000), nil)

	signed, err := signer.SignTx(tx, chainID)
	if err != nil {
		t.Fatalf("SignTx error: %v", err)
	}
	from, err := ethtypes.Sender(ethtypes.NewEIP155Signer(chainID), signed)
	if err != nil {
		t.Fatalf("Sender error: %v", err)
	}
	if from != signer.Address() {
		t.Fatalf("sender got=%s want=%s", from.Hex(), signer.Address().Hex())
	}
}
