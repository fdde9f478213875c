package router

import (
	"context"
	"testing"
	"time"

	"github.com/betbot/polyrouter/clob/types"
	"github.com/betbot/polyrouter/wallet"
)

func newTestLinker(t *testing.T, backend *fakeBackend, exchange *fakeExchanger) *WalletLinker {
	t.Helper()
	creds := NewCredentialStore(exchange, nil)
	allowances := newTestAllowanceManager(t, backend)
	deployer, err := NewDeployer(backend, types.ChainPolygon)
	if err != nil {
		t.Fatalf("NewDeployer error: %v", err)
	}
	deployer.confirmPoll = time.Millisecond
	deployer.confirmTimeout = time.Second
	return NewWalletLinker(creds, allowances, deployer)
}

func TestLinkUser_Direct(t *testing.T) {
	backend := newFakeBackend(t)
	exchange := &fakeExchanger{}
	linker := newTestLinker(t, backend, exchange)
	signer := newTestSigner(t)

	result, err := linker.LinkUser(context.Background(), LinkParams{
		UserID:     "u1",
		Signer:     signer,
		WalletType: WalletTypeDirect,
	})
	if err != nil {
		t.Fatalf("LinkUser error: %v", err)
	}

	link := result.Link
	if link.Type != WalletTypeDirect {
		t.Fatalf("type got=%s want=direct", link.Type)
	}
	if link.SignerAddress != signer.Address() {
		t.Fatalf("signer got=%s want=%s", link.SignerAddress.Hex(), signer.Address().Hex())
	}
	if link.DeploymentState != DeploymentDeployed {
		t.Fatalf("deployment state got=%s want=deployed", link.DeploymentState)
	}
	if link.FundingAddress() != signer.Address() {
		t.Fatalf("funding got=%s want signer address", link.FundingAddress().Hex())
	}
	if result.Creds == nil || result.Creds.Key == "" {
		t.Fatalf("credentials missing")
	}
	if result.Allowances == nil || len(result.Allowances.Pairs) != 6 {
		t.Fatalf("allowance set missing or incomplete: %+v", result.Allowances)
	}
	if result.Allowances.AllSet {
		t.Fatalf("fresh wallet should not have allowances set")
	}
	// 未开启 AutoSetAllowances：不得发送任何链上交易
	if backend.sendCount() != 0 {
		t.Fatalf("sends got=%d want=0", backend.sendCount())
	}
}

func TestLinkUser_SmartWithoutAutoDeploy(t *testing.T) {
	backend := newFakeBackend(t)
	linker := newTestLinker(t, backend, &fakeExchanger{})
	signer := newTestSigner(t)

	result, err := linker.LinkUser(context.Background(), LinkParams{
		UserID:     "u1",
		Signer:     signer,
		WalletType: WalletTypeSmart,
	})
	if err != nil {
		t.Fatalf("LinkUser error: %v", err)
	}

	link := result.Link
	safeAddr := wallet.MustDeriveSafeAddress(signer.Address())
	if link.SmartWallet != safeAddr {
		t.Fatalf("smart wallet got=%s want=%s", link.SmartWallet.Hex(), safeAddr.Hex())
	}
	if link.DeploymentState != DeploymentNotDeployed {
		t.Fatalf("deployment state got=%s want=not_deployed", link.DeploymentState)
	}
	if result.Deployed {
		t.Fatalf("no deployment should have happened")
	}
	if link.FundingAddress() != safeAddr {
		t.Fatalf("funding got=%s want safe address", link.FundingAddress().Hex())
	}
	// 未部署的 safe 不可能持有授权：跳过检查，Allowances 为 nil
	if result.Allowances != nil {
		t.Fatalf("allowances should be nil for an undeployed safe, got %+v", result.Allowances)
	}
	if backend.sendCount() != 0 {
		t.Fatalf("sends got=%d want=0", backend.sendCount())
	}
}

func TestLinkUser_SmartAutoDeploy(t *testing.T) {
	backend := newFakeBackend(t)
	linker := newTestLinker(t, backend, &fakeExchanger{})
	signer := newTestSigner(t)

	result, err := linker.LinkUser(context.Background(), LinkParams{
		UserID:     "u1",
		Signer:     signer,
		WalletType: WalletTypeSmart,
		TxSigner:   signer,
		AutoDeploy: true,
	})
	if err != nil {
		t.Fatalf("LinkUser error: %v", err)
	}

	if !result.Deployed {
		t.Fatalf("deployment should have happened")
	}
	if result.Link.DeploymentState != DeploymentDeployed {
		t.Fatalf("deployment state got=%s want=deployed", result.Link.DeploymentState)
	}
	// 恰好一笔交易：createProxy
	if backend.sendCount() != 1 {
		t.Fatalf("sends got=%d want=1", backend.sendCount())
	}

	// 工厂应在派生地址放置了代码
	safeAddr := wallet.MustDeriveSafeAddress(signer.Address())
	code, err := backend.CodeAt(context.Background(), safeAddr, nil)
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}
	if len(code) == 0 {
		t.Fatalf("no code at derived safe address")
	}
}

func TestLinkUser_SmartAutoDeployRequiresTxSigner(t *testing.T) {
	backend := newFakeBackend(t)
	linker := newTestLinker(t, backend, &fakeExchanger{})
	signer := newTestSigner(t)

	_, err := linker.LinkUser(context.Background(), LinkParams{
		UserID:     "u1",
		Signer:     signer,
		WalletType: WalletTypeSmart,
		AutoDeploy: true,
	})
	if err == nil {
		t.Fatalf("expected error without a transaction signer")
	}
	if backend.sendCount() != 0 {
		t.Fatalf("sends got=%d want=0", backend.sendCount())
	}
}

func TestLinkUser_SmartAutoDeployIdempotent(t *testing.T) {
	backend := newFakeBackend(t)
	linker := newTestLinker(t, backend, &fakeExchanger{})
	signer := newTestSigner(t)

	params := LinkParams{
		UserID:     "u1",
		Signer:     signer,
		WalletType: WalletTypeSmart,
		TxSigner:   signer,
		AutoDeploy: true,
	}

	first, err := linker.LinkUser(context.Background(), params)
	if err != nil {
		t.Fatalf("first LinkUser error: %v", err)
	}
	if !first.Deployed {
		t.Fatalf("first link should deploy")
	}

	second, err := linker.LinkUser(context.Background(), params)
	if err != nil {
		t.Fatalf("second LinkUser error: %v", err)
	}
	if second.Deployed {
		t.Fatalf("second link must not redeploy")
	}
	if second.Link.DeploymentState != DeploymentDeployed {
		t.Fatalf("deployment state got=%s want=deployed", second.Link.DeploymentState)
	}
	if backend.sendCount() != 1 {
		t.Fatalf("sends got=%d want=1", backend.sendCount())
	}
}

func TestLinkUser_AutoSetAllowances(t *testing.T) {
	backend := newFakeBackend(t)
	linker := newTestLinker(t, backend, &fakeExchanger{})
	signer := newTestSigner(t)

	result, err := linker.LinkUser(context.Background(), LinkParams{
		UserID:            "u1",
		Signer:            signer,
		WalletType:        WalletTypeDirect,
		TxSigner:          signer,
		AutoSetAllowances: true,
	})
	if err != nil {
		t.Fatalf("LinkUser error: %v", err)
	}

	if !result.Allowances.AllSet {
		t.Fatalf("allowances should be fully set")
	}
	if len(result.AllowanceTxs) != 6 {
		t.Fatalf("allowance txs got=%d want=6", len(result.AllowanceTxs))
	}
	if backend.sendCount() != 6 {
		t.Fatalf("sends got=%d want=6", backend.sendCount())
	}
}

func TestLinkUser_SmartAutoSetAllowances(t *testing.T) {
	backend := newFakeBackend(t)
	linker := newTestLinker(t, backend, &fakeExchanger{})
	signer := newTestSigner(t)

	result, err := linker.LinkUser(context.Background(), LinkParams{
		UserID:            "u1",
		Signer:            signer,
		WalletType:        WalletTypeSmart,
		TxSigner:          signer,
		AutoDeploy:        true,
		AutoSetAllowances: true,
	})
	if err != nil {
		t.Fatalf("LinkUser error: %v", err)
	}

	if !result.Allowances.AllSet {
		t.Fatalf("safe allowances should be fully set")
	}
	if result.Allowances.Wallet != result.Link.SmartWallet {
		t.Fatalf("allowances checked for %s, want safe %s",
			result.Allowances.Wallet.Hex(), result.Link.SmartWallet.Hex())
	}
	if len(result.AllowanceTxs) != 6 {
		t.Fatalf("allowance txs got=%d want=6", len(result.AllowanceTxs))
	}
	// createProxy 一笔，授权六笔
	if backend.sendCount() != 7 {
		t.Fatalf("sends got=%d want=7", backend.sendCount())
	}

	// 签名者的外部账户不得沾上 safe 的授权
	m := newTestAllowanceManager(t, backend)
	ownerSet, err := m.Check(context.Background(), signer.Address())
	if err != nil {
		t.Fatalf("Check(owner) error: %v", err)
	}
	if ownerSet.AllSet {
		t.Fatalf("owner account must not carry the safe's approvals")
	}
}

func TestLinkUser_SmartAutoSetRequiresDeployment(t *testing.T) {
	backend := newFakeBackend(t)
	linker := newTestLinker(t, backend, &fakeExchanger{})
	signer := newTestSigner(t)

	_, err := linker.LinkUser(context.Background(), LinkParams{
		UserID:            "u1",
		Signer:            signer,
		WalletType:        WalletTypeSmart,
		TxSigner:          signer,
		AutoSetAllowances: true,
	})
	if err == nil {
		t.Fatalf("expected error for undeployed safe")
	}
	if backend.sendCount() != 0 {
		t.Fatalf("sends got=%d want=0", backend.sendCount())
	}
}

func TestLinkUser_Validation(t *testing.T) {
	backend := newFakeBackend(t)
	linker := newTestLinker(t, backend, &fakeExchanger{})
	signer := newTestSigner(t)

	cases := []struct {
		name   string
		params LinkParams
	}{
		{name: "missing user", params: LinkParams{Signer: signer, WalletType: WalletTypeDirect}},
		{name: "missing signer", params: LinkParams{UserID: "u1", WalletType: WalletTypeDirect}},
		{name: "unknown wallet type", params: LinkParams{UserID: "u1", Signer: signer, WalletType: "custodial"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := linker.LinkUser(context.Background(), tc.params); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
