package router

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// WalletType distinguishes direct EOA trading from smart wallet trading.
type WalletType string

const (
	WalletTypeDirect WalletType = "direct"
	WalletTypeSmart  WalletType = "smart"
)

// DeploymentState tracks the on-chain state of a smart wallet.
type DeploymentState string

const (
	DeploymentNotDeployed DeploymentState = "not_deployed"
	DeploymentDeploying   DeploymentState = "deploying"
	DeploymentDeployed    DeploymentState = "deployed"
)

// WalletLink binds a user to a signing wallet and, for smart wallets, the
// derived contract wallet that holds funds. A direct link never carries a
// smart wallet address; the constructors enforce this.
type WalletLink struct {
	UserID          string
	Type            WalletType
	SignerAddress   common.Address
	SmartWallet     common.Address
	DeploymentState DeploymentState
}

// NewDirectLink creates a link for an EOA that trades from its own address.
func NewDirectLink(userID string, signerAddress common.Address) *WalletLink {
	return &WalletLink{
		UserID:          userID,
		Type:            WalletTypeDirect,
		SignerAddress:   signerAddress,
		DeploymentState: DeploymentDeployed, // an EOA needs no deployment
	}
}

// NewSmartLink creates a link for a signer controlling a contract wallet.
func NewSmartLink(userID string, signerAddress, smartWallet common.Address) *WalletLink {
	return &WalletLink{
		UserID:          userID,
		Type:            WalletTypeSmart,
		SignerAddress:   signerAddress,
		SmartWallet:     smartWallet,
		DeploymentState: DeploymentNotDeployed,
	}
}

// FundingAddress returns the address that holds collateral and receives
// positions: the smart wallet for smart links, the signer itself for direct.
func (l *WalletLink) FundingAddress() common.Address {
	if l.Type == WalletTypeSmart {
		return l.SmartWallet
	}
	return l.SignerAddress
}

func (l *WalletLink) String() string {
	if l.Type == WalletTypeSmart {
		return fmt.Sprintf("link[%s smart signer=%s wallet=%s %s]",
			l.UserID, l.SignerAddress.Hex(), l.SmartWallet.Hex(), l.DeploymentState)
	}
	return fmt.Sprintf("link[%s direct signer=%s]", l.UserID, l.SignerAddress.Hex())
}
