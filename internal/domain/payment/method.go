package payment

import (
	"fmt"
	"strings"
	"time"
)

// Family groups payment methods by the shape of the instructions the payer
// receives.
type Family string

const (
	FamilyQR      Family = "qr"
	FamilyEWallet Family = "ewallet"
	FamilyBankVA  Family = "bank_va"
)

// Gateway charge transaction types.
const (
	TypeQRIS         = "qris"
	TypeGopay        = "gopay"
	TypeShopeePay    = "shopeepay"
	TypeBankTransfer = "bank_transfer"
	TypeEChannel     = "echannel"
	TypePermata      = "permata"
)

const (
	// Instant digital methods expire quickly; the gateway reports the
	// timeout later as an "expire" notification.
	InstantExpiry = 15 * time.Minute
	// Bank transfers allow the payer to walk to an ATM.
	BankExpiry = 24 * time.Hour
)

// MethodSpec describes how a user-facing payment-method token maps onto a
// gateway transaction.
type MethodSpec struct {
	Token       string
	GatewayType string
	Bank        string
	Family      Family
	Expiry      time.Duration
}

var methodSpecs = map[string]MethodSpec{
	"qris":       {GatewayType: TypeQRIS, Family: FamilyQR, Expiry: InstantExpiry},
	"gopay":      {GatewayType: TypeGopay, Family: FamilyEWallet, Expiry: InstantExpiry},
	"shopeepay":  {GatewayType: TypeShopeePay, Family: FamilyEWallet, Expiry: InstantExpiry},
	"dana":       {GatewayType: TypeQRIS, Family: FamilyQR, Expiry: InstantExpiry},
	"ovo":        {GatewayType: TypeQRIS, Family: FamilyQR, Expiry: InstantExpiry},
	"bca_va":     {GatewayType: TypeBankTransfer, Bank: "bca", Family: FamilyBankVA, Expiry: BankExpiry},
	"bni_va":     {GatewayType: TypeBankTransfer, Bank: "bni", Family: FamilyBankVA, Expiry: BankExpiry},
	"bri_va":     {GatewayType: TypeBankTransfer, Bank: "bri", Family: FamilyBankVA, Expiry: BankExpiry},
	"cimb_va":    {GatewayType: TypeBankTransfer, Bank: "cimb", Family: FamilyBankVA, Expiry: BankExpiry},
	"mandiri_va": {GatewayType: TypeEChannel, Bank: "mandiri", Family: FamilyBankVA, Expiry: BankExpiry},
	"permata_va": {GatewayType: TypePermata, Bank: "permata", Family: FamilyBankVA, Expiry: BankExpiry},
}

// ResolveMethod maps a payment-method token to its gateway transaction spec.
func ResolveMethod(token string) (MethodSpec, error) {
	normalized := strings.ToLower(strings.TrimSpace(token))
	spec, ok := methodSpecs[normalized]
	if !ok {
		return MethodSpec{}, fmt.Errorf("unsupported payment method %q", token)
	}

	spec.Token = normalized
	return spec, nil
}
