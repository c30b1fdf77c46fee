package midtrans

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lokastream/mabar-queue/internal/domain/payment"
	"github.com/lokastream/mabar-queue/internal/usecase"
)

type transactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type customerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type customExpiry struct {
	ExpiryDuration int    `json:"expiry_duration"`
	Unit           string `json:"unit"`
}

type bankTransferDetails struct {
	Bank string `json:"bank"`
}

type echannelDetails struct {
	BillInfo1 string `json:"bill_info1"`
	BillInfo2 string `json:"bill_info2"`
}

type walletDetails struct {
	EnableCallback bool   `json:"enable_callback,omitempty"`
	CallbackURL    string `json:"callback_url,omitempty"`
}

type chargePayload struct {
	PaymentType        string               `json:"payment_type"`
	TransactionDetails transactionDetails   `json:"transaction_details"`
	CustomerDetails    customerDetails      `json:"customer_details"`
	CustomExpiry       *customExpiry        `json:"custom_expiry,omitempty"`
	BankTransfer       *bankTransferDetails `json:"bank_transfer,omitempty"`
	EChannel           *echannelDetails     `json:"echannel,omitempty"`
	Gopay              *walletDetails       `json:"gopay,omitempty"`
	ShopeePay          *walletDetails       `json:"shopeepay,omitempty"`
}

func buildChargePayload(req usecase.GatewayChargeRequest) chargePayload {
	payload := chargePayload{
		PaymentType: req.Method.GatewayType,
		TransactionDetails: transactionDetails{
			OrderID:     req.OrderID,
			GrossAmount: req.Amount,
		},
		CustomerDetails: customerDetails{
			FirstName: req.Customer.Name,
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
		},
		CustomExpiry: &customExpiry{
			ExpiryDuration: int(req.Method.Expiry / time.Minute),
			Unit:           "minute",
		},
	}

	switch req.Method.GatewayType {
	case payment.TypeBankTransfer:
		payload.BankTransfer = &bankTransferDetails{Bank: req.Method.Bank}
	case payment.TypeEChannel:
		payload.EChannel = &echannelDetails{
			BillInfo1: "Payment for",
			BillInfo2: "mabar slot",
		}
	case payment.TypeGopay:
		payload.Gopay = &walletDetails{EnableCallback: req.CallbackURL != "", CallbackURL: req.CallbackURL}
	case payment.TypeShopeePay:
		payload.ShopeePay = &walletDetails{CallbackURL: req.CallbackURL}
	}

	return payload
}

type transactionAction struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type vaNumber struct {
	Bank     string `json:"bank"`
	VANumber string `json:"va_number"`
}

type transactionEnvelope struct {
	StatusCode        string              `json:"status_code"`
	StatusMessage     string              `json:"status_message"`
	TransactionID     string              `json:"transaction_id"`
	OrderID           string              `json:"order_id"`
	PaymentType       string              `json:"payment_type"`
	TransactionStatus string              `json:"transaction_status"`
	FraudStatus       string              `json:"fraud_status"`
	GrossAmount       string              `json:"gross_amount"`
	ExpiryTime        string              `json:"expiry_time"`
	QRString          string              `json:"qr_string"`
	Actions           []transactionAction `json:"actions"`
	VANumbers         []vaNumber          `json:"va_numbers"`
	PermataVANumber   string              `json:"permata_va_number"`
	BillKey           string              `json:"bill_key"`
	BillerCode        string              `json:"biller_code"`
}

// chargeError surfaces gateway-level rejections that still arrive with an
// HTTP 200, the way the Core API reports validation failures.
func (e transactionEnvelope) chargeError() error {
	code, err := strconv.Atoi(e.StatusCode)
	if err != nil {
		return fmt.Errorf("unexpected gateway status code %q", e.StatusCode)
	}
	if code >= 400 {
		return fmt.Errorf("gateway rejected charge: %s (%s)", e.StatusMessage, e.StatusCode)
	}

	return nil
}

func (e transactionEnvelope) toTransaction() usecase.GatewayTransaction {
	tx := usecase.GatewayTransaction{
		TransactionID:     e.TransactionID,
		OrderID:           e.OrderID,
		TransactionStatus: e.TransactionStatus,
		FraudStatus:       e.FraudStatus,
		PaymentType:       e.PaymentType,
		StatusCode:        e.StatusCode,
		GrossAmount:       e.GrossAmount,
	}

	for _, action := range e.Actions {
		switch action.Name {
		case "generate-qr-code":
			tx.QRCodeURL = action.URL
		case "deeplink-redirect", "mobile_deeplink_checkout_url":
			tx.DeepLinkURL = action.URL
		}
	}

	switch {
	case len(e.VANumbers) > 0:
		tx.VANumber = e.VANumbers[0].VANumber
	case e.PermataVANumber != "":
		tx.VANumber = e.PermataVANumber
	case e.BillKey != "":
		// Mandiri bill payment has no VA; the payer keys in biller code
		// plus bill key at the ATM.
		tx.VANumber = e.BillerCode + " " + e.BillKey
	}

	if tx.QRCodeURL == "" && e.QRString != "" {
		tx.QRCodeURL = e.QRString
	}

	if e.ExpiryTime != "" {
		// Midtrans reports expiry in Asia/Jakarta local time without an
		// offset.
		if loc, err := time.LoadLocation("Asia/Jakarta"); err == nil {
			if parsed, err := time.ParseInLocation(expiryTimeLayout, e.ExpiryTime, loc); err == nil {
				tx.ExpiresAt = parsed
			}
		}
	}

	return tx
}
