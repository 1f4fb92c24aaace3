package enums

import "fmt"

// PaymentMethod is how a sale was settled at the till.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCredit PaymentMethod = "CREDIT"
	PaymentMethodMobile PaymentMethod = "MOBILE"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodMixed  PaymentMethod = "MIXED"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCredit,
	PaymentMethodMobile,
	PaymentMethodCard,
	PaymentMethodMixed,
}

// IsValid reports whether the value matches the canonical payment method enum.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

// PaymentChannel is the channel a ledger payment arrived through.
type PaymentChannel string

const (
	PaymentChannelCash         PaymentChannel = "CASH"
	PaymentChannelEVC          PaymentChannel = "EVC"
	PaymentChannelBankTransfer PaymentChannel = "BANK_TRANSFER"
	PaymentChannelCheck        PaymentChannel = "CHECK"
)

var validPaymentChannels = []PaymentChannel{
	PaymentChannelCash,
	PaymentChannelEVC,
	PaymentChannelBankTransfer,
	PaymentChannelCheck,
}

// IsValid reports whether the value matches the canonical payment channel enum.
func (c PaymentChannel) IsValid() bool {
	for _, candidate := range validPaymentChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParsePaymentChannel converts raw input into PaymentChannel.
func ParsePaymentChannel(value string) (PaymentChannel, error) {
	for _, candidate := range validPaymentChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment channel %q", value)
}
