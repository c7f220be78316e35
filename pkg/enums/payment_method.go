package enums

import "fmt"

// PaymentMethod is the buyer's chosen way to pay at checkout.
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit-card"
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodBoleto     PaymentMethod = "boleto"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodPix,
	PaymentMethodBoleto,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// RequiresCardToken reports whether the method goes through card tokenization.
func (p PaymentMethod) RequiresCardToken() bool {
	return p == PaymentMethodCreditCard
}

// GatewayID returns the gateway payment_method_id for non-card methods.
// Card brands come from the tokenized card instead.
func (p PaymentMethod) GatewayID() string {
	switch p {
	case PaymentMethodPix:
		return "pix"
	case PaymentMethodBoleto:
		return "bolbradesco"
	}
	return ""
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
