package checkout

import (
	"strings"

	pkgcheckout "github.com/lfbag/storefront/pkg/checkout"
	"github.com/lfbag/storefront/pkg/enums"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
	"github.com/lfbag/storefront/pkg/types"
)

// CardDetails are the credit-card fields of the form. Token is the opaque
// value produced by the gateway's browser widget.
type CardDetails struct {
	HolderName           string `json:"holder_name"`
	IdentificationType   string `json:"identification_type"`
	IdentificationNumber string `json:"identification_number"`
	Installments         int    `json:"installments"`
	IssuerID             string `json:"issuer_id,omitempty"`
	PaymentMethodID      string `json:"payment_method_id,omitempty"`
	Token                string `json:"token,omitempty"`
}

// Form is everything the buyer fills in at checkout.
type Form struct {
	Name           string               `json:"name"`
	Email          string               `json:"email,omitempty"`
	DocumentType   string               `json:"document_type"`
	DocumentNumber string               `json:"document_number"`
	Phone          string               `json:"phone"`
	CEP            string               `json:"cep"`
	Street         string               `json:"street"`
	Number         string               `json:"number"`
	Complement     string               `json:"complement,omitempty"`
	Neighborhood   string               `json:"neighborhood"`
	City           string               `json:"city"`
	State          string               `json:"state"`
	Delivery       enums.DeliveryMethod `json:"delivery_method"`
	Payment        enums.PaymentMethod  `json:"payment_method"`
	Card           CardDetails          `json:"card"`
}

// Validate checks every field and returns one aggregated validation error.
func (f Form) Validate() error {
	fields := pkgerrors.FieldErrors{}

	required := map[string]string{
		"name":         f.Name,
		"phone":        f.Phone,
		"cep":          f.CEP,
		"street":       f.Street,
		"number":       f.Number,
		"neighborhood": f.Neighborhood,
		"city":         f.City,
		"state":        f.State,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			fields.Add(field, "is required")
		}
	}

	docType, err := enums.ParseDocumentType(f.DocumentType)
	if err != nil {
		fields.Add("document_type", "must be CPF or CNPJ")
	}
	switch {
	case strings.TrimSpace(f.DocumentNumber) == "":
		fields.Add("document_number", "is required")
	case docType == enums.DocumentTypeCNPJ && !pkgcheckout.ValidCNPJ(f.DocumentNumber):
		fields.Add("document_number", "invalid CNPJ")
	case docType != enums.DocumentTypeCNPJ && !pkgcheckout.ValidCPF(f.DocumentNumber):
		fields.Add("document_number", "invalid CPF")
	}

	if strings.TrimSpace(f.Phone) != "" && !pkgcheckout.ValidPhone(f.Phone) {
		fields.Add("phone", "must have 10 or 11 digits")
	}
	if strings.TrimSpace(f.CEP) != "" && !pkgcheckout.ValidCEP(f.CEP) {
		fields.Add("cep", "must have 8 digits")
	}
	if strings.TrimSpace(f.Email) != "" && !pkgcheckout.ValidEmail(f.Email) {
		fields.Add("email", "invalid email")
	}
	if strings.TrimSpace(f.State) != "" && !pkgcheckout.ValidUF(f.State) {
		fields.Add("state", "must be a two-letter UF")
	}

	if !f.Delivery.IsValid() {
		fields.Add("delivery_method", "must be standard or express")
	}
	if !f.Payment.IsValid() {
		fields.Add("payment_method", "must be credit-card, pix or boleto")
	}

	if f.Payment.RequiresCardToken() {
		if strings.TrimSpace(f.Card.HolderName) == "" {
			fields.Add("card.holder_name", "is required")
		}
		cardDocType, err := enums.ParseDocumentType(f.Card.IdentificationType)
		if err != nil {
			fields.Add("card.identification_type", "must be CPF or CNPJ")
		}
		switch {
		case strings.TrimSpace(f.Card.IdentificationNumber) == "":
			fields.Add("card.identification_number", "is required")
		case err == nil && !pkgcheckout.ValidDocument(cardDocType, f.Card.IdentificationNumber):
			fields.Add("card.identification_number", "invalid "+cardDocType.String())
		}
		if f.Card.Installments < 1 {
			fields.Add("card.installments", "must be at least 1")
		}
		if strings.TrimSpace(f.Card.PaymentMethodID) == "" {
			fields.Add("card.payment_method_id", "is required")
		}
	}

	return fields.Err("")
}

// Address returns the shipping address with normalized CEP and UF.
func (f Form) Address() types.ShippingAddress {
	return types.ShippingAddress{
		CEP:          pkgcheckout.DigitsOnly(f.CEP),
		Street:       strings.TrimSpace(f.Street),
		Number:       strings.TrimSpace(f.Number),
		Complement:   strings.TrimSpace(f.Complement),
		Neighborhood: strings.TrimSpace(f.Neighborhood),
		City:         strings.TrimSpace(f.City),
		State:        strings.ToUpper(strings.TrimSpace(f.State)),
	}
}

// splitName returns first name and the remainder as last name.
func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
