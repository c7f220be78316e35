package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is a Brazilian delivery address as collected at checkout.
type ShippingAddress struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Line renders a single display line, e.g. "Rua A, 10 - Centro, Recife/PE".
func (a ShippingAddress) Line() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.Street))
	if n := strings.TrimSpace(a.Number); n != "" {
		b.WriteString(", ")
		b.WriteString(n)
	}
	if c := strings.TrimSpace(a.Complement); c != "" {
		b.WriteString(" ")
		b.WriteString(c)
	}
	if nb := strings.TrimSpace(a.Neighborhood); nb != "" {
		b.WriteString(" - ")
		b.WriteString(nb)
	}
	if city := strings.TrimSpace(a.City); city != "" {
		b.WriteString(", ")
		b.WriteString(city)
		if uf := strings.TrimSpace(a.State); uf != "" {
			b.WriteString("/")
			b.WriteString(strings.ToUpper(uf))
		}
	}
	return b.String()
}

// Value stores the address as JSON.
func (a ShippingAddress) Value() (driver.Value, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address: marshal: %w", err)
	}
	return string(payload), nil
}

// Scan decodes a JSON column into the address.
func (a *ShippingAddress) Scan(value any) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*a = ShippingAddress{}
		return nil
	}
	return json.Unmarshal(raw, a)
}
