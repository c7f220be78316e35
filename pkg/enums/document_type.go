package enums

import (
	"fmt"
	"strings"
)

// DocumentType is the payer identification kind.
type DocumentType string

const (
	DocumentTypeCPF  DocumentType = "CPF"
	DocumentTypeCNPJ DocumentType = "CNPJ"
)

var validDocumentTypes = []DocumentType{
	DocumentTypeCPF,
	DocumentTypeCNPJ,
}

// String implements fmt.Stringer.
func (d DocumentType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DocumentType.
func (d DocumentType) IsValid() bool {
	for _, candidate := range validDocumentTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDocumentType converts raw input into a DocumentType, case-insensitively.
func ParseDocumentType(value string) (DocumentType, error) {
	upper := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validDocumentTypes {
		if string(candidate) == upper {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}
