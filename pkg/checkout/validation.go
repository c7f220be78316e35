package checkout

import (
	"regexp"
	"strings"

	"github.com/lfbag/storefront/pkg/enums"
)

const (
	cpfLength  = 11
	cnpjLength = 14
	cepLength  = 8
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	cnpjFirstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

	federalUnits = map[string]struct{}{
		"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {},
		"ES": {}, "GO": {}, "MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {},
		"PB": {}, "PR": {}, "PE": {}, "PI": {}, "RJ": {}, "RN": {}, "RS": {},
		"RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
	}
)

// DigitsOnly strips every non-digit rune, so masked input ("123.456.789-09") validates.
func DigitsOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF checks length, rejects repeated digits and verifies both mod-11 check digits.
func ValidCPF(value string) bool {
	digits := DigitsOnly(value)
	if len(digits) != cpfLength || allSame(digits) {
		return false
	}
	nums := toInts(digits)

	first := cpfCheckDigit(nums[:9], 10)
	if first != nums[9] {
		return false
	}
	return cpfCheckDigit(nums[:10], 11) == nums[10]
}

func cpfCheckDigit(nums []int, startWeight int) int {
	sum := 0
	for i, n := range nums {
		sum += n * (startWeight - i)
	}
	rest := (sum * 10) % 11
	if rest >= 10 {
		return 0
	}
	return rest
}

// ValidCNPJ checks a company registration number.
func ValidCNPJ(value string) bool {
	digits := DigitsOnly(value)
	if len(digits) != cnpjLength || allSame(digits) {
		return false
	}
	nums := toInts(digits)
	if cnpjCheckDigit(nums[:12], cnpjFirstWeights) != nums[12] {
		return false
	}
	return cnpjCheckDigit(nums[:13], cnpjSecondWeights) == nums[13]
}

func cnpjCheckDigit(nums, weights []int) int {
	sum := 0
	for i, n := range nums {
		sum += n * weights[i]
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

// ValidDocument validates number against the checksum of its document type.
func ValidDocument(docType enums.DocumentType, number string) bool {
	switch docType {
	case enums.DocumentTypeCPF:
		return ValidCPF(number)
	case enums.DocumentTypeCNPJ:
		return ValidCNPJ(number)
	}
	return false
}

// ValidPhone accepts landlines (10 digits) and mobiles (11 digits) with area code.
func ValidPhone(value string) bool {
	n := len(DigitsOnly(value))
	return n >= 10 && n <= 11
}

func ValidCEP(value string) bool {
	return len(DigitsOnly(value)) == cepLength
}

func ValidEmail(value string) bool {
	return emailRe.MatchString(strings.TrimSpace(value))
}

// ValidUF reports whether value is a Brazilian federal unit abbreviation.
func ValidUF(value string) bool {
	_, ok := federalUnits[strings.ToUpper(strings.TrimSpace(value))]
	return ok
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

func toInts(digits string) []int {
	out := make([]int, len(digits))
	for i := range digits {
		out[i] = int(digits[i] - '0')
	}
	return out
}
