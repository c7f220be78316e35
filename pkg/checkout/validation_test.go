package checkout

import (
	"testing"

	"github.com/lfbag/storefront/pkg/enums"
)

func TestValidCPF(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"masked valid", "529.982.247-25", true},
		{"bare valid", "52998224725", true},
		{"all identical", "111.111.111-11", false},
		{"zeros", "00000000000", false},
		{"wrong first digit", "529.982.247-35", false},
		{"wrong second digit", "529.982.247-26", false},
		{"short", "5299822472", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		if got := ValidCPF(tt.input); got != tt.want {
			t.Fatalf("%s: ValidCPF(%q) = %v, want %v", tt.name, tt.input, got, tt.want)
		}
	}
}

func TestValidCPFRemainderTenBecomesZero(t *testing.T) {
	// 12345678909: the first check digit comes from a remainder of 10.
	if !ValidCPF("123.456.789-09") {
		t.Fatalf("expected remainder-10 CPF to validate")
	}
}

func TestValidCNPJ(t *testing.T) {
	if !ValidCNPJ("11.222.333/0001-81") {
		t.Fatalf("expected valid CNPJ")
	}
	if ValidCNPJ("11.222.333/0001-82") {
		t.Fatalf("expected bad check digit to fail")
	}
	if ValidCNPJ("22222222222222") {
		t.Fatalf("expected repeated digits to fail")
	}
}

func TestValidDocument(t *testing.T) {
	if !ValidDocument(enums.DocumentTypeCPF, "529.982.247-25") {
		t.Fatalf("cpf should validate")
	}
	if ValidDocument(enums.DocumentTypeCNPJ, "529.982.247-25") {
		t.Fatalf("cpf number is not a cnpj")
	}
	if ValidDocument("RG", "529.982.247-25") {
		t.Fatalf("unknown type must fail")
	}
}

func TestContactFieldValidators(t *testing.T) {
	if !ValidPhone("(81) 3333-4444") || !ValidPhone("(81) 99999-4444") {
		t.Fatalf("10 and 11 digit phones should pass")
	}
	if ValidPhone("9999-4444") || ValidPhone("+55 (81) 99999-4444") {
		t.Fatalf("phones outside 10-11 digits should fail")
	}
	if !ValidCEP("50030-230") || ValidCEP("5003023") {
		t.Fatalf("cep must have exactly 8 digits")
	}
	if !ValidEmail("cliente@lfbag.com.br") || ValidEmail("cliente@lfbag") || ValidEmail("a b@c.d") {
		t.Fatalf("email regex mismatch")
	}
	if !ValidUF("pe") || ValidUF("XX") {
		t.Fatalf("uf mismatch")
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("a1-2.3/4 5"); got != "12345" {
		t.Fatalf("unexpected digits %q", got)
	}
}
