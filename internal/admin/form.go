package admin

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lfbag/storefront/pkg/backend"
	pkgerrors "github.com/lfbag/storefront/pkg/errors"
)

var (
	tituloRe     = regexp.MustCompile(`^[\p{L} ]+$`)
	precoRe      = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	quantidadeRe = regexp.MustCompile(`^\d+$`)
	dimensionRe  = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	mustRegister(v, "titulo", tituloRe)
	mustRegister(v, "preco", precoRe)
	mustRegister(v, "quantidade", quantidadeRe)
	mustRegister(v, "dimension", dimensionRe)
	return v
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	if err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// ProductForm is the admin product editor.
type ProductForm struct {
	Titulo      string `json:"titulo" validate:"required,titulo"`
	Descricao   string `json:"descricao"`
	Categoria   string `json:"categoria" validate:"required"`
	Preco       string `json:"preco" validate:"required,preco"`
	Quantidade  string `json:"quantidade" validate:"required,quantidade"`
	Material    string `json:"material"`
	CorPadrao   string `json:"cor_padrao"`
	Altura      string `json:"altura" validate:"omitempty,dimension"`
	Comprimento string `json:"comprimento" validate:"omitempty,dimension"`
	Largura     string `json:"largura" validate:"omitempty,dimension"`
}

// Validate returns one aggregated validation error keyed by field.
func (f ProductForm) Validate() error {
	trimmed := f.trimmed()
	err := validate.Struct(trimmed)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	fields := pkgerrors.FieldErrors{}
	for _, fe := range errs {
		fields.Add(fe.Field(), fieldMessage(fe))
	}
	return fields.Err("")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "titulo":
		return "may only contain letters and spaces"
	case "preco":
		return "must be a number with up to two decimals"
	case "quantidade":
		return "must be a whole number"
	case "dimension":
		return "must be numeric"
	}
	return "is invalid"
}

func (f ProductForm) trimmed() ProductForm {
	return ProductForm{
		Titulo:      strings.TrimSpace(f.Titulo),
		Descricao:   strings.TrimSpace(f.Descricao),
		Categoria:   strings.TrimSpace(f.Categoria),
		Preco:       strings.TrimSpace(f.Preco),
		Quantidade:  strings.TrimSpace(f.Quantidade),
		Material:    strings.TrimSpace(f.Material),
		CorPadrao:   strings.TrimSpace(f.CorPadrao),
		Altura:      strings.TrimSpace(f.Altura),
		Comprimento: strings.TrimSpace(f.Comprimento),
		Largura:     strings.TrimSpace(f.Largura),
	}
}

// Input converts the form into the backend payload.
func (f ProductForm) Input() backend.ProductInput {
	t := f.trimmed()
	return backend.ProductInput{
		Titulo:      t.Titulo,
		Descricao:   t.Descricao,
		Categoria:   t.Categoria,
		Preco:       t.Preco,
		Quantidade:  t.Quantidade,
		Material:    t.Material,
		CorPadrao:   t.CorPadrao,
		Altura:      t.Altura,
		Comprimento: t.Comprimento,
		Largura:     t.Largura,
	}
}
