package enums

// CheckoutState is a node of the checkout state machine.
type CheckoutState string

const (
	CheckoutStateEditing    CheckoutState = "editing"
	CheckoutStateValidating CheckoutState = "validating"
	CheckoutStateTokenizing CheckoutState = "tokenizing"
	CheckoutStateSubmitting CheckoutState = "submitting"
	CheckoutStateCompleted  CheckoutState = "completed"
)

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}
