package enums

// ViewState is the render state of a fetched listing.
type ViewState string

const (
	ViewStateLoading ViewState = "loading"
	ViewStateError   ViewState = "error"
	ViewStateSuccess ViewState = "success"
)

// String implements fmt.Stringer.
func (v ViewState) String() string {
	return string(v)
}
