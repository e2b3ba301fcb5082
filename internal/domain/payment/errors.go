package payment

import "errors"

var (
	ErrMalformedEvent     = errors.New("malformed webhook event")
	ErrMissingIdentifiers = errors.New("missing provider order or payment id")
	ErrMissingBuyer       = errors.New("notes: missing buyerId")
	ErrMissingCart        = errors.New("notes: missing cartData")
	ErrMalformedCart      = errors.New("notes: malformed cartData")
	ErrInvalidLine        = errors.New("cart: invalid line")
	ErrInvalidAmount      = errors.New("cart: non-integer total_amount")
)

// IsDataIntegrity reports whether err means the event itself is unusable.
// Such events are dropped: the provider will redeliver the same notes.
func IsDataIntegrity(err error) bool {
	for _, target := range []error{
		ErrMalformedEvent,
		ErrMissingIdentifiers,
		ErrMissingBuyer,
		ErrMissingCart,
		ErrMalformedCart,
		ErrInvalidLine,
		ErrInvalidAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
