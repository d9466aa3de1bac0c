package secret

// A Verifier holds the current strategy and an optional fallback
// consulted during a migration window. The fallback is only ever used to
// verify; new stored representations always come from the current
// strategy.
type Verifier struct {
	Current  Strategy
	Fallback Strategy
}

// NewVerifier builds a Verifier from strategy names. fallback may be
// empty. An unknown name aborts configuration.
func NewVerifier(current, fallback string) (Verifier, error) {
	cur, err := New(current)
	if err != nil {
		return Verifier{}, err
	}
	v := Verifier{Current: cur}
	if fallback != "" {
		fb, err := New(fallback)
		if err != nil {
			return Verifier{}, err
		}
		v.Fallback = fb
	}
	return v, nil
}

// Transform returns the stored representation of plaintext under the
// current strategy.
func (v Verifier) Transform(plaintext string) (string, error) {
	return v.Current.Transform(plaintext)
}

// Verify reports whether candidate matches stored, and which strategy
// accepted it. The current strategy is tried first, then the fallback if
// one is configured.
func (v Verifier) Verify(stored, candidate string) (Strategy, bool) {
	if v.Current.Verify(stored, candidate) {
		return v.Current, true
	}
	if v.Fallback != nil && v.Fallback.Verify(stored, candidate) {
		return v.Fallback, true
	}
	return nil, false
}
