package lipay

// Validate reports whether p is a well-formed notification: every required field is
// present and status is exactly "confirmed" or "failed". The signature is only checked
// for presence here.
func Validate(p *Payload) bool {
	if p == nil {
		return false
	}

	for _, field := range RequiredFields {
		if !p.Has(field) {
			return false
		}
	}

	return p.Status().Valid()
}
