package multisig

// Status is the signing progress of a multisig action.
type Status string

// Action statuses.
const (
	StatusUnsigned        Status = "unsigned"
	StatusPartiallySigned Status = "partially signed"
	StatusReady           Status = "ready"
)

// Status returns the signing progress. An action is ready when it has at
// least M signatures and all of the first R signers have signed.
func (a *Action) Status() Status {
	if len(a.Signed) >= int(a.Config.Threshold) {
		for _, pkh := range a.Config.Required() {
			if !a.HasSigned(pkh) {
				return StatusPartiallySigned
			}
		}
		return StatusReady
	}
	if len(a.Signed) > 0 {
		return StatusPartiallySigned
	}
	return StatusUnsigned
}

// IsReady is a shortcut for Status() == StatusReady.
func (a *Action) IsReady() bool {
	return a.Status() == StatusReady
}
