package common

// ConstError is an error with a constant message. It can be declared as a
// package-level constant, making it immune to the accidental reassignment
// an error variable would allow.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}
