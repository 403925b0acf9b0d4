package domain

// Zero overwrites key bytes in place. Callers zero data keys and KEK bytes they own
// once the wrapped form has been produced.
func Zero(b []byte) {
	clear(b)
}
