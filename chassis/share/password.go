package share

// The bionet password is stored locally in a reversible shifted form so the
// plain text never sits in the configuration file. This is obfuscation, not
// encryption; the share host enforces the real authentication.

const shiftPeriod = 9

// DecodePassword reverses EncodePassword.
func DecodePassword(encoded string) string {
	raw := []byte(encoded)
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = b - byte(i%shiftPeriod+1)
	}
	return string(out)
}

// EncodePassword shifts each byte by its position, wrapping at shiftPeriod.
func EncodePassword(plain string) string {
	raw := []byte(plain)
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = b + byte(i%shiftPeriod+1)
	}
	return string(out)
}
