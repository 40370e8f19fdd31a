package checkin_worker

const maskFill = "****"

// Mask keeps the first and last two characters. Strings of four characters or
// fewer are returned as is. This hides a value in chat, it is not redaction.
func Mask(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return s
	}
	return string(r[:2]) + maskFill + string(r[len(r)-2:])
}
