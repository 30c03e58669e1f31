package util
import (
	"os"
	"golang.org/x/text/unicode/norm"
)

// FixUnicode brings typed-in text to its composed form so the embedded
// bytes do not depend on how the shell delivered the argument.
func FixUnicode( in string ) string {
	return norm.NFC.String( in )
}

// ReadMessageFile loads a message from disk, truncated to maxLen bytes.
func ReadMessageFile( filename string, maxLen int ) ([]byte, error) {
	data, err := os.ReadFile( filename )
	if err != nil {
		return nil, err
	}
	if len(data) > maxLen {
		data = data[:maxLen]
	}
	return data, nil
}
