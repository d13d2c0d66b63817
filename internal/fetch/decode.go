package fetch

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DecodeText converts raw page bytes to a UTF-8 string. The declared
// charset on these portals is unreliable, so the encoding is guessed
// statistically; undecodable input falls back to UTF-8 with replacement
// runes.
func DecodeText(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if utf8.Valid(data) {
		return string(data)
	}
	detector := chardet.NewTextDetector()
	if guess, err := detector.DetectBest(data); err == nil && guess != nil {
		if decoded, ok := decodeAs(data, guess.Charset); ok {
			return decoded
		}
	}
	return strings.ToValidUTF8(string(data), "�")
}

func decodeAs(data []byte, charset string) (string, bool) {
	enc, err := htmlindex.Get(strings.ToLower(charset))
	if err != nil {
		return "", false
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(decoded) {
		return "", false
	}
	return string(decoded), true
}
