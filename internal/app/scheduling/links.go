package scheduling

import (
	"errors"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// roomAlphabet avoids look-alike characters so codes survive being read aloud.
const roomAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

const roomCodeLength = 10

// LinkGenerator returns a NewLink func producing "{base}/{room code}".
func LinkGenerator(base string) (func() (string, error), error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if err := ValidateMeetingLink(base); err != nil {
		return nil, errors.New("meeting base url must be an absolute http(s) URL")
	}
	return func() (string, error) {
		code, err := gonanoid.Generate(roomAlphabet, roomCodeLength)
		if err != nil {
			return "", err
		}
		return base + "/" + code, nil
	}, nil
}
