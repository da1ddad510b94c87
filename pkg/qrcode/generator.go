package qrcode

import (
	"errors"
	"strings"

	goqr "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent = errors.New("qrcode: empty content")
	ErrEncode       = errors.New("qrcode: cannot encode content")
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// Generate renders content as a size x size PNG. A non-positive size means
// DefaultSize.
func Generate(content string, size int) ([]byte, error) {
	if isBlank(content) {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	data, err := goqr.Encode(content, goqr.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return data, nil
}

// Terminal draws content with half-block characters, two modules per row.
func Terminal(content string) (string, error) {
	if isBlank(content) {
		return "", ErrEmptyContent
	}
	q, err := goqr.New(content, goqr.Low)
	if err != nil {
		return "", errors.Join(ErrEncode, err)
	}
	return q.ToSmallString(false), nil
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
