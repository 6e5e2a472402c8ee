package qrlink

import (
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrLinkInactive reports a QR render request while the course link is off.
var ErrLinkInactive = errors.New("link inactive")

// PNG renders the payload as a QR image.
func PNG(payload string, size int) ([]byte, error) {
	if payload == "" {
		return nil, ErrLinkInactive
	}
	if size <= 0 {
		size = 300
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}
