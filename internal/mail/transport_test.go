// internal/mail/transport_test.go
package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_Bytes(t *testing.T) {
	msg := &Message{
		From:     "noreply@danaraya.co.id",
		FromName: "Dana Raya Finance",
		To:       "admin@danaraya.co.id",
		ReplyTo:  "budi@example.com",
		Subject:  "Pengajuan Pinjaman Baru - APP-2024-0001",
		HTML:     "<html><body>halo</body></html>",
	}

	raw := string(msg.Bytes())

	assert.Contains(t, raw, "From: Dana Raya Finance <noreply@danaraya.co.id>\r\n")
	assert.Contains(t, raw, "To: admin@danaraya.co.id\r\n")
	assert.Contains(t, raw, "Reply-To: budi@example.com\r\n")
	assert.Contains(t, raw, "Subject: Pengajuan Pinjaman Baru - APP-2024-0001\r\n")
	assert.Contains(t, raw, "MIME-Version: 1.0\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n")

	// Headers and body separated by a blank line, body last.
	parts := strings.SplitN(raw, "\r\n\r\n", 2)
	assert.Len(t, parts, 2)
	assert.Equal(t, "<html><body>halo</body></html>", parts[1])
}

func TestMessage_Bytes_OmitsEmptyOptionalHeaders(t *testing.T) {
	msg := &Message{
		From:    "noreply@danaraya.co.id",
		To:      "budi@example.com",
		Subject: "Konfirmasi",
		HTML:    "<p>halo</p>",
	}

	raw := string(msg.Bytes())

	assert.Contains(t, raw, "From: noreply@danaraya.co.id\r\n")
	assert.NotContains(t, raw, "Reply-To:")
}
