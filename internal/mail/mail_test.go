package mail

import (
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/sickfits-server/internal/model"
	"github.com/dtroode/sickfits-server/internal/testutil"
)

func TestNewResetMail(t *testing.T) {
	m, err := NewResetMail("wes@example.com", "http://localhost:7777/reset?resetToken=abc&x=<y>", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "wes@example.com", m.To)
	assert.Equal(t, resetSubject, m.Subject)
	assert.Contains(t, m.HTMLBody, "resetToken=abc")
	assert.Contains(t, m.HTMLBody, "1h0m0s")
	assert.NotContains(t, m.HTMLBody, "<y>")
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("shop@sickfits.com", model.Mail{
		To:       "wes@example.com",
		Subject:  "Hi",
		HTMLBody: "<p>body</p>",
	}, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))

	assert.Contains(t, msg, "From: shop@sickfits.com\r\n")
	assert.Contains(t, msg, "To: wes@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hi\r\n")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>body</p>"))
}

// fakeSMTP accepts a single session and records the DATA payload.
func fakeSMTP(t *testing.T) (addr string, received chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	received = make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 fake ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
			switch cmd {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250 fake")
			case "MAIL", "RCPT", "RSET", "NOOP":
				_ = tp.PrintfLine("250 OK")
			case "DATA":
				_ = tp.PrintfLine("354 go ahead")
				body, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				received <- string(body)
				_ = tp.PrintfLine("250 queued")
			case "QUIT":
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("502 unsupported")
			}
		}
	}()
	return ln.Addr().String(), received
}

func TestSMTPMailer_Send(t *testing.T) {
	addr, received := fakeSMTP(t)
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	m := NewSMTPMailer(Config{Host: host, Port: p, From: "shop@sickfits.com"}, testutil.MakeNoopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = m.Send(ctx, model.Mail{To: "wes@example.com", Subject: "Reset", HTMLBody: "<p>hi</p>"})
	require.NoError(t, err)

	select {
	case body := <-received:
		assert.Contains(t, body, "From: shop@sickfits.com")
		assert.Contains(t, body, "<p>hi</p>")
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}
}

func TestSMTPMailer_SendDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	m := NewSMTPMailer(Config{Host: "127.0.0.1", Port: addr.Port}, testutil.MakeNoopLogger())
	err = m.Send(context.Background(), model.Mail{To: "x@y.z"})
	assert.Error(t, err)
}
