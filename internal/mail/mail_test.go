package mail

import (
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	s := New(Config{Host: "smtp.example.com", Port: 587, Username: "bot", Password: "pass", From: "breeze@example.com"})
	s.now = func() time.Time { return time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC) }

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		require.NotNil(t, a)
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, s.Send("ann@example.com", "Reminder: Standup", "Your Standup is after 30 min."))
	require.Equal(t, "smtp.example.com:587", gotAddr)
	require.Equal(t, "breeze@example.com", gotFrom)
	require.Equal(t, []string{"ann@example.com"}, gotTo)
	require.Equal(t, "From: breeze@example.com\r\n"+
		"To: ann@example.com\r\n"+
		"Subject: Reminder: Standup\r\n"+
		"Date: Tue, 01 Jan 2030 10:00:00 +0000\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"\r\n"+
		"Your Standup is after 30 min.\r\n", string(gotMsg))
}

func TestSendErrors(t *testing.T) {
	s := New(Config{Host: "localhost", Port: 25})
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	require.ErrorIs(t, s.Send(" ", "s", "b"), ErrNoRecipient)
	require.EqualError(t, s.Send("ann@example.com", "s", "b"), "failed to send mail to ann@example.com: connection refused")
}
