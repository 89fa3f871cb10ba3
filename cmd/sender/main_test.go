package main

import (
	"errors"
	"testing"

	"github.com/Neamul01/breeze-time-server/internal/rabbit"
	"github.com/stretchr/testify/require"
)

type mailStub struct {
	to, subject, body string
	calls             int
	err               error
}

func (m *mailStub) Send(to, subject, body string) error {
	m.calls++
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func TestDeliver(t *testing.T) {
	msg := rabbit.Message{NotificationID: "n1", EventName: "Standup", Message: "Your Standup is after 30 min.", Recipient: "ann@example.com"}

	t.Run("email recipient is mailed", func(t *testing.T) {
		stub := &mailStub{}
		require.NoError(t, deliver(msg, stub))
		require.Equal(t, 1, stub.calls)
		require.Equal(t, "ann@example.com", stub.to)
		require.Equal(t, "Reminder: Standup", stub.subject)
		require.Equal(t, msg.Message, stub.body)
	})

	t.Run("host id is only logged", func(t *testing.T) {
		stub := &mailStub{}
		m := msg
		m.Recipient = "host-1"
		require.NoError(t, deliver(m, stub))
		require.Zero(t, stub.calls)
	})

	t.Run("no mailer configured", func(t *testing.T) {
		require.NoError(t, deliver(msg, nil))
	})

	t.Run("mail failure is returned", func(t *testing.T) {
		stub := &mailStub{err: errors.New("relay down")}
		require.Error(t, deliver(msg, stub))
	})
}
