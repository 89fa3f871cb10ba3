package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Neamul01/breeze-time-server/internal/logger"
	"github.com/Neamul01/breeze-time-server/internal/mail"
	"github.com/Neamul01/breeze-time-server/internal/rabbit"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/sender_config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

type mailer interface {
	Send(to, subject, body string) error
}

// deliver mails a reminder to its recipient. Recipients that are not email
// addresses are only logged.
func deliver(m rabbit.Message, sender mailer) error {
	logger := log.WithField("notification", m.NotificationID).WithField("event", m.EventID)
	if !m.HasEmailRecipient() || sender == nil {
		logger.Infof("reminder: %s", m.Message)
		return nil
	}
	if err := sender.Send(m.Recipient, "Reminder: "+m.EventName, m.Message); err != nil {
		return err
	}
	logger.WithField("recipient", m.Recipient).Info("reminder mailed")
	return nil
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	var sender mailer
	if config.Mail.Host != "" {
		sender = mail.New(config.Mail)
	}

	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer r.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	log.Info("sender is running...")
	err = r.Consume(ctx, func(msg amqp.Delivery) {
		m, err := rabbit.DecodeMessage(msg.Body)
		if err != nil {
			log.Errorf("failed to parse message: %v", err)
			return
		}
		if err := deliver(m, sender); err != nil {
			log.Errorf("failed to deliver reminder %s: %v", m.NotificationID, err)
		}
	})
	if err != nil {
		log.Errorf("sender stopped: %v", err)
	}
}
