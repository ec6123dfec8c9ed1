package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/oksasatya/go-invoice-dashboard/config"
	"github.com/oksasatya/go-invoice-dashboard/internal/application"
	"github.com/oksasatya/go-invoice-dashboard/pkg/mailer"
)

// Consumes invoice lifecycle events from RabbitMQ and emails receipts
// to the invoice's customer via Mailgun.

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if !cfg.MailSendEnabled {
		log.Println("MAIL_SEND_ENABLED=false; invoice worker disabled (no receipts will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQInvoiceQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	if _, err := ch.QueueDeclare(cfg.RabbitMQInvoiceQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQInvoiceQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var ev application.InvoiceEvent
			if err := json.Unmarshal(msg.Body, &ev); err != nil {
				log.Printf("bad message: %v", err)
				_ = msg.Nack(false, false)
				continue
			}

			// deletions carry no customer to notify
			if ev.Invoice == nil {
				_ = msg.Ack(false)
				continue
			}

			subject, text := receiptFor(ev)
			c, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := mg.Send(c, ev.Invoice.CustomerEmail, subject, text, "")
			cancel()
			if err != nil {
				log.Printf("send receipt for %s failed: %v", ev.InvoiceID, err)
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
		}
		close(done)
	}()

	log.Printf("invoice worker consuming %q", cfg.RabbitMQInvoiceQueue)
	<-stop
	log.Println("shutting down invoice worker")
	_ = ch.Close()
	<-done
}

func receiptFor(ev application.InvoiceEvent) (subject, text string) {
	inv := ev.Invoice
	amount := fmt.Sprintf("$%.2f", float64(inv.Amount)/100)

	switch ev.Type {
	case "invoice.created":
		subject = "New invoice " + shortID(ev.InvoiceID)
		text = fmt.Sprintf("Hi %s,\n\nA new invoice for %s (%s) was issued on %s.\n", inv.CustomerName, amount, inv.Status, inv.Date)
	case "invoice.updated":
		subject = "Invoice " + shortID(ev.InvoiceID) + " updated"
		text = fmt.Sprintf("Hi %s,\n\nYour invoice was updated: %s, status %s.\n", inv.CustomerName, amount, inv.Status)
	default:
		subject = "Invoice notification"
		text = fmt.Sprintf("Hi %s,\n\nThere is an update on invoice %s.\n", inv.CustomerName, ev.InvoiceID)
	}
	return subject, text
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
