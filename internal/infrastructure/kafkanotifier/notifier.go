// Package kafkanotifier publishes order confirmations to a Kafka topic for
// the mail service to render and send.
package kafkanotifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/notification"
	"github.com/subham007-coder/Supar-Admin-Backend/internal/domain/payment"
)

const DefaultTopic = "order-confirmations"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Notifier struct {
	writer messageWriter
	now    func() time.Time
}

// New writes to topic on brokers, keyed by invoice so confirmations for one
// order land on one partition.
func New(brokers []string, topic string) *Notifier {
	if topic == "" {
		topic = DefaultTopic
	}
	return newWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	})
}

func newWithWriter(w messageWriter) *Notifier {
	return &Notifier{writer: w, now: time.Now}
}

type merchantPayload struct {
	Company   string `json:"company"`
	Email     string `json:"email"`
	FromEmail string `json:"fromEmail"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Website   string `json:"website,omitempty"`
	VATNumber string `json:"vatNumber,omitempty"`
}

type linePayload struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Length   string `json:"selectedLength,omitempty"`
	Curl     string `json:"selectedCurl,omitempty"`
}

type confirmationPayload struct {
	OrderID       string          `json:"orderId"`
	Invoice       int64           `json:"invoice"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	Currency      string          `json:"currency"`
	SubTotal      string          `json:"subTotal"`
	Discount      string          `json:"discount"`
	ShippingCost  string          `json:"shippingCost"`
	Total         string          `json:"total"`
	Cart          []linePayload   `json:"cart"`
	Merchant      merchantPayload `json:"merchant"`
	Date          time.Time       `json:"date"`
	SentAt        time.Time       `json:"sentAt"`
}

func (n *Notifier) OrderConfirmation(ctx context.Context, c notification.Confirmation) error {
	if c.Order == nil {
		return fmt.Errorf("kafkanotifier: confirmation without order")
	}
	value, err := json.Marshal(n.payload(c))
	if err != nil {
		return fmt.Errorf("kafkanotifier: encode: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(c.Order.Invoice, 10)),
		Value: value,
		Time:  n.now().UTC(),
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafkanotifier: write: %w", err)
	}
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

func (n *Notifier) payload(c notification.Confirmation) confirmationPayload {
	o := c.Order
	money := func(v int64) string { return payment.FromMinorUnits(v, o.Currency).StringFixed(2) }

	cart := make([]linePayload, 0, len(o.Cart))
	for _, li := range o.Cart {
		lp := linePayload{Title: li.Name, Quantity: li.Quantity, Price: money(li.UnitPrice)}
		if li.Variant != nil {
			lp.Length, lp.Curl = li.Variant.Length, li.Variant.Curl
		}
		cart = append(cart, lp)
	}
	return confirmationPayload{
		OrderID:       o.ID,
		Invoice:       o.Invoice,
		Name:          o.UserInfo.Name,
		Email:         o.UserInfo.Email,
		Status:        string(o.Status),
		PaymentMethod: o.PaymentMethod,
		Currency:      o.Currency,
		SubTotal:      money(o.Totals.SubTotal),
		Discount:      money(o.Totals.Discount),
		ShippingCost:  money(o.Totals.ShippingCost),
		Total:         money(o.Totals.Total),
		Cart:          cart,
		Merchant: merchantPayload{
			Company:   c.Merchant.Company,
			Email:     c.Merchant.Email,
			FromEmail: c.Merchant.FromEmail,
			Address:   c.Merchant.Address,
			Phone:     c.Merchant.Phone,
			Website:   c.Merchant.Website,
			VATNumber: c.Merchant.VATNumber,
		},
		Date:   o.CreatedAt,
		SentAt: n.now().UTC(),
	}
}
