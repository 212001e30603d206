package email

import (
	"fmt"
	"net/smtp"

	"github.com/example/ec-orders/internal/domain/order"
)

// Service sends transactional email over SMTP.
type Service struct {
	host string
	port string
	from string
}

func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendOrderConfirmation sends the order confirmation email.
func (s *Service) SendOrderConfirmation(to string, o *order.Order) error {
	subject := fmt.Sprintf("Order confirmation %s", o.OrderNumber)
	body := BuildOrderConfirmationBody(o)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
