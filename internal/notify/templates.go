package notify

import "fmt"

// Message is a rendered email.
type Message struct {
	Subject string
	Body    string
}

func OrderReceived(orderID, amountCents int64) Message {
	return Message{
		Subject: "Order received",
		Body:    fmt.Sprintf("We received your order %d for %d cents.", orderID, amountCents),
	}
}

func PaymentReceived(orderID int64) Message {
	return Message{
		Subject: "Payment received",
		Body:    fmt.Sprintf("Payment for order %d succeeded.", orderID),
	}
}

func ReadyToShip(orderID int64) Message {
	return Message{
		Subject: "Order ready to ship",
		Body:    fmt.Sprintf("Your order %d is ready to ship.", orderID),
	}
}

func Dispatched(orderID int64, carrier, tracking string) Message {
	if tracking == "" {
		tracking = "TBA"
	}
	body := fmt.Sprintf("Your order %d has been dispatched. Tracking: %s", orderID, tracking)
	if carrier != "" {
		body += fmt.Sprintf(" (%s)", carrier)
	}
	return Message{Subject: "Order dispatched", Body: body}
}
