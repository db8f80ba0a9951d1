package alerts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

// EnqueueOfferReceived notifies the farmer that a buyer made an offer on a listing
func EnqueueOfferReceived(offerID, listingID, buyerID, farmerEmail, farmerName, productType string, offerPrice float64) error {
	env := EmailEnvelope{
		To:      farmerEmail,
		Subject: fmt.Sprintf("New offer on your %s listing", productType),
		Body:    fmt.Sprintf("Hi %s, a buyer offered %.2f for your %s listing. Log in to accept or reject the offer.", farmerName, offerPrice, productType),
	}
	payload := OfferReceivedPayload{OfferID: offerID, ListingID: listingID, BuyerID: buyerID, ProductType: productType, OfferPrice: offerPrice, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOfferReceived, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueOfferAnswered notifies the buyer that the farmer answered their offer
func EnqueueOfferAnswered(offerID, listingID, buyerEmail, productType, status string) error {
	env := EmailEnvelope{
		To:      buyerEmail,
		Subject: fmt.Sprintf("Your offer was %s", status),
		Body:    fmt.Sprintf("Your offer on the %s listing has been %s.", productType, status),
	}
	payload := OfferAnsweredPayload{OfferID: offerID, ListingID: listingID, ProductType: productType, Status: status, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOfferAnswered, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueOrderPlaced notifies the farmer about a new order on their listing
func EnqueueOrderPlaced(orderID, listingID, farmerEmail, productType, unit string, quantity, totalPrice float64) error {
	env := EmailEnvelope{
		To:      farmerEmail,
		Subject: fmt.Sprintf("New order for your %s listing", productType),
		Body:    fmt.Sprintf("Order %s placed: %v %s of %s, total %.2f. Log in to review it.", orderID, quantity, unit, productType, totalPrice),
	}
	payload := OrderPlacedPayload{OrderID: orderID, ListingID: listingID, ProductType: productType, Quantity: quantity, Unit: unit, TotalPrice: totalPrice, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOrderPlaced, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueOrderStatus notifies the buyer that the order status changed
func EnqueueOrderStatus(orderID, buyerEmail, status string) error {
	env := EmailEnvelope{
		To:      buyerEmail,
		Subject: "Order status updated",
		Body:    fmt.Sprintf("Order %s is now %s.", orderID, status),
	}
	payload := OrderStatusPayload{OrderID: orderID, Status: status, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOrderStatus, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueuePaymentStatus notifies the buyer that the payment status changed
func EnqueuePaymentStatus(orderID, buyerEmail, status string) error {
	env := EmailEnvelope{
		To:      buyerEmail,
		Subject: "Payment status updated",
		Body:    fmt.Sprintf("Payment for order %s is now %s.", orderID, status),
	}
	payload := PaymentStatusPayload{OrderID: orderID, Status: status, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskPaymentStatus, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueMessageNew notifies the other order participant about a new message
func EnqueueMessageNew(orderID, senderID, recipientName, recipientEmail, body string) error {
	preview := body
	if len(preview) > 120 {
		preview = preview[:120] + "…"
	}
	env := EmailEnvelope{
		To:      recipientEmail,
		Subject: "New message about your order",
		Body:    fmt.Sprintf("Hi %s, you have a new message on order %s:\n\n%s", recipientName, orderID, preview),
	}
	payload := MessageNewPayload{OrderID: orderID, SenderID: senderID, Recipient: recipientName, Email: recipientEmail, Body: body, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskMessageNew, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}
