package alerts

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/hibiken/asynq"
)

var (
	client *asynq.Client
	server *asynq.Server
)

// Init starts the Asynq server and initializes a shared client.
func Init() {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		if host := os.Getenv("REDIS_HOST"); host != "" {
			port := os.Getenv("REDIS_PORT")
			if port == "" {
				port = "6379"
			}
			redisAddr = host + ":" + port
		} else {
			redisAddr = "127.0.0.1:6379"
		}
	}

	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client = asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskOfferReceived, handleOfferReceived)
	mux.HandleFunc(TaskOfferAnswered, handleOfferAnswered)
	mux.HandleFunc(TaskOrderPlaced, handleOrderPlaced)
	mux.HandleFunc(TaskOrderStatus, handleOrderStatus)
	mux.HandleFunc(TaskPaymentStatus, handlePaymentStatus)
	mux.HandleFunc(TaskMessageNew, handleMessageNew)

	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"emails": 10,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			log.Printf("Asynq server stopped: %v", err)
		}
	}()

	log.Printf("Asynq initialized (addr=%s)", redisAddr)
}

// Close releases client and stops server.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

func handleOfferReceived(_ context.Context, t *asynq.Task) error {
	var p OfferReceivedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] OfferReceived send failed: %v", err)
		return err
	}
	log.Printf("[notify] OfferReceived sent -> to=%s offer=%s", p.Envelope.To, p.OfferID)
	return nil
}

func handleOfferAnswered(_ context.Context, t *asynq.Task) error {
	var p OfferAnsweredPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] OfferAnswered send failed: %v", err)
		return err
	}
	log.Printf("[notify] OfferAnswered sent -> to=%s offer=%s status=%s", p.Envelope.To, p.OfferID, p.Status)
	return nil
}

func handleOrderPlaced(_ context.Context, t *asynq.Task) error {
	var p OrderPlacedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] OrderPlaced send failed: %v", err)
		return err
	}
	log.Printf("[notify] OrderPlaced sent -> to=%s order=%s", p.Envelope.To, p.OrderID)
	return nil
}

func handleOrderStatus(_ context.Context, t *asynq.Task) error {
	var p OrderStatusPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] OrderStatus send failed: %v", err)
		return err
	}
	log.Printf("[notify] OrderStatus sent -> to=%s order=%s status=%s", p.Envelope.To, p.OrderID, p.Status)
	return nil
}

func handlePaymentStatus(_ context.Context, t *asynq.Task) error {
	var p PaymentStatusPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] PaymentStatus send failed: %v", err)
		return err
	}
	log.Printf("[notify] PaymentStatus sent -> to=%s order=%s status=%s", p.Envelope.To, p.OrderID, p.Status)
	return nil
}

func handleMessageNew(_ context.Context, t *asynq.Task) error {
	var p MessageNewPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] MessageNew send failed: %v", err)
		return err
	}
	log.Printf("[notify] MessageNew sent -> to=%s order=%s", p.Envelope.To, p.OrderID)
	return nil
}
