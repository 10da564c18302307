package producer_test

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/rs/zerolog"

	"github.com/example/whatsapp-ai-responder/internal/kafka/producer"
)

func TestNewRequiresBrokers(t *testing.T) {
	if _, err := producer.New(nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestPublishSyncSendsMessage(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"status":"delivered"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})

	p, err := producer.NewFromSyncProducer(sp, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	if err := p.PublishSync("whatsapp.status", []byte("SM1"), map[string][]byte{"content-type": []byte("application/json")}, []byte(`{"status":"delivered"}`)); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}
	if !p.IsReady() {
		t.Fatalf("expected producer to be ready")
	}
}

func TestPublishSyncFailureMarksNotReady(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p, err := producer.NewFromSyncProducer(sp, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	err = p.PublishSync("whatsapp.status", nil, nil, []byte("x"))
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected broker error, got %v", err)
	}
	if p.IsReady() {
		t.Fatalf("expected producer to be not ready after failure")
	}
}

func TestPublishSyncRequiresTopic(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	p, err := producer.NewFromSyncProducer(sp, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	if err := p.PublishSync("", nil, nil, []byte("x")); err == nil {
		t.Fatalf("expected error for empty topic")
	}
}
