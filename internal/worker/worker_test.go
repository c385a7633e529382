package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/onmydesk/internal/domain"
)

const (
	okID      = "11111111-1111-4111-8111-111111111111"
	claimedID = "22222222-2222-4222-8222-222222222222"
	dbDownID  = "33333333-3333-4333-8333-333333333333"
	brokenID  = "44444444-4444-4444-8444-444444444444"
)

type ackRecord struct {
	tag     uint64
	ack     bool
	requeue bool
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	records []ackRecord
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, ackRecord{tag: tag, ack: true})
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, ackRecord{tag: tag, requeue: requeue})
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func (f *fakeAcknowledger) byTag() map[uint64]ackRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint64]ackRecord, len(f.records))
	for _, r := range f.records {
		out[r.tag] = r
	}
	return out
}

type fakeBroker struct {
	deliveries chan amqp.Delivery
	prefetch   int
	tag        string
	qosErr     error
}

func (f *fakeBroker) Qos(prefetchCount int) error {
	f.prefetch = prefetchCount
	return f.qosErr
}

func (f *fakeBroker) Consume(consumerTag string) (<-chan amqp.Delivery, error) {
	f.tag = consumerTag
	return f.deliveries, nil
}

type fakeProcessor struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeProcessor) ProcessByID(ctx context.Context, id string) (*domain.Report, error) {
	f.mu.Lock()
	f.ids = append(f.ids, id)
	f.mu.Unlock()

	switch id {
	case claimedID:
		return nil, domain.ErrReportAlreadyClaimed
	case dbDownID:
		return nil, errors.New("connection refused")
	case brokenID:
		return &domain.Report{ID: id, Report: "sales.Daily", Status: domain.StatusError}, errors.New("query failed")
	}
	return &domain.Report{ID: id, Report: "sales.Daily", Status: domain.StatusProcessed}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "valid", body: `{"report_id":"` + okID + `"}`, want: okID},
		{name: "malformed json", body: `{"report_id":`, wantErr: true},
		{name: "missing id", body: `{}`, wantErr: true},
		{name: "not a uuid", body: `{"report_id":"42"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMessage([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShouldRequeue(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "retryable", err: domain.NewRetryableError(errors.New("db down")), want: true},
		{name: "wrapped retryable", err: errors.Join(errors.New("ctx"), domain.NewRetryableError(errors.New("db down"))), want: true},
		{name: "already claimed", err: domain.ErrReportAlreadyClaimed, want: false},
		{name: "execution failure", err: errors.New("query failed"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRequeue(tt.err))
		})
	}
}

func TestProcessJob(t *testing.T) {
	w := NewWorker(&Config{Logger: testLogger(), Reports: &fakeProcessor{}})

	tests := []struct {
		name      string
		id        string
		wantErr   error
		retryable bool
	}{
		{name: "processed", id: okID},
		{name: "already claimed", id: claimedID, wantErr: domain.ErrReportAlreadyClaimed},
		{name: "claim failure is retryable", id: dbDownID, retryable: true},
		{name: "execution failure is terminal", id: brokenID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.processJob(context.Background(), &ReportMessage{ReportID: tt.id})
			if tt.id == okID {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.retryable, shouldRequeue(err))
		})
	}
}

func TestWorker_EndToEnd(t *testing.T) {
	acker := &fakeAcknowledger{}
	broker := &fakeBroker{deliveries: make(chan amqp.Delivery, 8)}
	processor := &fakeProcessor{}

	w := NewWorker(&Config{
		Logger:        testLogger(),
		Broker:        broker,
		Reports:       processor,
		Concurrency:   2,
		PrefetchCount: 5,
		WorkerID:      "test-worker",
	})

	bodies := map[uint64]string{
		1: `{"report_id":"` + okID + `"}`,
		2: `{"report_id":"` + claimedID + `"}`,
		3: `{"report_id":"` + dbDownID + `"}`,
		4: `{"report_id":"` + brokenID + `"}`,
		5: `not json`,
		6: `{"report_id":"nope"}`,
	}
	for tag := uint64(1); tag <= 6; tag++ {
		broker.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: tag, Body: []byte(bodies[tag])}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool {
		return len(acker.byTag()) == 6
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	w.Stop()

	assert.Equal(t, 5, broker.prefetch)
	assert.Equal(t, "test-worker", broker.tag)

	got := acker.byTag()
	assert.True(t, got[1].ack, "processed report is acked")
	assert.True(t, got[2].ack, "already claimed report is acked")
	assert.Equal(t, ackRecord{tag: 3, requeue: true}, got[3], "claim failure is requeued")
	assert.True(t, got[4].ack, "failed report is acked")
	assert.Equal(t, ackRecord{tag: 5}, got[5], "malformed message is dead-lettered")
	assert.Equal(t, ackRecord{tag: 6}, got[6], "invalid id is dead-lettered")

	assert.ElementsMatch(t, []string{okID, claimedID, dbDownID, brokenID}, processor.ids)
}

func TestWorker_StartFailsOnQos(t *testing.T) {
	w := NewWorker(&Config{
		Logger:  testLogger(),
		Broker:  &fakeBroker{qosErr: errors.New("channel closed")},
		Reports: &fakeProcessor{},
	})

	err := w.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}

func TestWorker_StopRequeuesBufferedMessages(t *testing.T) {
	acker := &fakeAcknowledger{}
	w := NewWorker(&Config{Logger: testLogger(), Reports: &fakeProcessor{}, MaxJobs: 2})

	w.jobsChan <- &ReportMessage{ReportID: okID, Delivery: amqp.Delivery{Acknowledger: acker, DeliveryTag: 7}}
	w.Stop()

	assert.Equal(t, []ackRecord{{tag: 7, requeue: true}}, acker.records)
}

func TestNewWorkerID(t *testing.T) {
	a, b := NewWorkerID(), NewWorkerID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}
