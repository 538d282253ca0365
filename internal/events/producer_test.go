package events

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "events suite")
}

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("delivers buffered events to the writer", func() {
			w := newTestWriter()
			ep := NewEventProducer(w)

			body, err := json.Marshal(AssessmentEvent{AssessmentID: "a-1", Phase: "completed"})
			Expect(err).To(BeNil())
			Expect(ep.Write(context.TODO(), AssessmentMessageKind, bytes.NewReader(body))).To(Succeed())

			Eventually(w.Count, time.Second).Should(Equal(1))
			first := w.Get(0)
			Expect(first.Context.GetType()).To(Equal(AssessmentMessageKind))
			Expect(first.Context.GetSource()).To(Equal(eventSource))

			var got AssessmentEvent
			Expect(json.Unmarshal(first.Data(), &got)).To(Succeed())
			Expect(got.AssessmentID).To(Equal("a-1"))

			Expect(ep.Write(context.TODO(), ChatMessageKind, bytes.NewReader([]byte(`{}`)))).To(Succeed())
			Eventually(w.Count, time.Second).Should(Equal(2))

			ep.Close()
		})

		It("honors a custom topic", func() {
			w := newTestWriter()
			ep := NewEventProducer(w, WithOutputTopic("fdam.assessments.dev"))

			Expect(ep.Write(context.TODO(), AssessmentMessageKind, bytes.NewReader([]byte(`{}`)))).To(Succeed())
			Eventually(w.Count, time.Second).Should(Equal(1))
			Expect(w.Topics(0)).To(Equal("fdam.assessments.dev"))

			ep.Close()
		})
	})
})

var _ = Describe("buffer", func() {
	It("keeps fifo order", func() {
		b := newBuffer()
		b.PushBack(&message{Kind: AssessmentMessageKind, Data: []byte("msg1")})
		b.PushBack(&message{Kind: AssessmentMessageKind, Data: []byte("msg2")})
		b.PushBack(&message{Kind: AssessmentMessageKind, Data: []byte("msg3")})
		Expect(b.Size()).To(Equal(3))

		Expect(b.Pop().Data).To(Equal([]byte("msg1")))
		Expect(b.Pop().Data).To(Equal([]byte("msg2")))
		Expect(b.Pop().Data).To(Equal([]byte("msg3")))
		Expect(b.Size()).To(Equal(0))
		Expect(b.Pop()).To(BeNil())
	})
})

type testwriter struct {
	mu       sync.Mutex
	messages []cloudevents.Event
	topics   []string
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

func (t *testwriter) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *testwriter) Get(i int) cloudevents.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messages[i]
}

func (t *testwriter) Topics(i int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.topics[i]
}
