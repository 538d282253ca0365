package inference_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	api "github.com/fdam/assessment-planner/api/v1alpha1"
	"github.com/fdam/assessment-planner/internal/inference"
	"github.com/fdam/assessment-planner/pkg/requestid"
)

func TestInference(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "inference suite")
}

func apiError(err error) *inference.APIError {
	var apiErr *inference.APIError
	ExpectWithOffset(1, err).To(HaveOccurred())
	ExpectWithOffset(1, err).To(BeAssignableToTypeOf(apiErr))
	return err.(*inference.APIError)
}

var _ = Describe("client", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
		form    api.AssessmentForm
	)

	BeforeEach(func() {
		handler = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		DeferCleanup(server.Close)
		form = api.AssessmentForm{Images: []string{"aW1hZ2U="}}
	})

	newClient := func() inference.Client {
		return inference.New(inference.Config{
			BaseURL: server.URL,
			ApiKey:  "secret",
			Timeout: 2 * time.Second,
		})
	}

	Describe("SubmitJob", func() {
		It("posts the form and returns the job id", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.URL.Path).To(Equal("/api/v1/jobs"))
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer secret"))
				Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))

				var got api.AssessmentForm
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				Expect(got.Images).To(HaveLen(1))

				_ = json.NewEncoder(w).Encode(map[string]string{"jobId": "job-42"})
			}

			resp, err := newClient().SubmitJob(context.Background(), form)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.JobID).To(Equal("job-42"))
		})

		It("propagates the request id header from the context", func() {
			var seen string
			handler = func(w http.ResponseWriter, r *http.Request) {
				seen = r.Header.Get("x-request-id")
				_ = json.NewEncoder(w).Encode(map[string]string{"jobId": "job-42"})
			}

			ctx := requestid.ToContext(context.Background(), "req-7")
			_, err := newClient().SubmitJob(ctx, form)
			Expect(err).ToNot(HaveOccurred())
			Expect(seen).To(Equal("req-7"))
		})

		It("parses a structured remote error body", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_ = json.NewEncoder(w).Encode(api.Error{Code: 422, Message: "too many images"})
			}

			_, err := newClient().SubmitJob(context.Background(), form)
			apiErr := apiError(err)
			Expect(apiErr.Code).To(Equal(422))
			Expect(apiErr.Message).To(Equal("too many images"))
			Expect(apiErr.Retryable()).To(BeFalse())
		})

		It("falls back to the HTTP status for unparseable error bodies", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("<html>oops</html>"))
			}

			_, err := newClient().SubmitJob(context.Background(), form)
			apiErr := apiError(err)
			Expect(apiErr.Code).To(Equal(http.StatusInternalServerError))
			Expect(apiErr.Retryable()).To(BeTrue())
		})

		It("rejects a success response with no job id", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{}"))
			}

			_, err := newClient().SubmitJob(context.Background(), form)
			Expect(apiError(err).Code).To(Equal(http.StatusBadGateway))
		})

		It("maps connection failures to a retryable service error", func() {
			c := inference.New(inference.Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
			_, err := c.SubmitJob(context.Background(), form)
			apiErr := apiError(err)
			Expect(apiErr.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(apiErr.Retryable()).To(BeTrue())
		})
	})

	Describe("GetJobStatus", func() {
		It("returns a typed status", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/v1/jobs/job-42/status"))
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "in_progress"})
			}

			resp, err := newClient().GetJobStatus(context.Background(), "job-42")
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Status).To(Equal(api.JobStatusInProgress))
		})

		It("carries the remote failure message of a failed job", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "failed", "error": "model overloaded"})
			}

			resp, err := newClient().GetJobStatus(context.Background(), "job-42")
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Status).To(Equal(api.JobStatusFailed))
			Expect(resp.Error).To(Equal("model overloaded"))
		})

		It("rejects an unknown status string", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "paused"})
			}

			_, err := newClient().GetJobStatus(context.Background(), "job-42")
			Expect(apiError(err).Code).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("GetJobResult", func() {
		It("returns the session id and raw report", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/v1/jobs/job-42/result"))
				_ = json.NewEncoder(w).Encode(map[string]any{
					"sessionId":        "session-9",
					"reportText":       "## Executive Summary\nLight residue.",
					"processingTimeMs": 5400,
				})
			}

			resp, err := newClient().GetJobResult(context.Background(), "job-42")
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.SessionID).To(Equal("session-9"))
			Expect(resp.ReportText).To(ContainSubstring("Light residue"))
			Expect(resp.ProcessingTimeMs).To(Equal(int64(5400)))
		})

		It("rejects a result without a session id", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"reportText": "text"})
			}

			_, err := newClient().GetJobResult(context.Background(), "job-42")
			Expect(apiError(err).Code).To(Equal(http.StatusBadGateway))
		})
	})
})

var _ = Describe("chat client", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
	)

	BeforeEach(func() {
		handler = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		DeferCleanup(server.Close)
	})

	newChat := func() inference.Chat {
		return inference.NewChat(inference.Config{BaseURL: server.URL, Timeout: 2 * time.Second})
	}

	It("forwards a message against the session", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/api/v1/chat"))

			var got map[string]string
			Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
			Expect(got["sessionId"]).To(Equal("session-9"))
			Expect(got["message"]).To(Equal("what about the ducts?"))

			_ = json.NewEncoder(w).Encode(api.ChatReply{Response: "The ducts need HEPA vacuuming.", Timestamp: "2026-08-31T10:00:00Z"})
		}

		reply, err := newChat().SendMessage(context.Background(), "session-9", "what about the ducts?")
		Expect(err).ToNot(HaveOccurred())
		Expect(reply.Response).To(ContainSubstring("ducts"))
	})

	It("distinguishes an expired session", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(api.Error{Code: 404, Message: "session not found"})
		}

		_, err := newChat().SendMessage(context.Background(), "session-9", "hello")
		apiErr := apiError(err)
		Expect(apiErr.IsSessionNotFound()).To(BeTrue())
	})
})
