package httpclient_test

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	httpclient "github.com/JohnPlummer/jp-go-httpclient"
)

var _ = Describe("Retry policy", func() {
	Context("transport that always fails", func() {
		It("makes exactly retry count + 1 attempts before failing", func() {
			client, err := httpclient.New(
				httpclient.WithRetry(3, time.Millisecond),
				httpclient.WithLogger(newQuietLogger()),
			)
			Expect(err).NotTo(HaveOccurred())
			defer client.Close()

			result := client.Get(unreachableURL())
			Expect(result.Success).To(BeFalse())
			Expect(result.StatusCode).To(BeZero())
			Expect(result.Error).NotTo(BeEmpty())

			stats := client.Stats()
			Expect(stats.TotalAttempts).To(Equal(int64(4)))
			Expect(stats.TotalRetries).To(Equal(int64(3)))
			Expect(stats.TotalFailures).To(Equal(int64(1)))
			Expect(stats.TotalSuccesses).To(Equal(int64(0)))
		})

		It("makes exactly one attempt when retries are disabled", func() {
			client, err := httpclient.New(
				httpclient.WithRetry(0, time.Millisecond),
				httpclient.WithLogger(newQuietLogger()),
			)
			Expect(err).NotTo(HaveOccurred())
			defer client.Close()

			result := client.Get(unreachableURL())
			Expect(result.Success).To(BeFalse())
			Expect(client.Stats().TotalAttempts).To(Equal(int64(1)))
		})
	})

	Context("transport that recovers", func() {
		It("stops retrying on the first successful attempt", func() {
			server, count := flakyServer(1, `{"ok":true}`)
			defer server.Close()

			client, err := httpclient.New(
				httpclient.WithBaseURL(server.URL),
				httpclient.WithRetry(5, time.Millisecond),
				httpclient.WithLogger(newQuietLogger()),
			)
			Expect(err).NotTo(HaveOccurred())
			defer client.Close()

			result := client.Get("/")
			Expect(result.Success).To(BeTrue())
			Expect(count.Load()).To(Equal(int32(2)))
			Expect(client.Stats().TotalAttempts).To(Equal(int64(2)))
			Expect(client.Stats().TotalSuccesses).To(Equal(int64(1)))
		})
	})

	Context("HTTP-level error statuses", func() {
		DescribeTable("are never retried",
			func(status int) {
				server, count := countingServer(status, "text/plain", "nope")
				defer server.Close()

				client, err := httpclient.New(
					httpclient.WithBaseURL(server.URL),
					httpclient.WithRetry(4, time.Millisecond),
					httpclient.WithLogger(newQuietLogger()),
				)
				Expect(err).NotTo(HaveOccurred())
				defer client.Close()

				result := client.Get("/")
				Expect(result.Success).To(BeFalse())
				Expect(result.StatusCode).To(Equal(status))
				Expect(count.Load()).To(Equal(int32(1)))
			},
			Entry("404 not found", http.StatusNotFound),
			Entry("500 internal server error", http.StatusInternalServerError),
			Entry("503 service unavailable", http.StatusServiceUnavailable),
		)
	})

	Context("timeouts followed by recovery", func() {
		It("retries through transport failures and returns the final success", func() {
			server, count := flakyServer(2, `{"ok":true}`)
			defer server.Close()

			client, err := httpclient.New(
				httpclient.WithBaseURL(server.URL),
				httpclient.WithRetry(2, 100*time.Millisecond),
				httpclient.WithLogger(newQuietLogger()),
			)
			Expect(err).NotTo(HaveOccurred())
			defer client.Close()

			start := time.Now()
			result := client.Get("/status")
			elapsed := time.Since(start)

			Expect(result.Success).To(BeTrue())
			Expect(result.StatusCode).To(Equal(http.StatusOK))
			Expect(result.Data).To(HaveKeyWithValue("ok", true))
			Expect(result.Error).To(BeEmpty())

			Expect(count.Load()).To(Equal(int32(3)))
			Expect(elapsed).To(BeNumerically(">=", 200*time.Millisecond))
		})
	})

	Context("custom classifier", func() {
		It("consults the classifier before retrying", func() {
			client, err := httpclient.New(
				httpclient.WithRetry(5, time.Millisecond),
				httpclient.WithClassifier(nothingRetryable{}),
				httpclient.WithLogger(newQuietLogger()),
			)
			Expect(err).NotTo(HaveOccurred())
			defer client.Close()

			result := client.Get(unreachableURL())
			Expect(result.Success).To(BeFalse())
			Expect(client.Stats().TotalAttempts).To(Equal(int64(1)))
		})
	})
})

type nothingRetryable struct{}

func (nothingRetryable) IsRetryable(error) bool { return false }
