package httpclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	httpclient "github.com/JohnPlummer/jp-go-httpclient"
)

var _ = Describe("AsyncClient", func() {
	Describe("basic requests", func() {
		It("returns the same envelope contract as the blocking client", func() {
			server, _ := countingServer(http.StatusOK, "application/json", `{"id":7}`)
			defer server.Close()

			client, err := httpclient.NewAsync(
				httpclient.WithBaseURL(server.URL),
				httpclient.WithLogger(newQuietLogger()),
			)
			Expect(err).NotTo(HaveOccurred())
			defer client.Close()

			result, err := client.Get(context.Background(), "/items/7")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeTrue())
			Expect(result.StatusCode).To(Equal(http.StatusOK))
			Expect(result.Data).To(HaveKeyWithValue("id", float64(7)))
		})

		It("returns failure envelopes without an error for HTTP-level failures", func() {
			server, _ := countingServer(http.StatusBadGateway, "text/plain", "bad gateway")
			defer server.Close()

			client, err := httpclient.NewAsync(
				httpclient.WithBaseURL(server.URL),
				httpclient.WithRetry(0, 0),
				httpclient.WithLogger(newQuietLogger()),
			)
			Expect(err).NotTo(HaveOccurred())
			defer client.Close()

			result, err := client.Get(context.Background(), "/")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Success).To(BeFalse())
			Expect(result.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("cancellation", func() {
		It("propagates cancellation mid-delay without an envelope or further attempts", func() {
			client, err := httpclient.NewAsync(
				httpclient.WithRetry(3, 500*time.Millisecond),
				httpclient.WithLogger(newQuietLogger()),
			)
			Expect(err).NotTo(HaveOccurred())
			defer client.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			time.AfterFunc(100*time.Millisecond, cancel)

			result, err := client.Get(ctx, unreachableURL())
			Expect(err).To(MatchError(context.Canceled))
			Expect(result).To(BeZero())
			Expect(client.Stats().TotalAttempts).To(Equal(int64(1)))
		})

		It("propagates cancellation mid-attempt", func() {
			release := make(chan struct{})
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				<-release
				w.Write([]byte("late"))
			}))
			defer server.Close()
			defer close(release)

			client, err := httpclient.NewAsync(
				httpclient.WithBaseURL(server.URL),
				httpclient.WithRetry(3, time.Millisecond),
				httpclient.WithLogger(newQuietLogger()),
			)
			Expect(err).NotTo(HaveOccurred())
			defer client.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			time.AfterFunc(50*time.Millisecond, cancel)

			result, err := client.Get(ctx, "/hang")
			Expect(err).To(MatchError(context.Canceled))
			Expect(result).To(BeZero())
			Expect(client.Stats().TotalAttempts).To(Equal(int64(1)))
		})

		It("returns immediately when the context is already done", func() {
			server, count := countingServer(http.StatusOK, "text/plain", "ok")
			defer server.Close()

			client, err := httpclient.NewAsync(
				httpclient.WithBaseURL(server.URL),
				httpclient.WithLogger(newQuietLogger()),
			)
			Expect(err).NotTo(HaveOccurred())
			defer client.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			result, err := client.Get(ctx, "/")
			Expect(err).To(MatchError(context.Canceled))
			Expect(result).To(BeZero())
			Expect(count.Load()).To(Equal(int32(0)))
		})
	})

	Describe("concurrent calls", func() {
		It("serves independent calls over one shared session", func() {
			server, count := countingServer(http.StatusOK, "application/json", `{"ok":true}`)
			defer server.Close()

			client, err := httpclient.NewAsync(
				httpclient.WithBaseURL(server.URL),
				httpclient.WithLogger(newQuietLogger()),
			)
			Expect(err).NotTo(HaveOccurred())
			defer client.Close()

			const calls = 8
			var wg sync.WaitGroup
			results := make([]httpclient.Result, calls)
			for i := 0; i < calls; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					defer GinkgoRecover()
					result, err := client.Get(context.Background(), "/")
					Expect(err).NotTo(HaveOccurred())
					results[i] = result
				}(i)
			}
			wg.Wait()

			for _, result := range results {
				Expect(result.Success).To(BeTrue())
				Expect(result.Data).To(HaveKeyWithValue("ok", true))
			}
			Expect(count.Load()).To(Equal(int32(calls)))
		})
	})
})
