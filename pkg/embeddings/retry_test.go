package embeddings_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canopyhq/rolechat/pkg/embeddings"
	"github.com/canopyhq/rolechat/pkg/embeddings/ollama"
)

func TestEmbeddings(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Embeddings Suite")
}

// flakyEmbedder fails its first failures calls, then succeeds. Every error
// it returns is pre-wrapped by the test, so the decorator sees exactly what
// a provider would hand it.
type flakyEmbedder struct {
	failures int
	err      error
	calls    int
}

func (f *flakyEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

func (f *flakyEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *flakyEmbedder) Dimensions() int { return 2 }

func (f *flakyEmbedder) Close() error { return nil }

var _ = Describe("WithRetry", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("retries a transient failure and returns the eventual success", func() {
		inner := &flakyEmbedder{
			failures: 2,
			err:      fmt.Errorf("%w: sending request: connection refused", embeddings.ErrEmbedding),
		}
		embedder := embeddings.WithRetry(inner, 3, time.Millisecond)

		vec, err := embedder.Embed(ctx, "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(HaveLen(2))
		Expect(inner.calls).To(Equal(3))
	})

	It("spends the full budget on a persistent transient failure", func() {
		inner := &flakyEmbedder{
			failures: 10,
			err:      fmt.Errorf("%w: ollama returned status 503: overloaded", embeddings.ErrEmbedding),
		}
		embedder := embeddings.WithRetry(inner, 3, time.Millisecond)

		_, err := embedder.Embed(ctx, "hello")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(inner.calls).To(Equal(3))
	})

	It("attempts an authorization failure exactly once", func() {
		inner := &flakyEmbedder{
			failures: 10,
			err: embeddings.Permanent(
				fmt.Errorf("%w: provider returned status 401: invalid api key", embeddings.ErrEmbedding)),
		}
		embedder := embeddings.WithRetry(inner, 3, time.Millisecond)

		_, err := embedder.Embed(ctx, "hello")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(inner.calls).To(Equal(1))
	})

	It("surfaces a permanent batch failure without retrying", func() {
		inner := &flakyEmbedder{
			failures: 10,
			err: embeddings.Permanent(
				fmt.Errorf("%w: provider returned status 400: input too long", embeddings.ErrEmbedding)),
		}
		embedder := embeddings.WithRetry(inner, 3, time.Millisecond)

		_, err := embedder.EmbedBatch(ctx, []string{"a", "b"})
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(inner.calls).To(Equal(1))
	})

	It("stops retrying once the context is cancelled", func() {
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		inner := &flakyEmbedder{
			failures: 10,
			err:      fmt.Errorf("%w: sending request: connection refused", embeddings.ErrEmbedding),
		}
		embedder := embeddings.WithRetry(inner, 3, time.Millisecond)

		_, err := embedder.Embed(cancelCtx, "hello")
		Expect(err).To(HaveOccurred())
		Expect(inner.calls).To(Equal(1))
	})
})

var _ = Describe("Permanent", func() {
	It("is detectable through further wrapping", func() {
		err := fmt.Errorf("embed chunk 4: %w",
			embeddings.Permanent(errors.New("status 401")))
		Expect(embeddings.IsPermanent(err)).To(BeTrue())
	})

	It("passes nil through", func() {
		Expect(embeddings.Permanent(nil)).To(Succeed())
	})

	It("leaves plain errors alone", func() {
		Expect(embeddings.IsPermanent(errors.New("timeout"))).To(BeFalse())
	})
})

var _ = Describe("provider status classification", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	serveStatus := func(status int, hits *int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			*hits++
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":"nope"}`)
		}))
	}

	It("does not retry an unauthorized response from the provider", func() {
		var hits int
		server := serveStatus(http.StatusUnauthorized, &hits)
		defer server.Close()

		inner, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())
		embedder := embeddings.WithRetry(inner, 3, time.Millisecond)

		_, err = embedder.Embed(ctx, "hello")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(hits).To(Equal(1))
	})

	It("retries a server failure up to the budget", func() {
		var hits int
		server := serveStatus(http.StatusServiceUnavailable, &hits)
		defer server.Close()

		inner, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())
		embedder := embeddings.WithRetry(inner, 3, time.Millisecond)

		_, err = embedder.Embed(ctx, "hello")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(hits).To(Equal(3))
	})

	It("keeps retrying on rate limiting", func() {
		var hits int
		server := serveStatus(http.StatusTooManyRequests, &hits)
		defer server.Close()

		inner, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())
		embedder := embeddings.WithRetry(inner, 2, time.Millisecond)

		_, err = embedder.Embed(ctx, "hello")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(hits).To(Equal(2))
	})
})
