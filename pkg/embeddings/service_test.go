package embeddings_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/embeddings"
	testutils "github.com/fahd-noodleseed/memoire/pkg/utils/test"
)

var _ = Describe("Service", func() {
	var (
		embedder *testutils.MockEmbedder
		cache    *embeddings.Cache
		service  *embeddings.Service
	)

	BeforeEach(func() {
		embedder = testutils.NewMockEmbedder()
		cache = embeddings.NewCache(24)
		service = embeddings.NewService(embedder, cache, embeddings.ServiceConfig{
			BatchSize: 2,
		}, zap.NewNop())
	})

	Describe("Embed", func() {
		It("rejects empty text", func() {
			_, err := service.Embed(context.Background(), "", embeddings.TaskDocument)
			Expect(err).To(MatchError(embeddings.ErrInvalidInput))
		})

		It("rejects whitespace-only text", func() {
			_, err := service.Embed(context.Background(), "   \t\n", embeddings.TaskDocument)
			Expect(err).To(MatchError(embeddings.ErrInvalidInput))
		})

		It("embeds text via the provider", func() {
			embedder.Embeddings["hello"] = []float32{0.5, 0.5, 0.5}

			vec, err := service.Embed(context.Background(), "hello", embeddings.TaskDocument)
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(Equal([]float32{0.5, 0.5, 0.5}))
		})

		It("serves repeat requests from the cache", func() {
			ctx := context.Background()

			_, err := service.Embed(ctx, "hello", embeddings.TaskDocument)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Embed(ctx, "hello", embeddings.TaskDocument)
			Expect(err).NotTo(HaveOccurred())

			Expect(embedder.Calls).To(Equal(1))
		})

		It("surfaces provider failures", func() {
			embedder.FailOn = "bad"

			_, err := service.Embed(context.Background(), "bad", embeddings.TaskDocument)
			Expect(err).To(HaveOccurred())
		})

		It("does not cache failed embeddings", func() {
			embedder.FailOn = "flaky"

			_, err := service.Embed(context.Background(), "flaky", embeddings.TaskDocument)
			Expect(err).To(HaveOccurred())

			embedder.FailOn = ""
			vec, err := service.Embed(context.Background(), "flaky", embeddings.TaskDocument)
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).NotTo(BeNil())
		})
	})

	Describe("EmbedBatch", func() {
		It("preserves input order and length", func() {
			embedder.Embeddings["a"] = []float32{1, 0, 0}
			embedder.Embeddings["b"] = []float32{0, 1, 0}
			embedder.Embeddings["c"] = []float32{0, 0, 1}

			results, err := service.EmbedBatch(context.Background(),
				[]string{"a", "b", "c"}, embeddings.TaskDocument)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0]).To(Equal([]float32{1, 0, 0}))
			Expect(results[1]).To(Equal([]float32{0, 1, 0}))
			Expect(results[2]).To(Equal([]float32{0, 0, 1}))
		})

		It("substitutes a zero vector for a failing item and continues", func() {
			embedder.Embeddings["a"] = []float32{1, 0, 0}
			embedder.Embeddings["c"] = []float32{0, 0, 1}
			embedder.FailOn = "b"

			results, err := service.EmbedBatch(context.Background(),
				[]string{"a", "b", "c"}, embeddings.TaskDocument)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0]).To(Equal([]float32{1, 0, 0}))
			Expect(results[1]).To(Equal([]float32{0, 0, 0}))
			Expect(results[2]).To(Equal([]float32{0, 0, 1}))
		})

		It("substitutes zero vectors for empty items", func() {
			results, err := service.EmbedBatch(context.Background(),
				[]string{"a", ""}, embeddings.TaskDocument)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[1]).To(Equal([]float32{0, 0, 0}))
		})

		It("returns an empty slice for no texts", func() {
			results, err := service.EmbedBatch(context.Background(), nil, embeddings.TaskDocument)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("does not count failed items toward the rate-limit pause", func() {
			service = embeddings.NewService(embedder, cache, embeddings.ServiceConfig{
				BatchSize:  2,
				BatchDelay: 10 * time.Second, // a pause would blow the deadline
			}, zap.NewNop())
			embedder.Embeddings["a"] = []float32{1, 0, 0}
			embedder.FailOn = "b"

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			// One success and three failures never reach two successes, so no
			// pause fires and the batch finishes inside the deadline.
			results, err := service.EmbedBatch(ctx, []string{"a", "b", "b", "b"}, embeddings.TaskDocument)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
		})

		It("stops on context cancellation during a pause", func() {
			service = embeddings.NewService(embedder, cache, embeddings.ServiceConfig{
				BatchSize:  1,
				BatchDelay: 10 * time.Second, // never elapses
			}, zap.NewNop())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := service.EmbedBatch(ctx, []string{"a", "b"}, embeddings.TaskDocument)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("cache maintenance", func() {
		It("exposes stats and cleanup through the service", func() {
			_, err := service.Embed(context.Background(), "hello", embeddings.TaskDocument)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.CacheStats().Entries).To(Equal(1))
			Expect(service.CleanupExpired()).To(BeZero())
		})
	})
})
