package intelligence_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/embeddings"
	"github.com/fahd-noodleseed/memoire/pkg/eventstream/nop"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
	testutils "github.com/fahd-noodleseed/memoire/pkg/utils/test"
	"github.com/fahd-noodleseed/memoire/pkg/vector"
)

func TestIntelligence(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Intelligence Suite")
}

// newTestMemories builds a memory service on mock collaborators.
func newTestMemories() (*memory.Service, *testutils.MockStore, *testutils.MockVectorDriver) {
	store := testutils.NewMockStore()
	vectors := testutils.NewMockVectorDriver()

	embedder := embeddings.NewService(
		testutils.NewMockEmbedder(),
		embeddings.NewCache(1),
		embeddings.ServiceConfig{},
		zap.NewNop(),
	)

	service := memory.NewService(store, vectors, embedder, nop.NewPublisher(), memory.ServiceConfig{
		SimilarityThreshold: 0.6,
		MaxResults:          10,
	}, zap.NewNop())

	return service, store, vectors
}

// vectorResult builds a similarity hit for the mock vector driver.
func vectorResult(id string, score float32) vector.QueryResult {
	return vector.QueryResult{
		Document: vector.Document{ID: id},
		Score:    score,
	}
}
