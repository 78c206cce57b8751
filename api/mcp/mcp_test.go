package mcp_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/api/mcp"
	"github.com/fahd-noodleseed/memoire/pkg/embeddings"
	"github.com/fahd-noodleseed/memoire/pkg/eventstream/nop"
	"github.com/fahd-noodleseed/memoire/pkg/intelligence"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
	testutils "github.com/fahd-noodleseed/memoire/pkg/utils/test"
)

func TestMCP(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "MCP Suite")
}

var _ = Describe("NewServer", func() {
	var (
		logger      *zap.Logger
		memories    *memory.Service
		curator     *intelligence.Curator
		synthesizer *intelligence.Synthesizer
	)

	BeforeEach(func() {
		logger = zap.NewNop()

		embedder := embeddings.NewService(
			testutils.NewMockEmbedder(),
			embeddings.NewCache(1),
			embeddings.ServiceConfig{},
			logger,
		)
		memories = memory.NewService(
			testutils.NewMockStore(),
			testutils.NewMockVectorDriver(),
			embedder,
			nop.NewPublisher(),
			memory.ServiceConfig{},
			logger,
		)

		mockLLM := &testutils.MockLLM{}
		curator = intelligence.NewCurator(memories, mockLLM.CallFunc(), intelligence.CuratorConfig{}, logger)
		synthesizer = intelligence.NewSynthesizer(memories, mockLLM.CallFunc(), logger)
	})

	It("creates a server with all dependencies", func() {
		server, err := mcp.NewServer(mcp.Config{
			Memories:    memories,
			Curator:     curator,
			Synthesizer: synthesizer,
			Logger:      logger,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(server).NotTo(BeNil())
		Expect(server.Handler()).NotTo(BeNil())
	})

	It("returns an error when the memory service is nil", func() {
		_, err := mcp.NewServer(mcp.Config{
			Curator:     curator,
			Synthesizer: synthesizer,
			Logger:      logger,
		})
		Expect(err).To(MatchError("memory service is required"))
	})

	It("returns an error when the curator is nil", func() {
		_, err := mcp.NewServer(mcp.Config{
			Memories:    memories,
			Synthesizer: synthesizer,
			Logger:      logger,
		})
		Expect(err).To(MatchError("curator is required"))
	})

	It("returns an error when the synthesizer is nil", func() {
		_, err := mcp.NewServer(mcp.Config{
			Memories: memories,
			Curator:  curator,
			Logger:   logger,
		})
		Expect(err).To(MatchError("synthesizer is required"))
	})

	It("returns an error when the logger is nil", func() {
		_, err := mcp.NewServer(mcp.Config{
			Memories:    memories,
			Curator:     curator,
			Synthesizer: synthesizer,
		})
		Expect(err).To(MatchError("logger is required"))
	})

	It("builds a noop server without any dependencies", func() {
		server, err := mcp.NewServer(mcp.Config{Noop: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(server).NotTo(BeNil())
	})
})
