package intelligence_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/intelligence"
	testutils "github.com/fahd-noodleseed/memoire/pkg/utils/test"
)

var _ = Describe("Chunker", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	newChunker := func(mock *testutils.MockLLM, maxWords int) *intelligence.Chunker {
		return intelligence.NewChunker(mock.CallFunc(), intelligence.ChunkerConfig{
			MinChunkWords: 5,
			MaxChunkWords: maxWords,
		}, zap.NewNop())
	}

	Describe("atomic path", func() {
		It("returns one chunk equal to the input when at or below the max", func() {
			mock := &testutils.MockLLM{Err: errors.New("provider down")}
			chunker := newChunker(mock, 150)

			text := "the deploy window opens friday at noon"
			chunks := chunker.Chunk(ctx, text)

			Expect(chunks).To(HaveLen(1))
			Expect(chunks[0].Content).To(Equal(text))
			Expect(chunks[0].WordCount).To(Equal(7))
		})

		It("degrades summary and concepts without failing", func() {
			mock := &testutils.MockLLM{Err: errors.New("provider down")}
			chunker := newChunker(mock, 150)

			chunks := chunker.Chunk(ctx, "database failover requires manual confirmation today")

			Expect(chunks[0].SemanticSummary).NotTo(BeEmpty())
			Expect(chunks[0].KeyConcepts).To(ContainElement("database"))
		})
	})

	Describe("model path", func() {
		It("parses the model's chunk list", func() {
			mock := &testutils.MockLLM{Responses: []string{
				`{"chunks":[
					{"content":"part one","semantic_summary":"s1","key_concepts":["a"],"word_count":2},
					{"content":"part two","semantic_summary":"s2","key_concepts":["b"],"word_count":2}
				]}`,
			}}
			chunker := newChunker(mock, 5)

			chunks := chunker.Chunk(ctx, strings.Repeat("word ", 20))

			Expect(chunks).To(HaveLen(2))
			Expect(chunks[0].Content).To(Equal("part one"))
			Expect(chunks[1].SemanticSummary).To(Equal("s2"))
		})
	})

	Describe("sentence fallback", func() {
		It("reconstructs the input exactly and respects the size bound", func() {
			mock := &testutils.MockLLM{Err: errors.New("provider down")}
			chunker := newChunker(mock, 12)

			sentences := []string{
				"one two three four five six.",
				"seven eight nine ten eleven twelve.",
				"alpha beta gamma delta epsilon zeta.",
				"red green blue yellow purple orange.",
			}
			text := strings.Join(sentences, " ")

			chunks := chunker.Chunk(ctx, text)
			Expect(len(chunks)).To(BeNumerically(">", 1))

			var rebuilt strings.Builder
			for _, chunk := range chunks {
				rebuilt.WriteString(chunk.Content)
				Expect(chunk.WordCount).To(BeNumerically("<=", 12))
			}
			Expect(rebuilt.String()).To(Equal(text))
		})

		It("is deterministic", func() {
			mock := &testutils.MockLLM{Err: errors.New("provider down")}
			chunker := newChunker(mock, 10)

			text := strings.Repeat("alpha beta gamma delta. ", 10) + "omega."

			first := chunker.Chunk(ctx, text)
			second := chunker.Chunk(ctx, text)
			Expect(second).To(Equal(first))
		})

		It("falls back when the model returns malformed output", func() {
			mock := &testutils.MockLLM{Responses: []string{"not json at all"}}
			chunker := newChunker(mock, 5)

			text := "one two three. four five six. seven eight nine. ten eleven twelve."
			chunks := chunker.Chunk(ctx, text)

			Expect(len(chunks)).To(BeNumerically(">", 1))

			var rebuilt strings.Builder
			for _, chunk := range chunks {
				rebuilt.WriteString(chunk.Content)
			}
			Expect(rebuilt.String()).To(Equal(text))
		})
	})
})
