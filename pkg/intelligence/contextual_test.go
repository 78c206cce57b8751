package intelligence_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/intelligence"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
	testutils "github.com/fahd-noodleseed/memoire/pkg/utils/test"
)

var _ = Describe("ContextualChunker", func() {
	var (
		ctx       context.Context
		memories  *memory.Service
		projectID string
	)

	BeforeEach(func() {
		ctx = context.Background()
		memories, _, _ = newTestMemories()

		project, err := memories.CreateProject(ctx, "alpha", "")
		Expect(err).NotTo(HaveOccurred())
		projectID = project.ID
	})

	newChunker := func(mock *testutils.MockLLM) *intelligence.ContextualChunker {
		base := intelligence.NewChunker(mock.CallFunc(), intelligence.ChunkerConfig{
			MinChunkWords: 5,
			MaxChunkWords: 150,
		}, zap.NewNop())

		return intelligence.NewContextualChunker(base, mock.CallFunc(), memories, zap.NewNop())
	}

	It("tags every chunk with the default suggestion when no contexts exist", func() {
		mock := &testutils.MockLLM{Err: errors.New("provider down")}

		chunks := newChunker(mock).ChunkWithContexts(ctx, "short note about nothing special", projectID)

		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0].SuggestedContexts).To(Equal([]string{intelligence.DefaultContextName}))
		Expect(chunks[0].ContextConfidence).To(Equal(0.5))
		Expect(chunks[0].ContextReasoning).To(BeEmpty())
	})

	It("parses model suggestions when contexts exist", func() {
		_, err := memories.CreateContext(ctx, &memory.Context{
			ProjectID: projectID, Name: "meetings", Description: "Meeting schedules.",
		})
		Expect(err).NotTo(HaveOccurred())

		mock := &testutils.MockLLM{Responses: []string{`{
			"fragments": [{
				"content": "standup moved to nine thirty",
				"semantic_summary": "standup time",
				"key_concepts": ["standup"],
				"suggested_contexts": ["meetings", "schedule changes"],
				"context_reasoning": "talks about a recurring meeting",
				"context_confidence": 0.85
			}]
		}`}}

		chunks := newChunker(mock).ChunkWithContexts(ctx, "standup moved to nine thirty", projectID)

		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0].SuggestedContexts).To(Equal([]string{"meetings", "schedule changes"}))
		Expect(chunks[0].ContextConfidence).To(BeNumerically("~", 0.85, 0.001))

		prompts := mock.Prompts()
		Expect(prompts[0]).To(ContainSubstring("meetings"))
		Expect(prompts[0]).To(ContainSubstring("Meeting schedules."))
	})

	It("falls back to default tagging when the guided call fails", func() {
		_, err := memories.CreateContext(ctx, &memory.Context{
			ProjectID: projectID, Name: "meetings",
		})
		Expect(err).NotTo(HaveOccurred())

		mock := &testutils.MockLLM{Err: errors.New("provider down")}

		chunks := newChunker(mock).ChunkWithContexts(ctx, "standup moved to nine thirty", projectID)

		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0].SuggestedContexts).To(Equal([]string{intelligence.DefaultContextName}))
	})
})

var _ = Describe("Contextualizer", func() {
	var (
		ctx       context.Context
		memories  *memory.Service
		projectID string
	)

	BeforeEach(func() {
		ctx = context.Background()
		memories, _, _ = newTestMemories()

		project, err := memories.CreateProject(ctx, "alpha", "")
		Expect(err).NotTo(HaveOccurred())
		projectID = project.ID
	})

	newContextualizer := func(mock *testutils.MockLLM) *intelligence.Contextualizer {
		base := intelligence.NewChunker(mock.CallFunc(), intelligence.ChunkerConfig{
			MinChunkWords: 5,
			MaxChunkWords: 150,
		}, zap.NewNop())
		chunker := intelligence.NewContextualChunker(base, mock.CallFunc(), memories, zap.NewNop())
		resolver := intelligence.NewResolver(memories, mock.CallFunc(), zap.NewNop())

		return intelligence.NewContextualizer(chunker, resolver, memories, zap.NewNop())
	}

	It("persists one contextualized fragment per chunk", func() {
		mock := &testutils.MockLLM{Err: errors.New("provider down")}

		fragments, err := newContextualizer(mock).Process(ctx, "payments use the sandbox gateway", projectID)
		Expect(err).NotTo(HaveOccurred())
		Expect(fragments).To(HaveLen(1))

		created := fragments[0]
		Expect(created.Category).To(Equal("contextualized"))
		Expect(created.Source).To(Equal("emergent_chunking"))
		Expect(created.ContextIDs).To(HaveLen(1))
		Expect(created.CustomFields).To(HaveKey("semantic_summary"))
		Expect(created.CustomFields).To(HaveKey("context_confidence"))

		general, err := memories.GetContext(ctx, created.ContextIDs[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(general.Name).To(Equal(intelligence.DefaultContextName))
	})

	It("records new fragments in the resolved context's membership list", func() {
		mock := &testutils.MockLLM{Err: errors.New("provider down")}

		fragments, err := newContextualizer(mock).Process(ctx, "deploys go out friday mornings", projectID)
		Expect(err).NotTo(HaveOccurred())
		Expect(fragments).To(HaveLen(1))

		resolved, err := memories.GetContext(ctx, fragments[0].ContextIDs[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(resolved.FragmentIDs).To(ContainElement(fragments[0].ID))
		Expect(resolved.FragmentCount).To(Equal(1))
	})

	It("unions membership with fragments already in the context", func() {
		mock := &testutils.MockLLM{Err: errors.New("provider down")}
		contextualizer := newContextualizer(mock)

		first, err := contextualizer.Process(ctx, "first note", projectID)
		Expect(err).NotTo(HaveOccurred())
		second, err := contextualizer.Process(ctx, "second note", projectID)
		Expect(err).NotTo(HaveOccurred())

		resolved, err := memories.GetContext(ctx, first[0].ContextIDs[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(resolved.FragmentIDs).To(ConsistOf(first[0].ID, second[0].ID))
	})

	It("reuses resolved contexts across chunks", func() {
		mock := &testutils.MockLLM{Err: errors.New("provider down")}
		contextualizer := newContextualizer(mock)

		first, err := contextualizer.Process(ctx, "first note", projectID)
		Expect(err).NotTo(HaveOccurred())
		second, err := contextualizer.Process(ctx, "second note", projectID)
		Expect(err).NotTo(HaveOccurred())

		Expect(first[0].ContextIDs).To(Equal(second[0].ContextIDs))

		contexts, err := memories.ListContexts(ctx, projectID)
		Expect(err).NotTo(HaveOccurred())
		Expect(contexts).To(HaveLen(1))
	})
})
