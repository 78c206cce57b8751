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

var _ = Describe("Resolver", func() {
	var (
		ctx      context.Context
		memories *memory.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		memories, _, _ = newTestMemories()

		_, err := memories.CreateProject(ctx, "alpha", "")
		Expect(err).NotTo(HaveOccurred())
	})

	projectID := func() string {
		projects, err := memories.ListProjects(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(projects).To(HaveLen(1))

		return projects[0].ID
	}

	createContext := func(pid, name string) string {
		id, err := memories.CreateContext(ctx, &memory.Context{ProjectID: pid, Name: name})
		Expect(err).NotTo(HaveOccurred())

		return id
	}

	newResolver := func(mock *testutils.MockLLM) *intelligence.Resolver {
		return intelligence.NewResolver(memories, mock.CallFunc(), zap.NewNop())
	}

	It("matches case and separator variants without creating duplicates", func() {
		pid := projectID()
		existingID := createContext(pid, "project_planning")

		resolver := newResolver(&testutils.MockLLM{Err: errors.New("provider down")})

		ids := resolver.Resolve(ctx, []string{"Project Planning"}, pid, intelligence.ContextualChunk{})
		Expect(ids).To(Equal([]string{existingID}))

		contexts, err := memories.ListContexts(ctx, pid)
		Expect(err).NotTo(HaveOccurred())
		Expect(contexts).To(HaveLen(1))
	})

	It("matches on token overlap against the smaller name", func() {
		pid := projectID()
		existingID := createContext(pid, "billing and invoicing")

		resolver := newResolver(&testutils.MockLLM{Err: errors.New("provider down")})

		ids := resolver.Resolve(ctx, []string{"billing setup"}, pid, intelligence.ContextualChunk{})
		Expect(ids).To(Equal([]string{existingID}))
	})

	It("creates exactly one new context for an unrelated name", func() {
		pid := projectID()
		createContext(pid, "billing")

		resolver := newResolver(&testutils.MockLLM{
			Responses: []string{"Holds notes about the quarterly offsite."},
		})

		ids := resolver.Resolve(ctx, []string{"Completely Unrelated Topic"}, pid, intelligence.ContextualChunk{})
		Expect(ids).To(HaveLen(1))

		contexts, err := memories.ListContexts(ctx, pid)
		Expect(err).NotTo(HaveOccurred())
		Expect(contexts).To(HaveLen(2))
		Expect(contexts[1].Name).To(Equal("Completely Unrelated Topic"))
		Expect(contexts[1].Description).To(Equal("Holds notes about the quarterly offsite."))
		Expect(contexts[1].ID).To(Equal(ids[0]))
	})

	It("builds a fallback description from the first three key concepts", func() {
		pid := projectID()

		resolver := newResolver(&testutils.MockLLM{Err: errors.New("provider down")})

		chunk := intelligence.ContextualChunk{
			ChunkDraft: intelligence.ChunkDraft{
				KeyConcepts: []string{"kafka", "partitions", "ordering", "extra"},
			},
		}
		ids := resolver.Resolve(ctx, []string{"event streaming"}, pid, chunk)
		Expect(ids).To(HaveLen(1))

		contexts, err := memories.ListContexts(ctx, pid)
		Expect(err).NotTo(HaveOccurred())
		Expect(contexts[0].Description).To(Equal("Groups information related to kafka, partitions, ordering."))
	})

	It("lets later names in one batch match freshly created contexts", func() {
		pid := projectID()

		resolver := newResolver(&testutils.MockLLM{Responses: []string{"desc"}})

		ids := resolver.Resolve(ctx, []string{"release process", "Release Process"}, pid, intelligence.ContextualChunk{})
		Expect(ids).To(HaveLen(2))
		Expect(ids[0]).To(Equal(ids[1]))

		contexts, err := memories.ListContexts(ctx, pid)
		Expect(err).NotTo(HaveOccurred())
		Expect(contexts).To(HaveLen(1))
	})

	It("sees contexts created after an explicit cache clear", func() {
		pid := projectID()
		resolver := newResolver(&testutils.MockLLM{Err: errors.New("provider down")})

		// Prime the cache while the project is empty.
		resolver.Resolve(ctx, []string{"first topic"}, pid, intelligence.ContextualChunk{})

		// Created outside the resolver, invisible until the cache clears.
		outsideID := createContext(pid, "side channel")

		idsBefore := resolver.Resolve(ctx, []string{"side channel"}, pid, intelligence.ContextualChunk{})
		Expect(idsBefore).NotTo(Equal([]string{outsideID}))

		resolver.ClearCache(pid)

		idsAfter := resolver.Resolve(ctx, []string{"side channel"}, pid, intelligence.ContextualChunk{})
		Expect(idsAfter).To(Equal([]string{outsideID}))
	})
})
