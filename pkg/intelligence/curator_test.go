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

var _ = Describe("Curator", func() {
	var (
		ctx       context.Context
		memories  *memory.Service
		vectors   *testutils.MockVectorDriver
		projectID string
	)

	BeforeEach(func() {
		ctx = context.Background()
		memories, _, vectors = newTestMemories()

		project, err := memories.CreateProject(ctx, "alpha", "")
		Expect(err).NotTo(HaveOccurred())
		projectID = project.ID
	})

	newCurator := func(mock *testutils.MockLLM) *intelligence.Curator {
		return intelligence.NewCurator(memories, mock.CallFunc(), intelligence.CuratorConfig{
			SearchThreshold: 0.4,
			MaxResults:      50,
		}, zap.NewNop())
	}

	It("applies deletes and creates with a lazily created general context", func() {
		staleID, err := memories.StoreFragment(ctx, &memory.Fragment{
			ProjectID: projectID,
			Content:   "old retry budget is two attempts",
		})
		Expect(err).NotTo(HaveOccurred())

		mock := &testutils.MockLLM{Responses: []string{`{
			"contexts_to_create": [],
			"fragments_to_create": [{"content": "retry budget is three attempts", "context_name": "general"}],
			"ids_to_delete": ["` + staleID + `"]
		}`}}

		result, err := newCurator(mock).Curate(ctx, "retry budget is three attempts", projectID)
		Expect(err).NotTo(HaveOccurred())

		Expect(result.DeletedIDs).To(Equal([]string{staleID}))
		Expect(result.CreatedFragmentIDs).To(HaveLen(1))

		_, err = memories.GetFragment(ctx, staleID)
		Expect(err).To(MatchError(memory.ErrNotFound))

		created, err := memories.GetFragment(ctx, result.CreatedFragmentIDs[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(created.Source).To(Equal("curated_ingestion"))
		Expect(created.ContextIDs).To(HaveLen(1))

		general, err := memories.GetContext(ctx, created.ContextIDs[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(general.Name).To(Equal("general"))
		Expect(general.FragmentIDs).To(ContainElement(result.CreatedFragmentIDs[0]))
	})

	It("creates decision contexts before fragments and files fragments under them", func() {
		mock := &testutils.MockLLM{Responses: []string{`{
			"contexts_to_create": [{"name": "deployment", "description": "Release and rollout notes."}],
			"fragments_to_create": [{"content": "rollouts go through staging first", "context_name": "deployment"}],
			"ids_to_delete": []
		}`}}

		result, err := newCurator(mock).Curate(ctx, "rollouts go through staging first", projectID)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.CreatedContextIDs).To(HaveLen(1))
		Expect(result.CreatedFragmentIDs).To(HaveLen(1))

		created, err := memories.GetContext(ctx, result.CreatedContextIDs[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(created.Name).To(Equal("deployment"))
		Expect(created.FragmentIDs).To(Equal(result.CreatedFragmentIDs))
	})

	It("unions membership instead of overwriting it", func() {
		contextID, err := memories.CreateContext(ctx, &memory.Context{
			ProjectID:   projectID,
			Name:        "meetings",
			FragmentIDs: []string{"pre-existing"},
		})
		Expect(err).NotTo(HaveOccurred())

		mock := &testutils.MockLLM{Responses: []string{`{
			"contexts_to_create": [],
			"fragments_to_create": [{"content": "retro moved to thursdays", "context_name": "meetings"}],
			"ids_to_delete": []
		}`}}

		result, err := newCurator(mock).Curate(ctx, "retro moved to thursdays", projectID)
		Expect(err).NotTo(HaveOccurred())

		updated, err := memories.GetContext(ctx, contextID)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.FragmentIDs).To(ContainElement("pre-existing"))
		Expect(updated.FragmentIDs).To(ContainElement(result.CreatedFragmentIDs[0]))
	})

	It("fails when the decision call fails", func() {
		mock := &testutils.MockLLM{Err: errors.New("provider down")}

		_, err := newCurator(mock).Curate(ctx, "anything at all", projectID)
		Expect(err).To(HaveOccurred())
	})

	It("fails on a malformed decision", func() {
		mock := &testutils.MockLLM{Responses: []string{"certainly! here is prose instead of json"}}

		_, err := newCurator(mock).Curate(ctx, "anything at all", projectID)
		Expect(err).To(HaveOccurred())
	})

	It("rejects empty text", func() {
		mock := &testutils.MockLLM{}

		_, err := newCurator(mock).Curate(ctx, "   ", projectID)
		Expect(err).To(MatchError(memory.ErrInvalidInput))
	})

	It("tolerates a failing candidate search", func() {
		vectors.FailSearch = true

		mock := &testutils.MockLLM{Responses: []string{`{
			"contexts_to_create": [],
			"fragments_to_create": [{"content": "still ingested", "context_name": "general"}],
			"ids_to_delete": []
		}`}}

		result, err := newCurator(mock).Curate(ctx, "still ingested", projectID)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.CreatedFragmentIDs).To(HaveLen(1))
	})

	It("shows candidate fragments to the model", func() {
		candidateID, err := memories.StoreFragment(ctx, &memory.Fragment{
			ProjectID: projectID,
			Content:   "the standup is at nine thirty",
		})
		Expect(err).NotTo(HaveOccurred())

		candidate, err := memories.GetFragment(ctx, candidateID)
		Expect(err).NotTo(HaveOccurred())
		vectors.Results = append(vectors.Results, vectorResult(candidate.ID, 0.82))

		mock := &testutils.MockLLM{Responses: []string{`{
			"contexts_to_create": [],
			"fragments_to_create": [],
			"ids_to_delete": []
		}`}}

		_, err = newCurator(mock).Curate(ctx, "when is standup", projectID)
		Expect(err).NotTo(HaveOccurred())

		prompts := mock.Prompts()
		Expect(prompts).To(HaveLen(1))
		Expect(prompts[0]).To(ContainSubstring(candidateID))
		Expect(prompts[0]).To(ContainSubstring("the standup is at nine thirty"))
	})
})
