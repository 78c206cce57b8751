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

var _ = Describe("Synthesizer", func() {
	var (
		ctx       context.Context
		memories  *memory.Service
		projectID string
		grouped   memory.GroupedResults
	)

	BeforeEach(func() {
		ctx = context.Background()
		memories, _, _ = newTestMemories()

		project, err := memories.CreateProject(ctx, "alpha", "Team knowledge base")
		Expect(err).NotTo(HaveOccurred())
		projectID = project.ID

		contextID, err := memories.CreateContext(ctx, &memory.Context{
			ProjectID: projectID, Name: "meetings", Description: "Recurring meetings.",
		})
		Expect(err).NotTo(HaveOccurred())

		grouped = memory.GroupedResults{
			projectID: {
				contextID: []memory.SearchResult{{
					Score: 0.9,
					Fragment: &memory.Fragment{
						ID:        "f1",
						ProjectID: projectID,
						Content:   "standup is at nine thirty",
						Category:  "schedule",
					},
				}},
				memory.UnassignedKey: []memory.SearchResult{{
					Score: 0.7,
					Fragment: &memory.Fragment{
						ID:        "f2",
						ProjectID: projectID,
						Content:   "retro happens monthly",
					},
				}},
			},
		}
	})

	newSynthesizer := func(mock *testutils.MockLLM) *intelligence.Synthesizer {
		return intelligence.NewSynthesizer(memories, mock.CallFunc(), zap.NewNop())
	}

	It("returns a contextual synthesis on success", func() {
		mock := &testutils.MockLLM{Responses: []string{`{
			"synthesized_response": "Standup is at nine thirty; retro happens monthly.",
			"confidence": 0.9,
			"information_coverage": "complete",
			"gaps": [],
			"patterns_identified": ["meeting cadence"],
			"context_insights": ["meetings context covers recurring events"]
		}`}}

		synthesis := newSynthesizer(mock).Synthesize(ctx, "when do we meet", grouped)

		Expect(synthesis.SynthesisType).To(Equal("contextual"))
		Expect(synthesis.Text).To(ContainSubstring("nine thirty"))
		Expect(synthesis.Confidence).To(BeNumerically("~", 0.9, 0.001))

		prompts := mock.Prompts()
		Expect(prompts).To(HaveLen(1))
		Expect(prompts[0]).To(ContainSubstring("Team knowledge base"))
		Expect(prompts[0]).To(ContainSubstring("Recurring meetings."))
		Expect(prompts[0]).To(ContainSubstring("standup is at nine thirty"))
	})

	It("falls back to the legacy path on a malformed contextual answer", func() {
		mock := &testutils.MockLLM{Responses: []string{
			"prose, not json",
			`{
				"synthesized_response": "Flattened answer about meetings.",
				"confidence": 0.7,
				"information_coverage": "partial",
				"gaps": [],
				"patterns_identified": []
			}`,
		}}

		synthesis := newSynthesizer(mock).Synthesize(ctx, "when do we meet", grouped)

		Expect(synthesis.SynthesisType).To(Equal("legacy"))
		Expect(synthesis.Text).To(Equal("Flattened answer about meetings."))
		Expect(mock.Calls()).To(Equal(2))
	})

	It("never fails: count-only fallback when the provider is down", func() {
		mock := &testutils.MockLLM{Err: errors.New("provider down")}

		synthesis := newSynthesizer(mock).Synthesize(ctx, "when do we meet", grouped)

		Expect(synthesis.SynthesisType).To(Equal("fallback"))
		Expect(synthesis.Text).To(ContainSubstring("2 relevant fragments"))
		Expect(synthesis.Confidence).To(BeNumerically("~", 0.3, 0.001))
		Expect(synthesis.Coverage).To(Equal("partial"))
	})
})
