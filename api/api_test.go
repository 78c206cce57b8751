package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/embeddings"
	"github.com/fahd-noodleseed/memoire/pkg/eventstream/nop"
	"github.com/fahd-noodleseed/memoire/pkg/intelligence"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
	testutils "github.com/fahd-noodleseed/memoire/pkg/utils/test"
	"github.com/fahd-noodleseed/memoire/pkg/vector"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("Server", func() {
	var (
		ctx      context.Context
		server   *Server
		memories *memory.Service
		vectors  *testutils.MockVectorDriver
		mockLLM  *testutils.MockLLM
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := zap.NewNop()

		store := testutils.NewMockStore()
		vectors = testutils.NewMockVectorDriver()
		embedder := embeddings.NewService(
			testutils.NewMockEmbedder(),
			embeddings.NewCache(1),
			embeddings.ServiceConfig{},
			logger,
		)
		memories = memory.NewService(store, vectors, embedder, nop.NewPublisher(), memory.ServiceConfig{
			SimilarityThreshold: 0.6,
			MaxResults:          10,
		}, logger)

		mockLLM = &testutils.MockLLM{}
		curator := intelligence.NewCurator(memories, mockLLM.CallFunc(), intelligence.CuratorConfig{}, logger)
		synthesizer := intelligence.NewSynthesizer(memories, mockLLM.CallFunc(), logger)

		server = NewServer(Config{ListenAddr: ":0"}, memories, curator, synthesizer, nil, logger)
	})

	jsonRequest := func(method, path string, body any) *http.Response {
		var reader io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(encoded)
		}

		req, err := http.NewRequest(method, path, reader)
		Expect(err).NotTo(HaveOccurred())
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())

		return resp
	}

	decode := func(resp *http.Response, dest any) {
		defer resp.Body.Close()
		Expect(json.NewDecoder(resp.Body).Decode(dest)).To(Succeed())
	}

	createProject := func(name string) string {
		resp := jsonRequest(http.MethodPost, "/v1/projects", CreateProjectRequest{Name: name})
		Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

		var project memory.Project
		decode(resp, &project)

		return project.ID
	}

	It("responds to ping", func() {
		resp := jsonRequest(http.MethodGet, "/ping", nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
	})

	Describe("projects", func() {
		It("creates, lists, gets, and deletes projects", func() {
			id := createProject("alpha")

			resp := jsonRequest(http.MethodGet, "/v1/projects", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			var listing struct {
				Count int `json:"count"`
			}
			decode(resp, &listing)
			Expect(listing.Count).To(Equal(1))

			resp = jsonRequest(http.MethodGet, "/v1/projects/"+id, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			resp = jsonRequest(http.MethodDelete, "/v1/projects/"+id, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))

			resp = jsonRequest(http.MethodGet, "/v1/projects/"+id, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("rejects nameless projects", func() {
			resp := jsonRequest(http.MethodPost, "/v1/projects", CreateProjectRequest{})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("404s deleting an unknown project", func() {
			resp := jsonRequest(http.MethodDelete, "/v1/projects/ghost", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("remember", func() {
		It("requires project_id and text", func() {
			resp := jsonRequest(http.MethodPost, "/v1/remember", RememberRequest{Text: "x"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			resp = jsonRequest(http.MethodPost, "/v1/remember", RememberRequest{ProjectID: "p"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("404s for an unknown project", func() {
			resp := jsonRequest(http.MethodPost, "/v1/remember", RememberRequest{
				ProjectID: "ghost", Text: "something",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("runs curated ingestion and reports the result", func() {
			id := createProject("alpha")
			mockLLM.Responses = []string{`{
				"contexts_to_create": [],
				"fragments_to_create": [{"content": "deploys are friday only", "context_name": "general"}],
				"ids_to_delete": []
			}`}

			resp := jsonRequest(http.MethodPost, "/v1/remember", RememberRequest{
				ProjectID: id, Text: "deploys are friday only",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var result intelligence.CurationResult
			decode(resp, &result)
			Expect(result.CreatedFragmentIDs).To(HaveLen(1))

			fragment, err := memories.GetFragment(ctx, result.CreatedFragmentIDs[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(fragment.Source).To(Equal("curated_ingestion"))
		})

		It("returns 502 when the curation decision fails", func() {
			id := createProject("alpha")
			mockLLM.Responses = []string{"prose, not json"}

			resp := jsonRequest(http.MethodPost, "/v1/remember", RememberRequest{
				ProjectID: id, Text: "something",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadGateway))
		})
	})

	Describe("recall", func() {
		It("requires a query", func() {
			resp := jsonRequest(http.MethodPost, "/v1/recall", RecallRequest{})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("404s with no projects at all", func() {
			resp := jsonRequest(http.MethodPost, "/v1/recall", RecallRequest{Query: "anything"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("returns raw grouped results on request", func() {
			id := createProject("alpha")
			fragmentID, err := memories.StoreFragment(ctx, &memory.Fragment{
				ProjectID: id, Content: "standup at nine thirty",
			})
			Expect(err).NotTo(HaveOccurred())
			vectors.Results = []vector.QueryResult{
				{Document: vector.Document{ID: fragmentID}, Score: 0.9},
			}

			resp := jsonRequest(http.MethodPost, "/v1/recall", RecallRequest{
				Query: "when is standup", Raw: true,
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var result RecallResponse
			decode(resp, &result)
			Expect(result.Projects).To(Equal(1))
			Expect(result.Synthesis).To(BeNil())
			Expect(result.Grouped[id][memory.UnassignedKey]).To(HaveLen(1))
		})

		It("synthesizes an answer by default", func() {
			id := createProject("alpha")
			fragmentID, err := memories.StoreFragment(ctx, &memory.Fragment{
				ProjectID: id, Content: "standup at nine thirty",
			})
			Expect(err).NotTo(HaveOccurred())
			vectors.Results = []vector.QueryResult{
				{Document: vector.Document{ID: fragmentID}, Score: 0.9},
			}
			mockLLM.Responses = []string{`{
				"synthesized_response": "Standup is at nine thirty.",
				"confidence": 0.9,
				"information_coverage": "complete",
				"gaps": [],
				"patterns_identified": []
			}`}

			resp := jsonRequest(http.MethodPost, "/v1/recall", RecallRequest{Query: "when is standup"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var result RecallResponse
			decode(resp, &result)
			Expect(result.Synthesis).NotTo(BeNil())
			Expect(result.Synthesis.Text).To(Equal("Standup is at nine thirty."))
		})
	})

	Describe("fragments and contexts", func() {
		It("returns stored fragments and contexts by id", func() {
			id := createProject("alpha")
			contextID, err := memories.CreateContext(ctx, &memory.Context{
				ProjectID: id, Name: "meetings",
			})
			Expect(err).NotTo(HaveOccurred())
			fragmentID, err := memories.StoreFragment(ctx, &memory.Fragment{
				ProjectID: id, Content: "x", ContextIDs: []string{contextID},
			})
			Expect(err).NotTo(HaveOccurred())

			resp := jsonRequest(http.MethodGet, "/v1/fragments/"+fragmentID, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			resp = jsonRequest(http.MethodGet, "/v1/contexts/"+contextID, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			resp = jsonRequest(http.MethodGet, "/v1/projects/"+id+"/contexts", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			var listing struct {
				Count int `json:"count"`
			}
			decode(resp, &listing)
			Expect(listing.Count).To(Equal(1))
		})

		It("lists membership in both directions", func() {
			id := createProject("alpha")
			contextID, err := memories.CreateContext(ctx, &memory.Context{
				ProjectID: id, Name: "meetings",
			})
			Expect(err).NotTo(HaveOccurred())
			fragmentID, err := memories.StoreFragment(ctx, &memory.Fragment{
				ProjectID: id, Content: "x", ContextIDs: []string{contextID},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(memories.UpdateContextMembers(ctx, contextID, []string{fragmentID})).To(Succeed())

			resp := jsonRequest(http.MethodGet, "/v1/contexts/"+contextID+"/fragments", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			var fragListing struct {
				Count int `json:"count"`
			}
			decode(resp, &fragListing)
			Expect(fragListing.Count).To(Equal(1))

			resp = jsonRequest(http.MethodGet, "/v1/fragments/"+fragmentID+"/contexts", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			var ctxListing struct {
				Count int `json:"count"`
			}
			decode(resp, &ctxListing)
			Expect(ctxListing.Count).To(Equal(1))
		})

		It("404s unknown fragments", func() {
			resp := jsonRequest(http.MethodGet, "/v1/fragments/ghost", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("tasks", func() {
		It("creates, updates, lists, and deletes tasks", func() {
			id := createProject("alpha")

			resp := jsonRequest(http.MethodPost, "/v1/tasks", CreateTaskRequest{
				ProjectID: id, Title: "write release notes",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))
			var task memory.Task
			decode(resp, &task)
			Expect(task.Status).To(Equal(memory.TaskStatusPending))

			status := "in_progress"
			resp = jsonRequest(http.MethodPatch, "/v1/tasks/"+task.ID, UpdateTaskRequest{Status: &status})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			var updated memory.Task
			decode(resp, &updated)
			Expect(updated.Status).To(Equal(memory.TaskStatusInProgress))
			Expect(updated.Title).To(Equal("write release notes"))

			resp = jsonRequest(http.MethodGet, "/v1/projects/"+id+"/tasks?status=in_progress", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			var listing struct {
				Count int `json:"count"`
			}
			decode(resp, &listing)
			Expect(listing.Count).To(Equal(1))

			resp = jsonRequest(http.MethodDelete, "/v1/tasks/"+task.ID, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))

			resp = jsonRequest(http.MethodGet, "/v1/tasks/"+task.ID, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("rejects bad task requests", func() {
			id := createProject("alpha")

			resp := jsonRequest(http.MethodPost, "/v1/tasks", CreateTaskRequest{Title: "orphan"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			resp = jsonRequest(http.MethodPost, "/v1/tasks", CreateTaskRequest{ProjectID: "ghost", Title: "x"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))

			resp = jsonRequest(http.MethodPost, "/v1/tasks", CreateTaskRequest{ProjectID: id})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			resp = jsonRequest(http.MethodGet, "/v1/projects/"+id+"/tasks?status=someday", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			resp = jsonRequest(http.MethodPatch, "/v1/tasks/ghost", UpdateTaskRequest{})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			title := "renamed"
			resp = jsonRequest(http.MethodPatch, "/v1/tasks/ghost", UpdateTaskRequest{Title: &title})
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("project summary", func() {
		It("reports record counts", func() {
			id := createProject("alpha")
			_, err := memories.StoreFragment(ctx, &memory.Fragment{
				ProjectID: id, Content: "a fact",
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = memories.CreateTask(ctx, id, "pending task", "")
			Expect(err).NotTo(HaveOccurred())

			resp := jsonRequest(http.MethodGet, "/v1/projects/"+id+"/summary", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var summary memory.ProjectSummary
			decode(resp, &summary)
			Expect(summary.Fragments).To(Equal(1))
			Expect(summary.Tasks[memory.TaskStatusPending]).To(Equal(1))
		})

		It("404s for unknown projects", func() {
			resp := jsonRequest(http.MethodGet, "/v1/projects/ghost/summary", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("cache", func() {
		It("reports stats and cleanup counts", func() {
			resp := jsonRequest(http.MethodGet, "/v1/cache/stats", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var stats embeddings.CacheStats
			decode(resp, &stats)
			Expect(stats.Entries).To(BeNumerically(">=", 0))

			resp = jsonRequest(http.MethodPost, "/v1/cache/cleanup", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})
	})
})
