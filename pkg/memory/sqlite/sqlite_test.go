package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/memory"
	"github.com/fahd-noodleseed/memoire/pkg/memory/sqlite"
)

func TestSQLite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SQLite Store Suite")
}

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		store *sqlite.Store
	)

	BeforeEach(func() {
		ctx = context.Background()

		dbPath := filepath.Join(GinkgoT().TempDir(), "memoire.db")
		var err error
		store, err = sqlite.NewStore(sqlite.Config{DBPath: dbPath}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		DeferCleanup(func() {
			Expect(store.Close()).To(Succeed())
		})
	})

	newProject := func(id string) {
		_, err := store.CreateProject(ctx, &memory.Project{
			ID:        id,
			Name:      "proj " + id,
			CreatedAt: time.Now().UTC(),
		})
		Expect(err).NotTo(HaveOccurred())
	}

	It("requires a database path", func() {
		_, err := sqlite.NewStore(sqlite.Config{}, zap.NewNop())
		Expect(err).To(HaveOccurred())
	})

	It("round-trips a project", func() {
		newProject("p1")

		got, err := store.GetProject(ctx, "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("proj p1"))
	})

	It("returns ErrNotFound for unknown records", func() {
		_, err := store.GetProject(ctx, "missing")
		Expect(err).To(MatchError(memory.ErrNotFound))

		_, err = store.GetFragment(ctx, "missing")
		Expect(err).To(MatchError(memory.ErrNotFound))

		_, err = store.GetContext(ctx, "missing")
		Expect(err).To(MatchError(memory.ErrNotFound))

		_, err = store.GetAnchor(ctx, "missing")
		Expect(err).To(MatchError(memory.ErrNotFound))
	})

	It("round-trips a fragment with json columns", func() {
		newProject("p1")

		now := time.Now().UTC().Truncate(time.Second)
		_, err := store.CreateFragment(ctx, &memory.Fragment{
			ID:           "f1",
			ProjectID:    "p1",
			Content:      "retry budget is three attempts",
			Category:     "decision",
			Tags:         []string{"retry", "policy"},
			Source:       "curated_ingestion",
			ContextIDs:   []string{"c1", "c2"},
			AnchorIDs:    []string{"a1"},
			CustomFields: map[string]any{"ticket": "OPS-42"},
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		Expect(err).NotTo(HaveOccurred())

		got, err := store.GetFragment(ctx, "f1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Content).To(Equal("retry budget is three attempts"))
		Expect(got.Tags).To(Equal([]string{"retry", "policy"}))
		Expect(got.ContextIDs).To(Equal([]string{"c1", "c2"}))
		Expect(got.AnchorIDs).To(Equal([]string{"a1"}))
		Expect(got.CustomFields).To(HaveKeyWithValue("ticket", "OPS-42"))
	})

	It("cascades project deletion to owned records", func() {
		newProject("p1")
		_, err := store.CreateFragment(ctx, &memory.Fragment{
			ID: "f1", ProjectID: "p1", Content: "x",
			CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = store.CreateContext(ctx, &memory.Context{
			ID: "c1", ProjectID: "p1", Name: "ctx", CreatedAt: time.Now().UTC(),
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(store.DeleteProject(ctx, "p1")).To(Succeed())

		_, err = store.GetFragment(ctx, "f1")
		Expect(err).To(MatchError(memory.ErrNotFound))
		_, err = store.GetContext(ctx, "c1")
		Expect(err).To(MatchError(memory.ErrNotFound))
	})

	It("skips missing ids on batch delete and prunes membership", func() {
		newProject("p1")
		now := time.Now().UTC()
		_, err := store.CreateFragment(ctx, &memory.Fragment{
			ID: "f1", ProjectID: "p1", Content: "x", CreatedAt: now, UpdatedAt: now,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = store.CreateContext(ctx, &memory.Context{
			ID: "c1", ProjectID: "p1", Name: "ctx",
			FragmentIDs: []string{"f1", "f2"}, CreatedAt: now,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(store.DeleteFragments(ctx, "p1", []string{"f1", "ghost"})).To(Succeed())

		_, err = store.GetFragment(ctx, "f1")
		Expect(err).To(MatchError(memory.ErrNotFound))

		c, err := store.GetContext(ctx, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.FragmentIDs).To(Equal([]string{"f2"}))
	})

	It("lists contexts in creation order", func() {
		newProject("p1")
		now := time.Now().UTC()
		for _, id := range []string{"c1", "c2", "c3"} {
			_, err := store.CreateContext(ctx, &memory.Context{
				ID: id, ProjectID: "p1", Name: id, CreatedAt: now,
			})
			Expect(err).NotTo(HaveOccurred())
		}

		contexts, err := store.ListContexts(ctx, "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(contexts).To(HaveLen(3))
		Expect(contexts[0].ID).To(Equal("c1"))
		Expect(contexts[1].ID).To(Equal("c2"))
		Expect(contexts[2].ID).To(Equal("c3"))
	})

	It("replaces context membership", func() {
		newProject("p1")
		_, err := store.CreateContext(ctx, &memory.Context{
			ID: "c1", ProjectID: "p1", Name: "ctx",
			FragmentIDs: []string{"f1"}, CreatedAt: time.Now().UTC(),
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(store.UpdateContextMembers(ctx, "c1", []string{"f2", "f3"})).To(Succeed())

		c, err := store.GetContext(ctx, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(c.FragmentIDs).To(Equal([]string{"f2", "f3"}))
		Expect(c.FragmentCount).To(Equal(2))
	})

	It("round-trips anchors scoped by project", func() {
		newProject("p1")
		newProject("p2")
		now := time.Now().UTC()

		_, err := store.CreateAnchor(ctx, &memory.Anchor{
			ID: "a1", ProjectID: "p1", Name: "auth-service", CreatedAt: now,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = store.CreateAnchor(ctx, &memory.Anchor{
			ID: "a2", ProjectID: "p2", Name: "billing", CreatedAt: now,
		})
		Expect(err).NotTo(HaveOccurred())

		anchors, err := store.ListAnchors(ctx, "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(anchors).To(HaveLen(1))
		Expect(anchors[0].Name).To(Equal("auth-service"))
	})

	It("round-trips tasks with status filtering and counts", func() {
		newProject("p1")
		now := time.Now().UTC().Truncate(time.Second)

		_, err := store.CreateTask(ctx, &memory.Task{
			ID: "t1", ProjectID: "p1", Title: "first task",
			Status: memory.TaskStatusPending, CreatedAt: now, UpdatedAt: now,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = store.CreateTask(ctx, &memory.Task{
			ID: "t2", ProjectID: "p1", Title: "second task",
			Status: memory.TaskStatusPending, CreatedAt: now.Add(time.Second), UpdatedAt: now.Add(time.Second),
		})
		Expect(err).NotTo(HaveOccurred())

		status := memory.TaskStatusCompleted
		Expect(store.UpdateTask(ctx, "t2", memory.TaskUpdate{Status: &status})).To(Succeed())

		got, err := store.GetTask(ctx, "t2")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Status).To(Equal(memory.TaskStatusCompleted))
		Expect(got.Title).To(Equal("second task"))

		all, err := store.ListTasks(ctx, "p1", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(2))
		Expect(all[0].ID).To(Equal("t2"))

		pending, err := store.ListTasks(ctx, "p1", memory.TaskStatusPending)
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(HaveLen(1))
		Expect(pending[0].ID).To(Equal("t1"))

		counts, err := store.CountTasks(ctx, "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(counts[memory.TaskStatusPending]).To(Equal(1))
		Expect(counts[memory.TaskStatusCompleted]).To(Equal(1))
		Expect(counts[memory.TaskStatusInProgress]).To(BeZero())
	})

	It("returns ErrNotFound for unknown tasks", func() {
		_, err := store.GetTask(ctx, "missing")
		Expect(err).To(MatchError(memory.ErrNotFound))

		status := memory.TaskStatusCompleted
		Expect(store.UpdateTask(ctx, "missing", memory.TaskUpdate{Status: &status})).To(MatchError(memory.ErrNotFound))
		Expect(store.DeleteTask(ctx, "missing")).To(MatchError(memory.ErrNotFound))
	})

	It("cascades project deletion to tasks", func() {
		newProject("p1")
		now := time.Now().UTC()
		_, err := store.CreateTask(ctx, &memory.Task{
			ID: "t1", ProjectID: "p1", Title: "doomed",
			Status: memory.TaskStatusPending, CreatedAt: now, UpdatedAt: now,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(store.DeleteProject(ctx, "p1")).To(Succeed())

		_, err = store.GetTask(ctx, "t1")
		Expect(err).To(MatchError(memory.ErrNotFound))
	})

	It("counts fragments per project", func() {
		newProject("p1")
		now := time.Now().UTC()
		for _, id := range []string{"f1", "f2"} {
			_, err := store.CreateFragment(ctx, &memory.Fragment{
				ID: id, ProjectID: "p1", Content: "x", CreatedAt: now, UpdatedAt: now,
			})
			Expect(err).NotTo(HaveOccurred())
		}

		count, err := store.CountFragments(ctx, "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(2))
	})

	It("survives reopen with data intact", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "persist.db")
		first, err := sqlite.NewStore(sqlite.Config{DBPath: dbPath}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		_, err = first.CreateProject(ctx, &memory.Project{
			ID: "p1", Name: "durable", CreatedAt: time.Now().UTC(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Close()).To(Succeed())

		second, err := sqlite.NewStore(sqlite.Config{DBPath: dbPath}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		defer second.Close()

		got, err := second.GetProject(ctx, "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("durable"))
	})
})
