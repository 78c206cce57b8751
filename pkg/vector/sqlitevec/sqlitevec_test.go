package sqlitevec_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/vector"
	"github.com/fahd-noodleseed/memoire/pkg/vector/sqlitevec"
)

func TestSQLiteVec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SQLiteVec Suite")
}

var _ = Describe("SQLiteVecDriver", func() {
	var logger *zap.Logger

	BeforeEach(func() {
		logger = zap.NewNop()
	})

	Describe("NewSQLiteVecDriver", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{DBPath: ""}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("should create a driver with an in-memory database", func() {
			driver, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(driver.Close()).To(Succeed())
		})

		It("should error when dimension not specified", func() {
			_, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath: ":memory:",
			}, logger)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			var _ vector.Driver = (*sqlitevec.SQLiteVecDriver)(nil)
		})
	})

	Describe("operations", func() {
		var driver *sqlitevec.SQLiteVecDriver

		BeforeEach(func() {
			var err error
			driver, err = sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		Describe("Add", func() {
			It("should do nothing when given empty docs", func() {
				err := driver.Add(context.Background(), "proj-1", []vector.Document{})
				Expect(err).NotTo(HaveOccurred())
			})

			It("should add and find a single document", func() {
				docs := []vector.Document{
					{
						ID:        "doc-1",
						Embedding: []float32{0.1, 0.2, 0.3, 0.4},
						Metadata:  map[string]string{"context_id": "ctx-1"},
					},
				}

				err := driver.Add(context.Background(), "proj-1", docs)
				Expect(err).NotTo(HaveOccurred())

				results, err := driver.Search(context.Background(), "proj-1",
					[]float32{0.1, 0.2, 0.3, 0.4}, vector.SearchOptions{Limit: 5})
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(1))
				Expect(results[0].ID).To(Equal("doc-1"))
				Expect(results[0].Metadata["context_id"]).To(Equal("ctx-1"))
			})

			It("should update an existing document", func() {
				ctx := context.Background()

				err := driver.Add(ctx, "proj-1", []vector.Document{
					{ID: "doc-1", Embedding: []float32{1, 0, 0, 0}},
				})
				Expect(err).NotTo(HaveOccurred())

				err = driver.Add(ctx, "proj-1", []vector.Document{
					{ID: "doc-1", Embedding: []float32{0, 1, 0, 0}, Metadata: map[string]string{"v": "2"}},
				})
				Expect(err).NotTo(HaveOccurred())

				results, err := driver.Search(ctx, "proj-1",
					[]float32{0, 1, 0, 0}, vector.SearchOptions{Limit: 5})
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(1))
				Expect(results[0].Metadata["v"]).To(Equal("2"))
			})
		})

		Describe("Search", func() {
			BeforeEach(func() {
				ctx := context.Background()
				err := driver.Add(ctx, "proj-1", []vector.Document{
					{ID: "doc-1", Embedding: []float32{1, 0, 0, 0}, Metadata: map[string]string{"context_id": "ctx-a"}},
					{ID: "doc-2", Embedding: []float32{0, 1, 0, 0}, Metadata: map[string]string{"context_id": "ctx-b"}},
				})
				Expect(err).NotTo(HaveOccurred())

				err = driver.Add(ctx, "proj-2", []vector.Document{
					{ID: "doc-3", Embedding: []float32{1, 0, 0, 0}},
				})
				Expect(err).NotTo(HaveOccurred())
			})

			It("scopes results to the project", func() {
				results, err := driver.Search(context.Background(), "proj-2",
					[]float32{1, 0, 0, 0}, vector.SearchOptions{Limit: 10})
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(1))
				Expect(results[0].ID).To(Equal("doc-3"))
			})

			It("ranks the closest document first", func() {
				results, err := driver.Search(context.Background(), "proj-1",
					[]float32{1, 0, 0, 0}, vector.SearchOptions{Limit: 10})
				Expect(err).NotTo(HaveOccurred())
				Expect(len(results)).To(BeNumerically(">=", 1))
				Expect(results[0].ID).To(Equal("doc-1"))
			})

			It("excludes results below the threshold", func() {
				results, err := driver.Search(context.Background(), "proj-1",
					[]float32{1, 0, 0, 0}, vector.SearchOptions{Limit: 10, Threshold: 0.9})
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(1))
				Expect(results[0].ID).To(Equal("doc-1"))
			})

			It("applies metadata filters", func() {
				results, err := driver.Search(context.Background(), "proj-1",
					[]float32{1, 0, 0, 0}, vector.SearchOptions{
						Limit:   10,
						Filters: map[string]string{"context_id": "ctx-b"},
					})
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(1))
				Expect(results[0].ID).To(Equal("doc-2"))
			})
		})

		Describe("Delete", func() {
			It("removes documents by id", func() {
				ctx := context.Background()
				err := driver.Add(ctx, "proj-1", []vector.Document{
					{ID: "doc-1", Embedding: []float32{1, 0, 0, 0}},
					{ID: "doc-2", Embedding: []float32{0, 1, 0, 0}},
				})
				Expect(err).NotTo(HaveOccurred())

				Expect(driver.Delete(ctx, "proj-1", []string{"doc-1"})).To(Succeed())

				results, err := driver.Search(ctx, "proj-1",
					[]float32{1, 0, 0, 0}, vector.SearchOptions{Limit: 10})
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(1))
				Expect(results[0].ID).To(Equal("doc-2"))
			})

			It("is a no-op for empty ids", func() {
				Expect(driver.Delete(context.Background(), "proj-1", nil)).To(Succeed())
			})
		})

		Describe("DropProject", func() {
			It("removes every document in the project", func() {
				ctx := context.Background()
				err := driver.Add(ctx, "proj-1", []vector.Document{
					{ID: "doc-1", Embedding: []float32{1, 0, 0, 0}},
					{ID: "doc-2", Embedding: []float32{0, 1, 0, 0}},
				})
				Expect(err).NotTo(HaveOccurred())

				err = driver.Add(ctx, "proj-2", []vector.Document{
					{ID: "doc-3", Embedding: []float32{1, 0, 0, 0}},
				})
				Expect(err).NotTo(HaveOccurred())

				Expect(driver.DropProject(ctx, "proj-1")).To(Succeed())

				results, err := driver.Search(ctx, "proj-1",
					[]float32{1, 0, 0, 0}, vector.SearchOptions{Limit: 10})
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(BeEmpty())

				// Other projects are untouched.
				results, err = driver.Search(ctx, "proj-2",
					[]float32{1, 0, 0, 0}, vector.SearchOptions{Limit: 10})
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(1))
			})
		})
	})
})
