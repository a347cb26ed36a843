package inmemory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/vector"
	"github.com/canopyhq/rolechat/pkg/vector/inmemory"
)

func TestInMemory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "InMemory Vector Driver Suite")
}

func record(id string, role rbac.Role, vec []float32) vector.Record {
	return vector.Record{
		ID:     id,
		Vector: vec,
		Role:   role,
		Payload: vector.Payload{
			Source: id + ".md",
			Text:   "content of " + id,
		},
	}
}

var _ = Describe("Driver", func() {
	var (
		driver *inmemory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		driver = inmemory.NewDriver()
		ctx = context.Background()
		Expect(driver.Init(ctx, 2)).To(Succeed())
	})

	Describe("Init", func() {
		It("rejects invalid dimensions", func() {
			Expect(inmemory.NewDriver().Init(ctx, 0)).To(MatchError(vector.ErrIndexInit))
		})

		It("rejects re-init with incompatible dimensions once records exist", func() {
			Expect(driver.Upsert(ctx, []vector.Record{record("a", rbac.RoleGeneral, []float32{1, 0})})).To(Succeed())
			Expect(driver.Init(ctx, 3)).To(MatchError(vector.ErrIndexInit))
		})

		It("allows re-init with the same dimensions", func() {
			Expect(driver.Init(ctx, 2)).To(Succeed())
		})
	})

	Describe("Upsert", func() {
		It("rejects upserts before init", func() {
			err := inmemory.NewDriver().Upsert(ctx, []vector.Record{record("a", rbac.RoleGeneral, []float32{1, 0})})
			Expect(err).To(MatchError(vector.ErrNotInitialized))
		})

		It("replaces a record with the same id instead of duplicating it", func() {
			Expect(driver.Upsert(ctx, []vector.Record{record("a", rbac.RoleGeneral, []float32{1, 0})})).To(Succeed())
			Expect(driver.Upsert(ctx, []vector.Record{record("a", rbac.RoleGeneral, []float32{0, 1})})).To(Succeed())

			stats, err := driver.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(1))
		})

		It("is a no-op in effect when repeated with identical records", func() {
			recs := []vector.Record{
				record("a", rbac.RoleFinance, []float32{1, 0}),
				record("b", rbac.RoleHR, []float32{0, 1}),
			}
			Expect(driver.Upsert(ctx, recs)).To(Succeed())
			Expect(driver.Upsert(ctx, recs)).To(Succeed())

			stats, err := driver.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(2))
			Expect(stats.PerRole[rbac.RoleFinance]).To(Equal(1))
			Expect(stats.PerRole[rbac.RoleHR]).To(Equal(1))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			// Cosine similarities to query {1, 0}: a=1.0, b≈0.707, c=0.0
			Expect(driver.Upsert(ctx, []vector.Record{
				record("a", rbac.RoleGeneral, []float32{1, 0}),
				record("b", rbac.RoleGeneral, []float32{1, 1}),
				record("c", rbac.RoleFinance, []float32{0, 1}),
			})).To(Succeed())
		})

		It("orders results by descending similarity", func() {
			results, err := driver.Search(ctx, []float32{1, 0}, []rbac.Role{rbac.RoleGeneral, rbac.RoleFinance}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].ID).To(Equal("a"))
			Expect(results[1].ID).To(Equal("b"))
			Expect(results[2].ID).To(Equal("c"))
			Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
			Expect(results[1].Score).To(BeNumerically(">", results[2].Score))
		})

		It("breaks score ties by ascending chunk id", func() {
			Expect(driver.Upsert(ctx, []vector.Record{
				record("z-dup", rbac.RoleGeneral, []float32{1, 0}),
			})).To(Succeed())

			results, err := driver.Search(ctx, []float32{1, 0}, []rbac.Role{rbac.RoleGeneral}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].ID).To(Equal("a"))
			Expect(results[1].ID).To(Equal("z-dup"))
		})

		It("filters by role before ranking so excluded chunks never displace results", func() {
			// finance chunk "c" is the worst match, but even a perfect
			// finance match must not appear for a general-only search.
			Expect(driver.Upsert(ctx, []vector.Record{
				record("d", rbac.RoleFinance, []float32{1, 0}),
			})).To(Succeed())

			results, err := driver.Search(ctx, []float32{1, 0}, []rbac.Role{rbac.RoleGeneral}, 10)
			Expect(err).NotTo(HaveOccurred())
			for _, r := range results {
				Expect(r.Role).To(Equal(rbac.RoleGeneral))
			}
		})

		It("returns empty for an empty allowed-role set", func() {
			results, err := driver.Search(ctx, []float32{1, 0}, nil, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("truncates to topK", func() {
			results, err := driver.Search(ctx, []float32{1, 0}, []rbac.Role{rbac.RoleGeneral, rbac.RoleFinance}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("a"))
		})
	})

	Describe("Clear", func() {
		It("empties the index so searches return nothing until re-indexed", func() {
			Expect(driver.Upsert(ctx, []vector.Record{record("a", rbac.RoleGeneral, []float32{1, 0})})).To(Succeed())
			Expect(driver.Clear(ctx)).To(Succeed())

			results, err := driver.Search(ctx, []float32{1, 0}, []rbac.Role{rbac.RoleGeneral}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())

			stats, err := driver.Stats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(0))
		})
	})

	Describe("concurrent access", func() {
		It("tolerates interleaved upserts and searches", func() {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(2)
				go func(n int) {
					defer GinkgoRecover()
					defer wg.Done()
					for j := 0; j < 50; j++ {
						id := fmt.Sprintf("w%d-%d", n, j)
						Expect(driver.Upsert(ctx, []vector.Record{
							record(id, rbac.RoleGeneral, []float32{float32(j), 1}),
						})).To(Succeed())
					}
				}(i)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					for j := 0; j < 50; j++ {
						_, err := driver.Search(ctx, []float32{1, 0}, []rbac.Role{rbac.RoleGeneral}, 5)
						Expect(err).NotTo(HaveOccurred())
					}
				}()
			}
			wg.Wait()
		})
	})
})
