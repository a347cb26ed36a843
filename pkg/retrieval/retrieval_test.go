package retrieval_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/retrieval"
	testutils "github.com/canopyhq/rolechat/pkg/utils/test"
	"github.com/canopyhq/rolechat/pkg/vector"
	"github.com/canopyhq/rolechat/pkg/vector/inmemory"
)

func TestRetrieval(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Retrieval Suite")
}

var _ = Describe("Retriever", func() {
	var (
		driver    *inmemory.Driver
		embedder  *testutils.MockEmbedder
		retriever *retrieval.Retriever
		ctx       context.Context
	)

	upsert := func(id string, role rbac.Role, vec []float32) {
		Expect(driver.Upsert(ctx, []vector.Record{{
			ID:     id,
			Vector: vec,
			Role:   role,
			Payload: vector.Payload{
				Source: id + ".md",
				Text:   "content " + id,
			},
		}})).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		Expect(driver.Init(ctx, 2)).To(Succeed())

		embedder = testutils.NewMockEmbedder()
		embedder.Default = []float32{1, 0}

		retriever = retrieval.NewRetriever(rbac.NewPolicy(nil), embedder, driver, retrieval.Config{}, zap.NewNop())
	})

	It("fails closed on an unknown role without touching embedder or index", func() {
		_, err := retriever.Retrieve(ctx, "anything", rbac.Role("unknown-role"), 5)
		Expect(err).To(MatchError(rbac.ErrUnauthorized))
	})

	It("returns empty for an empty index, not an error", func() {
		results, err := retriever.Retrieve(ctx, "anything", rbac.RoleEngineering, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("never surfaces a chunk outside the caller's permitted set", func() {
		upsert("finance-1", rbac.RoleFinance, []float32{1, 0})
		upsert("hr-1", rbac.RoleHR, []float32{1, 0.1})

		results, err := retriever.Retrieve(ctx, "payroll report", rbac.RoleHR, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("hr-1"))
	})

	It("lets a role see its own partition plus general", func() {
		upsert("eng-1", rbac.RoleEngineering, []float32{1, 0})
		upsert("eng-2", rbac.RoleEngineering, []float32{1, 0.2})
		upsert("eng-3", rbac.RoleEngineering, []float32{1, 0.4})
		upsert("gen-1", rbac.RoleGeneral, []float32{1, 0.1})
		upsert("gen-2", rbac.RoleGeneral, []float32{1, 0.3})

		engineering, err := retriever.Retrieve(ctx, "architecture", rbac.RoleEngineering, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(engineering).To(HaveLen(3))

		marketing, err := retriever.Retrieve(ctx, "architecture", rbac.RoleMarketing, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(marketing).To(HaveLen(2))
		for _, res := range marketing {
			Expect(res.Role).To(Equal(rbac.RoleGeneral))
		}
	})

	It("gives c-level a superset of every role's visible chunks", func() {
		upsert("eng-1", rbac.RoleEngineering, []float32{1, 0})
		upsert("fin-1", rbac.RoleFinance, []float32{1, 0.1})
		upsert("hr-1", rbac.RoleHR, []float32{1, 0.2})
		upsert("gen-1", rbac.RoleGeneral, []float32{1, 0.3})

		clevel, err := retriever.Retrieve(ctx, "everything", rbac.RoleCLevel, 10)
		Expect(err).NotTo(HaveOccurred())

		visible := map[string]bool{}
		for _, res := range clevel {
			visible[res.ID] = true
		}

		for _, caller := range []rbac.Role{rbac.RoleEngineering, rbac.RoleFinance, rbac.RoleHR, rbac.RoleMarketing} {
			scoped, err := retriever.Retrieve(ctx, "everything", caller, 10)
			Expect(err).NotTo(HaveOccurred())
			for _, res := range scoped {
				Expect(visible).To(HaveKey(res.ID))
			}
		}
	})

	It("orders results by descending similarity", func() {
		// Similarities to {1,0}: 1.0, ~0.5 (60°), ~0.2 (78.5°)
		upsert("best", rbac.RoleGeneral, []float32{1, 0})
		upsert("mid", rbac.RoleGeneral, []float32{0.5, 0.866})
		upsert("worst", rbac.RoleGeneral, []float32{0.2, 0.98})

		results, err := retriever.Retrieve(ctx, "query", rbac.RoleGeneral, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2)) // "worst" falls under the min score
		Expect(results[0].ID).To(Equal("best"))
		Expect(results[1].ID).To(Equal("mid"))
	})

	It("drops matches below the minimum score", func() {
		upsert("orthogonal", rbac.RoleGeneral, []float32{0, 1})

		results, err := retriever.Retrieve(ctx, "query", rbac.RoleGeneral, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("propagates embedding failures", func() {
		embedder.FailOn = "doomed query"
		_, err := retriever.Retrieve(ctx, "doomed query", rbac.RoleGeneral, 5)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("embedding query"))
	})

	It("defaults topK when zero", func() {
		upsert("gen-1", rbac.RoleGeneral, []float32{1, 0})
		results, err := retriever.Retrieve(ctx, "query", rbac.RoleGeneral, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
	})
})
