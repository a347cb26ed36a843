package answer_test

import (
	"context"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/answer"
	"github.com/canopyhq/rolechat/pkg/llm"
	"github.com/canopyhq/rolechat/pkg/rbac"
	testutils "github.com/canopyhq/rolechat/pkg/utils/test"
	"github.com/canopyhq/rolechat/pkg/vector"
)

func TestAnswer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Answer Suite")
}

func result(id, source, text string, role rbac.Role, score float32) vector.Result {
	return vector.Result{
		Record: vector.Record{
			ID:   id,
			Role: role,
			Payload: vector.Payload{
				Source:  source,
				Section: "Section " + id,
				Text:    text,
			},
		},
		Score: score,
	}
}

var _ = Describe("Generator", func() {
	var (
		client    *testutils.MockLLM
		generator *answer.Generator
		ctx       context.Context
	)

	BeforeEach(func() {
		client = testutils.NewMockLLM("Grounded answer.")
		generator = answer.NewGenerator(client, answer.Config{}, zap.NewNop())
		ctx = context.Background()
	})

	It("answers with the fixed no-information message when retrieval is empty", func() {
		ans, err := generator.Generate(ctx, "what is our runway?", rbac.RoleFinance, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.Text).To(Equal(answer.NoInformationAnswer))
		Expect(ans.References).To(BeEmpty())
		Expect(client.Prompts).To(BeEmpty(), "the model must not be called without grounding")
	})

	It("grounds the prompt in every supplied chunk with provenance", func() {
		results := []vector.Result{
			result("a", "roadmap.md", "The roadmap targets Q3.", rbac.RoleEngineering, 0.92),
			result("b", "handbook.md", "Teams plan quarterly.", rbac.RoleGeneral, 0.61),
		}

		ans, err := generator.Generate(ctx, "when do we ship?", rbac.RoleEngineering, results)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.Text).To(Equal("Grounded answer."))

		Expect(client.Prompts).To(HaveLen(1))
		prompt := client.Prompts[0]
		Expect(prompt).To(ContainSubstring("The roadmap targets Q3."))
		Expect(prompt).To(ContainSubstring("Source: roadmap.md | Role: engineering"))
		Expect(prompt).To(ContainSubstring("Source: handbook.md | Role: general"))
		Expect(prompt).To(ContainSubstring("when do we ship?"))
		Expect(prompt).To(ContainSubstring("using only the context"))
	})

	It("lists each source once, in rank order", func() {
		results := []vector.Result{
			result("a", "roadmap.md", "Chunk one.", rbac.RoleEngineering, 0.9),
			result("b", "roadmap.md", "Chunk two.", rbac.RoleEngineering, 0.8),
			result("c", "handbook.md", "Chunk three.", rbac.RoleGeneral, 0.7),
		}

		ans, err := generator.Generate(ctx, "q", rbac.RoleEngineering, results)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.References).To(Equal([]answer.Reference{
			{Source: "roadmap.md", Role: rbac.RoleEngineering},
			{Source: "handbook.md", Role: rbac.RoleGeneral},
		}))
	})

	It("drops lowest-similarity chunks when the context budget is exceeded", func() {
		generator = answer.NewGenerator(client, answer.Config{ContextBudget: 50}, zap.NewNop())

		results := []vector.Result{
			result("a", "first.md", strings.Repeat("x", 40), rbac.RoleGeneral, 0.9),
			result("b", "second.md", strings.Repeat("y", 40), rbac.RoleGeneral, 0.5),
		}

		ans, err := generator.Generate(ctx, "q", rbac.RoleGeneral, results)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.References).To(Equal([]answer.Reference{
			{Source: "first.md", Role: rbac.RoleGeneral},
		}))
		Expect(client.Prompts[0]).NotTo(ContainSubstring("yyyy"))
	})

	It("always keeps the best chunk even when it alone exceeds the budget", func() {
		generator = answer.NewGenerator(client, answer.Config{ContextBudget: 10}, zap.NewNop())

		results := []vector.Result{
			result("a", "big.md", strings.Repeat("x", 100), rbac.RoleGeneral, 0.9),
		}

		ans, err := generator.Generate(ctx, "q", rbac.RoleGeneral, results)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.References).To(HaveLen(1))
	})

	It("propagates model failures instead of fabricating an answer", func() {
		client.Fail = true

		_, err := generator.Generate(ctx, "q", rbac.RoleGeneral, []vector.Result{
			result("a", "doc.md", "text", rbac.RoleGeneral, 0.9),
		})
		Expect(err).To(HaveOccurred())
	})

	It("treats an empty completion as a generation failure", func() {
		client.Response = "   "

		_, err := generator.Generate(ctx, "q", rbac.RoleGeneral, []vector.Result{
			result("a", "doc.md", "text", rbac.RoleGeneral, 0.9),
		})
		Expect(err).To(MatchError(llm.ErrGeneration))
	})
})
