package rbac_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canopyhq/rolechat/pkg/rbac"
)

func TestRBAC(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RBAC Suite")
}

var _ = Describe("ParseRole", func() {
	It("accepts every enumerated role", func() {
		for _, name := range []string{"engineering", "finance", "hr", "marketing", "general", "c-level", "admin"} {
			r, err := rbac.ParseRole(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(r)).To(Equal(name))
		}
	})

	It("normalizes case and whitespace", func() {
		r, err := rbac.ParseRole("  Engineering ")
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(rbac.RoleEngineering))
	})

	It("rejects roles outside the enumerated set", func() {
		_, err := rbac.ParseRole("intern")
		Expect(err).To(MatchError(rbac.ErrUnknownRole))
	})

	It("rejects admin as a document role", func() {
		_, err := rbac.ParseDocumentRole("admin")
		Expect(err).To(MatchError(rbac.ErrUnknownRole))
	})
})

var _ = Describe("Policy", func() {
	var policy *rbac.Policy

	BeforeEach(func() {
		policy = rbac.NewPolicy(nil)
	})

	It("grants each role its own partition plus general", func() {
		permitted, err := policy.PermittedRoles(rbac.RoleEngineering)
		Expect(err).NotTo(HaveOccurred())
		Expect(permitted).To(ConsistOf(rbac.RoleEngineering, rbac.RoleGeneral))
	})

	It("grants general only its own partition", func() {
		permitted, err := policy.PermittedRoles(rbac.RoleGeneral)
		Expect(err).NotTo(HaveOccurred())
		Expect(permitted).To(ConsistOf(rbac.RoleGeneral))
	})

	It("grants c-level a superset of every other role", func() {
		clevel, err := policy.PermittedRoles(rbac.RoleCLevel)
		Expect(err).NotTo(HaveOccurred())

		for _, caller := range rbac.DocumentRoles {
			permitted, err := policy.PermittedRoles(caller)
			Expect(err).NotTo(HaveOccurred())
			for _, doc := range permitted {
				Expect(clevel).To(ContainElement(doc))
			}
		}
	})

	It("fails closed for unknown roles", func() {
		_, err := policy.PermittedRoles(rbac.Role("unknown-role"))
		Expect(err).To(MatchError(rbac.ErrUnauthorized))
	})

	It("fails closed for the admin principal role", func() {
		_, err := policy.PermittedRoles(rbac.RoleAdmin)
		Expect(err).To(MatchError(rbac.ErrUnauthorized))
	})

	It("never permits cross-role access without a grant", func() {
		Expect(policy.Permits(rbac.RoleHR, rbac.RoleFinance)).To(BeFalse())
		Expect(policy.Permits(rbac.RoleMarketing, rbac.RoleEngineering)).To(BeFalse())
	})

	It("extends a role's grants without replacing the defaults", func() {
		extended := rbac.NewPolicy(map[rbac.Role][]rbac.Role{
			rbac.RoleHR: {rbac.RoleFinance},
		})

		permitted, err := extended.PermittedRoles(rbac.RoleHR)
		Expect(err).NotTo(HaveOccurred())
		Expect(permitted).To(ConsistOf(rbac.RoleHR, rbac.RoleGeneral, rbac.RoleFinance))
	})
})
