package answer

import (
	"fmt"
	"strings"

	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/vector"
)

// roleInstructions tailors tone and emphasis to the caller's role.
var roleInstructions = map[rbac.Role]string{
	rbac.RoleEngineering: "Focus on technical details, architecture, and implementation specifics.",
	rbac.RoleFinance:     "Highlight financial metrics, costs, and quantitative analysis. Be precise with numbers.",
	rbac.RoleHR:          "Focus on people-related aspects and organizational information. Respect confidentiality.",
	rbac.RoleMarketing:   "Emphasize business impact, customer benefits, and strategic insights.",
	rbac.RoleCLevel:      "Provide high-level strategic insights and executive summaries.",
	rbac.RoleGeneral:     "Provide balanced, comprehensive information suitable for a general audience.",
}

// buildPrompt assembles the grounded prompt: instructions that confine the
// model to the supplied context, then each chunk with its provenance so the
// model can cite sources.
func buildPrompt(query string, callerRole rbac.Role, results []vector.Result) string {
	instruction, ok := roleInstructions[callerRole]
	if !ok {
		instruction = roleInstructions[rbac.RoleGeneral]
	}

	var b strings.Builder
	b.WriteString("You are an internal company assistant answering for a ")
	b.WriteString(string(callerRole))
	b.WriteString(" user.\n\n")
	b.WriteString(instruction)
	b.WriteString("\n\nAnswer the question using only the context documents below. ")
	b.WriteString("Cite the source file of any document you draw from. ")
	b.WriteString("If the context does not contain the answer, say you do not have that information. ")
	b.WriteString("Never invent facts that are not in the context.\n\nContext:\n")

	for i, res := range results {
		fmt.Fprintf(&b, "\n[Document %d: %s] (relevance %.3f)\nSource: %s | Role: %s\n%s\n",
			i+1, res.Payload.Section, res.Score, res.Payload.Source, res.Role, res.Payload.Text)
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer:")

	return b.String()
}
