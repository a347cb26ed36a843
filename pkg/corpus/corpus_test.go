package corpus_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/corpus"
	"github.com/canopyhq/rolechat/pkg/rbac"
)

func TestCorpus(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Corpus Suite")
}

func writeFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	return path
}

// words returns a space-joined run of n copies of w.
func words(w string, n int) string {
	return strings.TrimSpace(strings.Repeat(w+" ", n))
}

var _ = Describe("Loader", func() {
	var (
		root   string
		loader *corpus.Loader
		ctx    context.Context
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		loader = corpus.NewLoader(root, zap.NewNop())
		ctx = context.Background()
	})

	collect := func() []corpus.Document {
		var docs []corpus.Document
		Expect(loader.Walk(ctx, func(d corpus.Document) error {
			docs = append(docs, d)
			return nil
		})).To(Succeed())
		return docs
	}

	It("tags each document with the role of its subdirectory", func() {
		Expect(os.MkdirAll(filepath.Join(root, "finance"), 0o755)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(root, "hr"), 0o755)).To(Succeed())
		writeFile(filepath.Join(root, "finance"), "q3.md", "# Q3\nrevenue commentary")
		writeFile(filepath.Join(root, "hr"), "people.csv", "name,team\nAda,Platform")

		docs := collect()
		Expect(docs).To(HaveLen(2))

		byRole := map[rbac.Role]corpus.Document{}
		for _, d := range docs {
			byRole[d.Role] = d
		}
		Expect(byRole[rbac.RoleFinance].Source).To(Equal("q3.md"))
		Expect(byRole[rbac.RoleFinance].Format).To(Equal(corpus.FormatMarkdown))
		Expect(byRole[rbac.RoleHR].Source).To(Equal("people.csv"))
		Expect(byRole[rbac.RoleHR].Format).To(Equal(corpus.FormatTabular))
	})

	It("skips unsupported extensions without failing the walk", func() {
		Expect(os.MkdirAll(filepath.Join(root, "general"), 0o755)).To(Succeed())
		writeFile(filepath.Join(root, "general"), "handbook.md", "# Handbook\ncontent")
		writeFile(filepath.Join(root, "general"), "logo.png", "not text")

		docs := collect()
		Expect(docs).To(HaveLen(1))
		Expect(docs[0].Source).To(Equal("handbook.md"))
	})

	It("skips directories that are not enumerated roles", func() {
		Expect(os.MkdirAll(filepath.Join(root, "scratch"), 0o755)).To(Succeed())
		writeFile(filepath.Join(root, "scratch"), "notes.md", "# notes")

		Expect(collect()).To(BeEmpty())
	})

	It("fails with ErrLoad when the root is unreadable", func() {
		missing := corpus.NewLoader(filepath.Join(root, "no-such-dir"), zap.NewNop())
		err := missing.Walk(ctx, func(corpus.Document) error { return nil })
		Expect(err).To(MatchError(corpus.ErrLoad))
	})

	It("stops the walk when the callback errors", func() {
		Expect(os.MkdirAll(filepath.Join(root, "general"), 0o755)).To(Succeed())
		writeFile(filepath.Join(root, "general"), "a.md", "# a")
		writeFile(filepath.Join(root, "general"), "b.md", "# b")

		calls := 0
		err := loader.Walk(ctx, func(corpus.Document) error {
			calls++
			return context.Canceled
		})
		Expect(err).To(MatchError(context.Canceled))
		Expect(calls).To(Equal(1))
	})
})

var _ = Describe("Chunker", func() {
	var chunker *corpus.Chunker

	mdDoc := corpus.Document{
		Path:   "/data/engineering/design.md",
		Source: "design.md",
		Role:   rbac.RoleEngineering,
		Format: corpus.FormatMarkdown,
	}
	csvDoc := corpus.Document{
		Path:   "/data/hr/people.csv",
		Source: "people.csv",
		Role:   rbac.RoleHR,
		Format: corpus.FormatTabular,
	}

	BeforeEach(func() {
		chunker = corpus.NewChunker(corpus.ChunkerConfig{})
	})

	It("produces identical chunk id sequences for identical input", func() {
		text := "# Design\n" + words("alpha", 950) + ".\n\n# Rollout\n" + words("beta", 120)

		first, err := chunker.ChunkText(mdDoc, text)
		Expect(err).NotTo(HaveOccurred())
		second, err := chunker.ChunkText(mdDoc, text)
		Expect(err).NotTo(HaveOccurred())

		Expect(first).NotTo(BeEmpty())
		Expect(second).To(HaveLen(len(first)))
		for i := range first {
			Expect(second[i].ID).To(Equal(first[i].ID))
		}
	})

	It("derives distinct ids for distinct documents and positions", func() {
		other := mdDoc
		other.Path = "/data/engineering/other.md"

		Expect(corpus.ChunkID(mdDoc.Path, mdDoc.Role, 0)).NotTo(Equal(corpus.ChunkID(other.Path, other.Role, 0)))
		Expect(corpus.ChunkID(mdDoc.Path, mdDoc.Role, 0)).NotTo(Equal(corpus.ChunkID(mdDoc.Path, mdDoc.Role, 1)))
	})

	It("bounds every prose chunk and keeps overlap between neighbors", func() {
		text := "# Spec\n" + words("word", 1000)

		chunks, err := chunker.ChunkText(mdDoc, text)
		Expect(err).NotTo(HaveOccurred())
		Expect(len(chunks)).To(BeNumerically(">", 1))

		for _, ch := range chunks {
			Expect(ch.WordCount).To(BeNumerically("<=", corpus.DefaultMaxWords))
			Expect(ch.Role).To(Equal(rbac.RoleEngineering))
		}
	})

	It("splits sections at headings and titles chunks with them", func() {
		text := "# Architecture\n" + words("svc", 40) + "\n\n# Operations\n" + words("ops", 40)

		chunks, err := chunker.ChunkText(mdDoc, text)
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(HaveLen(2))
		Expect(chunks[0].Section).To(Equal("Architecture"))
		Expect(chunks[1].Section).To(Equal("Operations"))
	})

	It("drops prose chunks below the minimum word count", func() {
		chunks, err := chunker.ChunkText(mdDoc, "# Tiny\ntoo short")
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(BeEmpty())
	})

	It("serializes each tabular row as a self-describing record", func() {
		text := "name,team,level\nAda Lovelace,Platform,Senior\nAlan Turing,Research,Principal\n"

		chunks, err := chunker.ChunkText(csvDoc, text)
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(HaveLen(2))
		Expect(chunks[0].Text).To(Equal("name: Ada Lovelace | team: Platform | level: Senior"))
		Expect(chunks[0].Section).To(Equal("Name: Ada Lovelace"))
		Expect(chunks[1].Text).To(ContainSubstring("Alan Turing"))
	})

	It("never splits a row across chunks", func() {
		text := "id,notes\n1," + words("detail", 600) + "\n"

		chunks, err := chunker.ChunkText(csvDoc, text)
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0].WordCount).To(BeNumerically(">", corpus.DefaultMaxWords))
	})

	It("drops sparse rows below the row minimum", func() {
		text := "name\nAda\n"

		chunks, err := chunker.ChunkText(csvDoc, text)
		Expect(err).NotTo(HaveOccurred())
		Expect(chunks).To(BeEmpty())
	})
})
