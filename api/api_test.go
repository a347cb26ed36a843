package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canopyhq/rolechat/pkg/answer"
	"github.com/canopyhq/rolechat/pkg/corpus"
	"github.com/canopyhq/rolechat/pkg/indexer"
	rolechatlogger "github.com/canopyhq/rolechat/pkg/logger"
	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/retrieval"
	"github.com/canopyhq/rolechat/pkg/users"
	testutils "github.com/canopyhq/rolechat/pkg/utils/test"
	"github.com/canopyhq/rolechat/pkg/vector"
)

var _ = Describe("Server", func() {
	var (
		server       *Server
		store        *users.SQLiteStore
		vectorDriver *testutils.MockVectorDriver
		embedder     *testutils.MockEmbedder
		llmClient    *testutils.MockLLM
		corpusRoot   string
		ctx          context.Context
	)

	request := func(method, target, username, password string, body any) *http.Response {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			Expect(err).ToNot(HaveOccurred())
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequest(method, target, reader)
		Expect(err).ToNot(HaveOccurred())
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if username != "" {
			req.SetBasicAuth(username, password)
		}

		resp, err := server.app.Test(req, -1)
		Expect(err).ToNot(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, out any) {
		body, err := io.ReadAll(resp.Body)
		Expect(err).ToNot(HaveOccurred())
		Expect(json.Unmarshal(body, out)).To(Succeed())
	}

	BeforeEach(func() {
		logger := rolechatlogger.Nop()
		ctx = context.Background()

		var err error
		store, err = users.NewSQLiteStore(":memory:")
		Expect(err).ToNot(HaveOccurred())
		Expect(store.Seed(ctx)).To(Succeed())

		vectorDriver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		llmClient = testutils.NewMockLLM("Grounded answer.")

		corpusRoot = GinkgoT().TempDir()
		Expect(os.MkdirAll(filepath.Join(corpusRoot, "general"), 0o755)).To(Succeed())
		Expect(os.WriteFile(
			filepath.Join(corpusRoot, "general", "handbook.md"),
			[]byte("# Holidays\n\nThe office observes all national holidays plus two floating days.\n"),
			0o644,
		)).To(Succeed())

		policy := rbac.NewPolicy(nil)
		retriever := retrieval.NewRetriever(policy, embedder, vectorDriver, retrieval.Config{}, logger)
		generator := answer.NewGenerator(llmClient, answer.Config{}, logger)

		ix, err := indexer.New(&indexer.Config{
			Loader:     corpus.NewLoader(corpusRoot, logger),
			Chunker:    corpus.NewChunker(corpus.ChunkerConfig{}),
			Embedder:   embedder,
			Driver:     vectorDriver,
			NumWorkers: 1,
			Logger:     logger,
		})
		Expect(err).ToNot(HaveOccurred())

		server = NewServer(Config{ListenAddr: ":0"}, store, retriever, generator, ix, vectorDriver, logger)
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Describe("GET /ping", func() {
		It("responds without authentication", func() {
			resp := request(http.MethodGet, "/ping", "", "", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})
	})

	Describe("GET /login", func() {
		It("rejects missing credentials", func() {
			resp := request(http.MethodGet, "/login", "", "", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnauthorized))
			Expect(resp.Header.Get(fiber.HeaderWWWAuthenticate)).To(ContainSubstring("Basic"))
		})

		It("rejects a wrong password", func() {
			resp := request(http.MethodGet, "/login", "tony", "wrongpass", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnauthorized))
		})

		It("greets the caller with their role", func() {
			resp := request(http.MethodGet, "/login", "tony", "password123", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out LoginResponse
			decode(resp, &out)
			Expect(out.Message).To(ContainSubstring("tony"))
			Expect(out.Role).To(Equal(rbac.RoleEngineering))
		})
	})

	Describe("POST /chat", func() {
		BeforeEach(func() {
			vectorDriver.Results = []vector.Result{
				{
					Record: vector.Record{
						ID:   "chunk-1",
						Role: rbac.RoleEngineering,
						Payload: vector.Payload{
							Source:  "architecture.md",
							Section: "Services",
							Text:    "The platform runs as a set of small services behind a gateway.",
						},
					},
					Score: 0.9,
				},
				{
					Record: vector.Record{
						ID:   "chunk-2",
						Role: rbac.RoleGeneral,
						Payload: vector.Payload{
							Source:  "handbook.md",
							Section: "Holidays",
							Text:    "The office observes all national holidays plus two floating days.",
						},
					},
					Score: 0.8,
				},
				{
					Record: vector.Record{
						ID:   "chunk-3",
						Role: rbac.RoleFinance,
						Payload: vector.Payload{
							Source:  "budget.md",
							Section: "Budget",
							Text:    "Quarterly budgets are reviewed by the finance leads.",
						},
					},
					Score: 0.7,
				},
			}
		})

		It("requires authentication", func() {
			resp := request(http.MethodPost, "/chat", "", "", ChatRequest{Message: "hello"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnauthorized))
		})

		It("rejects an empty message", func() {
			resp := request(http.MethodPost, "/chat", "tony", "password123", ChatRequest{})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("answers from role-permitted chunks only", func() {
			resp := request(http.MethodPost, "/chat", "tony", "password123", ChatRequest{Message: "how do deployments work?"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out ChatResponse
			decode(resp, &out)
			Expect(out.Answer).To(Equal("Grounded answer."))
			Expect(out.Role).To(Equal(rbac.RoleEngineering))

			sources := make([]string, len(out.References))
			for i, ref := range out.References {
				sources[i] = ref.Source
			}
			Expect(sources).To(ConsistOf("architecture.md", "handbook.md"))

			// The finance chunk must not reach the prompt either.
			Expect(llmClient.Prompts).To(HaveLen(1))
			Expect(llmClient.Prompts[0]).ToNot(ContainSubstring("Quarterly budgets"))
		})

		It("lets c-level retrieve across all partitions", func() {
			resp := request(http.MethodPost, "/chat", "elena", "execpass", ChatRequest{Message: "what is our budget process?"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out ChatResponse
			decode(resp, &out)

			sources := make([]string, len(out.References))
			for i, ref := range out.References {
				sources[i] = ref.Source
			}
			Expect(sources).To(ContainElement("budget.md"))
		})

		It("returns the no-information answer when nothing matches", func() {
			vectorDriver.Results = nil

			resp := request(http.MethodPost, "/chat", "tony", "password123", ChatRequest{Message: "anything?"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out ChatResponse
			decode(resp, &out)
			Expect(out.Answer).To(Equal(answer.NoInformationAnswer))
			Expect(out.References).To(BeEmpty())
			Expect(llmClient.Prompts).To(BeEmpty())
		})

		It("returns 500 when generation fails", func() {
			llmClient.Fail = true

			resp := request(http.MethodPost, "/chat", "tony", "password123", ChatRequest{Message: "hello"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
		})

		It("returns 500 when retrieval fails", func() {
			vectorDriver.FailSearch = true

			resp := request(http.MethodPost, "/chat", "tony", "password123", ChatRequest{Message: "hello"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
		})
	})

	Describe("admin index endpoints", func() {
		It("rejects unauthenticated requests", func() {
			resp := request(http.MethodGet, "/admin/index/stats", "", "", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnauthorized))
		})

		It("forbids non-admin document roles", func() {
			resp := request(http.MethodGet, "/admin/index/stats", "tony", "password123", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusForbidden))
		})

		It("admits both admin and c-level", func() {
			for _, creds := range [][2]string{{"admin", "admin123"}, {"elena", "execpass"}} {
				resp := request(http.MethodGet, "/admin/index/stats", creds[0], creds[1], nil)
				Expect(resp.StatusCode).To(Equal(fiber.StatusOK), "user %s", creds[0])
			}
		})

		It("initializes the vector store", func() {
			resp := request(http.MethodPost, "/admin/index/init", "admin", "admin123", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(vectorDriver.InitDims).To(Equal(embedder.Dimensions()))
		})

		It("indexes the corpus and reports counts", func() {
			resp := request(http.MethodPost, "/admin/index/documents", "admin", "admin123", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out IndexRunResponse
			decode(resp, &out)
			Expect(out.FilesIndexed).To(Equal(1))
			Expect(out.TotalChunks).To(Equal(1))
			Expect(out.ChunksPerRole).To(HaveKeyWithValue(rbac.RoleGeneral, 1))
		})

		It("clears the store", func() {
			request(http.MethodPost, "/admin/index/documents", "admin", "admin123", nil)

			resp := request(http.MethodDelete, "/admin/index/clear", "admin", "admin123", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(vectorDriver.Cleared).To(BeTrue())
		})

		It("reindexes from scratch", func() {
			resp := request(http.MethodPost, "/admin/index/reindex", "admin", "admin123", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(vectorDriver.Cleared).To(BeTrue())

			var out IndexRunResponse
			decode(resp, &out)
			Expect(out.TotalChunks).To(Equal(1))
		})
	})

	Describe("admin user endpoints", func() {
		It("forbids c-level from managing users", func() {
			resp := request(http.MethodGet, "/admin/users", "elena", "execpass", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusForbidden))
		})

		It("lists users without password material", func() {
			resp := request(http.MethodGet, "/admin/users", "admin", "admin123", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("tony"))
			Expect(string(body)).ToNot(ContainSubstring("password"))
		})

		It("creates a user", func() {
			resp := request(http.MethodPost, "/admin/users", "admin", "admin123",
				UserRequest{Username: "dana", Password: "danapass", Role: "hr"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			user, err := store.Authenticate(ctx, "dana", "danapass")
			Expect(err).ToNot(HaveOccurred())
			Expect(user.Role).To(Equal(rbac.RoleHR))
		})

		It("rejects duplicate users with 409", func() {
			resp := request(http.MethodPost, "/admin/users", "admin", "admin123",
				UserRequest{Username: "tony", Password: "x", Role: "engineering"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusConflict))
		})

		It("rejects unknown roles with 400", func() {
			resp := request(http.MethodPost, "/admin/users", "admin", "admin123",
				UserRequest{Username: "dana", Password: "danapass", Role: "wizard"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("updates a user's role", func() {
			resp := request(http.MethodPut, "/admin/users/tony", "admin", "admin123",
				UserRequest{Role: "finance"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out UserResponse
			decode(resp, &out)
			Expect(out.Role).To(Equal(rbac.RoleFinance))
		})

		It("returns 404 updating an unknown user", func() {
			resp := request(http.MethodPut, "/admin/users/ghost", "admin", "admin123",
				UserRequest{Role: "finance"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("deletes a user", func() {
			resp := request(http.MethodDelete, "/admin/users/sid", "admin", "admin123", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			_, err := store.Get(ctx, "sid")
			Expect(err).To(MatchError(users.ErrNotFound))
		})

		It("returns 404 deleting an unknown user", func() {
			resp := request(http.MethodDelete, "/admin/users/ghost", "admin", "admin123", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})
})
