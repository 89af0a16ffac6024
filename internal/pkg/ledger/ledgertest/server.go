// Package ledgertest runs an in-memory ledger over HTTP for tests.
package ledgertest

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/ManuelReschke/EduPay/app/repository"
	"github.com/ManuelReschke/EduPay/internal/pkg/ledger"
	"github.com/ManuelReschke/EduPay/internal/pkg/resource"
)

// Server is a running in-memory ledger.
type Server struct {
	*httptest.Server
	Repos *repository.Repositories
}

// NewServer starts a ledger backed by memory repositories. It is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	srv := httptest.NewServer(adaptor.FiberApp(ledger.NewApp(repos, &ledger.Config{})))
	t.Cleanup(srv.Close)
	return &Server{Server: srv, Repos: repos}
}

// Client returns a resource client pointed at the server.
func (s *Server) Client() *resource.Client {
	return resource.New(resource.Config{BaseURL: s.URL}, s.Server.Client())
}
