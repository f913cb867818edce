package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// DatabaseURLEnv names the environment variable holding the connection
// string used by integration tests.
const DatabaseURLEnv = "PGSCOPE_TEST_DATABASE_URL"

// IntegrationTest marks a test as an integration test and returns the test
// database URL. The test is skipped in short mode or when no URL is set.
func IntegrationTest(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	url := os.Getenv(DatabaseURLEnv)
	if url == "" {
		t.Skipf("Skipping integration test: %s is not set", DatabaseURLEnv)
	}
	return url
}

// IntegrationTestSuite provides base functionality for integration tests
type IntegrationTestSuite struct {
	suite.Suite
	ctx         context.Context
	cancel      context.CancelFunc
	databaseURL string
	startTime   time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.databaseURL = IntegrationTest(s.T())
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	if s.cancel != nil {
		s.cancel()
	}
	s.T().Logf("Integration test suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// DatabaseURL returns the connection string of the test database
func (s *IntegrationTestSuite) DatabaseURL() string {
	return s.databaseURL
}
