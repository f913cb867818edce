package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/pgscope/pkg/pool"
	"github.com/ajitpratap0/pgscope/pkg/testutil"
)

// CatalogIntegrationSuite runs against a real server. It recreates
// public.people before each test, so point it at a disposable database.
type CatalogIntegrationSuite struct {
	testutil.IntegrationTestSuite
	pool    *pool.Pool
	catalog *Catalog
}

func TestCatalogIntegration(t *testing.T) {
	testutil.IntegrationTest(t)
	suite.Run(t, new(CatalogIntegrationSuite))
}

func (s *CatalogIntegrationSuite) SetupSuite() {
	s.IntegrationTestSuite.SetupSuite()

	dialer, err := pool.PgxDialer(s.DatabaseURL(), 10*time.Second)
	s.Require().NoError(err)

	s.pool, err = pool.New(pool.Config{Capacity: 4, AcquireTimeout: 10 * time.Second}, dialer,
		pool.WithLogger(testutil.TestLogger(s.T())))
	s.Require().NoError(err)

	s.catalog = New(s.pool, WithLogger(testutil.TestLogger(s.T())))
}

func (s *CatalogIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.NoError(s.pool.Close(context.Background()))
	}
	s.IntegrationTestSuite.TearDownSuite()
}

func (s *CatalogIntegrationSuite) SetupTest() {
	conn, err := pgx.Connect(s.Context(), s.DatabaseURL())
	s.Require().NoError(err)
	defer conn.Close(context.Background())

	for _, stmt := range []string{
		`DROP TABLE IF EXISTS public.people`,
		`CREATE TABLE public.people (
			id BIGINT PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email TEXT NOT NULL,
			enabled BOOLEAN
		)`,
		`INSERT INTO public.people (id, name, email, enabled) VALUES
			(1, 'Daniel', 'd@example.com', true),
			(2, 'A', 'a@x.com', NULL),
			(3, 'Dora', 'dora@example.com', false)`,
	} {
		_, err := conn.Exec(s.Context(), stmt)
		s.Require().NoError(err)
	}
}

func (s *CatalogIntegrationSuite) TestListDatabases() {
	dbs, err := s.catalog.ListDatabases(s.Context())
	s.Require().NoError(err)
	s.Contains(dbs, "postgres")
}

func (s *CatalogIntegrationSuite) TestListTables() {
	tables, err := s.catalog.ListTables(s.Context())
	s.Require().NoError(err)
	s.Contains(tables, "people")
}

func (s *CatalogIntegrationSuite) TestListColumns() {
	cols, err := s.catalog.ListColumns(s.Context(), "people")
	s.Require().NoError(err)
	s.Require().Len(cols, 4)

	byName := make(map[string]bool)
	for _, c := range cols {
		byName[c.Name] = c.Nullable
	}
	s.Equal(map[string]bool{"id": false, "name": false, "email": false, "enabled": true}, byName)

	for _, c := range cols {
		switch c.Name {
		case "name":
			s.Require().NotNil(c.MaxLength)
			s.Equal(int64(100), *c.MaxLength)
		default:
			s.Nil(c.MaxLength, c.Name)
		}
	}
}

func (s *CatalogIntegrationSuite) TestQueryPeople() {
	people, err := s.catalog.QueryPeople(s.Context(), peopleSQL, "D%", true, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(people, 1)
	s.Equal("Daniel", people[0].Name)
	s.Require().NotNil(people[0].Enabled)
	s.True(*people[0].Enabled)

	people, err = s.catalog.QueryPeople(s.Context(), peopleSQL, "A", true, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(people, 1)
	s.Nil(people[0].Enabled)
}

func (s *CatalogIntegrationSuite) TestQueryPeopleLimitAndOffset() {
	people, err := s.catalog.QueryPeople(s.Context(), peopleSQL, "%", true, 0, 0)
	s.Require().NoError(err)
	s.Empty(people)

	people, err = s.catalog.QueryPeople(s.Context(), peopleSQL, "%", true, 10, 100)
	s.Require().NoError(err)
	s.Empty(people)
}

func (s *CatalogIntegrationSuite) TestPreviewTable() {
	res, err := s.catalog.PreviewTable(s.Context(), "people", 2)
	s.Require().NoError(err)
	s.Equal([]string{"id", "name", "email", "enabled"}, res.Columns)
	s.Len(res.Rows, 2)
}

func (s *CatalogIntegrationSuite) TestPingAndVersion() {
	s.Require().NoError(s.catalog.Ping(s.Context()))

	v, err := s.catalog.ServerVersion(s.Context())
	s.Require().NoError(err)
	s.Contains(v, "PostgreSQL")
}
