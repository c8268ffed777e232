package clickhouse

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithHost("ch.local"),
		WithPort(9440),
		WithDatabase("healthtwin"),
		WithCredentials("svc", "p@ss"),
		WithTimeouts(2*time.Second, 3*time.Second, 4*time.Second),
		WithAsyncInsert(true, true),
		WithMaxExecutionTime(30 * time.Second),
	} {
		opt(cfg)
	}

	u, err := url.Parse(buildDSN(*cfg))
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", u.Scheme)
	assert.Equal(t, "ch.local:9440", u.Host)
	assert.Equal(t, "/healthtwin", u.Path)
	assert.Equal(t, "svc", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)

	q := u.Query()
	assert.Equal(t, "2s", q.Get("dial_timeout"))
	assert.Equal(t, "3s", q.Get("read_timeout"))
	assert.Equal(t, "30", q.Get("max_execution_time"))
	assert.Equal(t, "1", q.Get("async_insert"))
	assert.Equal(t, "1", q.Get("wait_for_async_insert"))
	assert.Empty(t, q.Get("write_timeout"))
}

func TestBuildDSNDefaults(t *testing.T) {
	cfg := defaultConfig()
	WithHost("localhost")(cfg)
	WithPort(0)(cfg)
	WithDatabase("")(cfg)
	WithHTTP(true)(cfg)

	u, err := url.Parse(buildDSN(*cfg))
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/default", u.Path)
	assert.Nil(t, u.User)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.ErrorContains(t, err, "host is required")
}

func TestTable(t *testing.T) {
	c := &Client{database: "healthtwin"}
	assert.Equal(t, "healthtwin.samples", c.Table("samples"))
}
