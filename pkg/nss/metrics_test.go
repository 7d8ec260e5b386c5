package nss_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/identsvc/nssdirect/pkg/nss"
	"github.com/identsvc/nssdirect/pkg/nss/nsstest"
)

// recordingMetrics captures observations for assertions.
type recordingMetrics struct {
	mu           sync.Mutex
	lookups      []string // "operation/backend/outcome"
	retries      int
	enumSessions []string // "database/backend"
	enumRecords  int
}

func (m *recordingMetrics) ObserveLookup(operation, backend string, _ time.Duration, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, operation+"/"+backend+"/"+outcome)
}

func (m *recordingMetrics) ObserveBufferRetry(string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

func (m *recordingMetrics) ObserveEnumeration(database, backend string, records int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enumSessions = append(m.enumSessions, database+"/"+backend)
	m.enumRecords += records
}

func TestLookupObservations(t *testing.T) {
	p := nsstest.NewProvider()
	p.Register(nss.BackendFiles, filesFixture())
	p.Register(nss.BackendSSS, &nsstest.Backend{})
	p.Register(nss.BackendWinbind, &nsstest.Backend{})
	rec := &recordingMetrics{}
	r := newResolver(p, nss.WithMetrics(rec))

	_, err := r.LookupUserByName("root", nss.BackendAny)
	require.NoError(t, err)
	_, err = r.LookupUserByName("ghost", nss.BackendAny)
	require.True(t, nss.IsNotFound(err))
	_, err = r.LookupGroupByID(27, nss.BackendFiles)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"getpwnam_r/any/hit",
		"getpwnam_r/any/miss",
		"getgrgid_r/files/hit",
	}, rec.lookups)
}

func TestBufferRetryObservations(t *testing.T) {
	p := nsstest.NewProvider()
	p.Register(nss.BackendFiles, &nsstest.Backend{
		Users:         []nsstest.User{{Name: "root", UID: 0}},
		MinBufferSize: 4096,
	})
	rec := &recordingMetrics{}
	r := newResolver(p, nss.WithMetrics(rec))

	_, err := r.LookupUserByName("root", nss.BackendFiles)
	require.NoError(t, err)

	// 1024 -> 2048 -> 4096: two overflow retries.
	assert.Equal(t, 2, rec.retries)
}

func TestEnumerationObservations(t *testing.T) {
	p := nsstest.NewProvider()
	p.Register(nss.BackendFiles, filesFixture())
	rec := &recordingMetrics{}
	r := newResolver(p, nss.WithMetrics(rec))

	users, err := r.AllUsers(nss.BackendFiles)
	require.NoError(t, err)

	assert.Equal(t, []string{"passwd/files"}, rec.enumSessions)
	assert.Equal(t, len(users), rec.enumRecords)

	// A session that never opened reports nothing.
	it := r.Groups(nss.BackendFiles)
	require.NoError(t, it.Close())
	assert.Equal(t, []string{"passwd/files"}, rec.enumSessions)
}
