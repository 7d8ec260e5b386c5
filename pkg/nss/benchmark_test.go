package nss_test

import (
	"os/user"
	"strconv"
	"testing"

	"github.com/identsvc/nssdirect/pkg/nss"
	"github.com/identsvc/nssdirect/pkg/nss/nsstest"
)

func benchFixture(n int) *nsstest.Backend {
	fx := &nsstest.Backend{}
	for i := 0; i < n; i++ {
		fx.Users = append(fx.Users, nsstest.User{
			Name:    "user" + strconv.Itoa(i),
			UID:     uint32(1000 + i),
			GID:     uint32(1000 + i),
			Comment: "Benchmark User",
			HomeDir: "/home/user" + strconv.Itoa(i),
			Shell:   "/bin/bash",
		})
	}
	return fx
}

func BenchmarkLookupUserByName(b *testing.B) {
	p := nsstest.NewProvider()
	p.Register(nss.BackendFiles, benchFixture(100))
	r := newResolver(p)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.LookupUserByName("user50", nss.BackendFiles); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLookupUserByID(b *testing.B) {
	p := nsstest.NewProvider()
	p.Register(nss.BackendFiles, benchFixture(100))
	r := newResolver(p)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.LookupUserByID(1050, nss.BackendFiles); err != nil {
			b.Fatal(err)
		}
	}
}

// Fallback cost for a key that only the last backend resolves.
func BenchmarkLookupFallbackChain(b *testing.B) {
	p := nsstest.NewProvider()
	p.Register(nss.BackendFiles, &nsstest.Backend{})
	p.Register(nss.BackendSSS, &nsstest.Backend{})
	p.Register(nss.BackendWinbind, benchFixture(10))
	r := newResolver(p)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.LookupUserByName("user5", nss.BackendAny); err != nil {
			b.Fatal(err)
		}
	}
}

// Cost of the overflow retry for records that need a doubled buffer.
func BenchmarkLookupWithBufferRetry(b *testing.B) {
	fx := benchFixture(10)
	fx.MinBufferSize = 4096
	p := nsstest.NewProvider()
	p.Register(nss.BackendFiles, fx)
	r := newResolver(p)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.LookupUserByName("user5", nss.BackendFiles); err != nil {
			b.Fatal(err)
		}
	}
}

// Baseline: the stdlib resolver path for the same kind of query.
func BenchmarkOSUserBaseline(b *testing.B) {
	if _, err := user.Current(); err != nil {
		b.Skipf("os/user unavailable: %v", err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := user.Current(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAllUsers(b *testing.B) {
	p := nsstest.NewProvider()
	p.Register(nss.BackendFiles, benchFixture(500))
	r := newResolver(p)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		users, err := r.AllUsers(nss.BackendFiles)
		if err != nil {
			b.Fatal(err)
		}
		if len(users) != 500 {
			b.Fatalf("got %d users", len(users))
		}
	}
}
