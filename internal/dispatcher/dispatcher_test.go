package dispatcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Panahifarah/kalpak/internal/config"
)

func testSettings(dir string) config.Settings {
	s := config.Default()
	s.OutputDir = dir
	return s
}

func TestPartition(t *testing.T) {
	t.Parallel()

	valid, invalid := partition([]string{
		"http://a.test/x.bin",
		"not a url",
		"https://a.test/y.bin",
		"/relative/only",
	})
	require.Equal(t, []string{"http://a.test/x.bin", "https://a.test/y.bin"}, valid)
	require.Equal(t, []string{"not a url", "/relative/only"}, invalid)
}

func TestRunMixedInput(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	requested := make(map[string]int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested[r.URL.Path]++
		mu.Unlock()
		fmt.Fprintf(w, "body of %s", r.URL.Path)
	}))
	defer srv.Close()

	dir := t.TempDir()
	settings := testSettings(dir)
	settings.Retries = 3
	settings.MaxConnections = 2

	urls := []string{srv.URL + "/x.bin", "not a url", srv.URL + "/y.bin"}
	Run(context.Background(), urls, settings)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requested, 2)
	require.Equal(t, 1, requested["/x.bin"])
	require.Equal(t, 1, requested["/y.bin"])

	xData, err := os.ReadFile(filepath.Join(dir, "x.bin"))
	require.NoError(t, err)
	require.Equal(t, "body of /x.bin", string(xData))
	yData, err := os.ReadFile(filepath.Join(dir, "y.bin"))
	require.NoError(t, err)
	require.Equal(t, "body of /y.bin", string(yData))
}

func TestRunConnectionBound(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		time.Sleep(30 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	dir := t.TempDir()
	settings := testSettings(dir)
	settings.MaxConnections = 2

	var urls []string
	for i := range 8 {
		urls = append(urls, fmt.Sprintf("%s/f%d.bin", srv.URL, i))
	}
	Run(context.Background(), urls, settings)

	mu.Lock()
	defer mu.Unlock()
	require.LessOrEqual(t, maxInFlight, 2)
	require.Positive(t, maxInFlight)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 8)
}

func TestRunKeysResultByOriginalURL(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/orig.bin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", srv.URL+"/target.bin")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/target.bin", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "redirected payload")
	})

	dir := t.TempDir()
	Run(context.Background(), []string{srv.URL + "/orig.bin"}, testSettings(dir))

	data, err := os.ReadFile(filepath.Join(dir, "orig.bin"))
	require.NoError(t, err)
	require.Equal(t, "redirected payload", string(data))
	_, err = os.Stat(filepath.Join(dir, "target.bin"))
	require.True(t, os.IsNotExist(err))
}

func TestRunFailuresDoNotAbort(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/missing.bin", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/good.bin", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "still here")
	})

	dir := t.TempDir()
	Run(context.Background(), []string{srv.URL + "/missing.bin", srv.URL + "/good.bin"}, testSettings(dir))

	data, err := os.ReadFile(filepath.Join(dir, "good.bin"))
	require.NoError(t, err)
	require.Equal(t, "still here", string(data))
	_, err = os.Stat(filepath.Join(dir, "missing.bin"))
	require.True(t, os.IsNotExist(err))
}

func TestRunNoValidURLs(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	Run(context.Background(), []string{"not a url"}, testSettings(dir))

	// nothing fetched, but the persistence step still runs
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
