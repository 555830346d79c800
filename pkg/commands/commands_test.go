package commands

import (
	"bytes"
	"context"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestRun(t *testing.T) {
	var headers http.Header
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header
		_, _ = w.Write([]byte("banana"))
	}))
	defer s.Close()

	out := &bytes.Buffer{}
	err := Run(context.Background(), &RunCfg{
		WorkingDir: tempDir(t),
		ConfigPath: ".smokerc.toml",
		URL:        s.URL + "/files/banana",
		Headers:    []string{"X-Foo=bar"},
		Out:        out,
	})
	require.NoError(t, err)

	assert.Equal(t, "banana\n", out.String())
	assert.Equal(t, "foobar/1.2.3", headers.Get("User-Agent"))
	assert.Equal(t, "bar", headers.Get("X-Foo"))
}

func TestRunConfigFile(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer s.Close()

	dir := tempDir(t)
	err := ioutil.WriteFile(
		filepath.Join(dir, ".smokerc.toml"),
		[]byte(fmt.Sprintf("url = %q\nexpectedStatus = 418\n", s.URL)),
		0666)
	require.NoError(t, err)

	err = Run(context.Background(), &RunCfg{
		WorkingDir: dir,
		ConfigPath: ".smokerc.toml",
		Out:        &bytes.Buffer{},
	})
	assert.NoError(t, err)

	err = Run(context.Background(), &RunCfg{
		WorkingDir:     dir,
		ConfigPath:     ".smokerc.toml",
		ExpectedStatus: 200,
		Out:            &bytes.Buffer{},
	})
	assert.EqualError(t, err, "Expected status code 200, got 418")
}

func TestRunUserAgentHeader(t *testing.T) {
	var userAgents []string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgents = append(userAgents, r.Header.Get("User-Agent"))
	}))
	defer s.Close()

	dir := tempDir(t)
	err := Run(context.Background(), &RunCfg{
		WorkingDir: dir,
		ConfigPath: ".smokerc.toml",
		URL:        s.URL,
		Headers:    []string{"User-Agent=curl/7.64.1"},
		Out:        &bytes.Buffer{},
	})
	require.NoError(t, err)

	err = ioutil.WriteFile(
		filepath.Join(dir, ".smokerc.toml"),
		[]byte("[headers]\nuser-agent = \"wget/1.20\"\n"),
		0666)
	require.NoError(t, err)

	err = Run(context.Background(), &RunCfg{
		WorkingDir: dir,
		ConfigPath: ".smokerc.toml",
		URL:        s.URL,
		Out:        &bytes.Buffer{},
	})
	require.NoError(t, err)

	err = Run(context.Background(), &RunCfg{
		WorkingDir: dir,
		ConfigPath: ".smokerc.toml",
		URL:        s.URL,
		UserAgent:  "httpie/2.0",
		Out:        &bytes.Buffer{},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"curl/7.64.1", "wget/1.20", "httpie/2.0"}, userAgents)
}

func TestRunInvalidHeader(t *testing.T) {
	err := Run(context.Background(), &RunCfg{
		WorkingDir: tempDir(t),
		ConfigPath: ".smokerc.toml",
		URL:        "http://127.0.0.1:1/",
		Headers:    []string{"X-Foo"},
	})
	assert.EqualError(t, err, "invalid header 'X-Foo': expected name=value")
}

func TestParseHeader(t *testing.T) {
	name, value, err := parseHeader("User-Agent = curl/7.64.1")
	require.NoError(t, err)
	assert.Equal(t, "User-Agent", name)
	assert.Equal(t, "curl/7.64.1", value)

	name, value, err = parseHeader("X-Empty=")
	require.NoError(t, err)
	assert.Equal(t, "X-Empty", name)
	assert.Equal(t, "", value)

	_, _, err = parseHeader("=value")
	assert.Error(t, err)
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "smoke")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}
