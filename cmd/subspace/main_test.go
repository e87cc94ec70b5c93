package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andreyvit/subspace"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if stderr.Len() > 0 {
		t.Log(stderr.String())
	}
	return stdout.String(), err
}

func TestCLI(t *testing.T) {
	t.Setenv("SUBSPACE_ENGINE", "leveldb")
	t.Setenv("SUBSPACE_PATH", filepath.Join(t.TempDir(), "db"))

	_, err := run(t, "put", "--ns", "users/active", "bob", "1", "alice", "2", "carol", "3")
	require.NoError(t, err)
	_, err = run(t, "put", "--ns", "users", "bob", "outer")
	require.NoError(t, err)

	out, err := run(t, "get", "--ns", "users/active", "bob")
	require.NoError(t, err)
	require.Equal(t, "1\n", out)

	out, err = run(t, "get", "--ns", "users", "bob")
	require.NoError(t, err)
	require.Equal(t, "outer\n", out)

	out, err = run(t, "ls", "--ns", "/users/active/")
	require.NoError(t, err)
	require.Equal(t, "alice\t2\nbob\t1\ncarol\t3\n", out)

	out, err = run(t, "ls", "--ns", "users/active", "--gt", "alice", "--reverse", "--keys")
	require.NoError(t, err)
	require.Equal(t, "carol\nbob\n", out)

	out, err = run(t, "ls", "--ns", "users/active", "--limit", "1", "--values")
	require.NoError(t, err)
	require.Equal(t, "2\n", out)

	out, err = run(t, "ls", "--ns", "users")
	require.NoError(t, err)
	require.Equal(t, "bob\touter\n", out)

	_, err = run(t, "del", "--ns", "users/active", "bob", "nobody")
	require.NoError(t, err)
	_, err = run(t, "get", "--ns", "users/active", "bob")
	require.ErrorIs(t, err, subspace.ErrNotFound)

	out, err = run(t, "dump")
	require.NoError(t, err)
	require.Contains(t, out, "/users (depth 1)\n")
	require.Contains(t, out, `/users/active.1: "alice" = "2"`)
	require.NotContains(t, out, `"bob" = "1"`)
}

func TestCLI_encodings(t *testing.T) {
	t.Setenv("SUBSPACE_ENGINE", "leveldb")
	t.Setenv("SUBSPACE_PATH", filepath.Join(t.TempDir(), "db"))

	_, err := run(t, "put", "--key-encoding", "tuple", "--value-encoding", "json",
		`["u", 10]`, `{"n": 1}`, `["u", 2]`, `[1, 2]`)
	require.NoError(t, err)

	out, err := run(t, "ls", "--key-encoding", "tuple", "--value-encoding", "json")
	require.NoError(t, err)
	require.Equal(t, "[\"u\",2]\t[1,2]\n[\"u\",10]\t{\"n\":1}\n", out)

	_, err = run(t, "get", "--key-encoding", "tuple", `["u", 1.5]`)
	require.Error(t, err)
}

func TestCLI_badArgs(t *testing.T) {
	t.Setenv("SUBSPACE_ENGINE", "mem")

	_, err := run(t, "put", "k")
	require.Error(t, err)

	_, err = run(t, "get", "--engine", "rocksdb", "k")
	require.Error(t, err)
}

func TestSplitNamespace(t *testing.T) {
	require.Nil(t, splitNamespace(""))
	require.Nil(t, splitNamespace("/"))
	require.Equal(t, []string{"a", "b"}, splitNamespace("/a/b/"))
}

func TestFormatValue(t *testing.T) {
	require.Equal(t, "abc", formatValue("abc"))
	require.Equal(t, "abc", formatValue([]byte("abc")))
	require.Equal(t, "0x00ff", formatValue([]byte{0x00, 0xff}))
	require.Equal(t, `{"a":1}`, formatValue(map[string]any{"a": 1}))
	require.True(t, strings.HasPrefix(formatValue(make(chan int)), "0x"))
}
