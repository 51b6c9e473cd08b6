// File: cmd/root_test.go
package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommandTree(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "seekwell", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "discover")
	assert.Contains(t, names, "bindings")
}

func TestBindingsSubcommands(t *testing.T) {
	root := NewRootCommand()
	bindingsCmd, _, err := root.Find([]string{"bindings"})
	require.NoError(t, err)

	var names []string
	for _, c := range bindingsCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "list")
	assert.Contains(t, names, "show")
	assert.Contains(t, names, "clear")
}

func TestHostnameOf(t *testing.T) {
	host, err := hostnameOf("https://jobs.example.com/search?q=go")
	require.NoError(t, err)
	assert.Equal(t, "jobs.example.com", host)

	_, err = hostnameOf("://not-a-url")
	assert.Error(t, err)
}
