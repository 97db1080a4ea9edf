package adapter

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoFileAdapter_Parse(t *testing.T) {
	a := NewLocalGoFileAdapter()

	file, err := a.Parse(token.NewFileSet(), "ok.go", []byte("package main\n\nfunc main() {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "main", file.Name.Name)

	_, err = a.Parse(token.NewFileSet(), "broken.go", []byte("package main\n\nfunc main() {\n"))
	require.Error(t, err)
}

func TestGoFileAdapter_HasMainEntry(t *testing.T) {
	a := NewLocalGoFileAdapter()

	tests := []struct {
		name     string
		src      string
		expected bool
	}{
		{"main package with main", "package main\n\nfunc main() {}\n", true},
		{"main package without main", "package main\n\nfunc helper() {}\n", false},
		{"library package with main func", "package lib\n\nfunc main() {}\n", false},
		{"method named main does not count", "package main\n\ntype T struct{}\n\nfunc (T) main() {}\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := a.Parse(token.NewFileSet(), "x.go", []byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, a.HasMainEntry(file))
		})
	}
}
