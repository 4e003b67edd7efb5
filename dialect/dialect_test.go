package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholderFor(t *testing.T) {
	tests := []struct {
		name     string
		dialect  string
		tokens   []string
		numbered bool
	}{
		{"SQLite", SQLite, []string{"?", "?", "?"}, false},
		{"MySQL", MySQL, []string{"?", "?", "?"}, false},
		{"Postgres", Postgres, []string{"$1", "$2", "$3"}, true},
		{"pgx", "pgx", []string{"$1", "$2", "$3"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PlaceholderFor(tt.dialect)
			assert.Equal(t, tt.numbered, p.Numbered())
			for i, want := range tt.tokens {
				assert.Equal(t, want, p.Token(i+1))
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Postgres, Normalize("postgres"))
	assert.Equal(t, Postgres, Normalize("pgx"))
	assert.Equal(t, MySQL, Normalize("mysql"))
	assert.Equal(t, SQLite, Normalize("sqlite"))
	assert.Equal(t, SQLite, Normalize("sqlite3"))
	assert.Equal(t, "oracle", Normalize("oracle"))

	assert.True(t, Supported("sqlite3"))
	assert.False(t, Supported("oracle"))
}
