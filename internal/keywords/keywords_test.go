package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsTerm(t *testing.T) {
	tests := []struct {
		text string
		term string
		want bool
	}{
		{"Java, Spring", "java", true},
		{"JavaScript and TypeScript", "java", false},
		{"C++ and Rust", "c", false},
		{"C, C++", "c", true},
		{"C++ and Rust", "c++", true},
		{"git and github", "git", true},
		{"github actions", "git", false},
		{"MySQL 8", "sql", false},
		{"SQL Server", "sql", true},
		{"node.js backend", "node.js", true},
		{"built with React.", "react", true},
		{"machine   learning", "machine learning", false},
		{"Python3 scripts", "python", true},
		{"python3.11, html5", "html", true},
		{"built in ReactJS", "react", true},
		{"NodeJS backend", "node.js", true},
		{"Java8", "java", true},
		{"Java8x", "java", false},
		{"reactive streams", "react", false},
		{"jsx", "js", false},
		{"", "go", false},
		{"go", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsTerm(tt.text, tt.term), "%q in %q", tt.term, tt.text)
	}
}

func TestTokenizeKeepsTechSuffixes(t *testing.T) {
	got := Tokenize("We use C++, C# and Node.js. The API is fast.")
	assert.Equal(t, []string{"c++", "c#", "node.js", "api", "fast"}, got)
}

func TestTopOrdersByFrequencyThenName(t *testing.T) {
	got := Top("kafka go go docker kafka go aws", 3)
	assert.Equal(t, []string{"go", "kafka", "aws"}, got)
	assert.Nil(t, Top("go", 0))
}

func TestSpellings(t *testing.T) {
	assert.Equal(t, []string{"node.js", "nodejs"}, Spellings(" Node.js "))
	assert.Equal(t, []string{"python"}, Spellings("Python"))
	assert.Equal(t, []string{".js"}, Spellings(".js"))
	assert.Nil(t, Spellings("  "))
}
