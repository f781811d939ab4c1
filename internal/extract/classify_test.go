package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyByCount(t *testing.T) {
	primary, perFile := Classify(map[string]int64{
		"a.py": 10,
		"b.py": 10,
		"c.go": 1000,
	})
	assert.Equal(t, "python", primary)
	assert.Equal(t, "python", perFile["a.py"])
	assert.Equal(t, "go", perFile["c.go"])
}

func TestClassifyTieBrokenByBytes(t *testing.T) {
	primary, _ := Classify(map[string]int64{
		"a.py": 10,
		"b.go": 500,
	})
	assert.Equal(t, "go", primary)
}

func TestClassifyTieBrokenAlphabetically(t *testing.T) {
	primary, _ := Classify(map[string]int64{
		"a.py": 100,
		"b.go": 100,
	})
	// Equal count, equal bytes: "go" sorts before "python".
	assert.Equal(t, "go", primary)
}

func TestClassifyNoRecognizedFiles(t *testing.T) {
	primary, perFile := Classify(map[string]int64{
		"README.md":   100,
		"LICENSE.txt": 50,
	})
	assert.Equal(t, "unknown", primary)
	assert.Empty(t, perFile)
}

func TestClassifyEmpty(t *testing.T) {
	primary, perFile := Classify(nil)
	assert.Equal(t, "unknown", primary)
	assert.NotNil(t, perFile)
	assert.Empty(t, perFile)
}

func TestLanguageFor(t *testing.T) {
	assert.Equal(t, "typescript", LanguageFor("src/app.tsx"))
	assert.Equal(t, "c", LanguageFor("include/api.h"))
	assert.Equal(t, "", LanguageFor("Makefile"))
}
