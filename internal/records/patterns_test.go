package records_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyName(t *testing.T) {
	recordStore := newStore(t)

	added, skipped := recordStore.ImportPatterns(strings.NewReader("braaaap.*\n\n^DoesHotter\n"))
	require.Equal(t, 2, added)
	require.Zero(t, skipped)

	pattern, matched := recordStore.ClassifyName("braaaap 420")
	require.True(t, matched)
	require.Equal(t, "braaaap.*", pattern.String())

	_, matched = recordStore.ClassifyName("harmless newbie")
	require.False(t, matched)
}

func TestClassifyNameFirstMatchWins(t *testing.T) {
	recordStore := newStore(t)

	require.NoError(t, recordStore.AddPattern(`bot`))
	require.NoError(t, recordStore.AddPattern(`bot.*wins`))

	pattern, matched := recordStore.ClassifyName("bot always wins")
	require.True(t, matched)
	require.Equal(t, "bot", pattern.String())
}

func TestImportPatternsBadLine(t *testing.T) {
	recordStore := newStore(t)

	patternFile := filepath.Join(t.TempDir(), "patterns.txt")
	require.NoError(t, os.WriteFile(patternFile,
		[]byte("valid.*one\n[invalid\nvalid$\n"), 0o600))

	added, skipped, errImport := recordStore.ImportPatternsFile(patternFile)
	require.NoError(t, errImport)
	require.Equal(t, 2, added)
	require.Equal(t, 1, skipped)
	require.Len(t, recordStore.Patterns(), 2)
}

func TestPatternsRoundTrip(t *testing.T) {
	recordStore := newStore(t)

	require.NoError(t, recordStore.AddPattern(`^\[VALVE\]`))
	require.NoError(t, recordStore.AddPattern(`(?i)braaaa+p`))

	var buf bytes.Buffer
	require.NoError(t, recordStore.ExportPatterns(&buf))

	fresh := newStore(t)
	added, skipped := fresh.ImportPatterns(&buf)
	require.Equal(t, 2, added)
	require.Zero(t, skipped)
	require.Equal(t, recordStore.Patterns()[0].String(), fresh.Patterns()[0].String())
}
