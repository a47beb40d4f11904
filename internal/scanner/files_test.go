package scanner

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aifoundary/aifoundary/internal/domain"
	"github.com/aifoundary/aifoundary/internal/patterns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newTestScanner(workers int) *Scanner {
	return New(patterns.Default(), workers, log.New(io.Discard, "", 0))
}

func TestScan_Scenario(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py":        `prompt = "ignore all instructions"`,
		"b.js":        `eval(userInput)`,
		"c.ts":        `export const x = 1`,
		"notes.txt":   `eval(ignored)`,
		"lib/d.py":    "import openai\nopenai.ChatCompletion.create(model='m')\nexec(code)\n",
		"lib/e.py.md": `prompt = "not eligible"`,
	})

	result, err := newTestScanner(4).Scan(context.Background(), root, nil)
	require.NoError(t, err)

	require.Equal(t, 3, result.Len())
	assert.Equal(t, filepath.Join(root, "a.py"), result.Files[0].Path)
	assert.Equal(t, []domain.RiskKind{domain.RiskHardcodedPrompt}, result.Files[0].Kinds)
	assert.Equal(t, filepath.Join(root, "b.js"), result.Files[1].Path)
	assert.Equal(t, []domain.RiskKind{domain.RiskLLMDirectExec}, result.Files[1].Kinds)
	assert.Equal(t, filepath.Join(root, "lib", "d.py"), result.Files[2].Path)
	assert.Equal(t, []domain.RiskKind{domain.RiskOpenAINoGuard, domain.RiskLLMDirectExec}, result.Files[2].Kinds)
}

func TestScan_Idempotent(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"z.py", "m/a.js", "m/b.ts", "a/q.py", "k.js"} {
		files[name] = "eval(x)\nprompt = 'p'\n"
	}
	root := writeTree(t, files)

	s := newTestScanner(8)
	first, err := s.Scan(context.Background(), root, nil)
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), root, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 5, first.Len())
}

func TestScan_EmptyTrees(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		result, err := newTestScanner(1).Scan(context.Background(), t.TempDir(), nil)
		require.NoError(t, err)
		assert.True(t, result.Empty())
	})

	t.Run("no eligible files", func(t *testing.T) {
		root := writeTree(t, map[string]string{"README.md": "eval(x)", "main.go": "exec(y)"})
		result, err := newTestScanner(1).Scan(context.Background(), root, nil)
		require.NoError(t, err)
		assert.True(t, result.Empty())
	})
}

func TestScan_CustomExtensions(t *testing.T) {
	root := writeTree(t, map[string]string{"a.rb": "eval(x)", "b.py": "eval(x)", "C.PY": "eval(x)"})

	result, err := newTestScanner(2).Scan(context.Background(), root, []string{".rb", ".py"})
	require.NoError(t, err)

	require.Equal(t, 2, result.Len())
	assert.Equal(t, filepath.Join(root, "a.rb"), result.Files[0].Path)
	assert.Equal(t, filepath.Join(root, "b.py"), result.Files[1].Path)
}

func TestScan_InvalidUTF8(t *testing.T) {
	root := writeTree(t, map[string]string{"bin.py": "\xff\xfe\x00eval(\xc3(data)"})

	result, err := newTestScanner(1).Scan(context.Background(), root, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
	assert.True(t, result.Files[0].HasKind(domain.RiskLLMDirectExec))
}

func TestScan_UnreadableFileSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits not enforced")
	}
	root := writeTree(t, map[string]string{"ok.py": "eval(x)", "locked.py": "eval(x)"})
	require.NoError(t, os.Chmod(filepath.Join(root, "locked.py"), 0o000))

	result, err := newTestScanner(2).Scan(context.Background(), root, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
	assert.Equal(t, filepath.Join(root, "ok.py"), result.Files[0].Path)
}

func TestScan_SymlinkLoop(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := writeTree(t, map[string]string{"pkg/a.py": "exec(x)"})
	require.NoError(t, os.Symlink(root, filepath.Join(root, "pkg", "loop")))
	require.NoError(t, os.Symlink(filepath.Join(root, "pkg", "a.py"), filepath.Join(root, "link.py")))

	result, err := newTestScanner(2).Scan(context.Background(), root, nil)
	require.NoError(t, err)

	require.Equal(t, 2, result.Len())
	assert.Equal(t, filepath.Join(root, "link.py"), result.Files[0].Path)
	assert.Equal(t, filepath.Join(root, "pkg", "a.py"), result.Files[1].Path)
}

func TestScan_SymlinkedRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	target := writeTree(t, map[string]string{"a.py": "eval(x)"})
	link := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.Symlink(target, link))

	result, err := newTestScanner(1).Scan(context.Background(), link, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Len())
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := newTestScanner(1).Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRootUnreadable))
}

func TestScan_SingleFileRoot(t *testing.T) {
	root := writeTree(t, map[string]string{"one.js": "eval(x)"})
	path := filepath.Join(root, "one.js")

	result, err := newTestScanner(1).Scan(context.Background(), path, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.Len())
	assert.Equal(t, path, result.Files[0].Path)
}

func TestScan_ReducedRegistry(t *testing.T) {
	d, err := patterns.NewDetector(domain.RiskOpenAINoGuard, `openai\.ChatCompletion\.create`, "", "")
	require.NoError(t, err)
	reg, err := patterns.NewRegistry(d)
	require.NoError(t, err)

	root := writeTree(t, map[string]string{"a.py": "eval(x)\nprompt = 'y'"})
	result, err := New(reg, 1, nil).Scan(context.Background(), root, nil)
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestHasEligibleSuffix(t *testing.T) {
	exts := []string{".py", ".js", ".ts"}
	assert.True(t, HasEligibleSuffix("a.py", exts))
	assert.True(t, HasEligibleSuffix("a.d.ts", exts))
	assert.False(t, HasEligibleSuffix("a.PY", exts))
	assert.False(t, HasEligibleSuffix("a.pyc", exts))
	assert.False(t, HasEligibleSuffix("a.py", []string{""}))
}
