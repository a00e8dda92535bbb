package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/sushic/internal/ast"
)

func TestBagDeduplicatesBySpanAndCode(t *testing.T) {
	b := NewBag()
	span := ast.Span{File: "a.sushi", Start: 10, End: 14}

	b.Errorf(CodeUseAfterMove, span, "first message")
	b.Errorf(CodeUseAfterMove, span, "second message wins")

	require.Equal(t, 1, b.Len())
	assert.Equal(t, "second message wins", b.All()[0].Message)
}

func TestBagOrdersDeterministically(t *testing.T) {
	b := NewBag()
	b.Errorf(CodeUseAfterMove, ast.Span{File: "b.sushi", Start: 5, End: 6}, "later")
	b.Errorf(CodeUndefinedVariable, ast.Span{File: "a.sushi", Start: 20, End: 21}, "same file, later offset")
	b.Errorf(CodeUndefinedVariable, ast.Span{File: "a.sushi", Start: 3, End: 4}, "same file, earlier offset")

	all := b.All()
	require.Len(t, all, 3)
	assert.Equal(t, "a.sushi", all[0].Primary.File)
	assert.Equal(t, 3, all[0].Primary.Start)
	assert.Equal(t, "a.sushi", all[1].Primary.File)
	assert.Equal(t, 20, all[1].Primary.Start)
	assert.Equal(t, "b.sushi", all[2].Primary.File)
}

func TestExitCode(t *testing.T) {
	clean := NewBag()
	assert.Equal(t, 0, clean.ExitCode())

	warnOnly := NewBag()
	warnOnly.Warnf(CodeUnusedResult, ast.Span{File: "a.sushi"}, "unused")
	assert.Equal(t, 1, warnOnly.ExitCode())

	withError := NewBag()
	withError.Errorf(CodeUseAfterMove, ast.Span{File: "a.sushi"}, "moved")
	assert.Equal(t, 2, withError.ExitCode())
}
