package dis

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/ternlang/tern/bytecode"
	"github.com/ternlang/tern/compiler"
)

func compile(t *testing.T, src string) *compiler.Unit {
	t.Helper()
	unit, err := compiler.New(compiler.Config{}).Compile(context.Background(), src)
	require.NoError(t, err)
	return unit
}

func TestFunctionDisassembly(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	unit := compile(t, "function f(a)\n  return a + 42\nend")
	f := unit.Root.ChildAt(0)
	instructions, err := Disassemble(f)
	require.NoError(t, err)

	var buf bytes.Buffer
	Print(instructions, &buf)

	expected := strings.TrimSpace(`
+--------+------+------------+----------+------+
| OFFSET | LINE |   OPCODE   | OPERANDS | INFO |
+--------+------+------------+----------+------+
|      0 |    2 | LOAD_LOCAL |        0 | a    |
|      1 |    2 | PUSH_LIT   |        2 | 42   |
|      2 |    2 | ADD        |          |      |
|      3 |    2 | RETURN     |        1 |      |
|      4 |    3 | PUSH_NULL  |          |      |
|      5 |    3 | RETURN     |        1 |      |
+--------+------+------------+----------+------+
`)
	require.Equal(t, expected+"\n", buf.String())
}

func TestJumpAndNameAnnotations(t *testing.T) {
	unit := compile(t, "while x do\n  obj.n = 1\nend")
	instructions, err := Disassemble(unit.Root)
	require.NoError(t, err)

	var infos []string
	for _, in := range instructions {
		infos = append(infos, in.Name()+" "+in.Info)
	}
	require.Contains(t, infos, "LOAD_GLOBAL x")
	require.Contains(t, infos, "SET_FIELD n")
	require.Contains(t, infos, "JUMP -> 0")
}

func TestPrintDefRecurses(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	unit := compile(t, "function outer()\n  return function()\n    return 1\n  end\nend")
	var buf bytes.Buffer
	require.NoError(t, PrintDef(unit.Root, &buf))
	out := buf.String()
	require.Contains(t, out, "def <script>(")
	require.Contains(t, out, "def outer(")
	require.Contains(t, out, "def <anonymous>(")
	require.Less(t, strings.Index(out, "def outer("), strings.Index(out, "def <anonymous>("))
}

func TestInvalidOpcode(t *testing.T) {
	def := bytecode.NewDef(bytecode.DefParams{Name: "broken"})
	def.Finalize([]uint32{0xFF}, nil, nil, 0)
	_, err := Disassemble(def)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid opcode")
}
