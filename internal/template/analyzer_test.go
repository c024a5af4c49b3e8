package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeScalarPlaceholders(t *testing.T) {
	body := "export function {{fn}}(name: string): void {\n" +
		"  console.log(`{{msg}}, ${name}!`);\n" +
		"}"

	blocks, err := Analyze(body)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	fn, ok := blocks[0].(ParamBlock)
	require.True(t, ok)
	assert.Equal(t, "fn", fn.Name)
	assert.Equal(t, TypeIdentifier, fn.Type)

	msg, ok := blocks[1].(ParamBlock)
	require.True(t, ok)
	assert.Equal(t, "msg", msg.Name)
	assert.Equal(t, TypeStringLiteral, msg.Type, "placeholder inside backticks extracts as a string literal")

	lit, ok := blocks[2].(LiteralBlock)
	require.True(t, ok)
	assert.Equal(t, "}", lit.Text)
}

func TestAnalyzeIgnoresSingleBraceInterpolation(t *testing.T) {
	blocks, err := Analyze("console.log(`hi, ${name}!`);")
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	_, ok := blocks[0].(LiteralBlock)
	assert.True(t, ok, "${name} is target-language interpolation, not a placeholder")
}

func TestAnalyzeMultiplePlaceholdersOneLine(t *testing.T) {
	blocks, err := Analyze(`const {{name}} = "{{value}}";`)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	first := blocks[0].(ParamBlock)
	second := blocks[1].(ParamBlock)
	assert.Equal(t, "name", first.Name)
	assert.Equal(t, TypeIdentifier, first.Type)
	assert.Equal(t, "value", second.Name)
	assert.Equal(t, TypeStringLiteral, second.Type)
	assert.Equal(t, first.Line, second.Line)
}

func TestAnalyzeSimpleLoop(t *testing.T) {
	body := "const colors = [\n" +
		"{{#each colors}}\n" +
		"  \"{{this}}\",\n" +
		"{{/each}}\n" +
		"];"

	blocks, err := Analyze(body)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	loop, ok := blocks[1].(LoopBlock)
	require.True(t, ok)
	assert.Equal(t, "colors", loop.Collection)
	assert.Equal(t, ShapeSimple, loop.Shape)
	assert.Empty(t, loop.Fields)
	assert.Equal(t, "const colors = [", loop.Before)
	assert.Equal(t, "];", loop.After)
}

func TestAnalyzeFieldsLoop(t *testing.T) {
	body := "{{#each fields}}\n" +
		"  {{this.name}}: {{this.type}};\n" +
		"{{/each}}"

	blocks, err := Analyze(body)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	loop := blocks[0].(LoopBlock)
	assert.Equal(t, ShapeFields, loop.Shape)
	assert.Equal(t, []string{"name", "type"}, loop.Fields)
	assert.Empty(t, loop.Before)
	assert.Empty(t, loop.After)
}

func TestAnalyzeLoopErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "nested loops",
			body: "{{#each a}}\n{{#each b}}\n{{this}}\n{{/each}}\n{{/each}}",
			want: "nested loops",
		},
		{
			name: "unclosed loop",
			body: "{{#each a}}\n{{this}}",
			want: "never closed",
		},
		{
			name: "orphan close",
			body: "{{/each}}",
			want: "without a matching",
		},
		{
			name: "body without item reference",
			body: "{{#each a}}\nstatic\n{{/each}}",
			want: "never references",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Analyze(tt.body)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInferTypeQuoting(t *testing.T) {
	tests := []struct {
		line string
		name string
		want InferredType
	}{
		{`const x = "{{v}}";`, "v", TypeStringLiteral},
		{`const x = '{{v}}';`, "v", TypeStringLiteral},
		{"log(`{{v}} there`);", "v", TypeStringLiteral},
		{`const {{v}} = 1;`, "v", TypeIdentifier},
		{`port: {{v}},`, "v", TypeIdentifier},
		{`const s = "done"; use({{v}});`, "v", TypeIdentifier},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, inferType(tt.line, tt.name), "line %q", tt.line)
	}
}
