package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type templateInner struct {
	Path string `template:""`
}

type templateFixture struct {
	Name      string  `template:""`
	Optional  *string `template:""`
	Skipped   string  `template:"-"`
	Untagged  string
	Count     int
	Args      []string `template:""`
	RawArgs   []string
	Headers   map[string]string
	Counts    map[string]int
	Inner     templateInner
	InnerPtr  *templateInner
	Items     []templateInner
	ItemPtrs  []*templateInner
	unexposed string `template:""`
}

func TestExpandTemplates(t *testing.T) {
	variables := map[string]string{"X": "x", "Y": "y"}
	ptr := func(s string) *string { return &s }

	tests := []struct {
		name  string
		in    templateFixture
		check func(t *testing.T, got templateFixture)
	}{
		{
			name: "tagged string",
			in:   templateFixture{Name: "${X}/data"},
			check: func(t *testing.T, got templateFixture) {
				assert.Equal(t, "x/data", got.Name)
			},
		},
		{
			name: "pointer string",
			in:   templateFixture{Optional: ptr("${Y}")},
			check: func(t *testing.T, got templateFixture) {
				require.NotNil(t, got.Optional)
				assert.Equal(t, "y", *got.Optional)
			},
		},
		{
			name: "nil values stay nil",
			in:   templateFixture{},
			check: func(t *testing.T, got templateFixture) {
				assert.Nil(t, got.Optional)
				assert.Nil(t, got.Headers)
				assert.Nil(t, got.InnerPtr)
				assert.Nil(t, got.Args)
			},
		},
		{
			name: "dash and untagged strings are skipped",
			in:   templateFixture{Skipped: "${X}", Untagged: "${X}", RawArgs: []string{"${X}"}, Count: 42},
			check: func(t *testing.T, got templateFixture) {
				assert.Equal(t, "${X}", got.Skipped)
				assert.Equal(t, "${X}", got.Untagged)
				assert.Equal(t, []string{"${X}"}, got.RawArgs)
				assert.Equal(t, 42, got.Count)
			},
		},
		{
			name: "tagged string slice",
			in:   templateFixture{Args: []string{"-o", "${X}.txt"}},
			check: func(t *testing.T, got templateFixture) {
				assert.Equal(t, []string{"-o", "x.txt"}, got.Args)
			},
		},
		{
			name: "maps are expanded without tag",
			in:   templateFixture{Headers: map[string]string{"X-Job": "${X}"}, Counts: map[string]int{"k": 1}},
			check: func(t *testing.T, got templateFixture) {
				assert.Equal(t, map[string]string{"X-Job": "x"}, got.Headers)
				assert.Equal(t, map[string]int{"k": 1}, got.Counts)
			},
		},
		{
			name: "nested structs are walked",
			in: templateFixture{
				Inner:    templateInner{Path: "${X}"},
				InnerPtr: &templateInner{Path: "${Y}"},
				Items:    []templateInner{{Path: "${X}"}, {Path: "${Y}"}},
				ItemPtrs: []*templateInner{{Path: "${X}"}, nil, {Path: "${Y}"}},
			},
			check: func(t *testing.T, got templateFixture) {
				assert.Equal(t, "x", got.Inner.Path)
				assert.Equal(t, "y", got.InnerPtr.Path)
				assert.Equal(t, []templateInner{{Path: "x"}, {Path: "y"}}, got.Items)
				require.Len(t, got.ItemPtrs, 3)
				assert.Equal(t, "x", got.ItemPtrs[0].Path)
				assert.Nil(t, got.ItemPtrs[1])
				assert.Equal(t, "y", got.ItemPtrs[2].Path)
			},
		},
		{
			name: "unexported fields are ignored",
			in:   templateFixture{unexposed: "${MISSING}"},
			check: func(t *testing.T, got templateFixture) {
				assert.Equal(t, "${MISSING}", got.unexposed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			require.NoError(t, ExpandTemplates(&in, variables))
			tt.check(t, in)
		})
	}
}

func TestExpandTemplates_PointerStringNotShared(t *testing.T) {
	shared := "${X}"
	a := templateFixture{Optional: &shared}
	require.NoError(t, ExpandTemplates(&a, map[string]string{"X": "x"}))

	assert.Equal(t, "x", *a.Optional)
	assert.Equal(t, "${X}", shared)
}

func TestExpandTemplates_TopLevel(t *testing.T) {
	t.Run("nil pointer", func(t *testing.T) {
		var in *templateFixture
		require.NoError(t, ExpandTemplates(in, nil))
	})

	t.Run("slice of structs", func(t *testing.T) {
		in := []templateInner{{Path: "${X}"}}
		require.NoError(t, ExpandTemplates(&in, map[string]string{"X": "x"}))
		assert.Equal(t, "x", in[0].Path)
	})

	t.Run("unsupported type", func(t *testing.T) {
		in := "${X}"
		err := ExpandTemplates(&in, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expects *struct")
	})
}

func TestExpandTemplates_MissingVariable(t *testing.T) {
	in := templateFixture{Items: []templateInner{{Path: "ok"}, {Path: "${MISSING}"}}}
	err := ExpandTemplates(&in, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Items: [1]: Path")
	assert.Contains(t, err.Error(), "MISSING")
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		variables  map[string]string
		want       string
		wantErr    bool
		errContain string
	}{
		{
			name:      "no variables",
			value:     "plain-text",
			variables: map[string]string{},
			want:      "plain-text",
		},
		{
			name:      "single variable",
			value:     "${JOB_NAME}",
			variables: map[string]string{"JOB_NAME": "my-job"},
			want:      "my-job",
		},
		{
			name:  "multiple variables",
			value: "${JOB_NAME}-${JOB_DATE_ISO8601}",
			variables: map[string]string{
				"JOB_NAME":         "nightly-bundle",
				"JOB_DATE_ISO8601": "20260124T103000Z",
			},
			want: "nightly-bundle-20260124T103000Z",
		},
		{
			name:  "env var from allowlist",
			value: "${API_TOKEN}",
			variables: map[string]string{
				"API_TOKEN": "secret123",
			},
			want: "secret123",
		},
		{
			name:       "disallowed env var",
			value:      "${SECRET_KEY}",
			variables:  map[string]string{},
			wantErr:    true,
			errContain: `environment variable "SECRET_KEY" is not in the allowed list`,
		},
		{
			name:       "missing env var",
			value:      "${MISSING_VAR}",
			variables:  map[string]string{"OTHER": "value"},
			wantErr:    true,
			errContain: `environment variable "MISSING_VAR" is not in the allowed list`,
		},
		{
			name:      "multiple errors accumulated",
			value:     "${NOT_ALLOWED}${ALSO_NOT_ALLOWED}",
			variables: map[string]string{},
			wantErr:   true,
		},
		{
			name:      "dollar sign without braces uses short form",
			value:     "$PLAIN",
			variables: map[string]string{"PLAIN": "value"},
			want:      "value",
		},
		{
			name:  "complex path pattern",
			value: "${JOB_NAME}/${JOB_DATE_ISO8601}/${AWS_ACCOUNT_ID}/app.zip",
			variables: map[string]string{
				"JOB_NAME":         "pkgtool",
				"JOB_DATE_ISO8601": "20260124T103000Z",
				"AWS_ACCOUNT_ID":   "123456789",
			},
			want: "pkgtool/20260124T103000Z/123456789/app.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.value, tt.variables)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContain != "" {
					assert.Contains(t, err.Error(), tt.errContain)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandMap(t *testing.T) {
	tests := []struct {
		name       string
		values     map[string]string
		variables  map[string]string
		want       map[string]string
		wantErr    bool
		errContain string
	}{
		{
			name:      "nil map",
			values:    nil,
			variables: map[string]string{},
			want:      nil,
		},
		{
			name:      "empty map",
			values:    map[string]string{},
			variables: map[string]string{},
			want:      map[string]string{},
		},
		{
			name: "map with variables",
			values: map[string]string{
				"X-Job-Name": "${JOB_NAME}",
				"X-Date":     "${JOB_DATE_ISO8601}",
			},
			variables: map[string]string{
				"JOB_NAME":         "my-job",
				"JOB_DATE_ISO8601": "20260124T103000Z",
			},
			want: map[string]string{
				"X-Job-Name": "my-job",
				"X-Date":     "20260124T103000Z",
			},
		},
		{
			name: "map with env var",
			values: map[string]string{
				"Authorization": "Bearer ${TOKEN}",
			},
			variables: map[string]string{
				"TOKEN": "abc123",
			},
			want: map[string]string{
				"Authorization": "Bearer abc123",
			},
		},
		{
			name: "map with error in one value",
			values: map[string]string{
				"Good": "plain",
				"Bad":  "${NOT_ALLOWED}",
			},
			variables:  map[string]string{},
			wantErr:    true,
			errContain: "is not in the allowed list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandMap(tt.values, tt.variables)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContain != "" {
					assert.Contains(t, err.Error(), tt.errContain)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
