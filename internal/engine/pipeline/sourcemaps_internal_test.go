package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/meister/internal/core/domain"
)

func TestExtractSourcemaps(t *testing.T) {
	const payload = "eyJ2ZXJzaW9uIjozfQ=="

	tests := []struct {
		name     string
		artifact domain.Artifact
		want     string
	}{
		{
			name: "script",
			artifact: domain.Artifact{
				Kind:     domain.KindScript,
				Path:     "js/main.js",
				Contents: []byte("a();\n//# sourceMappingURL=data:application/json;base64," + payload + "\n"),
			},
			want: "a();\n//# sourceMappingURL=main.js.map\n",
		},
		{
			name: "style",
			artifact: domain.Artifact{
				Kind:     domain.KindStyle,
				Path:     "css/main.css",
				Contents: []byte("a{}\n/*# sourceMappingURL=data:application/json;charset=utf-8;base64," + payload + " */\n"),
			},
			want: "a{}\n/*# sourceMappingURL=main.css.map */\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.artifact.Entry = domain.NewInternedString("main")

			out, err := extractSourcemaps([]domain.Artifact{tt.artifact})
			require.NoError(t, err)
			require.Len(t, out, 2)

			assert.Equal(t, tt.want, string(out[0].Contents))
			assert.Equal(t, tt.artifact.Path+".map", out[1].Path)
			assert.True(t, out[1].IsMap)
			assert.Equal(t, "main", out[1].Entry.String())
			assert.JSONEq(t, `{"version":3}`, string(out[1].Contents))
		})
	}
}

func TestExtractSourcemaps_PassThrough(t *testing.T) {
	in := []domain.Artifact{
		{Path: "js/chunk.js", Contents: []byte("b();")},
		{Path: "js/old.js.map", Contents: []byte("{}"), IsMap: true},
	}

	out, err := extractSourcemaps(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestExtractSourcemaps_InvalidPayload(t *testing.T) {
	_, err := extractSourcemaps([]domain.Artifact{{
		Path:     "js/main.js",
		Contents: []byte("//# sourceMappingURL=data:application/json;base64,abc=d"),
	}})
	require.ErrorContains(t, err, domain.ErrSourcemapExtractFailed.Error())
}

func TestRetargetMapReference(t *testing.T) {
	assert.Equal(t,
		"x\n//# sourceMappingURL=main.1234.js.map\n",
		string(retargetMapReference([]byte("x\n//# sourceMappingURL=main.js.map\n"), "main.1234.js")),
	)
	assert.Equal(t,
		"a{}\n/*# sourceMappingURL=main.1234.css.map */",
		string(retargetMapReference([]byte("a{}\n/*# sourceMappingURL=main.css.map */"), "main.1234.css")),
	)
	assert.Equal(t, "plain", string(retargetMapReference([]byte("plain"), "main.js")))
}
