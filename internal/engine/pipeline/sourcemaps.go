package pipeline

import (
	"encoding/base64"
	"regexp"

	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/zerr"
)

// inlineMap matches the trailing inline sourcemap comment of a script ("//# ...")
// or a stylesheet ("/*# ... */").
var inlineMap = regexp.MustCompile(
	`(//|/\*)# sourceMappingURL=data:application/json;(?:charset=utf-8;)?base64,([A-Za-z0-9+/=]+)(\s*\*/)?`,
)

// mapReference matches an external sourcemap reference.
var mapReference = regexp.MustCompile(`((?://|/\*)# sourceMappingURL=)([^\s*]+\.map)`)

// extractSourcemaps moves inline sourcemaps into "<file>.map" artifacts and points
// the output at them.
func extractSourcemaps(artifacts []domain.Artifact) ([]domain.Artifact, error) {
	out := make([]domain.Artifact, 0, len(artifacts)*2)
	for _, a := range artifacts {
		if a.IsMap {
			out = append(out, a)
			continue
		}
		loc := inlineMap.FindSubmatchIndex(a.Contents)
		if loc == nil {
			out = append(out, a)
			continue
		}

		encoded := a.Contents[loc[4]:loc[5]]
		data := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
		n, err := base64.StdEncoding.Decode(data, encoded)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrSourcemapExtractFailed.Error()), "path", a.Path)
		}

		reference := []byte("# sourceMappingURL=" + a.Base() + ".map")
		contents := make([]byte, 0, len(a.Contents))
		contents = append(contents, a.Contents[:loc[2]]...)
		contents = append(contents, a.Contents[loc[2]:loc[3]]...)
		contents = append(contents, reference...)
		if loc[6] >= 0 {
			contents = append(contents, a.Contents[loc[6]:loc[7]]...)
		}
		contents = append(contents, a.Contents[loc[1]:]...)

		sourcemap := domain.Artifact{
			Entry:    a.Entry,
			Kind:     a.Kind,
			Path:     a.MapPath(),
			Contents: data[:n],
			IsMap:    true,
		}
		a.Contents = contents
		out = append(out, a, sourcemap)
	}
	return out, nil
}

// retargetMapReference points the sourcemap comment of contents at base.
func retargetMapReference(contents []byte, base string) []byte {
	return mapReference.ReplaceAllFunc(contents, func(match []byte) []byte {
		prefix := mapReference.FindSubmatch(match)[1]
		return append(append([]byte(nil), prefix...), base+".map"...)
	})
}
