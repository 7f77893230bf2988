package pipeline

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/meister/internal/core/domain"
)

// inputHash hashes everything that influences the outputs of kind: the entries,
// the source tree, the files the compiler read, the tool configurations and the
// flags. It returns "" when the inputs cannot be hashed, which disables the cache
// for the run.
func (p *Pipeline) inputHash(
	cfg domain.Config,
	kind domain.AssetKind,
	entries []domain.Entry,
	compiled []string,
	cacheKey string,
) string {
	flags := cfg.Flags()
	settings := map[string]string{
		"kind":         string(kind),
		"dir":          cfg.Dir(kind),
		"bundler":      cfg.Bundler().JSON(),
		"postcss":      cfg.PostProcessor().JSON(),
		"minifier":     cfg.Minifier().JSON(),
		"preprocessor": strings.Join(cfg.Preprocessor().Command, " "),
		"minify":       strconv.FormatBool(flags.Minify),
		"sourcemaps":   strconv.FormatBool(flags.Sourcemaps),
		"manifest":     strconv.FormatBool(flags.Manifest),
		"hash":         string(cfg.HashMode()),
		"sourcemap":    string(cfg.SourcemapStyle()),
	}

	pre := cfg.Preprocessor()
	inputs := make([]string, 0, len(entries)+len(compiled)+1)
	for _, e := range entries {
		settings["entry:"+e.Name.String()] = e.Source
		inputs = append(inputs, e.Source)
		if kind == domain.KindStyle && pre.Applies(e.Source) {
			// Partials pulled in by the preprocessor are invisible to the compiler.
			inputs = append(inputs, partialsGlob(e.Source, pre.Extensions))
		}
	}
	inputs = append(inputs, compiled...)
	if src := cfg.SourcePath(); src != "" {
		if _, err := os.Stat(src); err == nil {
			inputs = append(inputs, src)
		}
	}

	resolved, err := p.resolver.ResolveInputs(inputs, "")
	if err != nil {
		p.logger.Debug("input resolution failed, cache disabled", "task", cacheKey, "error", err.Error())
		return ""
	}
	hash, err := p.hasher.ComputeInputHash(cacheKey, settings, resolved)
	if err != nil {
		p.logger.Debug("input hashing failed, cache disabled", "task", cacheKey, "error", err.Error())
		return ""
	}
	return hash
}

// partialsGlob matches every preprocessor source below the directory of entry.
func partialsGlob(entry string, exts []string) string {
	return filepath.Join(filepath.Dir(entry), "**", "*{"+strings.Join(exts, ",")+"}")
}

// restore returns the cached result when the recorded inputs still hash to the
// stored input hash.
func (p *Pipeline) restore(cfg domain.Config, kind domain.AssetKind, entries []domain.Entry, cacheKey string) (Result, bool) {
	info, err := p.store.Get(cacheKey)
	if err != nil {
		p.logger.Warn("artifact cache unreadable", "task", cacheKey, "error", err.Error())
	}
	hit := err == nil && info != nil && info.InputHash != ""
	if hit {
		hash := p.inputHash(cfg, kind, entries, info.Inputs, cacheKey)
		hit = hash != "" && hash == info.InputHash
	}
	p.metrics.IncCacheResult(cacheKey, hit)
	if !hit {
		return Result{}, false
	}
	return Result{Artifacts: info.Artifacts, BuildHash: info.BuildHash, Cached: true}, true
}

// save stores a successful result with the hash of its inputs. Failures only
// cost a cache miss.
func (p *Pipeline) save(cfg domain.Config, kind domain.AssetKind, entries []domain.Entry, cacheKey string, compiled []string, res Result) {
	inputHash := p.inputHash(cfg, kind, entries, compiled, cacheKey)
	if inputHash == "" {
		return
	}
	err := p.store.Put(domain.BuildInfo{
		TaskName:  cacheKey,
		InputHash: inputHash,
		BuildHash: res.BuildHash,
		Inputs:    compiled,
		Artifacts: res.Artifacts,
		Timestamp: time.Now(),
	})
	if err != nil {
		p.logger.Warn("failed to update artifact cache", "task", cacheKey, "error", err.Error())
	}
}
