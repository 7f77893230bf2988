package esbuild

import (
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/zerr"
)

var (
	formats = map[string]api.Format{
		"esm":  api.FormatESModule,
		"cjs":  api.FormatCommonJS,
		"iife": api.FormatIIFE,
	}

	platforms = map[string]api.Platform{
		"browser": api.PlatformBrowser,
		"node":    api.PlatformNode,
		"neutral": api.PlatformNeutral,
	}

	jsxModes = map[string]api.JSX{
		"transform": api.JSXTransform,
		"preserve":  api.JSXPreserve,
		"automatic": api.JSXAutomatic,
	}

	loaders = map[string]api.Loader{
		"js":      api.LoaderJS,
		"jsx":     api.LoaderJSX,
		"ts":      api.LoaderTS,
		"tsx":     api.LoaderTSX,
		"json":    api.LoaderJSON,
		"css":     api.LoaderCSS,
		"text":    api.LoaderText,
		"base64":  api.LoaderBase64,
		"dataurl": api.LoaderDataURL,
		"file":    api.LoaderFile,
		"copy":    api.LoaderCopy,
		"binary":  api.LoaderBinary,
		"empty":   api.LoaderEmpty,
	}

	languageTargets = map[string]api.Target{
		"es2015": api.ES2015,
		"es2016": api.ES2016,
		"es2017": api.ES2017,
		"es2018": api.ES2018,
		"es2019": api.ES2019,
		"es2020": api.ES2020,
		"es2021": api.ES2021,
		"es2022": api.ES2022,
		"esnext": api.ESNext,
	}

	engines = map[string]api.EngineName{
		"chrome":  api.EngineChrome,
		"edge":    api.EngineEdge,
		"firefox": api.EngineFirefox,
		"ios":     api.EngineIOS,
		"node":    api.EngineNode,
		"opera":   api.EngineOpera,
		"safari":  api.EngineSafari,
	}

	enginePattern = regexp.MustCompile(`^([a-z]+)(\d[\d.]*)$`)
)

// assetLoaders route url() and import references to binary assets through the
// file loader, so they are emitted next to the output.
var assetLoaders = map[string]api.Loader{
	".png":   api.LoaderFile,
	".jpg":   api.LoaderFile,
	".jpeg":  api.LoaderFile,
	".gif":   api.LoaderFile,
	".svg":   api.LoaderFile,
	".webp":  api.LoaderFile,
	".avif":  api.LoaderFile,
	".woff":  api.LoaderFile,
	".woff2": api.LoaderFile,
	".ttf":   api.LoaderFile,
	".eot":   api.LoaderFile,
}

func invalidOption(key, value string) error {
	return zerr.With(zerr.With(domain.ErrInvalidToolConfig, "option", key), "value", value)
}

// applyCommon reads the options shared by scripts and styles: target, loader,
// external and the asset naming templates.
func applyCommon(opts *api.BuildOptions, cfg domain.ToolConfig) error {
	for _, t := range cfg.StringSlice("target") {
		t = strings.ToLower(strings.TrimSpace(t))
		if target, ok := languageTargets[t]; ok {
			opts.Target = target
			continue
		}
		m := enginePattern.FindStringSubmatch(t)
		if m == nil {
			return invalidOption("target", t)
		}
		name, ok := engines[m[1]]
		if !ok {
			return invalidOption("target", t)
		}
		opts.Engines = append(opts.Engines, api.Engine{Name: name, Version: m[2]})
	}

	opts.Loader = make(map[string]api.Loader, len(assetLoaders))
	for ext, l := range assetLoaders {
		opts.Loader[ext] = l
	}
	for ext, name := range cfg.StringMap("loader") {
		l, ok := loaders[name]
		if !ok {
			return invalidOption("loader", name)
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		opts.Loader[ext] = l
	}

	opts.External = cfg.StringSlice("external")
	if v := cfg.Get("assetNames").String(); v != "" {
		opts.AssetNames = v
	}
	if v := cfg.Get("publicPath").String(); v != "" {
		opts.PublicPath = v
	}
	return nil
}

// applyScript reads the bundler options.
func applyScript(opts *api.BuildOptions, cfg domain.ToolConfig) error {
	if err := applyCommon(opts, cfg); err != nil {
		return err
	}

	opts.Format = api.FormatESModule
	if v := cfg.Get("format").String(); v != "" {
		f, ok := formats[v]
		if !ok {
			return invalidOption("format", v)
		}
		opts.Format = f
	}

	opts.Platform = api.PlatformBrowser
	if v := cfg.Get("platform").String(); v != "" {
		p, ok := platforms[v]
		if !ok {
			return invalidOption("platform", v)
		}
		opts.Platform = p
	}

	if v := cfg.Get("jsx").String(); v != "" {
		j, ok := jsxModes[v]
		if !ok {
			return invalidOption("jsx", v)
		}
		opts.JSX = j
	}
	opts.JSXImportSource = cfg.Get("jsxImportSource").String()

	opts.Splitting = cfg.Get("splitting").Bool()
	if opts.Splitting && opts.Format != api.FormatESModule {
		return invalidOption("splitting", "requires format esm")
	}

	opts.Define = cfg.StringMap("define")
	if mode := cfg.Get("mode").String(); mode != "" {
		if opts.Define == nil {
			opts.Define = make(map[string]string, 1)
		}
		if _, ok := opts.Define["process.env.NODE_ENV"]; !ok {
			opts.Define["process.env.NODE_ENV"] = `"` + mode + `"`
		}
	}

	opts.ChunkNames = "[name].[hash].module"
	if v := cfg.Get("chunkNames").String(); v != "" {
		opts.ChunkNames = v
	}
	return nil
}

// applyStyle reads the post-processor options.
func applyStyle(opts *api.BuildOptions, cfg domain.ToolConfig) error {
	return applyCommon(opts, cfg)
}

// transformLoader returns the loader used to minify an output file, by extension.
func transformLoader(p string) (api.Loader, bool) {
	switch {
	case strings.HasSuffix(p, ".css"):
		return api.LoaderCSS, true
	case strings.HasSuffix(p, ".js"), strings.HasSuffix(p, ".mjs"):
		return api.LoaderJS, true
	default:
		return api.LoaderNone, false
	}
}
