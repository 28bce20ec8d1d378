package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/consrope/internal/plugin/lua"
	"github.com/dshills/consrope/internal/runtime"
)

// Language names a script language.
type Language string

// Supported script languages.
const (
	LanguageLua   Language = "lua"
	LanguageRisor Language = "risor"
)

var extLanguages = map[string]Language{
	".lua":   LanguageLua,
	".risor": LanguageRisor,
	".rsr":   LanguageRisor,
}

// ParseLanguage parses a --lang value.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(s)) {
	case LanguageLua:
		return LanguageLua, nil
	case LanguageRisor:
		return LanguageRisor, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
	}
}

// LanguageForFile detects the language from the file extension.
func LanguageForFile(path string) (Language, error) {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownLanguage, path)
}

// EvalFile runs a script file and returns its formatted result.
// An empty lang detects the language from the extension.
func (app *Application) EvalFile(ctx context.Context, path string, lang Language) (string, error) {
	if lang == "" {
		detected, err := LanguageForFile(path)
		if err != nil {
			return "", NewOperationError("eval", path, err)
		}
		lang = detected
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return "", NewOperationError("eval", path, err)
	}
	out, err := app.Eval(ctx, lang, string(src))
	if err != nil {
		return "", NewOperationError("eval", path, err)
	}
	return out, nil
}

// Eval runs source in the given language and returns its formatted result.
func (app *Application) Eval(ctx context.Context, lang Language, src string) (string, error) {
	switch lang {
	case LanguageLua:
		return app.evalLua(ctx, src)
	case LanguageRisor:
		return app.evalRisor(ctx, src)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
}

func (app *Application) evalLua(ctx context.Context, src string) (string, error) {
	state, err := app.NewLuaState()
	if err != nil {
		return "", err
	}
	defer state.Close()

	values, err := state.Eval(ctx, src)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(values))
	for i, v := range values {
		s, err := lua.Format(v)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, "\t"), nil
}

func (app *Application) evalRisor(ctx context.Context, src string) (string, error) {
	if app.isClosed() {
		return "", ErrClosed
	}
	result, err := app.NewRuntime().RunSource(ctx, src, nil)
	if err != nil {
		return "", err
	}
	return runtime.Format(result)
}
