// Package parser parses script artifacts with tree-sitter so embedded
// stylesheet strings can be located structurally.
package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/lesstheme/pkg/util"
)

// ParserManager owns one lazily created parser pool per language.
//
// Memory Management:
//   - ParserManager must be closed via Close()
//   - Callers own returned trees and must call tree.Close()
//
// Thread Safety: Parse may be called from any number of goroutines. Pool
// size follows util.GetOptimalPoolSize so artifact workers never starve.
type ParserManager struct {
	pools    map[Language]*parserPool
	mutex    sync.RWMutex
	poolSize int
	logger   *slog.Logger

	parses int
}

// NewParserManager creates a manager. A nil logger uses slog.Default().
func NewParserManager(logger *slog.Logger) *ParserManager {
	return NewParserManagerWithPoolSize(0, logger)
}

// NewParserManagerWithPoolSize creates a manager whose pools hold at most
// poolSize parsers. Zero picks the CPU-based default.
func NewParserManagerWithPoolSize(poolSize int, logger *slog.Logger) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParserManager{
		pools:    make(map[Language]*parserPool),
		poolSize: util.GetOptimalPoolSizeWithOverride(poolSize),
		logger:   logger,
	}
}

// Parse parses source with the grammar of lang. Partial trees are returned
// when the source has syntax errors; minified bundles often do.
//
// The returned tree MUST be closed by the caller.
func (pm *ParserManager) Parse(source []byte, lang Language) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}

	pm.mutex.Lock()
	pm.parses++
	pm.mutex.Unlock()

	pool, err := pm.getOrCreatePool(lang)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", lang, err)
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}
	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("parser returned nil tree")
	}
	if tree.RootNode().HasError() {
		pm.logger.Debug("parse tree contains errors", "language", lang.String())
	}
	return tree, nil
}

// ParseArtifact parses an artifact, picking the grammar from its name.
func (pm *ParserManager) ParseArtifact(source []byte, name string) (*ts.Tree, error) {
	lang := DetectLanguage(name)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported artifact: %s", name)
	}
	return pm.Parse(source, lang)
}

// Close releases every pooled parser.
func (pm *ParserManager) Close() error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	closed := 0
	for _, pool := range pm.pools {
		closed += pool.close()
	}
	pm.pools = make(map[Language]*parserPool)

	pm.logger.Debug("closed ParserManager", "parses", pm.parses, "parsers_closed", closed)
	return nil
}

func (pm *ParserManager) getOrCreatePool(lang Language) (*parserPool, error) {
	pm.mutex.RLock()
	pool, ok := pm.pools[lang]
	pm.mutex.RUnlock()
	if ok {
		return pool, nil
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if pool, ok = pm.pools[lang]; ok {
		return pool, nil
	}

	langPtr, err := pm.GetLanguagePointer(lang)
	if err != nil {
		return nil, err
	}
	pool = newParserPool(lang, langPtr, pm.poolSize, pm.logger)
	pm.pools[lang] = pool
	return pool, nil
}

// GetLanguagePointer returns the grammar of lang. QueryManager compiles
// queries against it.
func (pm *ParserManager) GetLanguagePointer(lang Language) (unsafe.Pointer, error) {
	switch lang {
	case LanguageJavaScript:
		return ts_javascript.Language(), nil
	case LanguageTypeScript:
		return ts_typescript.LanguageTypescript(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang.String())
	}
}

// GetStats returns parser usage counters.
func (pm *ParserManager) GetStats() ParserStats {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	created := 0
	for _, pool := range pm.pools {
		created += pool.createdCount()
	}
	return ParserStats{ParsersCreated: created, ParsesCalled: pm.parses}
}

// ParserStats contains parser usage statistics.
type ParserStats struct {
	ParsersCreated int
	ParsesCalled   int
}
