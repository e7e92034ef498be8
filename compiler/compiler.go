// Package compiler ties the passes together: semantic resolution of a
// surface statement list into a Query, then optimization.  Parsing and
// SQL generation live outside this module; the parser hands statements in
// (directly or as JSON via ast.UnmarshalStmts) and the backend consumes
// the resolved Query.
package compiler

import (
	"time"

	"github.com/relq-lang/relq/compiler/ast"
	"github.com/relq-lang/relq/compiler/optimizer"
	"github.com/relq-lang/relq/compiler/semantic"
	"github.com/relq-lang/relq/compiler/sfmt"
	"github.com/relq-lang/relq/compiler/srcfiles"
	"go.uber.org/zap"
)

type Option func(*config)

type config struct {
	logger *zap.Logger
}

// WithLogger enables per-pass tracing.  The default is no logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Compile resolves and optimizes stmts.  file may be nil; when given,
// compile errors carry line/column positions into file's text.
func Compile(stmts []ast.Stmt, file *srcfiles.File, opts ...Option) (*ast.Query, error) {
	c := &config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	start := time.Now()
	q, err := semantic.Resolve(stmts, file)
	if err != nil {
		return nil, err
	}
	c.logPass("semantic", q, start)
	start = time.Now()
	if q, err = optimizer.Optimize(q); err != nil {
		return nil, err
	}
	c.logPass("optimizer", q, start)
	return q, nil
}

func (c *config) logPass(name string, q *ast.Query, start time.Time) {
	c.logger.Debug("pass complete",
		zap.String("pass", name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("main_transforms", len(q.MainPipeline)),
		zap.Int("tables", len(q.Tables)),
		zap.String("query", sfmt.Query(*q)),
	)
}
