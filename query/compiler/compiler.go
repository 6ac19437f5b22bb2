// Package compiler turns a classified query graph into streaming-SQL text.
package compiler

import (
	"github.com/streamq-io/streamq/diagnostics"
	"github.com/streamq-io/streamq/query/classify"
	"github.com/streamq-io/streamq/query/graph"
	"github.com/streamq-io/streamq/query/sqlgen"
	"github.com/streamq-io/streamq/schema"
)

// Compiled is the sole boundary artifact: query text plus the push/pull
// flag. It is rebuilt on every compile and never cached; the builders are
// stateless and cheap, and caching would risk staleness.
type Compiled struct {
	Text   string
	IsPull bool
	Shape  classify.Shape
}

// Compile classifies the graph and assembles the clause builders' output
// into query text. The recorder receives one step per stage; pass nil to
// skip diagnostics.
func Compile(root graph.Node, meta *schema.EntityMetadata, isPullQuery bool, rec *diagnostics.Recorder) (*Compiled, error) {
	if rec == nil {
		rec = diagnostics.NewRecorder()
	}
	if root == nil {
		return nil, &CompileError{Stage: "classify", Err: ErrNilGraph}
	}
	if meta == nil {
		return nil, &CompileError{Stage: "classify", Err: ErrInvalidMetadata}
	}

	rec.Meta("entity", meta.Entity)
	rec.Meta("stream", meta.Stream)
	if isPullQuery {
		rec.Meta("mode", "pull")
	} else {
		rec.Meta("mode", "push")
	}

	c, err := classify.Analyze(root)
	if err != nil {
		rec.Stepf("classify", "failed: %v", err)
		return nil, &CompileError{Stage: "classify", Err: err}
	}
	rec.Stepf("classify", "shape=%s operators=%d", c.Shape, len(c.Ops))

	text, err := sqlgen.BuildQuery(c, meta.Stream, isPullQuery)
	if err != nil {
		rec.Stepf("assemble", "failed: %v", err)
		return nil, &CompileError{Stage: "assemble", Err: err}
	}
	rec.Step("assemble", text)
	rec.Finish()

	return &Compiled{Text: text, IsPull: isPullQuery, Shape: c.Shape}, nil
}
