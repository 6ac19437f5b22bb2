package graph

// Expr is one node of an expression tree: a field reference, literal,
// comparison, boolean combination, tuple, or aggregate call.
type Expr interface {
	exprNode()
}

// BinaryOp identifies a binary operator in an expression.
type BinaryOp string

const (
	OpEq  BinaryOp = "="
	OpNeq BinaryOp = "!="
	OpGt  BinaryOp = ">"
	OpGte BinaryOp = ">="
	OpLt  BinaryOp = "<"
	OpLte BinaryOp = "<="
	OpAnd BinaryOp = "AND"
	OpOr  BinaryOp = "OR"
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
)

// FieldRef references a field of the queried entity. Qualifier carries the
// stream alias inside join predicates and is empty otherwise.
type FieldRef struct {
	Name      string
	Qualifier string
}

func (FieldRef) exprNode() {}

// Value unwraps a nullable field access. The rendered text is identical to
// the plain field reference; boolean-literal normalization applies the same
// way to both.
func (f FieldRef) Value() FieldRef { return f }

// Literal is a constant value: string, bool, integer, float, or time.Time.
type Literal struct {
	Val any
}

func (Literal) exprNode() {}

// BinaryExpr combines two expressions with a binary operator.
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (BinaryExpr) exprNode() {}

// NotExpr negates a predicate. Over a bare boolean field it renders as an
// equality with false rather than a NOT prefix.
type NotExpr struct {
	Operand Expr
}

func (NotExpr) exprNode() {}

// TupleExpr is a multi-field constructor. Equality between two tuples of the
// same arity expands to a field-by-field conjunction in constructor order.
type TupleExpr struct {
	Items []Expr
}

func (TupleExpr) exprNode() {}

// AggregateExpr is an aggregate function call. Arg is nil for COUNT(*).
type AggregateExpr struct {
	Func string
	Arg  Expr
}

func (AggregateExpr) exprNode() {}

// AliasExpr names a projected expression.
type AliasExpr struct {
	Expr Expr
	As   string
}

func (AliasExpr) exprNode() {}

// Col references a field by name.
func Col(name string) FieldRef { return FieldRef{Name: name} }

// Qual references a field through a stream alias, for join predicates.
func Qual(alias, name string) FieldRef { return FieldRef{Name: name, Qualifier: alias} }

// Lit wraps a constant value.
func Lit(v any) Literal { return Literal{Val: v} }

// Eq builds an equality comparison.
func Eq(left, right Expr) BinaryExpr { return BinaryExpr{Op: OpEq, Left: left, Right: right} }

// Neq builds an inequality comparison.
func Neq(left, right Expr) BinaryExpr { return BinaryExpr{Op: OpNeq, Left: left, Right: right} }

// Gt builds a greater-than comparison.
func Gt(left, right Expr) BinaryExpr { return BinaryExpr{Op: OpGt, Left: left, Right: right} }

// Gte builds a greater-or-equal comparison.
func Gte(left, right Expr) BinaryExpr { return BinaryExpr{Op: OpGte, Left: left, Right: right} }

// Lt builds a less-than comparison.
func Lt(left, right Expr) BinaryExpr { return BinaryExpr{Op: OpLt, Left: left, Right: right} }

// Lte builds a less-or-equal comparison.
func Lte(left, right Expr) BinaryExpr { return BinaryExpr{Op: OpLte, Left: left, Right: right} }

// And conjoins two predicates.
func And(left, right Expr) BinaryExpr { return BinaryExpr{Op: OpAnd, Left: left, Right: right} }

// Or disjoins two predicates.
func Or(left, right Expr) BinaryExpr { return BinaryExpr{Op: OpOr, Left: left, Right: right} }

// Not negates a predicate.
func Not(operand Expr) NotExpr { return NotExpr{Operand: operand} }

// Tuple builds a composite-key constructor.
func Tuple(items ...Expr) TupleExpr { return TupleExpr{Items: items} }

// Add builds an addition.
func Add(left, right Expr) BinaryExpr { return BinaryExpr{Op: OpAdd, Left: left, Right: right} }

// Sub builds a subtraction.
func Sub(left, right Expr) BinaryExpr { return BinaryExpr{Op: OpSub, Left: left, Right: right} }

// Mul builds a multiplication.
func Mul(left, right Expr) BinaryExpr { return BinaryExpr{Op: OpMul, Left: left, Right: right} }

// Div builds a division.
func Div(left, right Expr) BinaryExpr { return BinaryExpr{Op: OpDiv, Left: left, Right: right} }

// As names a projected expression.
func As(e Expr, alias string) AliasExpr { return AliasExpr{Expr: e, As: alias} }

// Sum builds a SUM aggregate.
func Sum(arg Expr) AggregateExpr { return AggregateExpr{Func: "Sum", Arg: arg} }

// Count builds a COUNT(*) aggregate.
func Count() AggregateExpr { return AggregateExpr{Func: "Count"} }

// CountOf builds a COUNT(field) aggregate.
func CountOf(arg Expr) AggregateExpr { return AggregateExpr{Func: "Count", Arg: arg} }

// Min builds a MIN aggregate.
func Min(arg Expr) AggregateExpr { return AggregateExpr{Func: "Min", Arg: arg} }

// Max builds a MAX aggregate.
func Max(arg Expr) AggregateExpr { return AggregateExpr{Func: "Max", Arg: arg} }

// Average builds an AVG aggregate.
func Average(arg Expr) AggregateExpr { return AggregateExpr{Func: "Average", Arg: arg} }

// LatestByOffset builds a LATEST_BY_OFFSET aggregate.
func LatestByOffset(arg Expr) AggregateExpr { return AggregateExpr{Func: "LatestByOffset", Arg: arg} }

// EarliestByOffset builds an EARLIEST_BY_OFFSET aggregate.
func EarliestByOffset(arg Expr) AggregateExpr {
	return AggregateExpr{Func: "EarliestByOffset", Arg: arg}
}

// CollectList builds a COLLECT_LIST aggregate.
func CollectList(arg Expr) AggregateExpr { return AggregateExpr{Func: "CollectList", Arg: arg} }

// CollectSet builds a COLLECT_SET aggregate.
func CollectSet(arg Expr) AggregateExpr { return AggregateExpr{Func: "CollectSet", Arg: arg} }
