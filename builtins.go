package mumps

import (
	"context"
	"strings"
)

// evalBuiltin dispatches one of the eight builtin functions matched by
// prefix during parsing (order, length, extract, select, find, random,
// ascii, char).
func (in *Interpreter) evalBuiltin(ce *CallExpr, ctx context.Context) Value {
	in.cfg.Logger.Trace(CatBuilt, "(%d:%d) calling $%s", ce.Pos.Line, ce.Pos.Column, ce.Name)
	switch ce.Name {
	case "order":
		return in.builtinOrder(ce, ctx)
	case "length":
		return NumberValue(len(toStr(in.evalExpr(ce.Args[0].Value, ctx))))
	case "extract":
		return in.builtinExtract(ce, ctx)
	case "select":
		return in.builtinSelect(ce, ctx)
	case "find":
		return in.builtinFind(ce, ctx)
	case "random":
		return in.builtinRandom(ce, ctx)
	case "ascii":
		s := toStr(in.evalExpr(ce.Args[0].Value, ctx))
		if s == "" {
			return NumberValue(-1)
		}
		return NumberValue(float64(s[0]))
	case "char":
		n := int(toNum(in.evalExpr(ce.Args[0].Value, ctx)))
		return StringValue(string([]byte{byte(n)}))
	default:
		in.runtimeError(ce.Pos, "unimplemented builtin %q", ce.Name)
		return StringValue("")
	}
}

// builtinOrder implements $O(var[, dir]): the next (or, dir=-1,
// previous) child key of var's parent array after var's own final
// subscript key. The parser flags a non-subscripted target as a parse
// diagnostic; this still guards against reaching that shape at runtime,
// since a program with diagnostics still executes to completion.
func (in *Interpreter) builtinOrder(ce *CallExpr, ctx context.Context) Value {
	if len(ce.Args) == 0 {
		return StringValue("")
	}
	target := ce.Args[0].Value
	if pe, isParen := target.(*ParenExpr); isParen {
		target = pe.Inner
	}
	ve, ok := target.(*VarExpr)
	if !ok || len(ve.Ref.Subscripts) == 0 {
		return StringValue("")
	}

	dir := 1
	if len(ce.Args) >= 2 {
		d := toNum(in.evalExpr(ce.Args[1].Value, ctx))
		if d != 1 && d != -1 {
			in.runtimeError(ce.Pos, "invalid direction for $order")
			return StringValue("")
		}
		dir = int(d)
	}

	base := in.readBaseRaw(ve.Ref.Name)
	parent, found := in.navigateExisting(base, ve.Ref.Subscripts[:len(ve.Ref.Subscripts)-1], ctx)
	if !found {
		return StringValue("")
	}
	lastKey := toStr(in.evalExpr(ve.Ref.Subscripts[len(ve.Ref.Subscripts)-1], ctx))

	var next string
	var ok2 bool
	if dir == 1 {
		next, ok2 = parent.children.Next(lastKey)
	} else {
		next, ok2 = parent.children.Prev(lastKey)
	}
	if !ok2 {
		return StringValue("")
	}
	return StringValue(next)
}

// builtinExtract implements $E(s), $E(s,n), and $E(s,a,b).
func (in *Interpreter) builtinExtract(ce *CallExpr, ctx context.Context) Value {
	s := toStr(in.evalExpr(ce.Args[0].Value, ctx))
	switch len(ce.Args) {
	case 1:
		if s == "" {
			return StringValue("")
		}
		return StringValue(s[:1])
	case 2:
		idx := int(toNum(in.evalExpr(ce.Args[1].Value, ctx)))
		if idx < 1 || idx > len(s) {
			return StringValue("")
		}
		return StringValue(s[idx-1 : idx])
	default:
		a := int(toNum(in.evalExpr(ce.Args[1].Value, ctx)))
		b := int(toNum(in.evalExpr(ce.Args[2].Value, ctx)))
		if a < 1 {
			a = 1
		}
		if b > len(s) {
			b = len(s)
		}
		if a > b || a > len(s) {
			return StringValue("")
		}
		return StringValue(s[a-1 : b])
	}
}

// builtinSelect implements $S(cond:value, ...): the value of the first
// pair whose condition is non-zero, or a runtime error if every
// condition is false.
func (in *Interpreter) builtinSelect(ce *CallExpr, ctx context.Context) Value {
	for i := 0; i+1 < len(ce.Args); i += 2 {
		if toBool(in.evalExpr(ce.Args[i].Value, ctx)) {
			return in.evalExpr(ce.Args[i+1].Value, ctx)
		}
	}
	in.runtimeError(ce.Pos, "all select conditions were false")
	return StringValue("")
}

// builtinFind implements $F(hay, needle[, start]): 1-based position just
// past the first match at or after start, 0 if not found. An empty
// needle always matches at position 1, regardless of start.
func (in *Interpreter) builtinFind(ce *CallExpr, ctx context.Context) Value {
	hay := toStr(in.evalExpr(ce.Args[0].Value, ctx))
	needle := toStr(in.evalExpr(ce.Args[1].Value, ctx))
	if needle == "" {
		return NumberValue(1)
	}
	start := 1
	if len(ce.Args) == 3 {
		start = int(toNum(in.evalExpr(ce.Args[2].Value, ctx)))
	}
	if start < 1 {
		start = 1
	}
	if start-1 > len(hay) {
		return NumberValue(0)
	}
	idx := strings.Index(hay[start-1:], needle)
	if idx < 0 {
		return NumberValue(0)
	}
	return NumberValue(float64(start - 1 + idx + len(needle) + 1))
}

// builtinRandom implements $R(n): a uniformly distributed integer in
// [0, n].
func (in *Interpreter) builtinRandom(ce *CallExpr, ctx context.Context) Value {
	n := int(toNum(in.evalExpr(ce.Args[0].Value, ctx)))
	if n < 0 {
		in.runtimeError(ce.Pos, "$random argument must be non-negative")
		return NumberValue(0)
	}
	return NumberValue(float64(in.rng.Intn(n + 1)))
}
