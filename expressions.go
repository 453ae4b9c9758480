package mumps

import (
	"context"
	"math"
)

// evalExpr evaluates any expression node to a Value. Chains are the only
// composite form: operators apply strictly left to right with no
// precedence, so evaluation never needs to look ahead past the next
// operator.
func (in *Interpreter) evalExpr(e Expr, ctx context.Context) Value {
	if in.halted {
		return StringValue("")
	}
	switch n := e.(type) {
	case *NumberLit:
		return NumberValue(n.Value)
	case *StringLit:
		return StringValue(n.Value)
	case *VarExpr:
		return in.readVar(n.Ref, ctx)
	case *ParenExpr:
		return in.evalExpr(n.Inner, ctx)
	case *CallNode:
		val, res := in.invokeCall(n.Call, ctx)
		if res == ctrlHalt {
			in.halted = true
		}
		return val
	case *UnaryExpr:
		return in.evalUnary(n, ctx)
	case *Chain:
		return in.evalChain(n, ctx)
	default:
		in.runtimeError(e.exprPos(), "unimplemented expression node")
		return StringValue("")
	}
}

func (in *Interpreter) evalUnary(u *UnaryExpr, ctx context.Context) Value {
	v := in.evalExpr(u.Operand, ctx)
	switch u.Op {
	case KindQuote:
		return boolNum(!toBool(v))
	case KindMinus:
		return NumberValue(-toNum(v))
	case KindPlus:
		return NumberValue(toNum(v))
	}
	return v
}

func (in *Interpreter) evalChain(c *Chain, ctx context.Context) Value {
	v := in.evalExpr(c.First, ctx)
	for _, op := range c.Ops {
		if in.halted {
			return v
		}
		rhs := in.evalExpr(op.Rhs, ctx)
		result := applyBinOp(v, op.Op, rhs, in, op.Pos)
		if op.Negate {
			result = boolNum(!toBool(result))
		}
		v = result
	}
	return v
}

func boolNum(b bool) NumberValue {
	if b {
		return 1
	}
	return 0
}

func applyBinOp(lhs Value, op TokenKind, rhs Value, in *Interpreter, pos Position) Value {
	switch op {
	case KindBang:
		return boolNum(toBool(lhs) || toBool(rhs))
	case KindAmp:
		return boolNum(toBool(lhs) && toBool(rhs))
	case KindEquals:
		return boolNum(toStr(lhs) == toStr(rhs))
	case KindLess:
		return boolNum(toNum(lhs) < toNum(rhs))
	case KindGreater:
		return boolNum(toNum(lhs) > toNum(rhs))
	case KindPlus:
		return NumberValue(toNum(lhs) + toNum(rhs))
	case KindMinus:
		return NumberValue(toNum(lhs) - toNum(rhs))
	case KindStar:
		return NumberValue(toNum(lhs) * toNum(rhs))
	case KindStarStar:
		return NumberValue(math.Pow(toNum(lhs), toNum(rhs)))
	case KindSlash:
		return NumberValue(toNum(lhs) / toNum(rhs))
	case KindBackslash:
		a, b := toNum(lhs), toNum(rhs)
		return NumberValue(math.Floor(a / b))
	case KindHash:
		a, b := toNum(lhs), toNum(rhs)
		return NumberValue(math.Mod(a, b))
	case KindUnderscore:
		return StringValue(toStr(lhs) + toStr(rhs))
	default:
		in.runtimeError(pos, "unimplemented operator")
		return StringValue("")
	}
}
