package mumps

import "context"

// invokeCall dispatches a $$tag(...), $builtin(...), or do-statement
// call. It returns the callee's result value (meaningless for builtins
// invoked as void, and for do-statement calls whose value is discarded
// by the caller) plus the control result the callee produced.
func (in *Interpreter) invokeCall(ce *CallExpr, ctx context.Context) (Value, ctrl) {
	if ce.Kind == CallBuiltin {
		return in.evalBuiltin(ce, ctx), ctrlContinue
	}

	if info, ok := in.top.Tags[ce.Name]; ok {
		return in.invokeTag(info, ce.Args, ctx)
	}
	if fn, ok := in.natives[ce.Name]; ok {
		return in.invokeNative(fn, ce.Args, ctx), ctrlContinue
	}
	in.runtimeError(ce.Pos, "unknown tag %q", ce.Name)
	return StringValue(""), ctrlHalt
}

// invokeTag pushes a fresh frame bound to the call's arguments (by value
// or, for `.name` arguments, by an indirect reference into the nearest
// frame that holds the caller's variable), runs the tag body, and pops
// the frame on return.
func (in *Interpreter) invokeTag(info TagInfo, args []CallArg, ctx context.Context) (Value, ctrl) {
	frame := newEnvironment()
	for i, param := range info.Params {
		if i >= len(args) {
			frame.set(param, StringValue(""))
			continue
		}
		a := args[i]
		if a.Indirect {
			callerFrame := in.env.findFrameForRead(a.Name)
			if callerFrame == nil {
				in.runtimeError(a.Pos, "reference argument to non-existent variable %q", a.Name)
				return StringValue(""), ctrlHalt
			}
			frame.set(param, &IndirectRef{target: envReference(callerFrame, a.Name)})
			continue
		}
		frame.set(param, in.evalExpr(a.Value, ctx))
	}
	in.env.push(frame)
	defer in.env.pop()

	res, val := in.callTagFrom(info.Index, ctx)
	if res == ctrlHalt {
		return val, ctrlHalt
	}
	return val, ctrlContinue
}

func (in *Interpreter) invokeNative(fn NativeFunc, args []CallArg, ctx context.Context) Value {
	nativeArgs := make([]NativeArg, len(args))
	for i, a := range args {
		if a.Indirect {
			callerFrame := in.env.findFrameForRead(a.Name)
			if callerFrame == nil {
				in.runtimeError(a.Pos, "reference argument to non-existent variable %q", a.Name)
				return StringValue("")
			}
			ref := envReference(callerFrame, a.Name)
			nativeArgs[i] = NativeArg{Ref: &ref}
			continue
		}
		nativeArgs[i] = NativeArg{Value: in.evalExpr(a.Value, ctx)}
	}
	result, err := fn(nativeArgs)
	if err != nil {
		in.runtimeError(Position{}, "native function error: %v", err)
		return StringValue("")
	}
	if result == nil {
		return StringValue("")
	}
	return result
}
