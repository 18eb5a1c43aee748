package vm

// call dispatches a Call instruction's callee. Arity is intrinsic to the
// callee; that many operands are popped (the last-pushed argument is the
// last parameter). Failures in a builtin or a nested invocation propagate
// immediately and abort the enclosing run.
func (f *frame) call(callee Value) error {
	fn, err := callee.GetFunction()
	if err != nil {
		return err
	}
	if fn.Fn != nil {
		return f.callUserFunction(fn.Fn)
	}
	return f.callBuiltin(fn.Builtin)
}

func (f *frame) popArgs(arity int) ([]Value, error) {
	args := make([]Value, arity)
	for i := arity - 1; i >= 0; i-- {
		v, err := f.pop()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// callUserFunction re-enters the interpreter with a fresh environment for the
// callee, arguments stored in its leading slots.
func (f *frame) callUserFunction(fn *UserFunction) error {
	if fn.SlotCount < fn.Arity {
		return internalErrorf("function %s declares %d slots for %d parameters",
			fn.Name, fn.SlotCount, fn.Arity)
	}
	args, err := f.popArgs(fn.Arity)
	if err != nil {
		return err
	}
	env := NewEnvironment(fn.SlotCount)
	for i, arg := range args {
		if err := env.Store(i, arg); err != nil {
			return err
		}
	}
	result, err := Interpret(fn.Code, env)
	if err != nil {
		return err
	}
	f.push(result)
	return nil
}
