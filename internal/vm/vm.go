package vm

// frame is the transient state of one run: program counter, operand stack and
// the environment the run owns. It lives only for the duration of Interpret;
// nested user-function calls re-enter Interpret with a frame of their own, so
// the host call stack is the call stack.
type frame struct {
	code  []Instruction
	env   *Environment
	stack []Value
	pc    int
}

// Interpret executes the instruction sequence against the environment and
// returns the single value left on the operand stack when the program counter
// walks off the end of the sequence.
//
// Failures come back as *Failure errors: assertion and index failures are
// legitimate outcomes of the program under test, while internal errors mean
// the instruction stream violated a contract the emitter was supposed to
// uphold and should be treated as an upstream bug. Execution is synchronous
// and single-threaded; independent invocations share nothing mutable and may
// run concurrently.
func Interpret(code []Instruction, env *Environment) (Value, error) {
	if len(code) == 0 {
		return Value{}, internalErrorf("empty instruction sequence")
	}
	f := &frame{
		code:  code,
		env:   env,
		stack: make([]Value, 0, 16),
	}
	return f.run()
}

func (f *frame) run() (Value, error) {
	for f.pc < len(f.code) {
		next := f.pc + 1
		in := f.code[f.pc]

		switch in.Op {
		case OP_LITERAL:
			f.push(in.Val)

		case OP_STORE:
			v, err := f.pop()
			if err != nil {
				return Value{}, err
			}
			if err := f.env.Store(in.Slot, v); err != nil {
				return Value{}, err
			}

		case OP_LOAD:
			v, err := f.env.Load(in.Slot)
			if err != nil {
				return Value{}, err
			}
			f.push(v)

		case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_AND, OP_OR, OP_XOR,
			OP_CONCAT, OP_SHLL, OP_SHRL:
			if err := f.binaryOp(in.Op); err != nil {
				return Value{}, err
			}

		case OP_NOT, OP_NEGATE:
			if err := f.unaryOp(in.Op); err != nil {
				return Value{}, err
			}

		case OP_CALL:
			if err := f.call(in.Val); err != nil {
				return Value{}, err
			}

		case OP_JUMP_REL_IF:
			cond, err := f.popBits()
			if err != nil {
				return Value{}, err
			}
			if cond.Width != 1 {
				return Value{}, internalErrorf("jump condition must be width 1, got width %d", cond.Width)
			}
			if cond.Pattern().Sign() != 0 {
				next = f.pc + in.Offset
			}

		case OP_JUMP_REL:
			next = f.pc + in.Offset

		case OP_JUMP_DEST:
			// Label target only.

		default:
			return Value{}, internalErrorf("unknown opcode %d at %d", in.Op, f.pc)
		}

		// Landing exactly one past the last instruction is normal
		// termination; anything else outside the sequence is a bad offset.
		if next < 0 || next > len(f.code) {
			return Value{}, internalErrorf("jump from %d to out-of-range target %d", f.pc, next)
		}
		f.pc = next
	}

	if len(f.stack) != 1 {
		return Value{}, internalErrorf("execution ended with %d values on the stack, expected exactly 1", len(f.stack))
	}
	return f.stack[0], nil
}

func (f *frame) push(v Value) {
	f.stack = append(f.stack, v)
}

func (f *frame) pop() (Value, error) {
	if len(f.stack) == 0 {
		return Value{}, internalErrorf("operand stack underflow at %d (%s)", f.pc, f.code[f.pc].Op.Mnemonic())
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

func (f *frame) popBits() (Value, error) {
	v, err := f.pop()
	if err != nil {
		return Value{}, err
	}
	return v.GetBits()
}
